package dispatch

import (
	"errors"
	"testing"
)

func TestExecBinary_DelegatesToSyscallExec(t *testing.T) {
	original := syscallExec
	t.Cleanup(func() { syscallExec = original })

	wantErr := errors.New("exec failed")
	called := false
	syscallExec = func(path string, args []string, env []string) error {
		called = true
		if path != "/bin/mongod" {
			t.Fatalf("expected path /bin/mongod, got %q", path)
		}
		if len(args) != 2 || args[0] != "/bin/mongod" || args[1] != "--port" {
			t.Fatalf("unexpected args: %#v", args)
		}
		if len(env) != 1 || env[0] != "KEY=VALUE" {
			t.Fatalf("unexpected env: %#v", env)
		}
		return wantErr
	}

	err := RealSystem{}.ExecBinary("/bin/mongod", []string{"/bin/mongod", "--port"}, []string{"KEY=VALUE"}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if !called {
		t.Fatal("expected syscallExec to be called")
	}
}
