package dispatch

import "os"

// System abstracts the OS operations a hand-off needs.
type System interface {
	Environ() []string
	ExecBinary(path string, args []string, env []string, exit func(int)) error
}

// RealSystem implements System using the OS.
type RealSystem struct{}

// Environ returns a copy of strings representing the environment.
func (RealSystem) Environ() []string {
	return os.Environ()
}

// ExecBinary replaces the current process with the provided binary.
func (RealSystem) ExecBinary(path string, args []string, env []string, exit func(int)) error {
	return execBinary(path, args, env, exit)
}
