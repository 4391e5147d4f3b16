package main

// Tests in this file mutate package-level seams (execFunc, detectPlatform,
// isInteractive). Do not use t.Parallel().

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/m/internal/dispatch"
	"github.com/conn-castle/m/internal/platform"
	"github.com/conn-castle/m/internal/testutil"
)

const serverFeed = `{"versions":[
 {"version":"7.1.0","production_release":false,"downloads":[
   {"target":"ubuntu2204","arch":"x86_64","edition":"targeted","archive":{"url":"%[1]s/dl/mongodb-7.1.0.tgz"}}]},
 {"version":"7.0.1","production_release":true,"downloads":[
   {"target":"ubuntu2204","arch":"x86_64","edition":"targeted","archive":{"url":"%[1]s/dl/mongodb-7.0.1.tgz"}}]},
 {"version":"4.4.29","production_release":true,"downloads":[
   {"target":"ubuntu2204","arch":"x86_64","edition":"targeted","archive":{"url":"%[1]s/dl/mongodb-4.4.29.tgz"}}]}
]}`

type cliEnv struct {
	prefix string
	feed   *httptest.Server
}

// newCLIEnv points every M_* setting at a temp prefix and a local feed that
// serves server archives.
func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	archive := testutil.ServerArchive(t, "mongodb-linux-x86_64-ubuntu2204", "mongod", "mongos", "mongo")
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/full.json":
			_, _ = fmt.Fprintf(w, serverFeed, srv.URL)
		case strings.HasPrefix(r.URL.Path, "/dl/"):
			_, _ = w.Write(archive)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	prefix := t.TempDir()
	t.Setenv("M_PREFIX", prefix)
	t.Setenv("M_CACHE", "0")
	t.Setenv("M_CONFIRM", "0")
	t.Setenv("M_DEBUG", "0")
	t.Setenv("M_TARGET", "ubuntu2204")
	t.Setenv("M_ARCH", "x86_64")
	t.Setenv("M_SERVER_FEED_URL", srv.URL+"/full.json")
	t.Setenv("M_TOOLS_FEED_URL", srv.URL+"/tools.json")
	t.Setenv("M_SOURCE_URL", "https://fastdl.example/src")
	return &cliEnv{prefix: prefix, feed: srv}
}

// run executes the CLI the way main does and returns stdout and the exit code.
func run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := 0
	runMain(append([]string{"m"}, args...), &stdout, &stderr, func(c int) { code = c })
	return stdout.String(), code
}

type execCall struct {
	path string
	args []string
}

func stubExec(t *testing.T) *[]execCall {
	t.Helper()
	orig := execFunc
	calls := &[]execCall{}
	execFunc = func(path string, args []string, exit func(int)) error {
		*calls = append(*calls, execCall{path: path, args: args})
		return dispatch.ErrDispatched
	}
	t.Cleanup(func() { execFunc = orig })
	return calls
}

func TestNoInstalledVersions(t *testing.T) {
	newCLIEnv(t)
	for _, args := range [][]string{nil, {"installed"}, {"lls"}, {"tools", "installed"}, {"mongosh"}} {
		out, code := run(t, args...)
		assert.Equal(t, 0, code, args)
		assert.Equal(t, "No installed versions\n", out, args)
	}
}

func TestInstalledJSONEmpty(t *testing.T) {
	newCLIEnv(t)
	out, code := run(t, "installed", "--json")
	assert.Equal(t, 0, code)
	assert.Equal(t, "[]\n", out)
}

func TestVersionRequired(t *testing.T) {
	newCLIEnv(t)
	for _, args := range [][]string{{"use"}, {"shard"}, {"shell"}, {"s"}, {"bin"}, {"src"}, {"rm"}, {"reinstall"}, {"activate"}, {"tools", "rm"}} {
		out, code := run(t, args...)
		assert.Equal(t, 1, code, args)
		assert.Contains(t, out, "version required", args)
		assert.Equal(t, 1, strings.Count(out, "\n"), "one line for %v", args)
	}
}

func TestInstallRejectsExtraArgument(t *testing.T) {
	env := newCLIEnv(t)
	out, code := run(t, "7.0.1", "7.1.0")
	assert.Equal(t, 1, code)
	assert.Equal(t, "unexpected argument \"7.1.0\" after 7.0.1\n", out)
	assert.NoDirExists(t, filepath.Join(env.prefix, "server", "versions"))
}

func TestNotInstalled(t *testing.T) {
	newCLIEnv(t)
	stubExec(t)
	for _, args := range [][]string{{"bin", "7.0.0"}, {"which", "7.0.0"}, {"use", "7.0.0"}, {"shell", "7.0.0"}, {"mongo", "7.0.0"}, {"activate", "7.0.0"}} {
		out, code := run(t, args...)
		assert.Equal(t, 1, code, args)
		assert.Contains(t, out, "not installed", args)
	}
}

func TestLatestAndStableFlags(t *testing.T) {
	newCLIEnv(t)

	out, code := run(t, "--latest")
	assert.Equal(t, 0, code)
	assert.Equal(t, "7.1.0\n", out)

	out, code = run(t, "--stable")
	assert.Equal(t, 0, code)
	assert.Equal(t, "7.0.1\n", out)

	out, code = run(t, "--latest", "4.4")
	assert.Equal(t, 0, code)
	assert.Equal(t, "4.4.29\n", out)
}

func TestUnknownVersion(t *testing.T) {
	newCLIEnv(t)
	out, code := run(t, "9.9.9")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "version not found")

	out, code = run(t, "banana")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "version not found")
}

func TestSrc(t *testing.T) {
	newCLIEnv(t)
	out, code := run(t, "src", "7.0.0")
	assert.Equal(t, 0, code)
	assert.Equal(t, "https://fastdl.example/src/mongodb-src-r7.0.0.tar.gz\n", out)

	out, code = run(t, "src", "stable")
	assert.Equal(t, 0, code)
	assert.Equal(t, "https://fastdl.example/src/mongodb-src-r7.0.1.tar.gz\n", out)
}

func TestInstallLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	calls := stubExec(t)

	out, code := run(t, "7.0.1")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Installing: MongoDB Server 7.0.1")
	assert.Contains(t, out, "Activating: MongoDB Server 7.0.1")
	assert.Contains(t, out, "Installation complete: MongoDB Server 7.0.1")

	out, code = run(t, "7.0.1")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Already Active: MongoDB Server 7.0.1\n", out)

	out, _ = run(t)
	assert.Contains(t, out, "7.0.1")
	assert.Contains(t, out, "✔")

	out, code = run(t, "installed", "--json")
	require.Equal(t, 0, code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "7.0.1", items[0]["name"])
	assert.Equal(t, true, items[0]["active"])

	out, code = run(t, "ls", "7.0")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "7.0.1")
	assert.NotContains(t, out, "7.1.0")

	binDir := filepath.Join(env.prefix, "server", "versions", "7.0.1", "bin")
	out, code = run(t, "bin", "7.0.1")
	assert.Equal(t, 0, code)
	assert.Equal(t, binDir+"\n", out)

	out, code = run(t, "use", "7.0", "--port", "27018", "--", "--quiet")
	assert.Equal(t, 0, code, out)
	out, code = run(t, "shard", "latest")
	assert.Equal(t, 0, code, out)
	require.Len(t, *calls, 2)
	assert.Equal(t, filepath.Join(binDir, "mongod"), (*calls)[0].path)
	assert.Equal(t, []string{"--port", "27018", "--quiet"}, (*calls)[0].args)
	assert.Equal(t, filepath.Join(binDir, "mongos"), (*calls)[1].path)
	assert.Empty(t, (*calls)[1].args)

	out, code = run(t, "reinstall", "7.0.1")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Removed MongoDB version 7.0.1")
	assert.Contains(t, out, "Activating: MongoDB Server 7.0.1")

	out, code = run(t, "rm", "7.0.1")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Removed MongoDB version 7.0.1\n", out)

	out, code = run(t, "uninstall", "7.0.1")
	assert.Equal(t, 0, code)
	assert.Equal(t, "MongoDB version 7.0.1 is not installed\n", out)

	out, _ = run(t, "installed", "--json")
	assert.Equal(t, "[]\n", out)
}

func TestShellFallsBackToBundledLegacyShell(t *testing.T) {
	env := newCLIEnv(t)
	calls := stubExec(t)

	out, code := run(t, "4.4.29")
	require.Equal(t, 0, code, out)

	out, code = run(t, "s", "4.4.29", "--eval", "1")
	require.Equal(t, 0, code, out)
	require.Len(t, *calls, 1)
	assert.Equal(t, filepath.Join(env.prefix, "server", "versions", "4.4.29", "bin", "mongo"), (*calls)[0].path)
	assert.Equal(t, []string{"--eval", "1"}, (*calls)[0].args)
}

func TestActivateSwitchesBetweenInstalledVersions(t *testing.T) {
	env := newCLIEnv(t)

	_, code := run(t, "7.0.1")
	require.Equal(t, 0, code)
	_, code = run(t, "4.4.29")
	require.Equal(t, 0, code)

	out, code := run(t, "activate", "7.0")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Activating: MongoDB Server 7.0.1\n", out)

	target, err := os.Readlink(filepath.Join(env.prefix, "server", "active"))
	require.NoError(t, err)
	assert.Equal(t, "7.0.1", filepath.Base(target))
}

func TestHookCommands(t *testing.T) {
	newCLIEnv(t)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hooks.log")
	pre := testutil.WriteRecorderStub(t, dir, "pre-change", logPath, 0)
	post := testutil.WriteRecorderStub(t, dir, "post-install", logPath, 0)

	out, code := run(t, "pre", "change")
	assert.Equal(t, 0, code)
	assert.Equal(t, "No hooks registered\n", out)

	out, code = run(t, "pre", "change", pre)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Added pre hook change: "+pre+"\n", out)

	out, code = run(t, "pre", "change", pre)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "already registered")

	_, code = run(t, "post", "install", post)
	require.Equal(t, 0, code)

	out, code = run(t, "pre", "change")
	assert.Equal(t, 0, code)
	assert.Equal(t, pre+"\n", out)

	_, code = run(t, "7.0.1")
	require.Equal(t, 0, code)
	assert.Equal(t, []string{
		"pre-change pre change server 7.0.1 7.0.1",
		"post-install post install server 7.0.1 7.0.1",
	}, testutil.ReadLines(t, logPath))

	out, code = run(t, "pre", "change", "rm", pre)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Removed pre hook change: "+pre+"\n", out)

	out, code = run(t, "pre", "change", "rm", pre)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "was not registered")
}

func TestHookValidation(t *testing.T) {
	newCLIEnv(t)
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.sh")
	require.NoError(t, os.WriteFile(plain, []byte("#!/bin/sh\n"), 0o644))

	out, code := run(t, "pre", "install", "relative/hook.sh")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "not an absolute path")

	out, code = run(t, "post", "change", plain)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "not an executable file")

	out, code = run(t, "pre", "upgrade")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "invalid hook event")

	out, code = run(t, "pre")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "invalid hook event")

	out, code = run(t, "pre", "install", "rm")
	assert.Equal(t, 1, code)
	assert.Equal(t, "hook path required\n", out)
}

func TestPlatformFailureOnlyAffectsFeedCommands(t *testing.T) {
	newCLIEnv(t)
	orig := detectPlatform
	detectPlatform = func(string, string) (platform.Target, error) {
		return platform.Target{}, errors.New("unsupported distro: plan9")
	}
	t.Cleanup(func() { detectPlatform = orig })

	out, code := run(t, "installed")
	assert.Equal(t, 0, code)
	assert.Equal(t, "No installed versions\n", out)

	out, code = run(t, "ls")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "unsupported distro: plan9")
}

func TestConfirmDeclinedAbortsInstall(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("M_CONFIRM", "1")
	origInteractive, origConfirm := isInteractive, confirm
	isInteractive = func() bool { return true }
	prompts := []string{}
	confirm = func(title string) (bool, error) {
		prompts = append(prompts, title)
		return false, nil
	}
	t.Cleanup(func() { isInteractive, confirm = origInteractive, origConfirm })

	out, code := run(t, "7.0.1")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Aborted: MongoDB Server 7.0.1\n", out)
	assert.Equal(t, []string{"Download and install MongoDB Server 7.0.1?"}, prompts)
	_, err := os.Stat(filepath.Join(env.prefix, "server", "versions", "7.0.1"))
	assert.True(t, os.IsNotExist(err))
}

func TestStripArgsSeparator(t *testing.T) {
	assert.Equal(t, []string{"--port", "1", "--quiet"}, stripArgsSeparator([]string{"--port", "1", "--", "--quiet"}))
	assert.Equal(t, []string{}, stripArgsSeparator(nil))
	assert.Equal(t, "", firstArg(nil))
}
