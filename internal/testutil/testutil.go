// Package testutil holds helpers shared by package tests: executable shell
// stubs standing in for hooks and MongoDB binaries, and archive builders
// standing in for release downloads.
package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// WriteStub writes an executable shell stub that exits successfully and returns its path.
func WriteStub(t *testing.T, dir string, name string) string {
	t.Helper()
	return WriteStubWithExit(t, dir, name, 0)
}

// WriteStubWithExit writes an executable shell stub that exits with the provided code.
func WriteStubWithExit(t *testing.T, dir string, name string, exitCode int) string {
	t.Helper()
	return writeScript(t, dir, name, fmt.Sprintf("#!/bin/sh\nexit %d\n", exitCode))
}

// WriteRecorderStub writes a stub that appends one line per run to logPath:
// its name, the hook environment, and its arguments. It then exits with exitCode.
func WriteRecorderStub(t *testing.T, dir string, name string, logPath string, exitCode int) string {
	t.Helper()
	script := fmt.Sprintf("#!/bin/sh\necho \"%s $M_HOOK_EVENT $M_HOOK_PHASE $M_HOOK_FAMILY $M_HOOK_VERSION $*\" >> %q\nexit %d\n", name, logPath, exitCode)
	return writeScript(t, dir, name, script)
}

// ReadLines returns the non-empty lines of path, or nil when it does not exist.
func ReadLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read %s: %v", path, err)
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

func writeScript(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

// Entry is one file in a generated archive. Mode defaults to 0644.
type Entry struct {
	Body string
	Mode int64
}

// TarGz builds a gzip-compressed tarball holding files keyed by slash path.
func TarGz(t *testing.T, files map[string]Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range sortedKeys(files) {
		entry := files[name]
		mode := entry.Mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &tar.Header{Name: name, Mode: mode, Size: int64(len(entry.Body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write tar header: %v", err)
		}
		if _, err := tw.Write([]byte(entry.Body)); err != nil {
			t.Fatalf("write tar body: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// Zip builds a zip archive holding files keyed by slash path.
func Zip(t *testing.T, files map[string]Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range sortedKeys(files) {
		entry := files[name]
		mode := entry.Mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		hdr.SetMode(os.FileMode(mode))
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(entry.Body)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// ServerArchive returns a tarball shaped like a MongoDB download: one
// top-level directory holding bin/ with the given executables.
func ServerArchive(t *testing.T, top string, binaries ...string) []byte {
	t.Helper()
	files := make(map[string]Entry, len(binaries)+1)
	files[top+"/LICENSE"] = Entry{Body: "license"}
	for _, bin := range binaries {
		files[top+"/bin/"+bin] = Entry{Body: "#!/bin/sh\necho " + bin + " \"$@\"\n", Mode: 0o755}
	}
	return TarGz(t, files)
}

func sortedKeys(files map[string]Entry) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
