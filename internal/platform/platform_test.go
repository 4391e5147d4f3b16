package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withOSRelease(t *testing.T, content string, err error) {
	t.Helper()
	orig := readFile
	t.Cleanup(func() { readFile = orig })
	readFile = func(string) ([]byte, error) { return []byte(content), err }
}

func TestDetect_LinuxDistros(t *testing.T) {
	cases := []struct {
		content string
		want    string
	}{
		{"NAME=\"Ubuntu\"\nID=ubuntu\nVERSION_ID=\"22.04\"\n", "ubuntu2204"},
		{"ID=debian\nVERSION_ID=\"12\"\n", "debian12"},
		{"ID=\"rocky\"\nVERSION_ID=\"9.3\"\n", "rhel90"},
		{"ID=\"amzn\"\nVERSION_ID=\"2023\"\n", "amazon2023"},
		{"# comment\n\nID='fedora-like'\nID_LIKE=\"rhel centos fedora\"\nVERSION_ID=8.6\n", "rhel80"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			withOSRelease(t, tc.content, nil)
			got, err := detect("linux", "amd64", "", "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Distro)
			assert.Equal(t, "x86_64", got.ServerArch())
		})
	}
}

func TestDetect_Overrides(t *testing.T) {
	withOSRelease(t, "", errors.New("must not be read"))
	got, err := detect("linux", "amd64", "ubuntu2004", "aarch64")
	require.NoError(t, err)
	assert.Equal(t, "ubuntu2004", got.Distro)
	assert.Equal(t, "arm64", got.Arch)
	assert.Equal(t, "aarch64", got.ServerArch())
}

func TestDetect_Darwin(t *testing.T) {
	got, err := detect("darwin", "arm64", "", "")
	require.NoError(t, err)
	assert.Equal(t, "macos", got.Distro)
	assert.Equal(t, "arm64", got.ServerArch())
	osName, arch, ext := got.ShellPlatform()
	assert.Equal(t, "darwin", osName)
	assert.Equal(t, "arm64", arch)
	assert.Equal(t, "zip", ext)
}

func TestDetect_Errors(t *testing.T) {
	_, err := detect("windows", "amd64", "", "")
	assert.ErrorContains(t, err, "unsupported OS")

	_, err = detect("linux", "386", "", "")
	assert.ErrorContains(t, err, "unsupported architecture")

	withOSRelease(t, "ID=gentoo\n", nil)
	_, err = detect("linux", "amd64", "", "")
	assert.ErrorContains(t, err, "set M_TARGET")

	withOSRelease(t, "", errors.New("no file"))
	_, err = detect("linux", "amd64", "", "")
	assert.ErrorContains(t, err, "no file")

	withOSRelease(t, "ID=\"ubuntu\nVERSION_ID=1\n", nil)
	_, err = detect("linux", "amd64", "", "")
	assert.ErrorContains(t, err, "unterminated quoted value")

	withOSRelease(t, "garbage\n", nil)
	_, err = detect("linux", "amd64", "", "")
	assert.ErrorContains(t, err, "expected KEY=VALUE")
}

func TestShellPlatformLinux(t *testing.T) {
	osName, arch, ext := Target{OS: "linux", Arch: "amd64"}.ShellPlatform()
	assert.Equal(t, []string{"linux", "x64", "tgz"}, []string{osName, arch, ext})
	assert.Equal(t, []string{"arm64", "aarch64"}, Target{OS: "linux", Arch: "arm64"}.ArchAliases())
}
