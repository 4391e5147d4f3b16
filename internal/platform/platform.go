// Package platform maps the host to the build targets MongoDB publishes.
package platform

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/conn-castle/m/internal/messages"
)

const osReleasePath = "/etc/os-release"

var readFile = os.ReadFile

// Target identifies which published archive fits the host.
type Target struct {
	// OS and Arch use Go's naming (linux/darwin, amd64/arm64).
	OS   string
	Arch string
	// Distro is the server build target, e.g. ubuntu2204, rhel90, macos.
	Distro string
}

// Detect inspects the running host. distroOverride and archOverride take
// precedence when non-empty (M_TARGET / M_ARCH).
func Detect(distroOverride string, archOverride string) (Target, error) {
	return detect(runtime.GOOS, runtime.GOARCH, distroOverride, archOverride)
}

func detect(goos string, goarch string, distroOverride string, archOverride string) (Target, error) {
	arch := goarch
	if archOverride != "" {
		arch = normalizeArch(archOverride)
	}
	switch arch {
	case "amd64", "arm64":
	default:
		return Target{}, fmt.Errorf(messages.PlatformUnsupportedArchFmt, arch)
	}

	t := Target{OS: goos, Arch: arch, Distro: distroOverride}
	switch goos {
	case "darwin":
		if t.Distro == "" {
			t.Distro = "macos"
		}
		return t, nil
	case "linux":
		if t.Distro != "" {
			return t, nil
		}
		data, err := readFile(osReleasePath)
		if err != nil {
			return Target{}, fmt.Errorf(messages.PlatformReadOSReleaseFmt, osReleasePath, err)
		}
		fields, err := parseOSRelease(string(data))
		if err != nil {
			return Target{}, fmt.Errorf(messages.PlatformReadOSReleaseFmt, osReleasePath, err)
		}
		distro, err := distroTarget(fields["ID"], fields["VERSION_ID"], fields["ID_LIKE"])
		if err != nil {
			return Target{}, err
		}
		t.Distro = distro
		return t, nil
	default:
		return Target{}, fmt.Errorf(messages.PlatformUnsupportedOSFmt, goos)
	}
}

func normalizeArch(raw string) string {
	switch strings.ToLower(raw) {
	case "x86_64", "x64", "amd64":
		return "amd64"
	case "aarch64", "arm64":
		return "arm64"
	default:
		return strings.ToLower(raw)
	}
}

// distroTarget maps os-release ID/VERSION_ID to the server download target.
func distroTarget(id string, versionID string, idLike string) (string, error) {
	major, _, _ := strings.Cut(versionID, ".")
	switch id {
	case "ubuntu":
		return "ubuntu" + strings.ReplaceAll(versionID, ".", ""), nil
	case "debian":
		return "debian" + major, nil
	case "rhel", "centos", "rocky", "almalinux", "ol":
		return "rhel" + major + "0", nil
	case "amzn":
		return "amazon" + major, nil
	case "sles", "opensuse-leap":
		return "suse" + major, nil
	}
	for _, like := range strings.Fields(idLike) {
		if like == "rhel" || like == "fedora" {
			return "rhel" + major + "0", nil
		}
	}
	return "", fmt.Errorf(messages.PlatformUnknownDistroFmt, id, versionID)
}

// ServerArch is the arch label used by the server and tools feeds.
func (t Target) ServerArch() string {
	if t.Arch == "amd64" {
		return "x86_64"
	}
	if t.OS == "darwin" {
		return "arm64"
	}
	return "aarch64"
}

// ArchAliases lists every label a feed may use for the host arch.
func (t Target) ArchAliases() []string {
	if t.Arch == "amd64" {
		return []string{"x86_64", "amd64", "x64"}
	}
	return []string{"arm64", "aarch64"}
}

// ShellPlatform returns the os, arch, and archive extension used in mongosh download names.
func (t Target) ShellPlatform() (string, string, string) {
	arch := "x64"
	if t.Arch == "arm64" {
		arch = "arm64"
	}
	if t.OS == "darwin" {
		return "darwin", arch, "zip"
	}
	return "linux", arch, "tgz"
}
