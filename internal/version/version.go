// Package version parses and orders MongoDB release identifiers.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/conn-castle/m/internal/messages"
)

// ErrMalformed is returned for identifiers that are not numeric X[.Y[.Z]].
var ErrMalformed = errors.New(messages.VersionMalformed)

// Precision records how many components an identifier pinned.
// Components beyond the precision are wildcards, not zero.
type Precision int

// Precision values.
const (
	PrecisionMajor Precision = 1
	PrecisionMinor Precision = 2
	PrecisionPatch Precision = 3
)

// Channel classifies a release as stable or development.
type Channel int

// Channel values.
const (
	ChannelStable Channel = iota
	ChannelDevelopment
)

func (c Channel) String() string {
	if c == ChannelStable {
		return "stable"
	}
	return "development"
}

// Version is an immutable parsed release identifier.
type Version struct {
	Raw       string
	Major     int
	Minor     int
	Patch     int
	Precision Precision

	sv *semver.Version
}

// Parse parses raw as X, X.Y, or X.Y.Z with an optional leading "v".
// Pre-release and build suffixes are rejected rather than coerced.
func Parse(raw string) (Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	parts := strings.Split(trimmed, ".")
	if trimmed == "" || len(parts) > 3 {
		return Version{}, fmt.Errorf(messages.VersionMalformedFmt, raw, ErrMalformed)
	}

	nums := [3]int{}
	for i, part := range parts {
		if part == "" || strings.Trim(part, "0123456789") != "" || (len(part) > 1 && part[0] == '0') {
			return Version{}, fmt.Errorf(messages.VersionMalformedFmt, raw, ErrMalformed)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf(messages.VersionMalformedFmt, raw, ErrMalformed)
		}
		nums[i] = n
	}

	normalized := make([]string, len(parts))
	for i := range parts {
		normalized[i] = strconv.Itoa(nums[i])
	}
	v := Version{
		Raw:       strings.Join(normalized, "."),
		Major:     nums[0],
		Minor:     nums[1],
		Patch:     nums[2],
		Precision: Precision(len(parts)),
	}
	if v.Precision == PrecisionPatch {
		sv, err := semver.StrictNewVersion(v.Raw)
		if err != nil {
			return Version{}, fmt.Errorf(messages.VersionMalformedFmt, raw, errors.Join(ErrMalformed, err))
		}
		v.sv = sv
	}
	return v, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(raw string) Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// IsFull reports whether all three components are pinned.
func (v Version) IsFull() bool {
	return v.Precision == PrecisionPatch
}

// String returns the normalized identifier.
func (v Version) String() string {
	return v.Raw
}

// Equal reports whether v and other parse to identical triples.
func (v Version) Equal(other Version) bool {
	return v.Precision == other.Precision && Compare(v, other) == 0
}

// Matches reports whether the full version v falls inside prefix.
// A full prefix only matches itself.
func (v Version) Matches(prefix Version) bool {
	if !v.IsFull() {
		return false
	}
	constraint, err := prefix.constraint()
	if err != nil {
		return false
	}
	return constraint.Check(v.sv)
}

func (v Version) constraint() (*semver.Constraints, error) {
	switch v.Precision {
	case PrecisionMajor:
		return semver.NewConstraint(fmt.Sprintf("%d.x", v.Major))
	case PrecisionMinor:
		return semver.NewConstraint(fmt.Sprintf("%d.%d.x", v.Major, v.Minor))
	default:
		return semver.NewConstraint("=" + v.Raw)
	}
}

// Compare returns -1, 0, or 1 ordering a and b by major, minor, then patch.
func Compare(a Version, b Version) int {
	if a.sv != nil && b.sv != nil {
		return a.sv.Compare(b.sv)
	}
	for _, pair := range [][2]int{{a.Major, b.Major}, {a.Minor, b.Minor}, {a.Patch, b.Patch}} {
		if pair[0] < pair[1] {
			return -1
		}
		if pair[0] > pair[1] {
			return 1
		}
	}
	return 0
}
