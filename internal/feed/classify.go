package feed

import (
	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/version"
)

// Classifier assigns a release to a channel.
type Classifier func(r Release, v version.Version) version.Channel

// DefaultClassifier trusts the feed's own flag and otherwise applies the
// family's numbering convention.
func DefaultClassifier(f family.Family) Classifier {
	convention := conventionFor(f)
	return func(r Release, v version.Version) version.Channel {
		if r.Stable != nil {
			if *r.Stable {
				return version.ChannelStable
			}
			return version.ChannelDevelopment
		}
		return convention(v)
	}
}

func conventionFor(f family.Family) func(version.Version) version.Channel {
	switch f {
	case family.Server, family.LegacyShell:
		return serverConvention
	default:
		return func(version.Version) version.Channel { return version.ChannelStable }
	}
}

// serverConvention: from 5.0 on, X.0 is the annual stable line and X.1+ are
// rapid releases. Before 5.0 odd minors were development releases.
func serverConvention(v version.Version) version.Channel {
	if v.Major >= 5 {
		if v.Minor == 0 {
			return version.ChannelStable
		}
		return version.ChannelDevelopment
	}
	if v.Minor%2 == 0 {
		return version.ChannelStable
	}
	return version.ChannelDevelopment
}
