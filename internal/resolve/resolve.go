// Package resolve turns version requests into concrete feed versions.
// Resolution is a pure function of the feed snapshot and the request; it
// never looks at what is installed.
package resolve

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/conn-castle/m/internal/failure"
	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/feed"
	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/version"
)

// Resolver answers what latest, stable, and series requests mean for a family.
type Resolver struct {
	Source feed.Source
	// Classify supplies the channel predicate per family; nil uses feed.DefaultClassifier.
	Classify func(family.Family) feed.Classifier
	Log      *log.Logger
}

// New returns a Resolver over src.
func New(src feed.Source, logger *log.Logger) *Resolver {
	return &Resolver{Source: src, Log: logger}
}

type candidate struct {
	version version.Version
	release feed.Release
}

// Resolve maps req to one version present in the family's feed.
func (r *Resolver) Resolve(ctx context.Context, f family.Family, req version.Request) (version.Version, error) {
	c, err := r.resolve(ctx, f, req)
	if err != nil {
		return version.Version{}, err
	}
	return c.version, nil
}

// Release resolves req and also returns the feed entry it came from.
func (r *Resolver) Release(ctx context.Context, f family.Family, req version.Request) (version.Version, feed.Release, error) {
	c, err := r.resolve(ctx, f, req)
	if err != nil {
		return version.Version{}, feed.Release{}, err
	}
	return c.version, c.release, nil
}

// Available lists the feed's versions ascending, limited to series when it is non-empty.
func (r *Resolver) Available(ctx context.Context, f family.Family, series string) ([]version.Version, error) {
	candidates, err := r.candidates(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]version.Version, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.version)
	}
	if series != "" {
		prefix, err := version.Parse(series)
		if err != nil {
			return nil, fmt.Errorf(messages.VersionRequestNotFoundFmt, failure.ErrVersionNotFound, series)
		}
		out = version.WithinSeries(out, prefix)
	}
	version.Sort(out)
	return out, nil
}

func (r *Resolver) resolve(ctx context.Context, f family.Family, req version.Request) (candidate, error) {
	candidates, err := r.candidates(ctx, f)
	if err != nil {
		return candidate{}, err
	}

	switch req.Kind {
	case version.KindExact:
		for _, c := range candidates {
			if c.version.Equal(req.Target) {
				return c, nil
			}
		}
		return candidate{}, fmt.Errorf(messages.ResolveNotFoundFmt, failure.ErrVersionNotFound, f.Display(), req)
	case version.KindSeries:
		if best, ok := maxOf(within(candidates, req.Target)); ok {
			return best, nil
		}
		return candidate{}, fmt.Errorf(messages.ResolveNotFoundFmt, failure.ErrVersionNotFound, f.Display(), req)
	case version.KindLatest:
		pool := candidates
		if req.Scoped {
			pool = within(pool, req.Target)
		}
		if best, ok := maxOf(pool); ok {
			return best, nil
		}
		return candidate{}, fmt.Errorf(messages.ResolveNotFoundFmt, failure.ErrVersionNotFound, f.Display(), req)
	default:
		classify := r.classifier(f)
		pool := make([]candidate, 0, len(candidates))
		for _, c := range candidates {
			if classify(c.release, c.version) == version.ChannelStable {
				pool = append(pool, c)
			}
		}
		scope := messages.ResolveNoStableAny
		if req.Scoped {
			pool = within(pool, req.Target)
			scope = req.Target.Raw
		}
		if best, ok := maxOf(pool); ok {
			return best, nil
		}
		return candidate{}, fmt.Errorf(messages.ResolveNoStableFmt, failure.ErrNoStableVersion, f.Display(), scope)
	}
}

// candidates parses the snapshot, dropping malformed and duplicate entries.
func (r *Resolver) candidates(ctx context.Context, f family.Family) ([]candidate, error) {
	snap, err := r.Source.Fetch(ctx, f)
	if err != nil {
		return nil, fmt.Errorf(messages.ResolveFeedFailedFmt, f, err)
	}
	seen := make(map[string]bool, len(snap.Releases))
	out := make([]candidate, 0, len(snap.Releases))
	for _, rel := range snap.Releases {
		v, err := version.Parse(rel.Version)
		if err != nil || !v.IsFull() {
			if r.Log != nil {
				r.Log.Debug(messages.ResolveDroppedEntry, "family", f, "raw", rel.Version)
			}
			continue
		}
		if seen[v.Raw] {
			continue
		}
		seen[v.Raw] = true
		out = append(out, candidate{version: v, release: rel})
	}
	return out, nil
}

func (r *Resolver) classifier(f family.Family) feed.Classifier {
	if r.Classify != nil {
		return r.Classify(f)
	}
	return feed.DefaultClassifier(f)
}

func within(cs []candidate, prefix version.Version) []candidate {
	out := make([]candidate, 0, len(cs))
	for _, c := range cs {
		if c.version.Matches(prefix) {
			out = append(out, c)
		}
	}
	return out
}

func maxOf(cs []candidate) (candidate, bool) {
	if len(cs) == 0 {
		return candidate{}, false
	}
	best := cs[0]
	for _, c := range cs[1:] {
		if version.Compare(c.version, best.version) > 0 {
			best = c
		}
	}
	return best, true
}
