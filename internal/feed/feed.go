// Package feed fetches the release feeds each artifact family is published on.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/version"
)

// Release is one feed entry. URL is the archive for the detected host and is
// empty when the feed lists the version without a matching download.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url,omitempty"`
	// Stable carries the feed's own channel flag when it publishes one.
	Stable *bool `json:"stable,omitempty"`
}

// Snapshot is a point-in-time view of one family's feed.
type Snapshot struct {
	Family    family.Family `json:"-"`
	Target    string        `json:"target"`
	Releases  []Release     `json:"releases"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Source supplies feed snapshots.
type Source interface {
	Fetch(ctx context.Context, f family.Family) (Snapshot, error)
}

// Memo fetches each family at most once per process.
type Memo struct {
	Source Source

	mu    sync.Mutex
	snaps map[family.Family]Snapshot
}

// NewMemo wraps src.
func NewMemo(src Source) *Memo {
	return &Memo{Source: src, snaps: make(map[family.Family]Snapshot)}
}

// Fetch returns the memoized snapshot, fetching on first use. Failures are not memoized.
func (m *Memo) Fetch(ctx context.Context, f family.Family) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap, ok := m.snaps[f]; ok {
		return snap, nil
	}
	snap, err := m.Source.Fetch(ctx, f)
	if err != nil {
		return Snapshot{}, err
	}
	m.snaps[f] = snap
	return snap, nil
}

// SourceURL is the source tarball for a server version.
func SourceURL(base string, v version.Version) string {
	return fmt.Sprintf(messages.FeedSourceURLFmt, base, v.Raw)
}
