package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/fsutil"
	"github.com/conn-castle/m/internal/messages"
)

// Cached keeps snapshots on disk for TTL so repeated invocations skip the network.
type Cached struct {
	Source Source
	Dir    string
	TTL    time.Duration
	// Target must match the snapshot's target for a cache hit.
	Target string
	Log    *log.Logger
	Now    func() time.Time
}

// Fetch implements Source. Cache read and write problems are logged and
// fall through to the upstream source.
func (c *Cached) Fetch(ctx context.Context, f family.Family) (Snapshot, error) {
	path := c.path(f)
	if snap, ok := c.read(path, f); ok {
		return snap, nil
	}
	snap, err := c.Source.Fetch(ctx, f)
	if err != nil {
		return Snapshot{}, err
	}
	if err := c.write(path, snap); err != nil {
		c.debug(err.Error(), "path", path)
	}
	return snap, nil
}

func (c *Cached) path(f family.Family) string {
	return filepath.Join(c.Dir, f.String()+".json")
}

func (c *Cached) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cached) read(path string, f family.Family) (Snapshot, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.debug(messages.FeedCacheReadFailed, "path", path, "err", err)
		}
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.debug(messages.FeedCacheDecodeFailed, "path", path, "err", err)
		return Snapshot{}, false
	}
	if snap.Target != c.Target || c.now().Sub(snap.FetchedAt) > c.TTL {
		return Snapshot{}, false
	}
	snap.Family = f
	c.debug(messages.FeedCacheHit, "family", f, "fetched_at", snap.FetchedAt)
	return snap, true
}

func (c *Cached) write(path string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf(messages.FeedCacheEncodeFmt, path, err)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o644)
}

func (c *Cached) debug(msg string, kv ...any) {
	if c.Log != nil {
		c.Log.Debug(msg, kv...)
	}
}
