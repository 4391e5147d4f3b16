// Package store records which versions of a family are installed and which
// one is active.
//
// Layout under a family root:
//
//	versions/<version>/               installed tree
//	versions/<version>/.m-record.toml commit marker
//	active -> versions/<version>      active pointer
//	.staging/                         in-flight extraction dirs
//	.lock                             writer lock
//
// Only directories that carry the marker count as installed, so a crashed
// extraction never masquerades as an installed version.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/m/internal/failure"
	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/fsutil"
	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/version"
)

const (
	versionsDir = "versions"
	activeLink  = "active"
	stagingDir  = ".staging"
	lockFile    = ".lock"
	// RecordFile marks a committed installation.
	RecordFile = ".m-record.toml"
)

var timeNow = time.Now

// Store is the installed-version store for one family.
type Store struct {
	Family family.Family
	Root   string
}

// New returns the store for f under prefix.
func New(prefix string, f family.Family) *Store {
	return &Store{Family: f, Root: filepath.Join(prefix, f.String())}
}

// Entry is one installed version.
type Entry struct {
	Version version.Version
	Dir     string
	Active  bool
}

// Record is the metadata written into each installed tree.
type Record struct {
	Family      string    `toml:"family"`
	Version     string    `toml:"version"`
	InstalledAt time.Time `toml:"installed_at"`
}

// Dir is where v is (or would be) installed.
func (s *Store) Dir(v version.Version) string {
	return filepath.Join(s.Root, versionsDir, v.Raw)
}

func (s *Store) activePath() string {
	return filepath.Join(s.Root, activeLink)
}

// Has reports whether v is recorded.
func (s *Store) Has(v version.Version) bool {
	info, err := os.Stat(filepath.Join(s.Dir(v), RecordFile))
	return err == nil && info.Mode().IsRegular()
}

// List returns installed versions ascending, with the active one flagged.
func (s *Store) List() ([]Entry, error) {
	dir := filepath.Join(s.Root, versionsDir)
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf(messages.StoreReadDirFmt, dir, err)
	}
	active, hasActive, err := s.Active()
	if err != nil {
		return nil, err
	}

	versions := make([]version.Version, 0, len(items))
	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		v, err := version.Parse(item.Name())
		if err != nil || !v.IsFull() || v.Raw != item.Name() {
			continue
		}
		if rec, err := s.readRecord(v); err != nil || rec.Family != s.Family.String() {
			continue
		}
		versions = append(versions, v)
	}
	version.Sort(versions)

	out := make([]Entry, 0, len(versions))
	for _, v := range versions {
		out = append(out, Entry{Version: v, Dir: s.Dir(v), Active: hasActive && active.Equal(v)})
	}
	return out, nil
}

// Active returns the version the pointer targets. A missing or dangling
// pointer means no version is active.
func (s *Store) Active() (version.Version, bool, error) {
	target, err := os.Readlink(s.activePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return version.Version{}, false, nil
		}
		return version.Version{}, false, fmt.Errorf(messages.StoreReadActiveFmt, s.activePath(), err)
	}
	v, err := version.Parse(filepath.Base(target))
	if err != nil || !v.IsFull() || !s.Has(v) {
		return version.Version{}, false, nil
	}
	return v, true, nil
}

// Stage creates a fresh directory to materialize v into before Record.
func (s *Store) Stage(v version.Version) (string, error) {
	dir := filepath.Join(s.Root, stagingDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf(messages.StoreStageFmt, err)
	}
	staged, err := os.MkdirTemp(dir, v.Raw+"-*")
	if err != nil {
		return "", fmt.Errorf(messages.StoreStageFmt, err)
	}
	return staged, nil
}

// Unstage deletes a staging directory that will not be recorded.
func (s *Store) Unstage(dir string) error {
	rel, err := filepath.Rel(filepath.Join(s.Root, stagingDir), dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf(messages.StoreUnstageFmt, dir)
	}
	return os.RemoveAll(dir)
}

// Record commits installDir as the installation of v. The rename into
// versions/ is the single commit point. When v is already recorded the
// committed tree stays in place, its record is refreshed and installDir is
// deleted, so the active pointer never dangles. Recording its own directory
// only refreshes the metadata.
func (s *Store) Record(v version.Version, installDir string) error {
	if !v.IsFull() {
		return fmt.Errorf(messages.StoreInvalidVersionFmt, v.Raw)
	}
	return s.withLock(func() error {
		dest := s.Dir(v)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf(messages.StoreCreateDirFmt, filepath.Dir(dest), err)
		}
		same, err := samePath(installDir, dest)
		if err != nil {
			return err
		}
		if same {
			return s.writeRecord(v, dest)
		}
		if s.Has(v) {
			if err := s.writeRecord(v, dest); err != nil {
				return err
			}
			if err := os.RemoveAll(installDir); err != nil {
				return fmt.Errorf(messages.StoreDropDuplicateFmt, installDir, err)
			}
			return nil
		}
		if _, err := os.Lstat(dest); err == nil {
			if err := s.discard(dest); err != nil {
				return fmt.Errorf(messages.StoreReplaceFmt, v.Raw, err)
			}
		}
		if err := s.writeRecord(v, installDir); err != nil {
			return err
		}
		if err := os.Rename(installDir, dest); err != nil {
			return fmt.Errorf(messages.StoreCommitFmt, installDir, dest, err)
		}
		return nil
	})
}

func (s *Store) writeRecord(v version.Version, dir string) error {
	data, err := toml.Marshal(Record{Family: s.Family.String(), Version: v.Raw, InstalledAt: timeNow().UTC()})
	if err != nil {
		return fmt.Errorf(messages.StoreEncodeRecordFmt, err)
	}
	path := filepath.Join(dir, RecordFile)
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.StoreWriteRecordFmt, path, err)
	}
	return nil
}

// readRecord returns the metadata written when v was recorded.
func (s *Store) readRecord(v version.Version) (Record, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(v), RecordFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, s.notInstalled(v)
		}
		return Record{}, err
	}
	var rec Record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Activate points the family at v and returns the previously active version.
// The pointer is replaced with a single rename, so readers see either the
// old or the new target.
func (s *Store) Activate(v version.Version) (version.Version, bool, error) {
	var (
		previous    version.Version
		hadPrevious bool
	)
	err := s.withLock(func() error {
		if !s.Has(v) {
			return s.notInstalled(v)
		}
		var err error
		previous, hadPrevious, err = s.Active()
		if err != nil {
			return err
		}
		tmp := filepath.Join(s.Root, fmt.Sprintf(".%s.%d.%d", activeLink, os.Getpid(), timeNow().UnixNano()))
		if err := os.Symlink(filepath.Join(versionsDir, v.Raw), tmp); err != nil {
			return fmt.Errorf(messages.StoreLinkActiveFmt, err)
		}
		if err := os.Rename(tmp, s.activePath()); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf(messages.StoreSwapActiveFmt, err)
		}
		return nil
	})
	if err != nil {
		return version.Version{}, false, err
	}
	return previous, hadPrevious, nil
}

// Remove deletes v. When v is active the pointer is cleared first and no
// other version is selected. Removing an unrecorded version reports false
// without error.
func (s *Store) Remove(v version.Version) (bool, error) {
	removed := false
	err := s.withLock(func() error {
		if !s.Has(v) {
			return nil
		}
		active, hasActive, err := s.Active()
		if err != nil {
			return err
		}
		if hasActive && active.Equal(v) {
			if err := os.Remove(s.activePath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf(messages.StoreClearActiveFmt, err)
			}
		}
		if err := s.discard(s.Dir(v)); err != nil {
			return fmt.Errorf(messages.StoreRemoveDirFmt, s.Dir(v), err)
		}
		removed = true
		return nil
	})
	return removed, err
}

// BinDir is the bin directory of an installed version.
func (s *Store) BinDir(v version.Version) (string, error) {
	if !s.Has(v) {
		return "", s.notInstalled(v)
	}
	return filepath.Join(s.Dir(v), "bin"), nil
}

// BinPath locates an executable inside an installed version. A missing binary
// wraps fs.ErrNotExist.
func (s *Store) BinPath(v version.Version, binary string) (string, error) {
	dir, err := s.BinDir(v)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, binary)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf(messages.StoreBinaryMissingFmt, s.Family.Display(), v.Raw, binary, fs.ErrNotExist)
	}
	return path, nil
}

func (s *Store) notInstalled(v version.Version) error {
	return fmt.Errorf(messages.StoreNotInstalledFmt, s.Family.Display(), v.Raw, failure.ErrNotInstalled)
}

// discard moves dir out of versions/ before deleting it so a half-deleted
// tree is never visible under its version name.
func (s *Store) discard(dir string) error {
	trashRoot := filepath.Join(s.Root, stagingDir)
	if err := os.MkdirAll(trashRoot, 0o755); err != nil {
		return err
	}
	trash, err := os.MkdirTemp(trashRoot, "discard-*")
	if err != nil {
		return err
	}
	moved := filepath.Join(trash, filepath.Base(dir))
	if err := os.Rename(dir, moved); err != nil {
		_ = os.Remove(trash)
		return err
	}
	return os.RemoveAll(trash)
}

func (s *Store) withLock(fn func() error) error {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return fmt.Errorf(messages.StoreCreateDirFmt, s.Root, err)
	}
	lock := fsutil.WriterLock{
		Path:     filepath.Join(s.Root, lockFile),
		Resource: fmt.Sprintf(messages.StoreLockResourceFmt, s.Family),
	}
	return lock.Do(fn)
}

func samePath(a string, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return filepath.Clean(absA) == filepath.Clean(absB), nil
}
