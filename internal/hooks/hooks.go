// Package hooks keeps the ordered lists of scripts run around install and
// activation-change events.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/m/internal/failure"
	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/fsutil"
	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/version"
)

// Event says whether a hook runs before or after its phase.
type Event string

// Event values.
const (
	Pre  Event = "pre"
	Post Event = "post"
)

// Phase is the lifecycle boundary a hook brackets.
type Phase string

// Phase values.
const (
	Install Phase = "install"
	Change  Phase = "change"
)

// ParseEvent validates an event token.
func ParseEvent(raw string) (Event, error) {
	switch e := Event(strings.ToLower(strings.TrimSpace(raw))); e {
	case Pre, Post:
		return e, nil
	}
	return "", fmt.Errorf(messages.HookEventFmt, failure.ErrInvalidHookEvent, raw)
}

// ParsePhase validates a phase token.
func ParsePhase(raw string) (Phase, error) {
	switch p := Phase(strings.ToLower(strings.TrimSpace(raw))); p {
	case Install, Change:
		return p, nil
	}
	return "", fmt.Errorf(messages.HookPhaseFmt, failure.ErrInvalidHookEvent, raw)
}

// Context is what a running hook is told about the operation.
type Context struct {
	Family  family.Family
	Version version.Version
}

// HookError reports which script failed and at which boundary.
type HookError struct {
	Event Event
	Phase Phase
	Path  string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf(messages.HookFailedFmt, e.Event, e.Phase, e.Path, e.Err)
}

// Unwrap exposes both the failure kind and the underlying cause.
func (e *HookError) Unwrap() []error {
	return []error{failure.ErrHookFailed, e.Err}
}

type phaseTable struct {
	Install []string `toml:"install"`
	Change  []string `toml:"change"`
}

type document struct {
	Pre  phaseTable `toml:"pre"`
	Post phaseTable `toml:"post"`
}

func (d *document) slot(event Event, phase Phase) *[]string {
	table := &d.Pre
	if event == Post {
		table = &d.Post
	}
	if phase == Change {
		return &table.Change
	}
	return &table.Install
}

// Registry is the hook registry persisted at Path.
type Registry struct {
	Path string
	// Stdout and Stderr receive hook output; nil discards it.
	Stdout io.Writer
	Stderr io.Writer
	Log    *log.Logger
}

// New returns a registry stored at path.
func New(path string, stdout io.Writer, stderr io.Writer, logger *log.Logger) *Registry {
	return &Registry{Path: path, Stdout: stdout, Stderr: stderr, Log: logger}
}

// Add registers path for (event, phase). Paths are stored cleaned, and
// registering the same script twice is a no-op; added reports whether the
// list changed.
func (r *Registry) Add(event Event, phase Phase, path string) (bool, error) {
	if err := validateSlot(event, phase); err != nil {
		return false, err
	}
	if err := validateScript(path); err != nil {
		return false, err
	}
	path = filepath.Clean(path)
	added := false
	err := r.update(func(doc *document) bool {
		slot := doc.slot(event, phase)
		if slices.Contains(*slot, path) {
			return false
		}
		*slot = append(*slot, path)
		added = true
		return true
	})
	return added, err
}

// Remove unregisters path for (event, phase). Removing an unknown path is a no-op.
func (r *Registry) Remove(event Event, phase Phase, path string) (bool, error) {
	if err := validateSlot(event, phase); err != nil {
		return false, err
	}
	path = filepath.Clean(path)
	removed := false
	err := r.update(func(doc *document) bool {
		slot := doc.slot(event, phase)
		idx := slices.Index(*slot, path)
		if idx < 0 {
			return false
		}
		*slot = slices.Delete(*slot, idx, idx+1)
		removed = true
		return true
	})
	return removed, err
}

// List returns the registered paths for (event, phase) in execution order.
func (r *Registry) List(event Event, phase Phase) ([]string, error) {
	if err := validateSlot(event, phase); err != nil {
		return nil, err
	}
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	return slices.Clone(*doc.slot(event, phase)), nil
}

// RunAll runs the hooks for (event, phase) in registration order. The first
// non-zero exit stops the sequence; earlier hooks are not undone.
func (r *Registry) RunAll(ctx context.Context, event Event, phase Phase, hc Context) error {
	paths, err := r.List(event, phase)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if r.Log != nil {
			r.Log.Debug(messages.HookRunning, "event", event, "phase", phase, "path", path)
		}
		cmd := exec.CommandContext(ctx, path, hc.Version.Raw)
		cmd.Env = append(os.Environ(),
			fmt.Sprintf(messages.HookEnvAssignFmt, messages.HookEnvEvent, event),
			fmt.Sprintf(messages.HookEnvAssignFmt, messages.HookEnvPhase, phase),
			fmt.Sprintf(messages.HookEnvAssignFmt, messages.HookEnvFamily, hc.Family),
			fmt.Sprintf(messages.HookEnvAssignFmt, messages.HookEnvVersion, hc.Version.Raw),
		)
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
		if err := cmd.Run(); err != nil {
			return &HookError{Event: event, Phase: phase, Path: path, Err: err}
		}
	}
	return nil
}

func (r *Registry) load() (document, error) {
	var doc document
	data, err := os.ReadFile(r.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf(messages.HookReadFmt, r.Path, err)
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf(messages.HookDecodeFmt, r.Path, err)
	}
	return doc, nil
}

// update applies mutate under the registry lock and persists when it reports a change.
func (r *Registry) update(mutate func(*document) bool) error {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return err
	}
	lock := fsutil.WriterLock{Path: r.Path + ".lock", Resource: messages.HookLockResource}
	return lock.Do(func() error {
		doc, err := r.load()
		if err != nil {
			return err
		}
		if !mutate(&doc) {
			return nil
		}
		data, err := toml.Marshal(doc)
		if err != nil {
			return fmt.Errorf(messages.HookEncodeFmt, err)
		}
		return fsutil.WriteFileAtomic(r.Path, data, 0o644)
	})
}

func validateSlot(event Event, phase Phase) error {
	if _, err := ParseEvent(string(event)); err != nil {
		return err
	}
	_, err := ParsePhase(string(phase))
	return err
}

func validateScript(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf(messages.HookPathFmt, failure.ErrNotAbsolutePath, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf(messages.HookStatFmt, failure.ErrNotExecutable, path, err)
	}
	if !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf(messages.HookPathFmt, failure.ErrNotExecutable, path)
	}
	return nil
}
