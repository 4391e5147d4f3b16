// Package lifecycle drives install, reinstall, activate, and remove for each
// artifact family.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/conn-castle/m/internal/failure"
	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/feed"
	"github.com/conn-castle/m/internal/hooks"
	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/store"
	"github.com/conn-castle/m/internal/version"
)

// Resolver maps a request to a feed release.
type Resolver interface {
	Release(ctx context.Context, f family.Family, req version.Request) (version.Version, feed.Release, error)
}

// HookRunner runs the registered hooks for one boundary.
type HookRunner interface {
	RunAll(ctx context.Context, event hooks.Event, phase hooks.Phase, hc hooks.Context) error
}

// Materializer puts a complete installation of rel into destDir, or leaves
// no destDir behind.
type Materializer interface {
	Materialize(ctx context.Context, rel feed.Release, destDir string) error
}

// Confirmer asks whether to proceed with a download.
type Confirmer func(title string) (bool, error)

// Engine is the lifecycle state machine.
type Engine struct {
	Resolver     Resolver
	Hooks        HookRunner
	Materializer Materializer
	// Prefix is the installation root holding one store per family.
	Prefix string
	// Platform names the host in "no download" errors.
	Platform string
	Out      io.Writer
	Log      *log.Logger
	// Confirm, when set, is asked before anything is downloaded.
	Confirm Confirmer
}

// Store returns the installed-version store for f.
func (e *Engine) Store(f family.Family) *store.Store {
	return store.New(e.Prefix, f)
}

func (e *Engine) validate() error {
	switch {
	case e.Resolver == nil:
		return fmt.Errorf(messages.EngineSystemRequired, "a resolver")
	case e.Hooks == nil:
		return fmt.Errorf(messages.EngineSystemRequired, "a hook runner")
	case e.Materializer == nil:
		return fmt.Errorf(messages.EngineSystemRequired, "a materializer")
	case e.Prefix == "":
		return fmt.Errorf(messages.EngineSystemRequired, "a prefix")
	}
	return nil
}

func (e *Engine) printf(format string, args ...any) {
	if e.Out != nil {
		_, _ = fmt.Fprintf(e.Out, format, args...)
	}
}

func (e *Engine) enter(out *Outcome, s State) {
	out.Reached = append(out.Reached, s)
	if e.Log != nil {
		e.Log.Debug(fmt.Sprintf(messages.EngineStateFmt, s), "family", out.Family, "version", out.Version.Raw)
	}
}

// Install resolves req and makes it the active version, materializing it
// first when it is not installed. Install hooks bracket materialization and
// change hooks bracket the pointer switch. A version that is already active
// short-circuits with no hooks and no filesystem changes.
func (e *Engine) Install(ctx context.Context, f family.Family, req version.Request) (Outcome, error) {
	out := Outcome{Family: f}
	if err := e.validate(); err != nil {
		return out, err
	}
	e.enter(&out, StateStart)
	e.enter(&out, StateResolve)
	v, rel, err := e.Resolver.Release(ctx, f, req)
	if err != nil {
		return out, err
	}
	out.Version = v

	st := e.Store(f)
	active, hasActive, err := st.Active()
	if err != nil {
		return out, err
	}
	if hasActive && active.Equal(v) {
		e.enter(&out, StateAlreadyActive)
		e.printf(messages.EngineAlreadyActiveFmt, f.Display(), v.Raw)
		out.Result = ResultAlreadyActive
		e.enter(&out, StateDone)
		return out, nil
	}

	e.enter(&out, StateNeedsInstall)
	fresh := !st.Has(v)
	hc := hooks.Context{Family: f, Version: v}
	if fresh {
		if strings.TrimSpace(rel.URL) == "" {
			return out, fmt.Errorf(messages.FeedReleaseNotFoundFmt, failure.ErrVersionNotFound, f.Display(), v.Raw, e.Platform)
		}
		if e.Confirm != nil {
			ok, err := e.Confirm(fmt.Sprintf(messages.PromptInstallFmt, f.Display(), v.Raw))
			if err != nil {
				return out, err
			}
			if !ok {
				e.printf(messages.EngineAbortedFmt, f.Display(), v.Raw)
				out.Result = ResultDeclined
				return out, nil
			}
		}
		if err := e.materialize(ctx, &out, st, rel, hc); err != nil {
			return out, err
		}
	}

	e.enter(&out, StatePreChangeHooks)
	if err := e.Hooks.RunAll(ctx, hooks.Pre, hooks.Change, hc); err != nil {
		return out, err
	}
	e.printf(messages.EngineActivatingFmt, f.Display(), v.Raw)
	e.enter(&out, StateActivate)
	prev, hadPrev, err := st.Activate(v)
	if err != nil {
		return out, err
	}
	out.Previous, out.HadPrevious = prev, hadPrev
	e.enter(&out, StatePostChangeHooks)
	if err := e.Hooks.RunAll(ctx, hooks.Post, hooks.Change, hc); err != nil {
		return out, err
	}

	out.Result = ResultActivated
	if fresh {
		e.enter(&out, StatePostInstallHooks)
		if err := e.Hooks.RunAll(ctx, hooks.Post, hooks.Install, hc); err != nil {
			return out, err
		}
		e.printf(messages.EngineCompleteFmt, f.Display(), v.Raw)
		out.Result = ResultInstalled
	}
	e.enter(&out, StateDone)
	return out, nil
}

// materialize runs the pre-install hooks, then downloads and extracts into a
// staging directory and records it. Record is the only commit point.
func (e *Engine) materialize(ctx context.Context, out *Outcome, st *store.Store, rel feed.Release, hc hooks.Context) error {
	e.enter(out, StatePreInstallHooks)
	if err := e.Hooks.RunAll(ctx, hooks.Pre, hooks.Install, hc); err != nil {
		return err
	}
	e.printf(messages.EngineInstallingFmt, hc.Family.Display(), hc.Version.Raw)
	staged, err := st.Stage(hc.Version)
	if err != nil {
		return err
	}
	e.enter(out, StateDownload)
	if err := e.Materializer.Materialize(ctx, rel, staged); err != nil {
		return fmt.Errorf(messages.EngineMaterializeFailedFmt, hc.Family, hc.Version.Raw, err)
	}
	e.enter(out, StateExtract)
	e.enter(out, StateRecord)
	if err := st.Record(hc.Version, staged); err != nil {
		_ = st.Unstage(staged)
		return err
	}
	return nil
}

// Reinstall removes the resolved version, ignoring a not-installed outcome,
// and installs it again.
func (e *Engine) Reinstall(ctx context.Context, f family.Family, req version.Request) (Outcome, error) {
	if err := e.validate(); err != nil {
		return Outcome{Family: f}, err
	}
	v, _, err := e.Resolver.Release(ctx, f, req)
	if err != nil {
		return Outcome{Family: f}, err
	}
	if err := e.removeOne(f, v); err != nil {
		return Outcome{Family: f, Version: v}, err
	}
	return e.Install(ctx, f, version.Request{Kind: version.KindExact, Target: v})
}

// Remove deletes each listed version. Absent versions are reported, not failed.
func (e *Engine) Remove(ctx context.Context, f family.Family, raws ...string) error {
	if len(raws) == 0 {
		return failure.ErrMissingVersionArgument
	}
	targets := make([]version.Version, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			return failure.ErrMissingVersionArgument
		}
		v, err := version.Parse(raw)
		if err != nil {
			return fmt.Errorf(messages.VersionRequestNotFoundFmt, failure.ErrVersionNotFound, raw)
		}
		targets = append(targets, v)
	}
	for _, v := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.removeOne(f, v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) removeOne(f family.Family, v version.Version) error {
	removed, err := e.Store(f).Remove(v)
	if err != nil {
		return err
	}
	if removed {
		e.printf(messages.EngineRemovedFmt, f.Product(), v.Raw)
	} else {
		e.printf(messages.EngineRemoveMissingFmt, f.Product(), v.Raw)
	}
	return nil
}

// Activate switches to an installed version, firing only the change hooks.
func (e *Engine) Activate(ctx context.Context, f family.Family, raw string) (Outcome, error) {
	out := Outcome{Family: f}
	if e.Hooks == nil {
		return out, fmt.Errorf(messages.EngineSystemRequired, "a hook runner")
	}
	st := e.Store(f)
	v, err := e.installed(st, raw)
	if err != nil {
		return out, err
	}
	out.Version = v
	e.enter(&out, StateStart)
	active, hasActive, err := st.Active()
	if err != nil {
		return out, err
	}
	if hasActive && active.Equal(v) {
		e.enter(&out, StateAlreadyActive)
		e.printf(messages.EngineAlreadyActiveFmt, f.Display(), v.Raw)
		out.Result = ResultAlreadyActive
		e.enter(&out, StateDone)
		return out, nil
	}
	hc := hooks.Context{Family: f, Version: v}
	e.enter(&out, StatePreChangeHooks)
	if err := e.Hooks.RunAll(ctx, hooks.Pre, hooks.Change, hc); err != nil {
		return out, err
	}
	e.printf(messages.EngineActivatingFmt, f.Display(), v.Raw)
	e.enter(&out, StateActivate)
	out.Previous, out.HadPrevious, err = st.Activate(v)
	if err != nil {
		return out, err
	}
	e.enter(&out, StatePostChangeHooks)
	if err := e.Hooks.RunAll(ctx, hooks.Post, hooks.Change, hc); err != nil {
		return out, err
	}
	out.Result = ResultActivated
	e.enter(&out, StateDone)
	return out, nil
}

// BinDir returns the bin directory of an installed version.
func (e *Engine) BinDir(f family.Family, raw string) (string, error) {
	st := e.Store(f)
	v, err := e.installed(st, raw)
	if err != nil {
		return "", err
	}
	return st.BinDir(v)
}

// Locate returns the path of binary inside an installed version. A modern
// shell lookup that fails falls back once to the legacy shell for the same
// version: first a legacy shell install, then the mongo binary bundled with
// a server install.
func (e *Engine) Locate(f family.Family, raw string, binary string) (string, error) {
	st := e.Store(f)
	v, err := e.installed(st, raw)
	if err == nil {
		var path string
		path, err = st.BinPath(v, binary)
		if err == nil {
			return path, nil
		}
	}
	if f != family.ModernShell || errors.Is(err, failure.ErrMissingVersionArgument) {
		return "", err
	}
	if e.Log != nil {
		e.Log.Debug(messages.EngineFallback, "version", raw)
	}
	if path, ok := e.legacyShell(raw); ok {
		return path, nil
	}
	return "", err
}

func (e *Engine) legacyShell(raw string) (string, bool) {
	legacy := family.LegacyShell.PrimaryBinary()
	for _, f := range []family.Family{family.LegacyShell, family.Server} {
		st := e.Store(f)
		v, err := e.installed(st, raw)
		if err != nil {
			continue
		}
		if path, err := st.BinPath(v, legacy); err == nil {
			return path, true
		}
	}
	return "", false
}

// installed maps raw to an installed version. Series, latest, and stable
// requests pick the greatest installed match.
func (e *Engine) installed(st *store.Store, raw string) (version.Version, error) {
	req, err := version.ParseRequest(raw)
	if err != nil {
		if errors.Is(err, failure.ErrMissingVersionArgument) {
			return version.Version{}, err
		}
		return version.Version{}, fmt.Errorf(messages.StoreNotInstalledFmt, st.Family.Display(), raw, failure.ErrNotInstalled)
	}
	if req.Kind == version.KindExact {
		if !st.Has(req.Target) {
			return version.Version{}, fmt.Errorf(messages.StoreNotInstalledFmt, st.Family.Display(), req.Target.Raw, failure.ErrNotInstalled)
		}
		return req.Target, nil
	}
	entries, err := st.List()
	if err != nil {
		return version.Version{}, err
	}
	classify := feed.DefaultClassifier(st.Family)
	pool := make([]version.Version, 0, len(entries))
	for _, entry := range entries {
		switch req.Kind {
		case version.KindSeries:
			if !entry.Version.Matches(req.Target) {
				continue
			}
		case version.KindStable:
			if classify(feed.Release{}, entry.Version) != version.ChannelStable {
				continue
			}
			fallthrough
		case version.KindLatest:
			if req.Scoped && !entry.Version.Matches(req.Target) {
				continue
			}
		}
		pool = append(pool, entry.Version)
	}
	best, ok := version.Max(pool)
	if !ok {
		return version.Version{}, fmt.Errorf(messages.StoreNotInstalledFmt, st.Family.Display(), req.String(), failure.ErrNotInstalled)
	}
	return best, nil
}
