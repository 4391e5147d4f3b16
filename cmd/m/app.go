package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/conn-castle/m/internal/config"
	"github.com/conn-castle/m/internal/dispatch"
	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/feed"
	"github.com/conn-castle/m/internal/fetch"
	"github.com/conn-castle/m/internal/hooks"
	"github.com/conn-castle/m/internal/lifecycle"
	"github.com/conn-castle/m/internal/logx"
	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/platform"
	"github.com/conn-castle/m/internal/resolve"
	"github.com/conn-castle/m/internal/terminal"
)

var (
	detectPlatform = platform.Detect
	isInteractive  = terminal.IsInteractive
	confirm        = terminal.Confirm
	execFunc       = dispatch.Exec
	exitFunc       = os.Exit
)

// app holds the collaborators one invocation works with.
type app struct {
	cfg      config.Config
	log      *log.Logger
	resolver *resolve.Resolver
	hooks    *hooks.Registry
	engine   *lifecycle.Engine
}

// unavailableSource stands in for the feeds when the host has no published target.
type unavailableSource struct {
	err error
}

func (s unavailableSource) Fetch(context.Context, family.Family) (feed.Snapshot, error) {
	return feed.Snapshot{}, s.err
}

// newApp loads configuration and wires the engine for cmd's output streams.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		return nil, err
	}
	logger := logx.New(cmd.ErrOrStderr(), cfg.Debug)
	logger.Debug(messages.AppConfigLoaded, "prefix", cfg.Prefix, "file", cfg.File)

	var src feed.Source
	targetKey := ""
	target, err := detectPlatform(cfg.Target, cfg.Arch)
	if err != nil {
		logger.Debug(messages.AppPlatformUnavailable, "err", err)
		src = unavailableSource{err: err}
	} else {
		targetKey = feed.TargetKey(target)
		remote := feed.NewHTTPSource(feed.Endpoints{
			ServerFeedURL:      cfg.ServerFeedURL,
			ToolsFeedURL:       cfg.ToolsFeedURL,
			MongoshReleasesURL: cfg.MongoshReleasesURL,
			MongoshDownloadURL: cfg.MongoshDownloadURL,
		}, target, logger)
		remote.GitHubToken = cfg.GitHubToken
		src = remote
		if cfg.Cache {
			src = &feed.Cached{Source: src, Dir: cfg.CacheDir(), TTL: cfg.CacheTTL, Target: targetKey, Log: logger}
		}
	}
	resolver := resolve.New(feed.NewMemo(src), logger)
	registry := hooks.New(cfg.HooksPath(), cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)

	engine := &lifecycle.Engine{
		Resolver:     resolver,
		Hooks:        registry,
		Materializer: fetch.New(cfg.MaxDownloadBytes, cmd.ErrOrStderr(), logger),
		Prefix:       cfg.Prefix,
		Platform:     targetKey,
		Out:          cmd.OutOrStdout(),
		Log:          logger,
	}
	if cfg.Confirm && isInteractive() {
		engine.Confirm = confirm
	}
	return &app{cfg: cfg, log: logger, resolver: resolver, hooks: registry, engine: engine}, nil
}
