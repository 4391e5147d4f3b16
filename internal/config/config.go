// Package config loads m settings from M_* environment variables and an
// optional TOML file under the installation prefix.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/conn-castle/m/internal/messages"
)

// EnvPrefix is prepended to every environment key, e.g. M_PREFIX.
const EnvPrefix = "M"

// ConfigFileName is looked up inside the prefix when no explicit file is given.
const ConfigFileName = "config.toml"

// Setting keys.
const (
	KeyPrefix             = "prefix"
	KeyDebug              = "debug"
	KeyCache              = "cache"
	KeyCacheTTL           = "cache_ttl"
	KeyConfirm            = "confirm"
	KeyTarget             = "target"
	KeyArch               = "arch"
	KeyServerFeedURL      = "server_feed_url"
	KeyToolsFeedURL       = "tools_feed_url"
	KeyMongoshReleasesURL = "mongosh_releases_url"
	KeyMongoshDownloadURL = "mongosh_download_url"
	KeySourceURL          = "source_url"
	KeyGitHubToken        = "github_token"
	KeyMaxDownloadBytes   = "max_download_bytes"
)

// Config is the resolved settings for one invocation.
type Config struct {
	Prefix             string
	Debug              bool
	Cache              bool
	CacheTTL           time.Duration
	Confirm            bool
	Target             string
	Arch               string
	ServerFeedURL      string
	ToolsFeedURL       string
	MongoshReleasesURL string
	MongoshDownloadURL string
	SourceURL          string
	GitHubToken        string
	MaxDownloadBytes   int64
	// File is the config file that was read, empty when none was found.
	File string
}

// LoadOptions tunes Load.
type LoadOptions struct {
	// ConfigFile forces a specific config file instead of <prefix>/config.toml.
	ConfigFile string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Prefix:             "~/.m",
		Cache:              true,
		CacheTTL:           time.Hour,
		Confirm:            true,
		ServerFeedURL:      "https://downloads.mongodb.org/full.json",
		ToolsFeedURL:       "https://downloads.mongodb.org/tools/db/release.json",
		MongoshReleasesURL: "https://api.github.com/repos/mongodb-js/mongosh/releases",
		MongoshDownloadURL: "https://downloads.mongodb.com/compass",
		SourceURL:          "https://fastdl.mongodb.org/src",
		MaxDownloadBytes:   1 << 30,
	}
}

// Load resolves settings with precedence env > config file > defaults.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	defaults := Default()
	v.SetDefault(KeyPrefix, defaults.Prefix)
	v.SetDefault(KeyDebug, defaults.Debug)
	v.SetDefault(KeyCache, defaults.Cache)
	v.SetDefault(KeyCacheTTL, defaults.CacheTTL.String())
	v.SetDefault(KeyConfirm, defaults.Confirm)
	v.SetDefault(KeyTarget, "")
	v.SetDefault(KeyArch, "")
	v.SetDefault(KeyServerFeedURL, defaults.ServerFeedURL)
	v.SetDefault(KeyToolsFeedURL, defaults.ToolsFeedURL)
	v.SetDefault(KeyMongoshReleasesURL, defaults.MongoshReleasesURL)
	v.SetDefault(KeyMongoshDownloadURL, defaults.MongoshDownloadURL)
	v.SetDefault(KeySourceURL, defaults.SourceURL)
	v.SetDefault(KeyMaxDownloadBytes, defaults.MaxDownloadBytes)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyGitHubToken, EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return Config{}, err
	}

	prefix, err := expandPrefix(v.GetString(KeyPrefix))
	if err != nil {
		return Config{}, err
	}

	file := opts.ConfigFile
	if file == "" {
		candidate := filepath.Join(prefix, ConfigFileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			file = candidate
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf(messages.ConfigReadFileFmt, file, err)
		}
		// The file may itself relocate the prefix unless M_PREFIX pins it.
		prefix, err = expandPrefix(v.GetString(KeyPrefix))
		if err != nil {
			return Config{}, err
		}
	}

	ttlRaw := v.GetString(KeyCacheTTL)
	ttl, err := time.ParseDuration(ttlRaw)
	if err != nil {
		return Config{}, fmt.Errorf(messages.ConfigInvalidTTLFmt, ttlRaw, err)
	}

	return Config{
		Prefix:             prefix,
		Debug:              v.GetBool(KeyDebug),
		Cache:              v.GetBool(KeyCache),
		CacheTTL:           ttl,
		Confirm:            v.GetBool(KeyConfirm),
		Target:             strings.TrimSpace(v.GetString(KeyTarget)),
		Arch:               strings.TrimSpace(v.GetString(KeyArch)),
		ServerFeedURL:      v.GetString(KeyServerFeedURL),
		ToolsFeedURL:       v.GetString(KeyToolsFeedURL),
		MongoshReleasesURL: v.GetString(KeyMongoshReleasesURL),
		MongoshDownloadURL: strings.TrimRight(v.GetString(KeyMongoshDownloadURL), "/"),
		SourceURL:          strings.TrimRight(v.GetString(KeySourceURL), "/"),
		GitHubToken:        v.GetString(KeyGitHubToken),
		MaxDownloadBytes:   v.GetInt64(KeyMaxDownloadBytes),
		File:               file,
	}, nil
}

// HooksPath is the hook registry file.
func (c Config) HooksPath() string {
	return filepath.Join(c.Prefix, "hooks.toml")
}

// CacheDir holds cached release feed snapshots.
func (c Config) CacheDir() string {
	return filepath.Join(c.Prefix, ".cache")
}

func expandPrefix(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf(messages.ConfigResolvePrefixFmt, raw, errors.New("empty"))
	}
	expanded, err := homedir.Expand(trimmed)
	if err != nil {
		return "", fmt.Errorf(messages.ConfigResolvePrefixFmt, raw, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf(messages.ConfigResolvePrefixFmt, raw, err)
	}
	return abs, nil
}
