package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("M_PREFIX", "")
	t.Setenv("GITHUB_TOKEN", "")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".m"), cfg.Prefix)
	assert.True(t, cfg.Cache)
	assert.True(t, cfg.Confirm)
	assert.False(t, cfg.Debug)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "https://downloads.mongodb.org/full.json", cfg.ServerFeedURL)
	assert.Empty(t, cfg.File)
	assert.Equal(t, filepath.Join(home, ".m", "hooks.toml"), cfg.HooksPath())
	assert.Equal(t, filepath.Join(home, ".m", ".cache"), cfg.CacheDir())
}

func TestLoad_EnvOverrides(t *testing.T) {
	prefix := t.TempDir()
	t.Setenv("M_PREFIX", prefix)
	t.Setenv("M_DEBUG", "1")
	t.Setenv("M_CACHE", "0")
	t.Setenv("M_CONFIRM", "0")
	t.Setenv("M_CACHE_TTL", "5m")
	t.Setenv("M_TARGET", "ubuntu2204")
	t.Setenv("GITHUB_TOKEN", "tok")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, prefix, cfg.Prefix)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.Cache)
	assert.False(t, cfg.Confirm)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "ubuntu2204", cfg.Target)
	assert.Equal(t, "tok", cfg.GitHubToken)
}

func TestLoad_ConfigFileInPrefix(t *testing.T) {
	prefix := t.TempDir()
	t.Setenv("M_PREFIX", prefix)
	t.Setenv("M_TARGET", "")
	content := "target = \"debian12\"\ncache_ttl = \"10m\"\nsource_url = \"https://mirror.example/src/\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(prefix, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "debian12", cfg.Target)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "https://mirror.example/src", cfg.SourceURL)
	assert.Equal(t, filepath.Join(prefix, ConfigFileName), cfg.File)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	prefix := t.TempDir()
	t.Setenv("M_PREFIX", prefix)
	t.Setenv("M_TARGET", "rhel90")
	require.NoError(t, os.WriteFile(filepath.Join(prefix, ConfigFileName), []byte("target = \"debian12\"\n"), 0o644))

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "rhel90", cfg.Target)
}

func TestLoad_InvalidTTL(t *testing.T) {
	t.Setenv("M_PREFIX", t.TempDir())
	t.Setenv("M_CACHE_TTL", "soon")

	_, err := Load(LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache_ttl")
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Setenv("M_PREFIX", t.TempDir())
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.toml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
