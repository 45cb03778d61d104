package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "prompts.db", filepath.Base(c.DatabasePath))
	assert.Equal(t, 5*time.Minute, c.SyncInterval)
	assert.Equal(t, 5*time.Second, c.CursorSkew)
	assert.Equal(t, 3*time.Second, c.StoreInitTimeout)
	assert.False(t, c.RemoteConfigured())
	require.NoError(t, c.Validate())
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"database_path": "/tmp/from-file.db",
		"sync_interval": "10m",
		"cursor_skew":   2000000000,
		"supabase_url":  "https://file.supabase.co",
	})

	cfg, err := LoadConfig(path, env(map[string]string{
		"PROMPTKEEPER_SYNC_INTERVAL": "1m",
		"PROMPTKEEPER_SUPABASE_KEY":  "env-key",
	}))
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	want.DatabasePath = "/tmp/from-file.db"
	want.SyncInterval = time.Minute
	want.CursorSkew = 2 * time.Second
	want.SupabaseURL = "https://file.supabase.co"
	want.SupabaseKey = "env-key"

	assert.Empty(t, cmp.Diff(&want, cfg))
	assert.True(t, cfg.RemoteConfigured())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
	_, err = LoadConfig(bad, nil)
	require.ErrorContains(t, err, "parse config")

	_, err = LoadConfig("", env(map[string]string{"PROMPTKEEPER_CURSOR_SKEW": "soon"}))
	require.ErrorContains(t, err, "PROMPTKEEPER_CURSOR_SKEW")
}

func TestApplyFlags_OnlyExplicit(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--db", "/x.db", "--sync-interval", "30s"}))

	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.LogLevel = "debug"
	require.NoError(t, ApplyFlags(fs, cfg))

	assert.Equal(t, "/x.db", cfg.DatabasePath)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, "debug", cfg.LogLevel, "unset flag keeps earlier value")
}

func TestConfigPath(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	lookup := env(map[string]string{EnvConfigPath: "/env.json"})

	assert.Equal(t, "/env.json", ConfigPath(fs, lookup))
	require.NoError(t, fs.Parse([]string{"-c", "/flag.json"}))
	assert.Equal(t, "/flag.json", ConfigPath(fs, lookup))
	assert.Empty(t, ConfigPath(nil, nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db", func(c *Config) { c.DatabasePath = "" }},
		{"zero interval", func(c *Config) { c.SyncInterval = 0 }},
		{"negative skew", func(c *Config) { c.CursorSkew = -time.Second }},
		{"two remotes", func(c *Config) { c.RemoteDSN = "postgres://x"; c.RemoteUser = "u"; c.SupabaseURL = "https://y" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"dsn without user", func(c *Config) { c.RemoteDSN = "postgres://x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}
