package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/filex"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
)

const appName = "promptkeeper"

// Config holds runtime settings.
type Config struct {
	DatabasePath     string
	StoreInitTimeout time.Duration

	// Remote backend: Supabase (URL + anon key) or a Postgres DSN.
	SupabaseURL string
	SupabaseKey string
	RemoteDSN   string
	// RemoteUser is the fixed identity used with RemoteDSN, which has no
	// sign-in of its own.
	RemoteUser string

	SyncInterval        time.Duration
	CursorSkew          time.Duration
	OnlineCheckInterval time.Duration
	BreakerTimeout      time.Duration

	LogLevel  string
	LogFormat string
	LogFile   string

	// StatusAddr enables the daemon's HTTP status server when not empty.
	StatusAddr string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = filepath.Join(filex.DefaultDataDir(appName), "prompts.db")
	c.StoreInitTimeout = 3 * time.Second
	c.SyncInterval = 5 * time.Minute
	c.CursorSkew = 5 * time.Second
	c.OnlineCheckInterval = 30 * time.Second
	c.BreakerTimeout = 30 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// RemoteConfigured reports whether a remote backend is set up.
func (c *Config) RemoteConfigured() bool {
	return c.RemoteDSN != "" || (c.SupabaseURL != "" && c.SupabaseKey != "")
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive, got %s", c.SyncInterval)
	}
	if c.CursorSkew < 0 {
		return fmt.Errorf("cursor_skew must not be negative, got %s", c.CursorSkew)
	}
	if c.RemoteDSN != "" && c.SupabaseURL != "" {
		return fmt.Errorf("remote_dsn and supabase_url are mutually exclusive")
	}
	if c.RemoteDSN != "" && c.RemoteUser == "" {
		return fmt.Errorf("remote_dsn requires remote_user")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadConfig applies defaults, then the JSON file at path (if not empty),
// then the environment. Flags are applied by the caller with ApplyFlags.
func LoadConfig(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}
	if lookupEnv != nil {
		if err := parseEnv(cfg, lookupEnv); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
