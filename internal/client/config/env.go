package config

import (
	"fmt"
	"time"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "PROMPTKEEPER_"

// EnvConfigPath names the variable holding the JSON config path.
const EnvConfigPath = EnvPrefix + "CONFIG"

func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DATABASE_PATH": &cfg.DatabasePath,
		"SUPABASE_URL":  &cfg.SupabaseURL,
		"SUPABASE_KEY":  &cfg.SupabaseKey,
		"REMOTE_DSN":    &cfg.RemoteDSN,
		"REMOTE_USER":   &cfg.RemoteUser,
		"LOG_LEVEL":     &cfg.LogLevel,
		"LOG_FORMAT":    &cfg.LogFormat,
		"LOG_FILE":      &cfg.LogFile,
		"STATUS_ADDR":   &cfg.StatusAddr,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"STORE_INIT_TIMEOUT":    &cfg.StoreInitTimeout,
		"SYNC_INTERVAL":         &cfg.SyncInterval,
		"CURSOR_SKEW":           &cfg.CursorSkew,
		"ONLINE_CHECK_INTERVAL": &cfg.OnlineCheckInterval,
		"BREAKER_TIMEOUT":       &cfg.BreakerTimeout,
	}
	for name, dst := range durations {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
	}
	return nil
}
