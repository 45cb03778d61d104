package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by RegisterFlags and ApplyFlags.
const (
	FlagConfig       = "config"
	FlagDatabase     = "db"
	FlagSupabaseURL  = "supabase-url"
	FlagSupabaseKey  = "supabase-key"
	FlagRemoteDSN    = "remote-dsn"
	FlagRemoteUser   = "remote-user"
	FlagSyncInterval = "sync-interval"
	FlagLogLevel     = "log-level"
	FlagLogFormat    = "log-format"
	FlagLogFile      = "log-file"
	FlagStatusAddr   = "status-addr"
)

// RegisterFlags defines the configuration flags on fs. Their defaults are
// empty: only flags the user sets override the file and the environment.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "path to a JSON config file (env "+EnvConfigPath+")")
	fs.String(FlagDatabase, "", "path to the local database")
	fs.String(FlagSupabaseURL, "", "Supabase project URL")
	fs.String(FlagSupabaseKey, "", "Supabase anon key")
	fs.String(FlagRemoteDSN, "", "PostgreSQL DSN of a self-hosted remote")
	fs.String(FlagRemoteUser, "", "owner id to use with --remote-dsn")
	fs.Duration(FlagSyncInterval, 0, "time between background syncs")
	fs.String(FlagLogLevel, "", "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, "", "log format: text, json, zap")
	fs.String(FlagLogFile, "", "write logs to a rotating file")
	fs.String(FlagStatusAddr, "", "daemon status server address, e.g. 127.0.0.1:7766")
}

// ConfigPath returns the --config flag or, if unset, the environment value.
func ConfigPath(fs *pflag.FlagSet, lookupEnv func(string) (string, bool)) string {
	if fs != nil {
		if p, err := fs.GetString(FlagConfig); err == nil && p != "" {
			return p
		}
	}
	if lookupEnv != nil {
		if p, ok := lookupEnv(EnvConfigPath); ok {
			return p
		}
	}
	return ""
}

// ApplyFlags copies explicitly set flags into cfg.
func ApplyFlags(fs *pflag.FlagSet, cfg *Config) error {
	strs := map[string]*string{
		FlagDatabase:    &cfg.DatabasePath,
		FlagSupabaseURL: &cfg.SupabaseURL,
		FlagSupabaseKey: &cfg.SupabaseKey,
		FlagRemoteDSN:   &cfg.RemoteDSN,
		FlagRemoteUser:  &cfg.RemoteUser,
		FlagLogLevel:    &cfg.LogLevel,
		FlagLogFormat:   &cfg.LogFormat,
		FlagLogFile:     &cfg.LogFile,
		FlagStatusAddr:  &cfg.StatusAddr,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if fs.Changed(FlagSyncInterval) {
		d, err := fs.GetDuration(FlagSyncInterval)
		if err != nil {
			return err
		}
		cfg.SyncInterval = d
	}
	return nil
}
