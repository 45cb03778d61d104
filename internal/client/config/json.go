package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/timex"
)

// JsonConfig is the on-disk form. Pointer fields distinguish "absent" from
// zero, so a partial file only overrides what it names.
type JsonConfig struct {
	DatabasePath        *string         `json:"database_path"`
	StoreInitTimeout    *timex.Duration `json:"store_init_timeout"`
	SupabaseURL         *string         `json:"supabase_url"`
	SupabaseKey         *string         `json:"supabase_key"`
	RemoteDSN           *string         `json:"remote_dsn"`
	RemoteUser          *string         `json:"remote_user"`
	SyncInterval        *timex.Duration `json:"sync_interval"`
	CursorSkew          *timex.Duration `json:"cursor_skew"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	BreakerTimeout      *timex.Duration `json:"breaker_timeout"`
	LogLevel            *string         `json:"log_level"`
	LogFormat           *string         `json:"log_format"`
	LogFile             *string         `json:"log_file"`
	StatusAddr          *string         `json:"status_addr"`
}

func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.DatabasePath, jc.DatabasePath)
	setDuration(&cfg.StoreInitTimeout, jc.StoreInitTimeout)
	setString(&cfg.SupabaseURL, jc.SupabaseURL)
	setString(&cfg.SupabaseKey, jc.SupabaseKey)
	setString(&cfg.RemoteDSN, jc.RemoteDSN)
	setString(&cfg.RemoteUser, jc.RemoteUser)
	setDuration(&cfg.SyncInterval, jc.SyncInterval)
	setDuration(&cfg.CursorSkew, jc.CursorSkew)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.BreakerTimeout, jc.BreakerTimeout)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.StatusAddr, jc.StatusAddr)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
