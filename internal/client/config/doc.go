// Package config loads runtime configuration for the promptkeeper CLI and
// daemon.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file, selected with --config or PROMPTKEEPER_CONFIG.
//  3. Environment variables PROMPTKEEPER_<FIELD>, e.g. PROMPTKEEPER_SYNC_INTERVAL.
//  4. Command-line flags registered with RegisterFlags, when set explicitly.
//
// # JSON schema
//
// Intervals use timex.Duration, so they can be strings like "5m" or integer
// nanoseconds:
//
//	{
//	  "database_path": "/home/me/.config/promptkeeper/prompts.db",
//	  "supabase_url": "https://xyz.supabase.co",
//	  "supabase_key": "anon-key",
//	  "sync_interval": "5m",
//	  "cursor_skew": "5s",
//	  "log_level": "info"
//	}
package config
