// Package metadata is a small key/value table for device-local state: the
// sync cursor, seeding flags, settings blobs and the cached auth session.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyLastSyncAt  = "last_sync_at"
	KeyTheme       = "theme"
	KeyAuthSession = "auth_session"

	seededPrefix   = "seeded:"
	settingsPrefix = "settings:"
)

// SeededKey is the flag key recording that owner received the starter set.
func SeededKey(owner string) string { return seededPrefix + owner }

// SettingsKey holds the per-owner settings blob.
func SettingsKey(owner string) string { return settingsPrefix + owner }

// Repository stores raw values by key. Get returns (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
