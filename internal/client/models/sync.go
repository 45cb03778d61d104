package models

import "time"

// SyncStatus is the observable state of the reconciliation engine.
type SyncStatus struct {
	Syncing    bool       `json:"syncing"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	Online     bool       `json:"online"`
}

// Profile is the remote per-user metadata row.
type Profile struct {
	UserID            string    `json:"id"`
	HasSeeded         bool      `json:"has_seeded"`
	HasCompletedSetup bool      `json:"has_completed_setup"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AuthSession is a signed-in session as persisted on the device.
type AuthSession struct {
	UserID        string    `json:"user_id"`
	Email         string    `json:"email"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	ExpiresAt     time.Time `json:"expires_at"`
	SetupComplete bool      `json:"setup_complete"`
}
