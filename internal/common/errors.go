// Package common defines shared constants and sentinel errors used across
// the promptkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

// AnonymousOwnerKey is the owner column value reserved for guest data.
const AnonymousOwnerKey = "guest"

var (
	// Repository-level errors. Rows owned by another identity are reported
	// as ErrorNotFound as well.
	ErrorNotFound = errors.New("not found")

	// ErrNotInitialized is returned when a store is used before it was opened.
	ErrNotInitialized = errors.New("store is not initialized")

	// ErrStorageUnavailable is returned by writes that bypass the degraded
	// store, e.g. sync downloads.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// ErrValidation wraps input validation failures.
	ErrValidation = errors.New("validation error")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// Remote store errors.
	ErrNotConfigured     = errors.New("remote backend is not configured")
	ErrRemoteUnavailable = errors.New("remote backend unavailable")
	ErrOwnershipConflict = errors.New("record is owned by another identity")
	ErrSyncNotAuthorized = errors.New("sync requires an authenticated identity")

	// ErrInvalidToken marks a malformed, revoked or rejected token.
	ErrInvalidToken = errors.New("invalid token")
)
