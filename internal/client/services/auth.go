// Package services contains the application services of the promptkeeper
// client: authentication, guest data migration, first-run seeding and the
// session that ties identity changes to the sync engine.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/identity"
	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// SessionKey is the metadata key of the cached auth session.
const SessionKey = "auth_session"

// Authenticator is the authentication collaborator, e.g. GoTrue.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error)
	SignOut(ctx context.Context) error
	// SetSession makes later remote calls use s; nil resets to anonymous.
	SetSession(s *models.AuthSession)
}

// SessionCache persists the session between runs.
type SessionCache interface {
	LoadJSON(ctx context.Context, key string, v any) (bool, error)
	SaveJSON(ctx context.Context, key string, v any) error
	DeleteKey(ctx context.Context, key string) error
}

// AuthService signs users in and out and publishes the result to the
// identity context.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignOut(ctx context.Context) error
	// Restore brings back the cached session, offline if need be.
	Restore(ctx context.Context) (models.Identity, error)
}

type authService struct {
	auth  Authenticator
	cache SessionCache
	ident *identity.Context
	log   logging.Logger
	now   func() time.Time
}

func NewAuthService(auth Authenticator, cache SessionCache, ident *identity.Context, log logging.Logger) AuthService {
	if log == nil {
		log = logging.NewNop()
	}
	return &authService{auth: auth, cache: cache, ident: ident, log: log.With("component", "auth"), now: time.Now}
}

func (a *authService) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if a.auth == nil {
		return nil, common.ErrNotConfigured
	}
	s, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.activate(ctx, s)
	return s, nil
}

func (a *authService) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if a.auth == nil {
		return nil, common.ErrNotConfigured
	}
	s, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.activate(ctx, s)
	return s, nil
}

// SignOut always ends the local session; a failed remote logout is logged.
func (a *authService) SignOut(ctx context.Context) error {
	if a.auth != nil {
		if err := a.auth.SignOut(ctx); err != nil {
			a.log.Warn(ctx, "remote sign out failed", "error", err)
		}
		a.auth.SetSession(nil)
	}
	if err := a.cache.DeleteKey(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.ident.SignOut()
	return nil
}

func (a *authService) Restore(ctx context.Context) (models.Identity, error) {
	a.ident.SetLoading(true)

	var s models.AuthSession
	found, err := a.cache.LoadJSON(ctx, SessionKey, &s)
	if err != nil || !found {
		a.ident.SetIdentity(models.Anonymous(), false)
		if err != nil {
			return models.Anonymous(), fmt.Errorf("load session: %w", err)
		}
		return models.Anonymous(), nil
	}

	sub, exp, err := tokenClaims(s.AccessToken)
	if err != nil || sub != s.UserID {
		a.log.Warn(ctx, "discarding cached session", "error", err)
		return a.forget(ctx)
	}

	if exp.Before(a.now()) && a.auth != nil {
		fresh, err := a.auth.Refresh(ctx, s.RefreshToken)
		switch {
		case err == nil:
			if fresh.UserID == "" {
				fresh.UserID = s.UserID
			}
			s = *fresh
			if err := a.cache.SaveJSON(ctx, SessionKey, &s); err != nil {
				a.log.Warn(ctx, "save refreshed session", "error", err)
			}
		case errors.Is(err, common.ErrInvalidToken):
			a.log.Warn(ctx, "refresh rejected, signing out", "error", err)
			return a.forget(ctx)
		default:
			// Offline: keep working under the cached identity.
			a.log.Info(ctx, "session expired and refresh failed, continuing offline", "error", err)
		}
	}

	if a.auth != nil {
		a.auth.SetSession(&s)
	}
	id := models.Authenticated(s.UserID)
	a.ident.SetIdentity(id, s.SetupComplete)
	return id, nil
}

func (a *authService) activate(ctx context.Context, s *models.AuthSession) {
	if err := a.cache.SaveJSON(ctx, SessionKey, s); err != nil {
		a.log.Warn(ctx, "session not cached", "error", err)
	}
	a.auth.SetSession(s)
	a.ident.SetIdentity(models.Authenticated(s.UserID), s.SetupComplete)
}

func (a *authService) forget(ctx context.Context) (models.Identity, error) {
	if err := a.cache.DeleteKey(ctx, SessionKey); err != nil {
		a.log.Warn(ctx, "clear session", "error", err)
	}
	if a.auth != nil {
		a.auth.SetSession(nil)
	}
	a.ident.SetIdentity(models.Anonymous(), false)
	return models.Anonymous(), nil
}

// tokenClaims reads sub and exp without verifying the signature. The token
// came from our own auth backend and is only used to recover the identity
// offline; the backend still verifies it on every request.
func tokenClaims(token string) (string, time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return "", time.Time{}, common.ErrInvalidToken
	}
	return claims.Subject, claims.ExpiresAt.Time, nil
}
