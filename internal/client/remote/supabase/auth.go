package supabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

// SetupCompleteKey is the user metadata field that marks finished onboarding.
const SetupCompleteKey = "has_completed_setup"

func (c *Client) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sb.Auth.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if resp.Session.AccessToken == "" {
		return nil, fmt.Errorf("sign up %s: email confirmation pending: %w", email, common.ErrorUnauthorized)
	}
	c.sb.UpdateAuthSession(resp.Session)
	return toSession(resp.Session, resp.User.ID), nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.sb.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w: %v", common.ErrorUnauthorized, err)
	}
	return toSession(s, uuid.Nil), nil
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.sb.RefreshToken(refreshToken)
	if err != nil {
		// Transport errors mean offline; anything GoTrue answers is a rejection.
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) {
			return nil, fmt.Errorf("refresh session: %w: %v", common.ErrRemoteUnavailable, err)
		}
		return nil, fmt.Errorf("refresh session: %w: %v", common.ErrInvalidToken, err)
	}
	c.sb.UpdateAuthSession(s)
	return toSession(s, uuid.Nil), nil
}

// SignOut revokes the session and drops back to the anon key.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.sb.Auth.Logout()
	c.sb.UpdateAuthSession(types.Session{AccessToken: c.key})
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func toSession(s types.Session, fallbackID uuid.UUID) *models.AuthSession {
	id := s.User.ID
	if id == uuid.Nil {
		id = fallbackID
	}
	expires := time.Unix(s.ExpiresAt, 0).UTC()
	if s.ExpiresAt == 0 {
		expires = time.Now().UTC().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	setup, _ := s.User.UserMetadata[SetupCompleteKey].(bool)
	return &models.AuthSession{
		UserID:        id.String(),
		Email:         s.User.Email,
		AccessToken:   s.AccessToken,
		RefreshToken:  s.RefreshToken,
		ExpiresAt:     expires,
		SetupComplete: setup,
	}
}
