package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID = "8d5c2a8e-4a52-4bb5-9c1c-4b2c4f0f6a11"

func sessionJSON(token string) map[string]any {
	return map[string]any{
		"access_token":  token,
		"refresh_token": "refresh-" + token,
		"token_type":    "bearer",
		"expires_in":    3600,
		"expires_at":    1893456000,
		"user": map[string]any{
			"id":            userID,
			"email":         "ada@example.com",
			"user_metadata": map[string]any{SetupCompleteKey: true},
		},
	}
}

func TestSignIn_ReturnsSessionAndAuthorizesRest(t *testing.T) {
	c, fp := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			writeJSON(w, http.StatusOK, sessionJSON("jwt-1"))
		default:
			writeJSON(w, http.StatusOK, []any{})
		}
	})
	ctx := context.Background()

	s, err := c.SignIn(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, "ada@example.com", s.Email)
	assert.Equal(t, "jwt-1", s.AccessToken)
	assert.Equal(t, "refresh-jwt-1", s.RefreshToken)
	assert.True(t, s.SetupComplete)
	assert.Equal(t, time.Unix(1893456000, 0).UTC(), s.ExpiresAt)

	r, _ := fp.last()
	assert.Equal(t, "password", r.URL.Query().Get("grant_type"))

	_, err = c.FetchUpdated(ctx, userID, nil)
	require.NoError(t, err)
	r, _ = fp.last()
	assert.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
}

func TestSignIn_Rejected(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Invalid login credentials"})
	})

	_, err := c.SignIn(context.Background(), "ada@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestSignUp(t *testing.T) {
	c, fp := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionJSON("jwt-new"))
	})

	s, err := c.SignUp(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-new", s.AccessToken)
	assert.Equal(t, userID, s.UserID)

	r, _ := fp.last()
	assert.Equal(t, "/auth/v1/signup", r.URL.Path)
}

func TestSignUp_ConfirmationPending(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": userID, "email": "ada@example.com"})
	})

	_, err := c.SignUp(context.Background(), "ada@example.com", "secret")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestSignOut_ReturnsToAnonKey(t *testing.T) {
	c, fp := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			writeJSON(w, http.StatusOK, sessionJSON("jwt-1"))
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusOK, []any{})
		}
	})
	ctx := context.Background()

	_, err := c.SignIn(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, c.SignOut(ctx))

	require.NoError(t, c.Ping(ctx))
	r, _ := fp.last()
	assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
}

func TestRefresh(t *testing.T) {
	c, fp := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionJSON("jwt-2"))
	})

	s, err := c.Refresh(context.Background(), "refresh-jwt-1")
	require.NoError(t, err)
	assert.Equal(t, "jwt-2", s.AccessToken)
	r, _ := fp.last()
	assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
}

func TestRefresh_RejectedVersusOffline(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
	})
	_, err := c.Refresh(context.Background(), "revoked")
	require.ErrorIs(t, err, common.ErrInvalidToken)

	srv := httptest.NewServer(http.NotFoundHandler())
	offline, err := New(srv.URL, "anon-key")
	require.NoError(t, err)
	srv.Close()

	_, err = offline.Refresh(context.Background(), "refresh-jwt-1")
	require.ErrorIs(t, err, common.ErrRemoteUnavailable)
	assert.NotErrorIs(t, err, common.ErrInvalidToken)
}
