package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stampdesk/stampdesk/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("unit-secret", time.Hour)
	actor := shared.Actor{ID: 42, Name: "Trần Thị B", Role: shared.RoleAdmin}

	token, expiresAt, err := tm.Issue(actor)
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	parsed, err := tm.Verify(token)
	require.NoError(t, err)
	require.Equal(t, actor, parsed)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("unit-secret", time.Hour)
	tm.ttl = -time.Minute
	token, _, err := tm.Issue(shared.Actor{ID: 1, Name: "x", Role: shared.RoleEmployee})
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", time.Hour).Issue(shared.Actor{ID: 1, Name: "x", Role: shared.RoleEmployee})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Verify(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestAuthenticateMiddleware(t *testing.T) {
	tm := NewTokenManager("unit-secret", time.Hour)
	guard := NewGuard(tm)

	var seen shared.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		guard.Authenticate(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, _, err := tm.Issue(shared.Actor{ID: 9, Name: "lan", Role: shared.RoleEmployee})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		guard.Authenticate(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.EqualValues(t, 9, seen.ID)
		require.Equal(t, shared.RoleEmployee, seen.Role)
	})
}

func TestRequireAdmin(t *testing.T) {
	guard := NewGuard(NewTokenManager("unit-secret", time.Hour))
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("employee forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		ctx := shared.ContextWithActor(req.Context(), shared.Actor{ID: 2, Role: shared.RoleEmployee})
		rec := httptest.NewRecorder()
		guard.RequireAdmin(next).ServeHTTP(rec, req.WithContext(ctx))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		ctx := shared.ContextWithActor(req.Context(), shared.Actor{ID: 1, Role: shared.RoleAdmin})
		rec := httptest.NewRecorder()
		guard.RequireAdmin(next).ServeHTTP(rec, req.WithContext(ctx))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}
