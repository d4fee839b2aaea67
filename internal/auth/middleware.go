package auth

import (
	"net/http"
	"strings"

	"github.com/stampdesk/stampdesk/internal/platform/httpx"
	"github.com/stampdesk/stampdesk/internal/shared"
)

// Guard provides authentication and role middleware backed by bearer tokens.
type Guard struct {
	tokens *TokenManager
}

// NewGuard constructs Guard.
func NewGuard(tokens *TokenManager) Guard {
	return Guard{tokens: tokens}
}

// Authenticate verifies the Authorization bearer token and stores the actor
// in the request context.
func (g Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		actor, err := g.tokens.Verify(token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// RequireAdmin rejects non-admin actors. It assumes Authenticate ran first.
func (g Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := shared.ActorFromContext(r.Context())
		if !ok {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		if !actor.IsAdmin() {
			httpx.RespondError(w, shared.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
