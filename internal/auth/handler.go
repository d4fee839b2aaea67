package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stampdesk/stampdesk/internal/platform/httpx"
	"github.com/stampdesk/stampdesk/internal/shared"
	"github.com/stampdesk/stampdesk/internal/users"
)

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (users.User, error)
}

// Handler exposes the login endpoint.
type Handler struct {
	logger   *slog.Logger
	users    Authenticator
	tokens   *TokenManager
	validate *validator.Validate
}

// NewHandler constructs the auth handler.
func NewHandler(logger *slog.Logger, auth Authenticator, tokens *TokenManager, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, users: auth, tokens: tokens, validate: validate}
}

// MountRoutes registers the unauthenticated login route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        users.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("login failed", slog.String("username", req.Username))
		httpx.RespondError(w, err)
		return
	}
	token, expiresAt, err := h.tokens.Issue(shared.Actor{ID: user.ID, Name: user.FullName, Role: user.Role})
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("login", slog.String("username", user.Username))
	httpx.JSON(w, http.StatusOK, loginResponse{AccessToken: token, ExpiresAt: expiresAt, User: user})
}
