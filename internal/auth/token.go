package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stampdesk/stampdesk/internal/shared"
)

type claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// TokenManager signs and verifies HS256 bearer tokens carrying the actor.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager constructs TokenManager. A non-positive ttl defaults to
// eight hours.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the actor and returns it with its expiry.
func (m *TokenManager) Issue(actor shared.Actor) (string, time.Time, error) {
	expiresAt := time.Now().UTC().Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(actor.ID, 10),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name: actor.Name,
		Role: actor.Role,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses a token string back into the actor it was issued for.
func (m *TokenManager) Verify(tokenStr string) (shared.Actor, error) {
	parsed := &claims{}
	token, err := jwt.ParseWithClaims(tokenStr, parsed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return shared.Actor{}, fmt.Errorf("%w: invalid or expired token", shared.ErrUnauthorized)
	}
	id, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || id <= 0 {
		return shared.Actor{}, fmt.Errorf("%w: malformed subject", shared.ErrUnauthorized)
	}
	return shared.Actor{ID: id, Name: parsed.Name, Role: parsed.Role}, nil
}
