// Package auth issues and verifies the bearer tokens that identify callers.
// Tokens are HMAC-signed JWTs carrying the user ID and an admin flag.
package auth

import (
	"fmt"
	"time"

	"promo-service/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager mints and parses caller tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token manager with the given signing secret and
// token lifetime.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// tokenClaims is the JWT claim set used by the service.
type tokenClaims struct {
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Issue creates a signed token for the given user.
func (m *Manager) Issue(userID uuid.UUID, admin bool) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID: userID.String(),
		Admin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token string and returns the caller it identifies.
// Expired or tampered tokens fail; only HMAC-signed tokens are accepted.
func (m *Manager) Parse(tokenString string) (model.Caller, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return model.Anonymous, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return model.Anonymous, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return model.Anonymous, fmt.Errorf("invalid user_id claim: %w", err)
	}

	return model.Caller{
		ID:            userID,
		Admin:         claims.Admin,
		Authenticated: true,
	}, nil
}
