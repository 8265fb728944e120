package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// State token errors.
var (
	// ErrInvalidState indicates the state token failed verification.
	ErrInvalidState = errors.New("invalid state token")
)

// StateConfig holds configuration for OAuth state tokens.
type StateConfig struct {
	// SigningKey signs state tokens (required).
	SigningKey string

	// TTL is the state token lifetime (default: 10 minutes). The whole
	// authorize round trip through the platform has to finish within it.
	TTL time.Duration
}

// StateIssuer issues and verifies the signed state value the browser flow
// carries through the platform's authorize redirect, so the callback can
// reject forged redirects.
type StateIssuer struct {
	signingKey []byte
	ttl        time.Duration
}

// NewStateIssuer creates a new state issuer.
func NewStateIssuer(cfg StateConfig) *StateIssuer {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &StateIssuer{
		signingKey: []byte(cfg.SigningKey),
		ttl:        ttl,
	}
}

type stateClaims struct {
	jwt.RegisteredClaims
}

// Issue returns a fresh signed state token and its expiry.
func (s *StateIssuer) Issue() (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   "oauth-state",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks a state token's signature and expiry.
func (s *StateIssuer) Verify(tokenString string) error {
	if tokenString == "" {
		return ErrInvalidState
	}

	token, err := jwt.ParseWithClaims(tokenString, &stateClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidState
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidState
	}

	claims, ok := token.Claims.(*stateClaims)
	if !ok || claims.Subject != "oauth-state" {
		return ErrInvalidState
	}

	return nil
}
