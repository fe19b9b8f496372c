package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
)

const (
	// DefaultSessionTTL is the lifetime of locally issued session tokens.
	DefaultSessionTTL = 7 * 24 * time.Hour

	tokenIssuer   = "paddy"
	minSigningKey = 32
)

// sessionClaims are carried by locally issued session tokens.
type sessionClaims struct {
	Email    string `json:"email"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 session tokens for the local provider.
type TokenIssuer struct {
	now func() time.Time
	key []byte
	ttl time.Duration
}

// NewTokenIssuer creates an issuer. The key must be at least 32 bytes.
func NewTokenIssuer(key []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(key) < minSigningKey {
		return nil, fmt.Errorf("%w: signing key must be at least %d bytes", common.ErrInvalidConfig, minSigningKey)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenIssuer{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue mints a session token for user and returns it with its expiry.
func (t *TokenIssuer) Issue(user *model.User, provider string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)

	claims := sessionClaims{
		Email:    user.Email,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature and expiry of a session token.
func (t *TokenIssuer) Verify(raw string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	return claims, nil
}

// tokenExpiry reads the exp claim of a JWT without verifying it. Tokens
// from a hosted provider are verified by the provider; only the expiry is
// needed locally. A token without exp yields the zero time.
func tokenExpiry(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read token expiry: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// LoadOrCreateKey returns the hex-encoded signing key stored at path,
// generating and saving a new random key when the file does not exist.
func LoadOrCreateKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err == nil {
		key, decodeErr := hex.DecodeString(strings.TrimSpace(string(data)))
		if decodeErr != nil {
			return nil, fmt.Errorf("failed to decode signing key %s: %w", path, decodeErr)
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	key := make([]byte, minSigningKey)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0600); err != nil {
		return nil, fmt.Errorf("failed to save signing key: %w", err)
	}
	return key, nil
}
