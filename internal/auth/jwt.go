// Package auth is the identity collaborator: it issues and checks session
// tokens, hashes passwords, and talks to GitHub for OAuth login.
//
// SESSION FLOW:
//  1. Signup or login succeeds → TokenService.Generate(userID) returns a JWT
//  2. The client keeps the token and sends it as "Authorization: Bearer <jwt>"
//     (browsers may rely on the HttpOnly "token" cookie instead)
//  3. RequireAuth validates the token and puts a model.Session in the context
//  4. Handlers pass that Session explicitly to the services that need it
//
// Only this package knows that the token is a JWT. Everything above it treats
// the token as an opaque string.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "codesync"

	// DefaultTokenTTL is how long a session stays valid when the config does not say.
	DefaultTokenTTL = 24 * time.Hour
)

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used both to sign and to verify tokens, and the
// lifetime stamped into every new token.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// The secret should be at least 32 bytes of random data in production.
// Example: CODESYNC_JWT_SECRET=$(openssl rand -hex 32)
//
// A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of newly issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// claims is the JWT payload. The user ID lives in the standard "sub" claim.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a token for userID using the configured lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Tests use it to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: cannot issue a token without a user ID")
	}

	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string and returns its user ID.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid and was made with HS256 (blocks "alg: none" tokens)
//   - Token is not expired, and has an expiry at all
//   - Issuer is "codesync", so tokens minted for other apps are refused
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return c.Subject, nil
}
