// Package auth provides password hashing, bearer token issuance and the
// middleware that turns a bearer token into a request identity.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /auth/login checks email + password and returns an access token
//  2. The client sends it back as "Authorization: Bearer <token>"
//  3. RequireAuth validates the token, loads the user it names, and puts that
//     user in the request context for the handlers
//
// WHY JWT?
// The token is stateless: the server verifies it with the secret alone, and
// its expiry is the only way it stops working. Nothing is stored or revoked.
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<user id>","iss":"expense-tracker","iat":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written to and required in every token.
const Issuer = "expense-tracker"

// ErrInvalidToken is the only error Validate returns. Callers never learn
// whether a token was expired, forged or malformed.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithClock replaces the wall clock. Tests use it to step past expiry.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a TokenService that signs with secret and issues
// tokens valid for ttl.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration, opts ...Option) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// claims is the JWT payload; "sub" carries the user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Issue signs a token for subject with the default lifetime.
func (s *TokenService) Issue(subject string) (string, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL signs a token for subject that expires after ttl.
// A negative ttl yields an already expired token, which tests rely on.
func (s *TokenService) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("auth: token subject must not be empty")
	}

	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies token and returns its subject.
//
// VALIDATION CHECKS:
//   - Algorithm is HS256 (no "none", no RSA/HMAC confusion)
//   - Signature matches
//   - Issuer is "expense-tracker"
//   - exp is present and in the future
//   - Every segment is canonical base64url, so no bit of the token can change
//     without the token being rejected
func (s *TokenService) Validate(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)

	parsed, err := parser.ParseWithClaims(token, &claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
