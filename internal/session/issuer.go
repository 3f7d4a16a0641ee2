// Package session issues and verifies the stateless access_token cookie.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie carrying the signed token.
const CookieName = "access_token"

var (
	// ErrInvalidToken covers bad signatures, wrong algorithms and malformed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned once exp has passed.
	ErrExpiredToken = errors.New("token has expired")
)

// Principal identifies the logged-in user.
type Principal struct {
	Provider   string
	ExternalID string
	Email      *string
}

// Subject renders the "provider:external_id" subject.
func (p Principal) Subject() string {
	return p.Provider + ":" + p.ExternalID
}

// Claims is the signed payload. Subject holds "provider:external_id".
type Claims struct {
	Provider string  `json:"provider"`
	Email    *string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures the Issuer during construction.
type Option func(*Issuer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer constructs an Issuer.
func NewIssuer(secret string, ttl time.Duration, opts ...Option) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	i := &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL returns the token lifetime, which is also the cookie Max-Age.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for p.
func (i *Issuer) Issue(p Principal) (string, error) {
	now := i.now()
	claims := Claims{
		Provider: p.Provider,
		Email:    p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   p.Subject(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
