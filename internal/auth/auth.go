// Package auth mints and verifies the HS256 bearer tokens that identify
// callers. Tokens are issued by the identity provider that owns accounts;
// MakeToken exists for local tooling and tests.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Jessiellen/shareup-app/internal/application"
)

var ErrBadToken = errors.New("invalid token")

// DefaultTTL is the lifetime of tokens minted by MakeToken.
const DefaultTTL = 15 * time.Minute

type Claims struct {
	UserID string  `json:"uid"`
	Name   string  `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the application's caller identity.
func (c *Claims) Principal() application.Principal {
	principal := application.Principal{UserID: c.UserID, DisplayName: c.Name}
	if c.Avatar != nil {
		avatar := *c.Avatar
		principal.Avatar = &avatar
	}
	return principal
}

// MakeToken signs a token for principal that expires after ttl.
// A non-positive ttl uses DefaultTTL.
func MakeToken(principal application.Principal, secret string, ttl time.Duration) (string, error) {
	if principal.UserID == "" {
		return "", errors.New("user id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	c := Claims{
		UserID: principal.UserID,
		Name:   principal.DisplayName,
		Avatar: principal.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// ParseToken verifies raw and returns its claims. Tokens that are expired,
// signed with a non-HMAC algorithm, or missing a uid are rejected.
func ParseToken(raw, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Join(ErrBadToken, err)
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.UserID == "" {
		return nil, ErrBadToken
	}
	return c, nil
}
