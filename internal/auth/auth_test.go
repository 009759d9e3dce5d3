package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jessiellen/shareup-app/internal/application"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	avatar := "https://cdn.example.com/alice.png"
	principal := application.Principal{UserID: "alice", DisplayName: "Alice", Avatar: &avatar}

	raw, err := MakeToken(principal, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(raw, testSecret)
	require.NoError(t, err)
	assert.Equal(t, principal, claims.Principal())
	assert.Equal(t, "alice", claims.Subject)
}

func TestMakeTokenRequiresUserID(t *testing.T) {
	_, err := MakeToken(application.Principal{DisplayName: "Nobody"}, testSecret, 0)
	assert.Error(t, err)
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := MakeToken(application.Principal{UserID: "alice"}, testSecret, time.Hour)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "alice"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct {
		raw    string
		secret string
	}{
		"wrong secret":   {raw: valid, secret: "other"},
		"expired":        {raw: expired, secret: testSecret},
		"missing expiry": {raw: noExpiry, secret: testSecret},
		"missing user":   {raw: noUser, secret: testSecret},
		"none algorithm": {raw: unsigned, secret: testSecret},
		"garbage":        {raw: "not-a-token", secret: testSecret},
		"empty":          {raw: "", secret: testSecret},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tc.raw, tc.secret)
			assert.ErrorIs(t, err, ErrBadToken)
		})
	}
}
