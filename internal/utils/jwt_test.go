package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func parseToken(t *testing.T, raw, secret string) jwt.MapClaims {
	t.Helper()
	tok, err := jwt.Parse(raw, func(tk *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)
	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken(testSecret, 42, "G4XYZ", "OPERATOR", 15)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)

	claims := parseToken(t, at.Token, testSecret)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "G4XYZ", claims["call_sign"])
	assert.Equal(t, "OPERATOR", claims["role"])

	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	assert.InDelta(t, time.Now().Add(15*time.Minute).Unix(), int64(exp), 5)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), at.Exp, 5*time.Second)
}

func TestNewAccessTokenRejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken(testSecret, 1, "M0ABC", "ADMIN", 15)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestNewRefreshToken(t *testing.T) {
	r1, err := NewRefreshToken(30)
	require.NoError(t, err)
	r2, err := NewRefreshToken(30)
	require.NoError(t, err)

	assert.Len(t, r1.Raw, 96) // 48 random bytes, hex encoded
	assert.NotEqual(t, r1.Raw, r2.Raw)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), r1.Exp, 5*time.Second)
}

func TestHashRefreshRaw(t *testing.T) {
	h := HashRefreshRaw("some-raw-token")
	assert.Len(t, h, 64) // SHA-256 hex
	assert.Equal(t, h, HashRefreshRaw("some-raw-token"))
	assert.NotEqual(t, h, HashRefreshRaw("another-token"))
}

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))
}
