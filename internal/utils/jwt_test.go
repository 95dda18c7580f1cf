package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	tok, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)
	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestNewAccessToken(t *testing.T) {
	at, err := NewAccessToken(testSecret, 42, "ORGANIZER", 15)
	require.NoError(t, err)
	assert.NotEmpty(t, at.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

	claims := parseClaims(t, at.Token)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "ORGANIZER", claims["role"])
}

func TestNewAccessToken_WrongSecretFails(t *testing.T) {
	at, err := NewAccessToken(testSecret, 1, "CUSTOMER", 15)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestNewAgentToken(t *testing.T) {
	at, err := NewAgentToken(testSecret, 7, 30)
	require.NoError(t, err)

	claims := parseClaims(t, at.Token)
	assert.Equal(t, float64(7), claims["sub"])
	assert.Equal(t, "AGENT", claims["role"])
}

func TestNewRefreshToken(t *testing.T) {
	r1, err := NewRefreshToken(30)
	require.NoError(t, err)
	r2, err := NewRefreshToken(30)
	require.NoError(t, err)

	assert.Len(t, r1.Raw, 96)
	assert.NotEqual(t, r1.Raw, r2.Raw)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), r1.Exp, 5*time.Second)
}

func TestHashRefreshRaw(t *testing.T) {
	h := HashRefreshRaw("some-raw-token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRefreshRaw("some-raw-token"))
	assert.NotEqual(t, h, HashRefreshRaw("other-raw-token"))
}
