package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("secret")

	token, err := GenerateToken("sess-1", secret, time.Hour)
	require.NoError(t, err)

	sessionID, err := SessionIDFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sessionID)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("sess-1", []byte("secret"), time.Hour)
	require.NoError(t, err)

	_, err = SessionIDFromToken(token, []byte("other"))
	assert.Error(t, err)
}

func TestTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("sess-1", []byte("secret"), -time.Minute)
	require.NoError(t, err)

	_, err = SessionIDFromToken(token, []byte("secret"))
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	_, err := SessionIDFromToken("not.a.token", []byte("secret"))
	assert.Error(t, err)
}

func TestTokenRejectsEmptySessionID(t *testing.T) {
	token, err := GenerateToken("", []byte("secret"), time.Hour)
	require.NoError(t, err)

	_, err = SessionIDFromToken(token, []byte("secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
