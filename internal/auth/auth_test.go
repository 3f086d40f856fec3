package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickeybyalsky/rfd-api/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret: []byte("test-secret"),
		TokenTTL:  30 * time.Minute,
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, CheckPassword("hunter22", hash))
	assert.False(t, CheckPassword("hunter23", hash))
}

func TestPasswordHashesDiffer(t *testing.T) {
	first, err := HashPassword("hunter22")
	require.NoError(t, err)
	second, err := HashPassword("hunter22")
	require.NoError(t, err)

	// Per-call salt: same input, different outputs, both verifiable.
	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword("hunter22", first))
	assert.True(t, CheckPassword("hunter22", second))
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testConfig())

	token, err := svc.Issue(42, "alice")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice", claims.Subject)
}

func TestTokenExpires(t *testing.T) {
	svc := NewTokenService(testConfig())

	current := time.Now()
	svc.now = func() time.Time { return current }

	token, err := svc.Issue(42, "alice")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.NoError(t, err)

	// Advance past the TTL and the same token stops verifying.
	current = current.Add(31 * time.Minute)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	svc := NewTokenService(testConfig())
	other := NewTokenService(config.Config{JWTSecret: []byte("other-secret"), TokenTTL: time.Hour})

	token, err := svc.Issue(42, "alice")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenMalformed(t *testing.T) {
	svc := NewTokenService(testConfig())

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}
