package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	ti, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	token, err := ti.Issue("session-1")
	require.NoError(t, err)

	assert.NoError(t, ti.Verify(token, "session-1"))
}

func TestTokenIssuer_Verify(t *testing.T) {
	ti, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	token, err := ti.Issue("session-1")
	require.NoError(t, err)

	t.Run("other session", func(t *testing.T) {
		err := ti.Verify(token, "session-2")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidSubject)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewTokenIssuer("another-secret", time.Hour)
		require.NoError(t, err)
		assert.ErrorIs(t, other.Verify(token, "session-1"), ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		ti.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { ti.now = time.Now }()

		err := ti.Verify(token, "session-1")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		assert.ErrorIs(t, ti.Verify("not-a-token", "session-1"), ErrInvalidToken)
	})
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}
