package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispomail/backend/internal/domain"
)

func newTestManager(accessExpiry time.Duration) *Manager {
	return NewManager("test-secret-key-for-unit-tests-0123456789", "dispomail-test", accessExpiry, 24*time.Hour)
}

func testUser() *domain.User {
	return &domain.User{
		ID:    "user-1",
		Email: "alice@example.com",
		Plan:  domain.PlanFree,
	}
}

func TestGenerateAndValidate(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	pair, err := m.GenerateTokenPair(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	t.Run("访问令牌校验通过", func(t *testing.T) {
		claims, err := m.ValidateToken(pair.AccessToken, AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.Equal(t, domain.PlanFree, claims.Plan)
	})

	t.Run("刷新令牌不能当访问令牌用", func(t *testing.T) {
		_, err := m.ValidateToken(pair.RefreshToken, AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("刷新令牌按类型校验通过", func(t *testing.T) {
		claims, err := m.ValidateToken(pair.RefreshToken, RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})
}

func TestValidateToken_Invalid(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	t.Run("格式错误", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-jwt", AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("密钥不匹配", func(t *testing.T) {
		other := NewManager("another-secret-key-that-is-long-enough-xx", "dispomail-test", time.Minute, time.Hour)
		pair, err := other.GenerateTokenPair(testUser())
		require.NoError(t, err)

		_, err = m.ValidateToken(pair.AccessToken, AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("令牌过期", func(t *testing.T) {
		expired := newTestManager(-time.Minute)
		pair, err := expired.GenerateTokenPair(testUser())
		require.NoError(t, err)

		_, err = m.ValidateToken(pair.AccessToken, AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}
