package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusmesh/internal/app/models"
)

func newTestService(exp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: exp,
		TokenIssuer:    "campusmesh-test",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService(time.Hour)

	token, expiresAt, err := svc.GenerateToken("user-1", "a@campus.test", models.RoleTeacher)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateAndExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "a@campus.test", claims.Email)
	assert.Equal(t, "teacher", claims.Role)
}

func TestValidateRejects(t *testing.T) {
	svc := newTestService(time.Hour)

	t.Run("empty", func(t *testing.T) {
		_, err := svc.ValidateAndExtractClaims("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAndExtractClaims("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "campusmesh-test"})
		token, _, err := other.GenerateToken("user-1", "a@campus.test", models.RoleStudent)
		require.NoError(t, err)
		_, err = svc.ValidateAndExtractClaims(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := newTestService(-time.Minute)
		token, _, err := expired.GenerateToken("user-1", "a@campus.test", models.RoleStudent)
		require.NoError(t, err)
		_, err = svc.ValidateAndExtractClaims(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, _, err := svc.GenerateToken("", "a@campus.test", models.RoleStudent)
		require.NoError(t, err)
		_, err = svc.ValidateAndExtractClaims(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	tok, err = ExtractBearerToken("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ExtractBearerToken("Bearer ")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	tok, err = ExtractBearerToken("bearer  xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	_, err = ExtractBearerToken("  bearer  ")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ExtractBearerToken("Basic dXNlcjpwYXNz")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
