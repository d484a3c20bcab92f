package auth

import (
	"testing"
	"time"

	"github.com/kd-debug/fix-my-ride/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHashAndCheckPassword(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	hash, err := s.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, s.CheckPassword("password123", hash))
	assert.False(t, s.CheckPassword("wrongpass", hash))
}

func TestGenerateAndValidateToken(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	user := &models.User{
		ID:    primitive.NewObjectID(),
		Email: "alice@example.com",
		Role:  models.RoleMechanic,
	}

	token, err := s.GenerateToken(user)
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, models.RoleMechanic, claims.Role)

	// Bearer prefix is tolerated.
	claims, err = s.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
}

func TestValidateToken_Expired(t *testing.T) {
	s := NewService("test-secret", -time.Minute)

	user := &models.User{ID: primitive.NewObjectID(), Email: "alice@example.com", Role: models.RoleUser}
	token, err := s.GenerateToken(user)
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	s := NewService("test-secret", time.Hour)
	other := NewService("other-secret", time.Hour)

	user := &models.User{ID: primitive.NewObjectID(), Email: "alice@example.com", Role: models.RoleUser}
	token, err := s.GenerateToken(user)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromHeader(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	token, err := s.ExtractTokenFromHeader("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = s.ExtractTokenFromHeader("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ExtractTokenFromHeader("abc123")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ExtractTokenFromHeader("Basic abc123")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidators(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	assert.NoError(t, s.ValidatePassword("password123"))
	assert.Error(t, s.ValidatePassword("short"))

	assert.NoError(t, s.ValidateEmail("alice@example.com"))
	assert.Error(t, s.ValidateEmail("not-an-email"))

	assert.NoError(t, s.ValidateName("Alice Driver"))
	assert.Error(t, s.ValidateName("A"))
}
