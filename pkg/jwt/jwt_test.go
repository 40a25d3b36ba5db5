package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.GenerateToken(Identity{UserID: 7, Email: "a@b.c", Name: "Ada"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, RoleStudent, claims.Role)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := NewService("one", time.Hour).GenerateToken(Identity{UserID: 1})
	require.NoError(t, err)

	_, err = NewService("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	svc := NewService("s", -time.Minute)
	token, err := svc.GenerateToken(Identity{UserID: 1})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestHasRole(t *testing.T) {
	admin := &JWTClaims{Role: RoleAdmin}
	student := &JWTClaims{Role: RoleStudent}

	assert.True(t, admin.HasRole(RoleStudent))
	assert.True(t, student.HasRole(RoleStudent))
	assert.False(t, student.HasRole(RoleAdmin))
}
