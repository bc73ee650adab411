package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService("secret")

	token, err := auth.IssueToken("user-1", RoleTeacher, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, RoleTeacher, claims.Role())
}

func TestAuthService_RejectsWrongSecret(t *testing.T) {
	token, err := NewAuthService("one").IssueToken("user-1", RoleStudent, time.Hour)
	require.NoError(t, err)

	_, err = NewAuthService("two").ValidateToken(token)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestAuthService_Expired(t *testing.T) {
	auth := NewAuthService("secret")
	auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := auth.IssueToken("user-1", RoleStudent, time.Hour)
	require.NoError(t, err)

	auth.now = time.Now
	_, err = auth.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthService_Garbage(t *testing.T) {
	_, err := NewAuthService("secret").ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
