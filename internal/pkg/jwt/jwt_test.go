package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-attendance"

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService(testSecret)

	token, expiresAt, err := svc.GenerateAccessToken("user-1", user.RoleManager, time.Hour)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "manager", claims["role"])
	assert.Equal(t, "access", claims["type"])
}

func TestSSEToken_RoundTrip(t *testing.T) {
	svc := NewJWTService(testSecret)

	token, expiresIn, err := svc.GenerateSSEToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestValidateSSEToken_RejectsAccessToken(t *testing.T) {
	svc := NewJWTService(testSecret)

	access, _, err := svc.GenerateAccessToken("user-1", user.RoleEmployee, time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(access)
	assert.Error(t, err)
}

func TestValidateSSEToken_RejectsForeignSignature(t *testing.T) {
	other := NewJWTService("another-secret")
	token, _, err := other.GenerateSSEToken("user-1")
	require.NoError(t, err)

	_, err = NewJWTService(testSecret).ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestValidateSSEToken_RejectsExpired(t *testing.T) {
	svc := NewJWTService(testSecret)
	_, token, err := svc.JWTAuth().Encode(map[string]interface{}{
		"user_id": "user-1",
		"type":    "sse",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(token)
	assert.Error(t, err)
}
