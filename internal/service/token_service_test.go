package service

import (
	"testing"
	"time"

	"corebank/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "corebank")
	userID := uuid.New()

	token, expiry, err := svc.Generate(userID, domain.RoleUser)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiry.After(time.Now()))

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestJWTTokenService_AdminRoleRoundTrip(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "corebank")

	token, _, err := svc.Generate(uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestJWTTokenService_WrongSecret(t *testing.T) {
	svc1 := NewJWTTokenService("secret-one", time.Hour, "corebank")
	svc2 := NewJWTTokenService("secret-two", time.Hour, "corebank")

	token, _, err := svc1.Generate(uuid.New(), domain.RoleUser)
	require.NoError(t, err)

	_, err = svc2.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Expired(t *testing.T) {
	svc := NewJWTTokenService("test-secret", -time.Minute, "corebank")

	token, _, err := svc.Generate(uuid.New(), domain.RoleUser)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Garbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "corebank")

	_, err := svc.Validate("not.a.jwt")
	assert.Error(t, err)
	_, err = svc.Validate("")
	assert.Error(t, err)
}
