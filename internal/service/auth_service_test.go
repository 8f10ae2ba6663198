package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailqa/internal/model"
	"mailqa/internal/repository"
	"mailqa/internal/repository/memory"
	"mailqa/internal/service"
)

func TestAuthServiceGetOrCreateUser(t *testing.T) {
	ctx := context.Background()
	userRepo := memory.NewInMemoryUserRepository()
	authService := service.NewAuthService(userRepo, testLogger())

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	user, err := authService.GetOrCreateUser(ctx, model.ProviderGoogle, "123", "test@example.com", "Test User", "access_token", "refresh_token", expiry)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, model.ProviderGoogle, user.Provider)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, "access_token", user.AccessToken)

	// A second sign-in refreshes the access token and keeps the refresh token
	// when the provider omits it.
	sameUser, err := authService.GetOrCreateUser(ctx, model.ProviderGoogle, "123", "test@example.com", "Renamed", "new_access_token", "", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, user.ID, sameUser.ID)
	assert.Equal(t, "Renamed", sameUser.Name)
	assert.Equal(t, "new_access_token", sameUser.AccessToken)
	assert.Equal(t, "refresh_token", sameUser.RefreshToken)
	assert.Equal(t, expiry, sameUser.TokenExpiry)

	retrieved, err := authService.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new_access_token", retrieved.AccessToken)
}

func TestAuthServiceSeparatesProviders(t *testing.T) {
	ctx := context.Background()
	authService := service.NewAuthService(memory.NewInMemoryUserRepository(), testLogger())

	google, err := authService.GetOrCreateUser(ctx, model.ProviderGoogle, "123", "a@x.com", "A", "t1", "", time.Time{})
	require.NoError(t, err)
	microsoft, err := authService.GetOrCreateUser(ctx, model.ProviderMicrosoft, "123", "a@x.com", "A", "t2", "", time.Time{})
	require.NoError(t, err)

	assert.NotEqual(t, google.ID, microsoft.ID)
}

func TestAuthServiceGetUnknownUser(t *testing.T) {
	authService := service.NewAuthService(memory.NewInMemoryUserRepository(), testLogger())

	_, err := authService.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
