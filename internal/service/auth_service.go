package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mailqa/internal/logger"
	"mailqa/internal/model"
	"mailqa/internal/repository"
)

type authService struct {
	userRepo repository.UserRepository
	logger   *logger.Logger
}

func NewAuthService(userRepo repository.UserRepository, logger *logger.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *authService) GetOrCreateUser(ctx context.Context, provider, providerUserID, email, name, accessToken, refreshToken string, tokenExpiry time.Time) (*model.User, error) {
	existingUser, err := s.userRepo.FindByProviderID(ctx, provider, providerUserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}

		newUser := model.NewUser(provider, providerUserID, email, name, accessToken, refreshToken, tokenExpiry)
		if err := s.userRepo.Create(ctx, newUser); err != nil {
			s.logger.Error("Failed to create user:", err)
			return nil, err
		}
		s.logger.Info("Created new user:", newUser.ID, "provider:", provider)
		return newUser, nil
	}

	// Refresh tokens on every sign-in; keep the old refresh token when the
	// provider does not resend it.
	existingUser.Email = email
	existingUser.Name = name
	existingUser.AccessToken = accessToken
	if refreshToken != "" {
		existingUser.RefreshToken = refreshToken
	}
	if !tokenExpiry.IsZero() {
		existingUser.TokenExpiry = tokenExpiry
	}
	existingUser.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, existingUser); err != nil {
		s.logger.Error("Failed to update user:", err)
		return nil, err
	}
	s.logger.Info("Updated existing user:", existingUser.ID)

	return existingUser, nil
}

func (s *authService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
