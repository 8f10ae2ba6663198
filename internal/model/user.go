package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoftonline"
)

type User struct {
	ID             string    `json:"id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	AccessToken    string    `json:"-"`
	RefreshToken   string    `json:"-"`
	TokenExpiry    time.Time `json:"token_expiry"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewUser(provider, providerUserID, email, name, accessToken, refreshToken string, tokenExpiry time.Time) *User {
	now := time.Now()
	return &User{
		ID:             uuid.New().String(),
		Provider:       provider,
		ProviderUserID: providerUserID,
		Email:          email,
		Name:           name,
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		TokenExpiry:    tokenExpiry,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
