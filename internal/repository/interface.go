package repository

import (
	"context"
	"errors"

	"mailqa/internal/model"
)

var ErrNotFound = errors.New("not found")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerUserID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// EmailStore holds the mail of one session. StoreAll replaces the whole
// content; there is no incremental upsert.
type EmailStore interface {
	StoreAll(ctx context.Context, emails []*model.Email) error
	Search(ctx context.Context, query string, limit int) ([]*model.SearchResult, error)
	FindAll(ctx context.Context) ([]*model.Email, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
