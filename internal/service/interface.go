package service

import (
	"context"
	"time"

	"mailqa/internal/model"
)

type AuthService interface {
	GetOrCreateUser(ctx context.Context, provider, providerUserID, email, name, accessToken, refreshToken string, tokenExpiry time.Time) (*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// EmailService fetches one day of mail into a session store and reads it back.
type EmailService interface {
	FetchEmailsByDate(ctx context.Context, userID, date string) (*model.FetchResult, error)
	GetEmails(ctx context.Context) ([]*model.Email, error)
	SearchEmails(ctx context.Context, query string, limit int) ([]*model.SearchResult, error)
	GetSummary(ctx context.Context) (*model.EmailSummary, error)
	ClearEmails(ctx context.Context) error
}

// QAService answers a question from the stored mail. Failures are reported
// inside the Answer rather than as an error.
type QAService interface {
	AskQuestion(ctx context.Context, question string) *model.Answer
}

// MailClient retrieves every message received on day for the signed-in user
// userID, all pages concatenated in provider order.
type MailClient interface {
	FetchEmailsByDate(ctx context.Context, userID string, day time.Time) ([]*model.RawMessage, error)
}

// LLMClient interface for interacting with AI services
type LLMClient interface {
	Complete(ctx context.Context, req model.CompletionRequest) (string, error)
}
