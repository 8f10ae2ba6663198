package mail

import (
	"context"
	"time"

	"mailqa/internal/model"
)

// MockMailClient is a mock implementation of MailClient for testing
type MockMailClient struct {
	FetchEmailsByDateFunc func(ctx context.Context, userID string, day time.Time) ([]*model.RawMessage, error)
}

func NewMockMailClient() *MockMailClient {
	return &MockMailClient{}
}

func (m *MockMailClient) FetchEmailsByDate(ctx context.Context, userID string, day time.Time) ([]*model.RawMessage, error) {
	if m.FetchEmailsByDateFunc != nil {
		return m.FetchEmailsByDateFunc(ctx, userID, day)
	}

	// Default mock behavior: an empty day
	return []*model.RawMessage{}, nil
}
