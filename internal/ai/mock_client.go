package ai

import (
	"context"
	"sync"

	"mailqa/internal/model"
)

// MockAIClient is a mock implementation of LLMClient for testing
type MockAIClient struct {
	CompleteFunc func(ctx context.Context, req model.CompletionRequest) (string, error)

	mu       sync.Mutex
	requests []model.CompletionRequest
}

func NewMockAIClient() *MockAIClient {
	return &MockAIClient{}
}

func (m *MockAIClient) Complete(ctx context.Context, req model.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}

	// Default mock behavior: a fixed answer
	return "mock answer", nil
}

// Requests returns every request received so far.
func (m *MockAIClient) Requests() []model.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]model.CompletionRequest(nil), m.requests...)
}
