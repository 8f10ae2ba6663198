package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailqa/internal/logger"
	"mailqa/internal/model"
)

func testLogger() *logger.Logger {
	var buf bytes.Buffer
	return logger.NewWithWriter(&buf)
}

func TestCompleteOpenAIStyleSendsSystemAndUserMessages(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(chatCompletionResponse{
			Choices: []choice{{Message: message{Role: "assistant", Content: "  You have two meetings.  "}}},
		})
	}))
	defer server.Close()

	client := NewAIClient(Options{Provider: ProviderGroq, APIKey: "secret", BaseURL: server.URL, Timeout: 5 * time.Second}, testLogger())

	answer, err := client.Complete(context.Background(), model.CompletionRequest{
		System:      "be helpful",
		Prompt:      "what meetings?",
		MaxTokens:   500,
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "You have two meetings.", answer)
	assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.Equal(t, 0.7, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, message{Role: "system", Content: "be helpful"}, got.Messages[0])
	assert.Equal(t, message{Role: "user", Content: "what meetings?"}, got.Messages[1])
}

func TestCompleteGemini(t *testing.T) {
	var got geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "gkey", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{Content: geminiContent{Parts: []geminiPart{{Text: "Answer"}}}}},
		})
	}))
	defer server.Close()

	client := NewAIClient(Options{Provider: ProviderGemini, APIKey: "gkey", Model: "gemini-test", BaseURL: server.URL}, testLogger())

	answer, err := client.Complete(context.Background(), model.CompletionRequest{System: "sys", Prompt: "q", MaxTokens: 100, Temperature: 0.2})
	require.NoError(t, err)

	assert.Equal(t, "Answer", answer)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "sys", got.SystemInstruction.Parts[0].Text)
	assert.Equal(t, 100, got.GenerationConfig.MaxOutputTokens)
}

func TestCompleteReturnsErrorOnHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewAIClient(Options{Provider: ProviderOpenAI, APIKey: "k", BaseURL: server.URL}, testLogger())

	_, err := client.Complete(context.Background(), model.CompletionRequest{Prompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestCompleteReturnsErrorOnEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewAIClient(Options{Provider: ProviderDeepSeek, APIKey: "k", BaseURL: server.URL}, testLogger())

	_, err := client.Complete(context.Background(), model.CompletionRequest{Prompt: "q"})
	assert.ErrorContains(t, err, "no choices")
}

func TestCompleteHonoursCancelledContext(t *testing.T) {
	client := NewAIClient(Options{Provider: ProviderGroq, APIKey: "k", BaseURL: "http://127.0.0.1:1", RequestsPerMinute: 1}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, model.CompletionRequest{Prompt: "q"})
	assert.Error(t, err)
}

func TestProviderDefaults(t *testing.T) {
	assert.Equal(t, "https://api.groq.com/openai/v1", getBaseURL(ProviderGroq))
	assert.Equal(t, "https://api.deepseek.com", getBaseURL(ProviderDeepSeek))
	assert.Equal(t, "gpt-4o", getModel(ProviderOpenAI))
	assert.Equal(t, "llama-3.3-70b-versatile", getModel(""))
}
