package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mailqa/internal/logger"
	"mailqa/internal/metrics"
	"mailqa/internal/model"
	"mailqa/internal/repository"
	"mailqa/internal/search"
)

const (
	contextEmailLimit  = 5
	contextContentSize = 500

	answerMaxTokens   = 500
	answerTemperature = 0.7

	NoRelevantEmailsAnswer = "I couldn't find any relevant emails to answer your question. Try asking about different topics or check if emails are loaded."

	systemInstruction = "You are a helpful assistant that analyzes emails and answers questions about them."

	promptTemplate = `You are an AI assistant helping to analyze emails. Use the following email content to answer the question.

Email Content:
%s

Question: %s

Please provide a helpful and accurate answer based on the email content. If the information is not available in the emails, please say so clearly. Be concise but informative.

Answer:`
)

type qaService struct {
	store      repository.EmailStore
	llmClient  LLMClient
	metrics    *metrics.Metrics
	logger     *logger.Logger
	llmTimeout time.Duration
}

func NewQAService(
	store repository.EmailStore,
	llmClient LLMClient,
	metrics *metrics.Metrics,
	logger *logger.Logger,
	llmTimeout time.Duration,
) QAService {
	return &qaService{
		store:      store,
		llmClient:  llmClient,
		metrics:    metrics,
		logger:     logger,
		llmTimeout: llmTimeout,
	}
}

// AskQuestion retrieves the five best matching emails and asks the LLM to
// answer from them. Without matches the LLM is not called.
func (s *qaService) AskQuestion(ctx context.Context, question string) *model.Answer {
	answer, err := s.answer(ctx, question)
	if err != nil {
		s.logger.Error("Failed to answer question:", err)
		s.metrics.Questions.WithLabelValues(metrics.OutcomeError).Inc()
		return &model.Answer{
			Question: question,
			Answer:   fmt.Sprintf("Error processing question: %v", err),
			Sources:  []model.SourceRef{},
		}
	}
	return answer
}

func (s *qaService) answer(ctx context.Context, question string) (*model.Answer, error) {
	results, err := s.store.Search(ctx, question, contextEmailLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}

	if len(results) == 0 {
		s.metrics.Questions.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return &model.Answer{
			Question: question,
			Answer:   NoRelevantEmailsAnswer,
			Sources:  []model.SourceRef{},
		}, nil
	}

	blocks := make([]string, 0, len(results))
	sources := make([]model.SourceRef, 0, len(results))
	for i, result := range results {
		blocks = append(blocks, renderContextBlock(i+1, result.Email))
		sources = append(sources, model.SourceRef{
			Subject:        result.Email.Subject,
			Sender:         result.Email.SenderName,
			ReceivedDate:   result.Email.ReceivedAt,
			ContentPreview: result.Preview,
		})
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	start := time.Now()
	text, err := s.llmClient.Complete(llmCtx, model.CompletionRequest{
		System:      systemInstruction,
		Prompt:      BuildPrompt(strings.Join(blocks, "\n\n"), question),
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	s.metrics.LLMLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to get answer from LLM: %w", err)
	}

	s.metrics.Questions.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("Answered question using", len(sources), "emails")
	return &model.Answer{
		Question: question,
		Answer:   text,
		Sources:  sources,
	}, nil
}

func renderContextBlock(n int, email *model.Email) string {
	date := email.ReceivedAt
	if date == "" {
		date = "Unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Email %d:\n", n)
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "From: %s <%s>\n", email.SenderName, email.SenderAddress)
	fmt.Fprintf(&b, "Date: %s\n", date)
	if content := email.Content(); content != "" {
		fmt.Fprintf(&b, "Content: %s\n", search.Truncate(content, contextContentSize))
	}
	return b.String()
}

func BuildPrompt(emailContext, question string) string {
	return fmt.Sprintf(promptTemplate, emailContext, question)
}
