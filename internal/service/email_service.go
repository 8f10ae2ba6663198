package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"mailqa/internal/logger"
	"mailqa/internal/metrics"
	"mailqa/internal/model"
	"mailqa/internal/normalizer"
	"mailqa/internal/repository"
)

const (
	DateLayout = "2006-01-02"

	summaryTopSenders = 10
	summarySubjects   = 20
)

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

type emailService struct {
	store        repository.EmailStore
	mailClient   MailClient
	normalizer   *normalizer.Normalizer
	metrics      *metrics.Metrics
	logger       *logger.Logger
	fetchTimeout time.Duration
}

func NewEmailService(
	store repository.EmailStore,
	mailClient MailClient,
	metrics *metrics.Metrics,
	logger *logger.Logger,
	fetchTimeout time.Duration,
) EmailService {
	return &emailService{
		store:        store,
		mailClient:   mailClient,
		normalizer:   normalizer.New(logger),
		metrics:      metrics,
		logger:       logger,
		fetchTimeout: fetchTimeout,
	}
}

// FetchEmailsByDate pulls the mail received on date and replaces the store
// content with it. On any error the store keeps what it had.
func (s *emailService) FetchEmailsByDate(ctx context.Context, userID, date string) (*model.FetchResult, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	raws, err := s.mailClient.FetchEmailsByDate(fetchCtx, userID, day)
	if err != nil {
		s.metrics.FetchRequests.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to fetch emails for %s: %w", date, err)
	}
	s.metrics.EmailsFetched.Add(float64(len(raws)))

	emails, dropped := s.normalizer.NormalizeBatch(raws)
	s.metrics.EmailsDropped.Add(float64(dropped))

	if err := s.store.StoreAll(ctx, emails); err != nil {
		s.metrics.FetchRequests.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to store emails: %w", err)
	}
	s.metrics.EmailsStored.Add(float64(len(emails)))
	s.metrics.FetchRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()

	s.logger.Info("Fetched", len(raws), "emails for", date, "stored", len(emails))
	return &model.FetchResult{
		Date:    date,
		Fetched: len(raws),
		Stored:  len(emails),
		Dropped: dropped,
	}, nil
}

func (s *emailService) GetEmails(ctx context.Context) ([]*model.Email, error) {
	return s.store.FindAll(ctx)
}

func (s *emailService) SearchEmails(ctx context.Context, query string, limit int) ([]*model.SearchResult, error) {
	results, err := s.store.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	s.metrics.Searches.Inc()
	s.metrics.SearchResults.Observe(float64(len(results)))
	return results, nil
}

// GetSummary reports totals, the ten most frequent sender addresses (ties in
// first-seen order), the first twenty subjects and the importance counts.
func (s *emailService) GetSummary(ctx context.Context) (*model.EmailSummary, error) {
	emails, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read emails: %w", err)
	}
	return Summarize(emails), nil
}

func Summarize(emails []*model.Email) *model.EmailSummary {
	summary := &model.EmailSummary{
		TotalEmails: len(emails),
		Senders:     []model.SenderCount{},
		Subjects:    []string{},
		ImportanceBreakdown: map[string]int{
			string(model.ImportanceLow):    0,
			string(model.ImportanceNormal): 0,
			string(model.ImportanceHigh):   0,
		},
	}

	index := make(map[string]int)
	for _, email := range emails {
		if i, ok := index[email.SenderAddress]; ok {
			summary.Senders[i].Count++
		} else {
			index[email.SenderAddress] = len(summary.Senders)
			summary.Senders = append(summary.Senders, model.SenderCount{Sender: email.SenderAddress, Count: 1})
		}
		if len(summary.Subjects) < summarySubjects {
			summary.Subjects = append(summary.Subjects, email.Subject)
		}
		summary.ImportanceBreakdown[string(email.Importance)]++
	}

	sort.SliceStable(summary.Senders, func(i, j int) bool {
		return summary.Senders[i].Count > summary.Senders[j].Count
	})
	if len(summary.Senders) > summaryTopSenders {
		summary.Senders = summary.Senders[:summaryTopSenders]
	}
	return summary
}

func (s *emailService) ClearEmails(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear emails: %w", err)
	}
	s.logger.Info("Cleared stored emails")
	return nil
}
