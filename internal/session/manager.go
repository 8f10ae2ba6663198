package session

import (
	"context"
	"sync"
	"time"

	"mailqa/internal/logger"
	"mailqa/internal/metrics"
	"mailqa/internal/model"
	"mailqa/internal/repository/memory"
	"mailqa/internal/service"
	"mailqa/internal/sse"
)

// Notifier receives progress events for a user's open event streams.
type Notifier interface {
	Publish(userID string, eventType string, data interface{})
}

type Options struct {
	MailClient  service.MailClient
	LLMClient   service.LLMClient
	Notifier    Notifier
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	MailTimeout time.Duration
	LLMTimeout  time.Duration
}

// Session owns one user's mail store and the services bound to it. Fetch,
// clear and ask run one at a time; reads go straight to the store.
type Session struct {
	UserID string

	emails   service.EmailService
	qa       service.QAService
	notifier Notifier
	mu       sync.Mutex
}

func (s *Session) Emails() service.EmailService {
	return s.emails
}

func (s *Session) FetchEmails(ctx context.Context, date string) (*model.FetchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifier.Publish(s.UserID, sse.EventFetchStarted, map[string]string{"date": date})
	result, err := s.emails.FetchEmailsByDate(ctx, s.UserID, date)
	if err != nil {
		s.notifier.Publish(s.UserID, sse.EventFetchFailed, map[string]string{"date": date, "error": err.Error()})
		return nil, err
	}
	s.notifier.Publish(s.UserID, sse.EventFetchCompleted, result)
	return result, nil
}

func (s *Session) ClearEmails(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.emails.ClearEmails(ctx); err != nil {
		return err
	}
	s.notifier.Publish(s.UserID, sse.EventEmailsCleared, nil)
	return nil
}

func (s *Session) AskQuestion(ctx context.Context, question string) *model.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifier.Publish(s.UserID, sse.EventQuestionStarted, map[string]string{"question": question})
	answer := s.qa.AskQuestion(ctx, question)
	s.notifier.Publish(s.UserID, sse.EventQuestionAnswered, map[string]int{"sources": len(answer.Sources)})
	return answer
}

// Manager hands out one Session per signed-in user, created on first use
// and dropped on logout.
type Manager struct {
	opts     Options
	sessions map[string]*Session
	mutex    sync.Mutex
}

func NewManager(opts Options) *Manager {
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Get(userID string) *Session {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}

	store := memory.NewInMemoryEmailStore(m.opts.Logger)
	s := &Session{
		UserID:   userID,
		emails:   service.NewEmailService(store, m.opts.MailClient, m.opts.Metrics, m.opts.Logger, m.opts.MailTimeout),
		qa:       service.NewQAService(store, m.opts.LLMClient, m.opts.Metrics, m.opts.Logger, m.opts.LLMTimeout),
		notifier: m.opts.Notifier,
	}
	m.sessions[userID] = s
	m.opts.Metrics.ActiveSessions.Inc()
	m.opts.Logger.Info("Created session for user:", userID)
	return s
}

// Remove clears the user's store and forgets the session.
func (m *Manager) Remove(ctx context.Context, userID string) {
	m.mutex.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mutex.Unlock()

	if !ok {
		return
	}
	// Waits for a fetch or question still running on the session.
	if err := s.ClearEmails(ctx); err != nil {
		m.opts.Logger.Warn("Failed to clear emails for user:", userID, err)
	}
	m.opts.Metrics.ActiveSessions.Dec()
	m.opts.Logger.Info("Removed session for user:", userID)
}

func (m *Manager) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return len(m.sessions)
}
