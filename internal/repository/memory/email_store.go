package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mailqa/internal/logger"
	"mailqa/internal/model"
	"mailqa/internal/search"
)

const DefaultSearchLimit = 5

type indexedEmail struct {
	email          *model.Email
	searchableText string
}

type InMemoryEmailStore struct {
	entries []indexedEmail
	logger  *logger.Logger
	mutex   sync.RWMutex
}

func NewInMemoryEmailStore(logger *logger.Logger) *InMemoryEmailStore {
	return &InMemoryEmailStore{logger: logger}
}

// StoreAll replaces the store content with emails. The new index is built
// before the lock is taken, so a cancelled call leaves the old content intact.
func (s *InMemoryEmailStore) StoreAll(ctx context.Context, emails []*model.Email) error {
	entries := make([]indexedEmail, 0, len(emails))
	for i, email := range emails {
		if email == nil {
			s.logger.Warnf("Skipping nil email at position %d", i)
			continue
		}
		entries = append(entries, indexedEmail{
			email:          email,
			searchableText: search.BuildSearchableText(email),
		})
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to store emails: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = entries
	s.logger.Info("Stored", len(entries), "emails")
	return nil
}

// Search ranks every stored email against query and returns at most limit
// results with a positive score, best first. Equal scores keep storage order.
func (s *InMemoryEmailStore) Search(ctx context.Context, query string, limit int) ([]*model.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	results := make([]*model.SearchResult, 0)
	for _, entry := range s.entries {
		score := search.Score(entry.searchableText, query)
		if score <= 0 {
			continue
		}
		results = append(results, &model.SearchResult{
			Email:   entry.email,
			Score:   score,
			Preview: search.Preview(entry.searchableText),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *InMemoryEmailStore) FindAll(ctx context.Context) ([]*model.Email, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	emails := make([]*model.Email, 0, len(s.entries))
	for _, entry := range s.entries {
		emails = append(emails, entry.email)
	}
	return emails, nil
}

func (s *InMemoryEmailStore) Count(ctx context.Context) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.entries), nil
}

func (s *InMemoryEmailStore) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = nil
	return nil
}
