package sse

import (
	"encoding/json"
	"sync"
	"time"

	"mailqa/internal/logger"
)

const (
	EventConnected        = "connection"
	EventFetchStarted     = "fetch_started"
	EventFetchCompleted   = "fetch_completed"
	EventFetchFailed      = "fetch_failed"
	EventQuestionStarted  = "question_started"
	EventQuestionAnswered = "question_answered"
	EventEmailsCleared    = "emails_cleared"

	clientBuffer = 10
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time int64       `json:"time"`
}

// SSEManager fans progress events out to each user's open event streams.
type SSEManager struct {
	clients    map[string]map[chan []byte]bool // userID -> connection channels
	clientsMux sync.RWMutex
	logger     *logger.Logger
}

func NewSSEManager(logger *logger.Logger) *SSEManager {
	return &SSEManager{
		clients: make(map[string]map[chan []byte]bool),
		logger:  logger,
	}
}

// AddClient adds a new client connection for a specific user
func (s *SSEManager) AddClient(userID string) chan []byte {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if s.clients[userID] == nil {
		s.clients[userID] = make(map[chan []byte]bool)
	}

	channel := make(chan []byte, clientBuffer)
	s.clients[userID][channel] = true

	s.logger.Info("Added SSE client for user:", userID, "total clients:", len(s.clients[userID]))
	return channel
}

// RemoveClient removes a client connection
func (s *SSEManager) RemoveClient(userID string, channel chan []byte) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	userClients, exists := s.clients[userID]
	if !exists {
		return
	}
	if _, ok := userClients[channel]; !ok {
		return
	}

	delete(userClients, channel)
	close(channel)
	s.logger.Info("Removed SSE client for user:", userID, "remaining clients:", len(userClients))

	if len(userClients) == 0 {
		delete(s.clients, userID)
	}
}

// Publish sends an event to every stream the user has open. A client whose
// buffer is full misses the event rather than stalling the publisher.
func (s *SSEManager) Publish(userID string, eventType string, data interface{}) {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()

	userClients, exists := s.clients[userID]
	if !exists {
		return
	}

	jsonData, err := json.Marshal(Event{Type: eventType, Data: data, Time: time.Now().Unix()})
	if err != nil {
		s.logger.Error("Failed to marshal event:", err)
		return
	}

	for channel := range userClients {
		select {
		case channel <- jsonData:
		default:
			s.logger.Warn("Dropping", eventType, "event for slow client of user:", userID)
		}
	}
}

// Close shuts down the SSE manager
func (s *SSEManager) Close() {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	for userID, userClients := range s.clients {
		for channel := range userClients {
			close(channel)
		}
		delete(s.clients, userID)
	}
}

// GetUserConnectionCount returns the number of active connections for a user
func (s *SSEManager) GetUserConnectionCount(userID string) int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()

	return len(s.clients[userID])
}
