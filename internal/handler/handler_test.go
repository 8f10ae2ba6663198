package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailqa/internal/ai"
	"mailqa/internal/config"
	"mailqa/internal/handler"
	"mailqa/internal/health"
	"mailqa/internal/logger"
	"mailqa/internal/mail"
	"mailqa/internal/metrics"
	"mailqa/internal/model"
	"mailqa/internal/repository/memory"
	"mailqa/internal/router"
	"mailqa/internal/service"
	"mailqa/internal/session"
	"mailqa/internal/sse"
)

type testServer struct {
	e          *echo.Echo
	auth       *handler.AuthHandler
	emails     *handler.EmailHandler
	sessions   *session.Manager
	sseManager *sse.SSEManager
	mailClient *mail.MockMailClient
	llm        *ai.MockAIClient
	user       *model.User
	cookie     *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	var buf bytes.Buffer
	appLogger := logger.NewWithWriter(&buf)
	appMetrics := metrics.New(prometheus.NewRegistry())

	userRepo := memory.NewInMemoryUserRepository()
	user := model.NewUser(model.ProviderGoogle, "g-1", "alice@x.com", "Alice", "token", "", time.Time{})
	require.NoError(t, userRepo.Create(context.Background(), user))

	mailClient := mail.NewMockMailClient()
	llm := ai.NewMockAIClient()
	sseManager := sse.NewSSEManager(appLogger)
	sessions := session.NewManager(session.Options{
		MailClient:  mailClient,
		LLMClient:   llm,
		Notifier:    sseManager,
		Metrics:     appMetrics,
		Logger:      appLogger,
		MailTimeout: time.Second,
		LLMTimeout:  time.Second,
	})

	cfg := &config.Config{
		BaseURL:            "http://localhost:8080",
		Env:                "development",
		GoogleClientID:     "client",
		GoogleClientSecret: "secret",
	}

	e := echo.New()
	store := handler.NewSessionStore([]byte("test-secret"), false)
	authHandler := handler.NewAuthHandler(service.NewAuthService(userRepo, appLogger), sessions, store, cfg, e.Logger)
	emailHandler := handler.NewEmailHandler(sessions, authHandler, sseManager, e.Logger)
	questionHandler := handler.NewQuestionHandler(sessions, authHandler, service.DefaultSampleQuestions(), e.Logger)
	router.SetupRoutes(e, authHandler, emailHandler, questionHandler, appMetrics, health.NewChecker(nil))

	// Sign the user in by minting a session cookie.
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, authHandler.SaveUserSession(c, user.ID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	return &testServer{
		e:          e,
		auth:       authHandler,
		emails:     emailHandler,
		sessions:   sessions,
		sseManager: sseManager,
		mailClient: mailClient,
		llm:        llm,
		user:       user,
		cookie:     cookies[0],
	}
}

func (s *testServer) do(method, target, body string, authenticated bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if authenticated {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) serveDay(messages ...*model.RawMessage) {
	s.mailClient.FetchEmailsByDateFunc = func(ctx context.Context, userID string, day time.Time) ([]*model.RawMessage, error) {
		return messages, nil
	}
}

func rawMessage(id, subject, body string) *model.RawMessage {
	from := model.NewRawRecipient("Bob", "bob@x.com")
	return &model.RawMessage{
		ID:      model.String(id),
		Subject: model.String(subject),
		From:    &from,
		Body:    &model.ItemBody{ContentType: model.String("text"), Content: model.String(body)},
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/api/me", "/api/emails", "/api/emails/summary", "/api/questions/samples"} {
		rec := s.do(http.MethodGet, target, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestMeOmitsTokens(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/me", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice@x.com", body["email"])
	assert.Equal(t, "google", body["provider"])
	assert.NotContains(t, body, "access_token")
}

func TestFetchListSearchSummaryClear(t *testing.T) {
	s := newTestServer(t)
	var gotUserID string
	s.mailClient.FetchEmailsByDateFunc = func(ctx context.Context, userID string, day time.Time) ([]*model.RawMessage, error) {
		gotUserID = userID
		return []*model.RawMessage{
			rawMessage("m1", "Budget Review", "Please review the Q3 budget"),
			rawMessage("m2", "Lunch", "Noon?"),
			{Subject: model.String("no id")},
		}, nil
	}

	rec := s.do(http.MethodPost, "/api/emails/fetch", `{"date":"2024-03-01"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var result model.FetchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, model.FetchResult{Date: "2024-03-01", Fetched: 3, Stored: 2, Dropped: 1}, result)
	assert.Equal(t, s.user.ID, gotUserID)

	rec = s.do(http.MethodGet, "/api/emails", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var emails []model.Email
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &emails))
	assert.Len(t, emails, 2)

	rec = s.do(http.MethodGet, "/api/emails/search?q=budget&limit=3", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []model.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "m1", results[0].Email.ID)
	assert.Greater(t, results[0].Score, 0.0)

	rec = s.do(http.MethodGet, "/api/emails/summary", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary model.EmailSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalEmails)
	assert.Equal(t, []model.SenderCount{{Sender: "bob@x.com", Count: 2}}, summary.Senders)

	rec = s.do(http.MethodDelete, "/api/emails", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/emails", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestFetchEmailsValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/emails/fetch", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/emails/fetch", `{"date":"yesterday"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "YYYY-MM-DD")
}

func TestFetchEmailsProviderFailure(t *testing.T) {
	s := newTestServer(t)
	s.serveDay(rawMessage("m1", "Budget", "numbers"))
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/emails/fetch", `{"date":"2024-03-01"}`, true).Code)

	s.mailClient.FetchEmailsByDateFunc = func(ctx context.Context, userID string, day time.Time) ([]*model.RawMessage, error) {
		return nil, errors.New("token expired")
	}
	rec := s.do(http.MethodPost, "/api/emails/fetch", `{"date":"2024-03-02"}`, true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "token expired")

	// The previous day's mail is still loaded.
	rec = s.do(http.MethodGet, "/api/emails/summary", "", true)
	assert.Contains(t, rec.Body.String(), `"total_emails":1`)
}

func TestSearchRejectsBadLimit(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/emails/search?q=x&limit=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/emails/search?q=x&limit=-1", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskQuestion(t *testing.T) {
	s := newTestServer(t)
	s.serveDay(rawMessage("m1", "Budget Review", "Please review the Q3 budget"))
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/emails/fetch", `{"date":"2024-03-01"}`, true).Code)

	s.llm.CompleteFunc = func(ctx context.Context, req model.CompletionRequest) (string, error) {
		return "Review the Q3 budget.", nil
	}

	rec := s.do(http.MethodPost, "/api/questions", `{"question":"  what about the budget?  "}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var answer model.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, "what about the budget?", answer.Question)
	assert.Equal(t, "Review the Q3 budget.", answer.Answer)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "Budget Review", answer.Sources[0].Subject)
	assert.Equal(t, "Bob", answer.Sources[0].Sender)
}

func TestAskQuestionRequiresText(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/questions", `{"question":"   "}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.llm.Requests())
}

func TestAskQuestionWithoutEmails(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/questions", `{"question":"anything?"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "couldn't find any relevant emails")
	assert.Empty(t, s.llm.Requests())
}

func TestSampleQuestions(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/questions/samples", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, service.DefaultSampleQuestions(), body["questions"])
}

func TestLogoutDropsSession(t *testing.T) {
	s := newTestServer(t)
	s.serveDay(rawMessage("m1", "Budget", "numbers"))
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/emails/fetch", `{"date":"2024-03-01"}`, true).Code)
	require.Equal(t, 1, s.sessions.Count())

	rec := s.do(http.MethodGet, "/auth/logout", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, s.sessions.Count())
}

func TestBeginAuthRejectsUnknownProvider(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/auth/github", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Microsoft is not configured in this server.
	rec = s.do(http.MethodGet, "/auth/microsoftonline", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/live", "", false).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready", "", false).Code)

	s.sessions.Get(s.user.ID)
	rec = s.do(http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mailqa_active_sessions 1")
}

func TestSSEEventsStreamsProgress(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	c.Set(handler.UserContextKey, s.user)

	done := make(chan error, 1)
	go func() { done <- s.emails.SSEEvents(c) }()

	require.Eventually(t, func() bool {
		return s.sseManager.GetUserConnectionCount(s.user.ID) == 1
	}, time.Second, 5*time.Millisecond)

	s.sseManager.Publish(s.user.ID, sse.EventFetchStarted, map[string]string{"date": "2024-03-01"})
	// Closing the manager ends the stream after buffered events drain.
	s.sseManager.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("event stream did not end")
	}

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, `"type":"connection"`)
	assert.Contains(t, body, `"type":"fetch_started"`)
	assert.Less(t, strings.Index(body, `"connection"`), strings.Index(body, `"fetch_started"`))
}
