package mail

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"mailqa/internal/logger"
	"mailqa/internal/model"
	"mailqa/internal/repository"
	"mailqa/internal/service"
)

// UserClient picks the mail provider for each request from the account the
// user signed in with. When a fixed mailbox client is configured it serves
// every user instead.
type UserClient struct {
	userRepo      repository.UserRepository
	graphEndpoint string
	httpClient    *http.Client
	oauthConfigs  map[string]*oauth2.Config
	fixed         service.MailClient
	logger        *logger.Logger
}

func NewUserClient(userRepo repository.UserRepository, graphEndpoint string, httpClient *http.Client, logger *logger.Logger) *UserClient {
	return &UserClient{
		userRepo:      userRepo,
		graphEndpoint: graphEndpoint,
		httpClient:    httpClient,
		oauthConfigs:  make(map[string]*oauth2.Config),
		logger:        logger,
	}
}

// WithFixedMailbox routes every fetch to client, regardless of the user.
func (u *UserClient) WithFixedMailbox(client service.MailClient) *UserClient {
	u.fixed = client
	return u
}

// WithOAuthConfig lets expired access tokens issued by provider be renewed
// with the stored refresh token.
func (u *UserClient) WithOAuthConfig(provider string, config *oauth2.Config) *UserClient {
	u.oauthConfigs[provider] = config
	return u
}

func (u *UserClient) FetchEmailsByDate(ctx context.Context, userID string, day time.Time) ([]*model.RawMessage, error) {
	if u.fixed != nil {
		return u.fixed.FetchEmailsByDate(ctx, userID, day)
	}

	client, err := u.clientFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client.FetchEmailsByDate(ctx, userID, day)
}

func (u *UserClient) clientFor(ctx context.Context, userID string) (service.MailClient, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s not found: %w", userID, err)
	}

	if user.AccessToken == "" {
		return nil, fmt.Errorf("access token not available for user: %s", userID)
	}

	switch user.Provider {
	case model.ProviderGoogle:
		return NewGmailClient(ctx, u.tokenSource(ctx, user), u.logger)
	case model.ProviderMicrosoft:
		return NewGraphClient(u.graphEndpoint, u.tokenSource(ctx, user), u.httpClient, u.logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider %q for user %s", user.Provider, userID)
	}
}

// tokenSource returns the stored token as is unless the provider has an
// OAuth config and the user a refresh token, in which case expired tokens
// are renewed and written back to the repository.
func (u *UserClient) tokenSource(ctx context.Context, user *model.User) oauth2.TokenSource {
	token := &oauth2.Token{
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
		Expiry:       user.TokenExpiry,
		TokenType:    "Bearer",
	}

	config, ok := u.oauthConfigs[user.Provider]
	if !ok || user.RefreshToken == "" {
		return oauth2.StaticTokenSource(token)
	}

	if u.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, u.httpClient)
	}
	return &savingTokenSource{
		base:     config.TokenSource(ctx, token),
		ctx:      ctx,
		user:     user,
		userRepo: u.userRepo,
		logger:   u.logger,
	}
}

type savingTokenSource struct {
	base     oauth2.TokenSource
	ctx      context.Context
	user     *model.User
	userRepo repository.UserRepository
	logger   *logger.Logger
	mu       sync.Mutex
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token.AccessToken == s.user.AccessToken {
		return token, nil
	}

	updated := *s.user
	updated.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		updated.RefreshToken = token.RefreshToken
	}
	updated.TokenExpiry = token.Expiry
	updated.UpdatedAt = time.Now()
	if err := s.userRepo.Update(s.ctx, &updated); err != nil {
		s.logger.Warn("Failed to save refreshed token for user:", updated.ID, err)
	} else {
		s.logger.Info("Refreshed access token for user:", updated.ID)
	}
	s.user = &updated
	return token, nil
}
