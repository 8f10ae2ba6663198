package handler

import (
	"errors"
	"fmt"
	"net/http"

	"mailqa/internal/config"
	"mailqa/internal/model"
	"mailqa/internal/service"
	"mailqa/internal/session"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/markbates/goth/providers/microsoftonline"
)

// UserContextKey holds the authenticated *model.User once AuthMiddleware has
// resolved it.
const UserContextKey = "user"

var ErrNotAuthenticated = errors.New("user not authenticated")

type AuthHandler struct {
	authService service.AuthService
	sessions    *session.Manager
	store       sessions.Store
	providers   map[string]bool
	config      *config.Config
	logger      echo.Logger
}

func NewAuthHandler(authService service.AuthService, sessionManager *session.Manager, store sessions.Store, config *config.Config, logger echo.Logger) *AuthHandler {
	gothic.Store = store

	providers := make(map[string]bool)
	var gothProviders []goth.Provider
	if config.GoogleEnabled() {
		gothProviders = append(gothProviders, google.New(
			config.GoogleClientID,
			config.GoogleClientSecret,
			config.BaseURL+"/auth/google/callback",
			"https://www.googleapis.com/auth/gmail.readonly",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		))
		providers[model.ProviderGoogle] = true
	}
	if config.MicrosoftEnabled() {
		gothProviders = append(gothProviders, microsoftonline.New(
			config.MicrosoftClientID,
			config.MicrosoftClientSecret,
			config.BaseURL+"/auth/microsoftonline/callback",
			"openid",
			"offline_access",
			"User.Read",
			"Mail.Read",
		))
		providers[model.ProviderMicrosoft] = true
	}
	goth.UseProviders(gothProviders...)

	return &AuthHandler{
		authService: authService,
		sessions:    sessionManager,
		store:       store,
		providers:   providers,
		config:      config,
		logger:      logger,
	}
}

// providerRequest validates the :provider path parameter and copies it into
// the query string, where gothic looks for it.
func (h *AuthHandler) providerRequest(c echo.Context) (*http.Request, error) {
	provider := c.Param("provider")
	if !h.providers[provider] {
		return nil, fmt.Errorf("invalid provider %q", provider)
	}

	req := c.Request()
	q := req.URL.Query()
	q.Set("provider", provider)
	req.URL.RawQuery = q.Encode()
	return req, nil
}

// BeginAuthHandler initiates the OAuth flow
func (h *AuthHandler) BeginAuthHandler(c echo.Context) error {
	req, err := h.providerRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid provider",
		})
	}

	gothic.BeginAuthHandler(c.Response(), req)
	return nil
}

// CallbackHandler handles the OAuth callback
func (h *AuthHandler) CallbackHandler(c echo.Context) error {
	req, err := h.providerRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid provider",
		})
	}

	gothUser, err := gothic.CompleteUserAuth(c.Response(), req)
	if err != nil {
		h.logger.Error("Failed to complete user auth:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Authentication failed",
		})
	}

	user, err := h.authService.GetOrCreateUser(
		req.Context(),
		gothUser.Provider,
		gothUser.UserID,
		gothUser.Email,
		gothUser.Name,
		gothUser.AccessToken,
		gothUser.RefreshToken,
		gothUser.ExpiresAt,
	)
	if err != nil {
		h.logger.Error("Failed to get or create user:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to process user",
		})
	}

	if err := h.SaveUserSession(c, user.ID); err != nil {
		h.logger.Error("Failed to save session:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to save session",
		})
	}

	return c.Redirect(http.StatusTemporaryRedirect, "/api/me")
}

// SaveUserSession binds userID to the caller's session cookie.
func (h *AuthHandler) SaveUserSession(c echo.Context, userID string) error {
	sess, _ := h.store.Get(c.Request(), SessionName)
	sess.Values[sessionUserIDKey] = userID
	return sess.Save(c.Request(), c.Response())
}

// LogoutHandler ends the session and discards the user's loaded mail.
func (h *AuthHandler) LogoutHandler(c echo.Context) error {
	req := c.Request()

	sess, err := h.store.Get(req, SessionName)
	if err == nil {
		if userID, ok := sess.Values[sessionUserIDKey].(string); ok {
			h.sessions.Remove(req.Context(), userID)
		}
		delete(sess.Values, sessionUserIDKey)
		sess.Options.MaxAge = -1
		if err := sess.Save(req, c.Response()); err != nil {
			h.logger.Error("Failed to clear session:", err)
		}
	}

	if err := gothic.Logout(c.Response(), req); err != nil {
		h.logger.Warn("Failed to clear provider session:", err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Logged out",
	})
}

// Me returns the signed-in user. Tokens are never serialized.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.GetCurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}
	return c.JSON(http.StatusOK, user)
}

// GetCurrentUser returns the current authenticated user
func (h *AuthHandler) GetCurrentUser(c echo.Context) (*model.User, error) {
	if user, ok := c.Get(UserContextKey).(*model.User); ok {
		return user, nil
	}

	sess, err := h.store.Get(c.Request(), SessionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	userID, ok := sess.Values[sessionUserIDKey].(string)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	user, err := h.authService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from database: %w", err)
	}

	return user, nil
}
