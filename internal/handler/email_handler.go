package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mailqa/internal/service"
	"mailqa/internal/session"
	"mailqa/internal/sse"

	"github.com/labstack/echo/v4"
)

type EmailHandler struct {
	sessions    *session.Manager
	authHandler *AuthHandler
	sseManager  *sse.SSEManager
	logger      echo.Logger
}

func NewEmailHandler(sessionManager *session.Manager, authHandler *AuthHandler, sseManager *sse.SSEManager, logger echo.Logger) *EmailHandler {
	return &EmailHandler{
		sessions:    sessionManager,
		authHandler: authHandler,
		sseManager:  sseManager,
		logger:      logger,
	}
}

// FetchEmails loads one day of mail into the caller's session, replacing
// whatever was loaded before.
func (h *EmailHandler) FetchEmails(c echo.Context) error {
	user, err := h.authHandler.GetCurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	var req struct {
		Date string `json:"date"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}
	if req.Date == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Date is required",
		})
	}

	result, err := h.sessions.Get(user.ID).FetchEmails(c.Request().Context(), req.Date)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}
		h.logger.Error("Failed to fetch emails:", err)
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}

// GetEmails lists every email loaded in the caller's session
func (h *EmailHandler) GetEmails(c echo.Context) error {
	user, err := h.authHandler.GetCurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	emails, err := h.sessions.Get(user.ID).Emails().GetEmails(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get emails:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to get emails",
		})
	}

	return c.JSON(http.StatusOK, emails)
}

func (h *EmailHandler) ClearEmails(c echo.Context) error {
	user, err := h.authHandler.GetCurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	if err := h.sessions.Get(user.ID).ClearEmails(c.Request().Context()); err != nil {
		h.logger.Error("Failed to clear emails:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to clear emails",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Emails cleared successfully",
	})
}

func (h *EmailHandler) GetSummary(c echo.Context) error {
	user, err := h.authHandler.GetCurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	summary, err := h.sessions.Get(user.ID).Emails().GetSummary(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to summarize emails:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to summarize emails",
		})
	}

	return c.JSON(http.StatusOK, summary)
}

// SearchEmails ranks the loaded emails against ?q=. A missing limit uses the
// store default.
func (h *EmailHandler) SearchEmails(c echo.Context) error {
	user, err := h.authHandler.GetCurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid limit",
			})
		}
		limit = parsed
	}

	results, err := h.sessions.Get(user.ID).Emails().SearchEmails(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		h.logger.Error("Failed to search emails:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to search emails",
		})
	}

	return c.JSON(http.StatusOK, results)
}

// SSEEvents streams the caller's progress events as Server-Sent Events
func (h *EmailHandler) SSEEvents(c echo.Context) error {
	user, err := h.authHandler.GetCurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	clientChannel := h.sseManager.AddClient(user.ID)
	defer h.sseManager.RemoveClient(user.ID, clientChannel)

	// Send initial connection confirmation
	initJSON, _ := json.Marshal(sse.Event{
		Type: sse.EventConnected,
		Data: map[string]string{
			"message": "Connected to email updates",
			"userId":  user.ID,
		},
		Time: time.Now().Unix(),
	})
	fmt.Fprintf(c.Response(), "data: %s\n\n", initJSON)
	c.Response().Flush()

	for {
		select {
		case eventData, ok := <-clientChannel:
			if !ok {
				// Manager shut down
				return nil
			}
			fmt.Fprintf(c.Response(), "data: %s\n\n", eventData)
			c.Response().Flush()
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
