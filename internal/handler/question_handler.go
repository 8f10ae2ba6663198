package handler

import (
	"net/http"
	"strings"

	"mailqa/internal/session"

	"github.com/labstack/echo/v4"
)

type QuestionHandler struct {
	sessions        *session.Manager
	authHandler     *AuthHandler
	sampleQuestions []string
	logger          echo.Logger
}

func NewQuestionHandler(sessionManager *session.Manager, authHandler *AuthHandler, sampleQuestions []string, logger echo.Logger) *QuestionHandler {
	return &QuestionHandler{
		sessions:        sessionManager,
		authHandler:     authHandler,
		sampleQuestions: sampleQuestions,
		logger:          logger,
	}
}

// AskQuestion answers from the caller's loaded emails. LLM failures come
// back as a 200 whose answer text carries the error.
func (h *QuestionHandler) AskQuestion(c echo.Context) error {
	user, err := h.authHandler.GetCurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Question is required",
		})
	}

	h.logger.Info("Answering question for user:", user.ID)
	answer := h.sessions.Get(user.ID).AskQuestion(c.Request().Context(), question)
	return c.JSON(http.StatusOK, answer)
}

func (h *QuestionHandler) SampleQuestions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{
		"questions": h.sampleQuestions,
	})
}
