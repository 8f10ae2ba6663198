package router

import (
	"net/http"

	"mailqa/internal/handler"
	"mailqa/internal/health"
	"mailqa/internal/metrics"
	"mailqa/internal/middleware"

	"github.com/labstack/echo/v4"
)

func SetupRoutes(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	emailHandler *handler.EmailHandler,
	questionHandler *handler.QuestionHandler,
	appMetrics *metrics.Metrics,
	checker *health.Checker,
) {
	// Public routes
	e.GET("/auth/:provider", authHandler.BeginAuthHandler)
	e.GET("/auth/:provider/callback", authHandler.CallbackHandler)
	e.GET("/auth/logout", authHandler.LogoutHandler)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/live", echo.WrapHandler(checker.LiveHandler()))
	e.GET("/ready", echo.WrapHandler(checker.ReadyHandler()))
	e.GET("/metrics", echo.WrapHandler(appMetrics.Handler()))

	// Protected API routes
	protected := e.Group("/api")
	protected.Use(middleware.AuthMiddleware(authHandler))

	protected.GET("/me", authHandler.Me)

	// Email API routes
	protected.POST("/emails/fetch", emailHandler.FetchEmails)
	protected.GET("/emails", emailHandler.GetEmails)
	protected.DELETE("/emails", emailHandler.ClearEmails)
	protected.GET("/emails/summary", emailHandler.GetSummary)
	protected.GET("/emails/search", emailHandler.SearchEmails)

	// Question answering
	protected.POST("/questions", questionHandler.AskQuestion)
	protected.GET("/questions/samples", questionHandler.SampleQuestions)

	// Progress updates via Server-Sent Events (SSE)
	protected.GET("/events", emailHandler.SSEEvents)
}
