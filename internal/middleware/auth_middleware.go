package middleware

import (
	"net/http"

	"mailqa/internal/handler"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware rejects requests without a signed-in user and stores the
// resolved user on the context for the handlers behind it.
func AuthMiddleware(authHandler *handler.AuthHandler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := authHandler.GetCurrentUser(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized",
				})
			}

			c.Set(handler.UserContextKey, user)
			return next(c)
		}
	}
}
