package handler

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	SessionName = "mailqa_session"

	sessionUserIDKey = "user_id"
)

// NewSessionStore creates the cookie store shared by gothic and the app
// session. Cookies are only marked Secure outside development.
func NewSessionStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30, // 30 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
