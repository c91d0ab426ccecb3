package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/campusfind/campusfind/internal/auth"
	"github.com/campusfind/campusfind/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserContextKey stores the authenticated user in request context.
const UserContextKey contextKey = "user"

const sessionCookieName = "session"

// AuthMiddleware requires a valid session cookie and stores the user in
// the request context. This is a JSON API, so failure is a 401 payload
// rather than a redirect.
func AuthMiddleware(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				jsonError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			user, err := authService.ValidateSession(cookie.Value)
			if err != nil {
				log.Printf("Session validation error: %v", err)
				jsonError(w, "authentication required", http.StatusUnauthorized)
				return
			}
			if user == nil {
				clearSessionCookie(w)
				jsonError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts the authenticated user from request context.
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
