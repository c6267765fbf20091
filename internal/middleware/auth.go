package middleware

import (
	"context"
	"net/http"

	"seoroblog/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the authenticated session data.
	SessionKey contextKey = "session"

	// VisitorKey is the context key for the browser-session identifier.
	VisitorKey contextKey = "visitor"
)

// LoadSession retrieves the authenticated session from Valkey (if any) and
// ensures a visitor identifier exists, storing both in the request context.
// It does NOT enforce authentication.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if visitorID, err := store.VisitorID(w, r); err == nil {
				ctx = context.WithValue(ctx, VisitorKey, visitorID)
			}

			data, err := store.Get(ctx, r)
			if err == nil && data != nil {
				ctx = context.WithValue(ctx, SessionKey, data)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth redirects unauthenticated users to the login page.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireStaff turns non-staff users away to the post list with an error
// flash, before any staff-only work runs. Must be applied after
// LoadSession in the middleware chain.
func RequireStaff(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromCtx(r.Context())
			if sess == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !sess.IsStaff {
				if visitor := VisitorFromCtx(r.Context()); visitor != "" {
					store.AddFlash(r.Context(), visitor, "error", "You do not have permission to access that page.")
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// VisitorFromCtx extracts the browser-session identifier from the request
// context. Returns an empty string if LoadSession has not run.
func VisitorFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(VisitorKey).(string)
	return id
}
