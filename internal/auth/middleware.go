package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write the
// userID value — no other package can collide with or shadow it.
type contextKey string

const userIDKey contextKey = "userID"

// SessionCookie is the name of the HttpOnly cookie carrying the JWT.
const SessionCookie = "token"

// AdminChecker reports whether the identity behind userID currently holds
// the admin role. Implemented by the auth service (which re-derives the
// role from the allow-list on every call — roles are never cached).
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the session cookie, validates it, and stores the
// userID in the request context. If the token is missing or invalid, it
// returns 401 Unauthorized and stops the request chain.
//
// The cookie is HttpOnly so page scripts can never read the token; the
// browser attaches it automatically on every request.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin enforces the admin role on top of RequireAuth. It must be
// mounted after RequireAuth (it reads the userID from the context).
//
// Non-admin identities get 403 with an "unauthorized" message — the
// server-side equivalent of the admin view refusing to render. The check
// runs per request, so revoking admin in the allow-list takes effect on
// the next call, not the next login.
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}

			isAdmin, err := checker.IsAdmin(r.Context(), userID)
			if err != nil || !isAdmin {
				http.Error(w, `{"error":"forbidden","message":"you are not authorized to view this page"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) if the request carries no valid session.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a context carrying the given userID. Exported for
// handler tests that exercise protected endpoints without running the
// middleware chain.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// extractUserID reads the JWT cookie and validates it.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie — no session, not a validation failure
		return "", err
	}
	return tokens.Validate(cookie.Value)
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
}
