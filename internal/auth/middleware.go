package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/codesync/internal/model"
)

// TokenCookie is the name of the HttpOnly cookie that carries the session
// token for browser clients.
const TokenCookie = "token"

// Authenticator resolves a bearer token into a Session.
// service.AuthService is the production implementation.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Session, error)
}

// contextKey is unexported so no other package can read or overwrite the
// session stored in a request context.
type contextKey string

const sessionKey contextKey = "session"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It takes the token from "Authorization: Bearer <token>" (API clients) or,
// failing that, from the "token" cookie (browsers). If the token is missing
// or invalid the request stops here with 401. Otherwise the resolved Session
// is stored in the context for handlers to pass on to services.
func RequireAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w)
				return
			}

			session, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext retrieves the authenticated Session.
//
// Returns (Session{}, false) if the request is anonymous. On a route behind
// RequireAuth it always returns a Session with a non-empty UserID.
func SessionFromContext(ctx context.Context) (model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(model.Session)
	return s, ok && s.UserID != ""
}

// extractToken prefers the Authorization header and falls back to the cookie.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		// http.ErrNoCookie: anonymous request
		return ""
	}
	return cookie.Value
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
}
