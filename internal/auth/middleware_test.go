package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/codesync/internal/model"
)

// fakeAuthenticator accepts exactly one token.
type fakeAuthenticator struct {
	token  string
	userID string
}

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (model.Session, error) {
	if token != f.token {
		return model.Session{}, errors.New("bad token")
	}
	return model.Session{Token: token, UserID: f.userID}, nil
}

// echoSession writes the session's user ID so tests can see what got through.
func echoSession(w http.ResponseWriter, r *http.Request) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}
	w.Write([]byte(s.UserID))
}

func TestRequireAuth(t *testing.T) {
	mw := RequireAuth(fakeAuthenticator{token: "good", userID: "u1"})
	h := mw(http.HandlerFunc(echoSession))

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bearer header",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			wantStatus: http.StatusOK,
			wantBody:   "u1",
		},
		{
			name:       "bearer scheme is case-insensitive",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "bearer good") },
			wantStatus: http.StatusOK,
			wantBody:   "u1",
		},
		{
			name:       "cookie fallback",
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "good"}) },
			wantStatus: http.StatusOK,
			wantBody:   "u1",
		},
		{
			name:       "no credentials",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bad token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non-bearer scheme",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Basic good") },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rr.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			}
		})
	}
}

func TestSessionFromContext_Anonymous(t *testing.T) {
	_, ok := SessionFromContext(context.Background())
	assert.False(t, ok)

	_, ok = SessionFromContext(WithSession(context.Background(), model.Session{}))
	assert.False(t, ok, "a session without a user is not a session")
}
