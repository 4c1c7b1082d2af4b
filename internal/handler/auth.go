package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codesync/internal/auth"
	"github.com/sakif/codesync/internal/model"
	"github.com/sakif/codesync/internal/service"
)

const oauthStateCookie = "oauth_state"

// AuthHandler serves signup, login, logout, /api/me and, when configured,
// the GitHub login flow.
//
// Every successful login answers with the token in the body (for API
// clients) and in an HttpOnly cookie (for browsers); RequireAuth accepts
// either.
type AuthHandler struct {
	auth      *service.AuthService
	github    *auth.GitHubProvider // nil when GitHub login is off
	cookieTTL time.Duration
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil. cookieTTL should
// match the token lifetime so the cookie and the JWT expire together.
func NewAuthHandler(
	authService *service.AuthService,
	github *auth.GitHubProvider,
	cookieTTL time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:      authService,
		github:    github,
		cookieTTL: cookieTTL,
		logger:    logger,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is the body for signup and login.
type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// HandleSignup registers an email/password account.
//
// HTTP: POST /api/auth/signup
// Body: {"name": "...", "email": "...", "password": "..."}
// 201 on success, 409 if the email is taken.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, res.Session.Token)
	writeJSON(w, http.StatusCreated, authResponse{Token: res.Session.Token, User: res.User})
}

// HandleLogin opens a session for an email/password pair.
//
// HTTP: POST /api/auth/login
// Body: {"email": "...", "password": "..."}
// 401 for any bad credential.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, res.Session.Token)
	writeJSON(w, http.StatusOK, authResponse{Token: res.Session.Token, User: res.User})
}

// HandleLogout deletes the session cookie.
//
// HTTP: POST /api/auth/logout
//
// Tokens are stateless JWTs, so the token itself stays valid until it
// expires; the browser just stops sending it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the account behind the current session.
//
// HTTP: GET /api/me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived HttpOnly cookie and into the
// authorization URL. The callback only proceeds if the two match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes to approve on GitHub
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the GitHub flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
//  1. Check the state cookie (CSRF)
//  2. Exchange the code for a GitHub profile
//  3. Find, link or create the account (AuthService.LoginOrRegisterGitHub)
//  4. Set the session cookie and redirect home
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || q.Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid OAuth state"})
		return
	}

	// Single use
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	if denied := q.Get("error"); denied != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", denied))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := q.Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "upstream_error", Message: "GitHub authentication failed"})
		return
	}

	res, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, res.Session.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// setSessionCookie stores the token for browser clients.
// Secure should be set when served over HTTPS.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
