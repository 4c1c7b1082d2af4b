package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/codesync/internal/apperror"
	"github.com/sakif/codesync/internal/auth"
	"github.com/sakif/codesync/internal/metrics"
	"github.com/sakif/codesync/internal/model"
	"github.com/sakif/codesync/internal/repository"
)

const (
	MinPasswordLength = 8
	MaxNameLength     = 100
)

// invalidCredentials covers both an unknown email and a wrong password.
const invalidCredentials = "invalid email or password"

// Compile-time check: AuthService is what RequireAuth runs against.
var _ auth.Authenticator = (*AuthService)(nil)

// AuthService owns identities and sessions:
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                              ↘ TokenService (JWT), PasswordService (bcrypt)
//
// It never touches cookies or requests; handlers do that with the Session
// it returns.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAuthService wires an AuthService. m may be nil.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		metrics:   m,
		logger:    logger,
	}
}

// AuthResult bundles the issued session with the user it belongs to, so the
// handler can set the cookie and write the response in one step.
type AuthResult struct {
	Session model.Session
	User    *model.User
}

// Signup creates an email/password identity and opens a session for it.
//
// The email is trimmed and lower-cased before it is stored, making it the
// case-insensitive identity key. A taken email fails with
// apperror.DuplicateIdentity and nothing is written.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or fewer", MaxNameLength))
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.metrics.AuthFailed("duplicate_identity")
			return nil, apperror.DuplicateIdentity("email", email)
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return s.issue(user)
}

// Login checks an email/password pair and opens a new session.
// Any mismatch fails with the same apperror.ErrAuth message.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.metrics.AuthFailed("bad_credentials")
			return nil, apperror.AuthFailed(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		// GitHub-only accounts have no hash; Verify errors for them too.
		s.metrics.AuthFailed("bad_credentials")
		return nil, apperror.AuthFailed(invalidCredentials)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginOrRegisterGitHub opens a session for a GitHub identity.
//
// Resolution order:
//  1. an account already linked to this GitHub ID
//  2. an account with the same email, which gets linked unless it is
//     already linked to a different GitHub account (DuplicateIdentity)
//  3. a new account (no password; email falls back to the noreply address)
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil || gh.ID == 0 {
		return nil, fmt.Errorf("service/auth: GitHub user must not be empty")
	}

	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	if err == nil {
		return s.issue(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up github id %d: %w", gh.ID, err)
	}

	email := normalizeEmail(gh.Email)
	if email == "" {
		email = strings.ToLower(gh.Login) + "@users.noreply.github.com"
	}

	user, err = s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.GitHubID != 0 && user.GitHubID != gh.ID {
			s.logger.Warn("github login: email already linked to another GitHub account",
				slog.String("userID", user.ID),
				slog.Int64("githubID", gh.ID),
			)
			s.metrics.AuthFailed("github_link_conflict")
			return nil, apperror.DuplicateIdentity("email", email)
		}
		if err := s.users.LinkGitHub(ctx, user.ID, gh.ID); err != nil {
			return nil, fmt.Errorf("service/auth: linking github id %d: %w", gh.ID, err)
		}
		user.GitHubID = gh.ID
		s.logger.Info("github account linked", slog.String("userID", user.ID))
	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{Name: gh.DisplayName(), Email: email, GitHubID: gh.ID}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating github user: %w", err)
		}
		s.logger.Info("user signed up via GitHub", slog.String("userID", user.ID))
	default:
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	return s.issue(user)
}

// Authenticate resolves a bearer token into a Session. The token must be
// valid and its user must still exist.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.Session, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		s.metrics.AuthFailed("invalid_token")
		return model.Session{}, apperror.AuthFailed("invalid or expired session")
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.metrics.AuthFailed("invalid_token")
			return model.Session{}, apperror.AuthFailed("session user no longer exists")
		}
		return model.Session{}, fmt.Errorf("service/auth: %w", err)
	}

	return model.Session{Token: token, UserID: userID}, nil
}

// GetUserByID returns the account behind /api/me.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{
		Session: model.Session{Token: token, UserID: user.ID},
		User:    user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	// ParseAddress also accepts "Name <a@b>"; only a bare address is allowed.
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return apperror.ValidationFailed("email", "email is not a valid address")
	}
	return nil
}
