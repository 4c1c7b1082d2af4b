// Package service contains the business rules of the tracker.
//
// THE LAYERS:
//
//	Handler (HTTP)     → parses requests, writes responses
//	Service (rules)    → validates, authorizes, orchestrates
//	Repository (data)  → reads/writes SQLite
//	progress (pure)    → streaks, topic counts and scores from a submission log
//
// Services take repository interfaces, not *sqlite.DB, so tests pass
// hand-written fakes (see the _test.go files). Every operation that needs
// authorization receives the caller's model.Session explicitly.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/codesync/internal/apperror"
	"github.com/sakif/codesync/internal/metrics"
	"github.com/sakif/codesync/internal/model"
	"github.com/sakif/codesync/internal/repository"
)

// Field limits for an uploaded solution. Names and topics are counted in
// characters, notes and code in bytes.
const (
	MaxProblemNameLength = 200
	MaxTopicLength       = 64
	MaxNotesLength       = 100000
	MaxCodeLength        = 100000 // ~100KB of code
)

// SubmissionInput is an unvalidated upload. Date is the calendar day the
// problem was solved, as YYYY-MM-DD.
type SubmissionInput struct {
	ProblemName string
	Topic       string
	Difficulty  string
	Date        string
	Notes       string
	Code        string
}

// SubmissionService is the entry point to a user's submission log.
type SubmissionService struct {
	users       repository.UserRepository
	submissions repository.SubmissionRepository
	metrics     *metrics.Metrics
	logger      *slog.Logger

	// now is replaced in tests to pin "today".
	now func() time.Time
}

// NewSubmissionService wires a SubmissionService. m may be nil.
func NewSubmissionService(
	users repository.UserRepository,
	submissions repository.SubmissionRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		users:       users,
		submissions: submissions,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Append validates in and records it as a solved problem for userID.
//
// Order of checks: the session must belong to userID (Forbidden), the user
// must exist (NotFound), then every field is validated. Nothing is stored
// unless all checks pass.
func (s *SubmissionService) Append(ctx context.Context, session model.Session, userID string, in SubmissionInput) (*model.Submission, error) {
	if session.UserID == "" || session.UserID != userID {
		return nil, apperror.Forbidden("you can only record submissions for yourself")
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("service/submission: %w", err)
	}

	sub, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	sub.UserID = userID

	if err := s.submissions.Append(ctx, sub); err != nil {
		s.logger.Error("failed to append submission",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/submission: appending: %w", err)
	}

	s.metrics.SubmissionAppended(string(sub.Difficulty))
	s.logger.Info("submission appended",
		slog.String("userID", userID),
		slog.String("id", sub.ID),
		slog.String("topic", sub.Topic),
	)
	return sub, nil
}

// AllFor returns userID's log, oldest first. Unknown users are NotFound.
func (s *SubmissionService) AllFor(ctx context.Context, userID string) ([]model.Submission, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("service/submission: %w", err)
	}

	subs, err := s.submissions.AllFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/submission: listing for %s: %w", userID, err)
	}
	return subs, nil
}

func (s *SubmissionService) validate(in SubmissionInput) (*model.Submission, error) {
	name := strings.TrimSpace(in.ProblemName)
	if name == "" {
		return nil, apperror.ValidationFailed("problem_name", "problem name is required")
	}
	if utf8.RuneCountInString(name) > MaxProblemNameLength {
		return nil, apperror.ValidationFailed("problem_name",
			fmt.Sprintf("problem name must be %d characters or fewer", MaxProblemNameLength))
	}

	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, apperror.ValidationFailed("topic", "topic is required")
	}
	if utf8.RuneCountInString(topic) > MaxTopicLength {
		return nil, apperror.ValidationFailed("topic",
			fmt.Sprintf("topic must be %d characters or fewer", MaxTopicLength))
	}

	difficulty, ok := model.ParseDifficulty(in.Difficulty)
	if !ok {
		return nil, apperror.ValidationFailed("difficulty", "difficulty must be Easy, Medium or Hard")
	}

	date, err := model.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return nil, apperror.ValidationFailed("date", "date must be a calendar date in YYYY-MM-DD form")
	}
	// 0001-01-01 is the zero Date, which storage and streaks treat as unset.
	if date.IsZero() {
		return nil, apperror.ValidationFailed("date", "date must be after 0001-01-01")
	}
	if date.After(model.DateOf(s.now())) {
		return nil, apperror.ValidationFailed("date", "date cannot be in the future")
	}

	if len(in.Notes) > MaxNotesLength {
		return nil, apperror.ValidationFailed("notes",
			fmt.Sprintf("notes must be %d bytes or fewer", MaxNotesLength))
	}
	if len(in.Code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d bytes or fewer", MaxCodeLength))
	}

	return &model.Submission{
		ProblemName: name,
		Topic:       model.NormalizeTopic(topic),
		Difficulty:  difficulty,
		OccurredOn:  date,
		Notes:       in.Notes,
		Code:        in.Code,
	}, nil
}
