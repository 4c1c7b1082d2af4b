package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/codesync/internal/metrics"
	"github.com/sakif/codesync/internal/model"
	"github.com/sakif/codesync/internal/progress"
	"github.com/sakif/codesync/internal/repository"
)

// ProfileService assembles dashboards and the peer directory. It only reads;
// every number comes from progress over a fresh read of the log.
type ProfileService struct {
	users       repository.UserRepository
	submissions repository.SubmissionRepository
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewProfileService wires a ProfileService. m may be nil.
func NewProfileService(
	users repository.UserRepository,
	submissions repository.SubmissionRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:       users,
		submissions: submissions,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Profile returns the derived profile for userID as of today (UTC).
// An unknown user is apperror.ErrNotFound; no partial profile is returned.
func (s *ProfileService) Profile(ctx context.Context, userID string) (*model.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: %w", err)
	}

	p, err := s.build(ctx, *user, s.today())
	if err != nil {
		return nil, err
	}
	s.metrics.ProfileBuilt(1)
	return &p, nil
}

// Peers returns one summary per stored user, ordered by user ID.
// Every summary is computed against the same "today".
func (s *ProfileService) Peers(ctx context.Context) ([]model.PeerSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/profile: listing users: %w", err)
	}

	today := s.today()
	peers := make([]model.PeerSummary, 0, len(users))
	for _, u := range users {
		p, err := s.build(ctx, u, today)
		if err != nil {
			return nil, err
		}
		peers = append(peers, progress.Summarize(p))
	}

	s.metrics.ProfileBuilt(len(peers))
	s.logger.Debug("peer directory built", slog.Int("users", len(peers)))
	return peers, nil
}

func (s *ProfileService) build(ctx context.Context, user model.User, today model.Date) (model.UserProfile, error) {
	subs, err := s.submissions.AllFor(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to read submissions",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return model.UserProfile{}, fmt.Errorf("service/profile: reading log for %s: %w", user.ID, err)
	}
	return progress.BuildProfile(user, subs, today), nil
}

func (s *ProfileService) today() model.Date {
	return model.DateOf(s.now())
}
