package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sakif/codesync/internal/apperror"
	"github.com/sakif/codesync/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. It reports
// conflicts and misses with the same apperror values the SQLite repository
// uses, so the services can't tell the difference.
type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int

	// set to a non-nil error to simulate a database failure
	createErr error
	listErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
		if user.GitHubID != 0 && u.GitHubID == user.GitHubID {
			return apperror.Conflict("github account", fmt.Sprint(user.GitHubID))
		}
	}
	user.ID = fmt.Sprintf("user-%03d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now().UTC()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	for _, u := range f.users {
		if u.GitHubID == githubID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", fmt.Sprintf("github:%d", githubID))
}

func (f *fakeUserRepo) LinkGitHub(_ context.Context, userID string, githubID int64) error {
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.GitHubID = githubID
	return nil
}

func (f *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// fakeSubmissionRepo keeps each user's log in insertion order and sorts by
// date on read, matching the SQLite ORDER BY.
type fakeSubmissionRepo struct {
	byUser map[string][]model.Submission
	nextID int

	appendErr error
	allForErr error
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{byUser: make(map[string][]model.Submission), nextID: 1}
}

func (f *fakeSubmissionRepo) Append(_ context.Context, sub *model.Submission) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	sub.ID = fmt.Sprintf("sub-%03d", f.nextID)
	f.nextID++
	sub.CreatedAt = time.Now().UTC()
	f.byUser[sub.UserID] = append(f.byUser[sub.UserID], *sub)
	return nil
}

func (f *fakeSubmissionRepo) AllFor(_ context.Context, userID string) ([]model.Submission, error) {
	if f.allForErr != nil {
		return nil, f.allForErr
	}
	out := slices.Clone(f.byUser[userID])
	if out == nil {
		out = []model.Submission{}
	}
	// Stable sort keeps insertion order for same-day entries.
	slices.SortStableFunc(out, func(a, b model.Submission) int {
		return a.OccurredOn.Time().Compare(b.OccurredOn.Time())
	})
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedNow pins "today" for date validation and streaks.
func fixedNow(d model.Date) func() time.Time {
	return func() time.Time { return d.Time().Add(15 * time.Hour) }
}
