package repository

import (
	"context"

	"github.com/sakif/codesync/internal/model"
)

// UserRepository stores identities. Email and GitHubID are unique.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	LinkGitHub(ctx context.Context, userID string, githubID int64) error
	// List returns every user ordered by ID ascending.
	List(ctx context.Context) ([]model.User, error)
}

// SubmissionRepository is the durable, append-only submission log.
//
// Implementations must serialise appends for a user so that insertion order
// is well defined. AllFor returns submissions ordered by OccurredOn ascending,
// with ties broken by insertion order.
type SubmissionRepository interface {
	Append(ctx context.Context, submission *model.Submission) error
	AllFor(ctx context.Context, userID string) ([]model.Submission, error)
}
