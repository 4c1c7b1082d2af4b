package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/codesync/internal/model"
	"github.com/sakif/codesync/internal/repository"
)

// compile-time check that *DB implements repository.SubmissionRepository
var _ repository.SubmissionRepository = (*DB)(nil)

// Append adds a submission to the owner's log, filling in ID and CreatedAt.
//
// There is no Update or Delete: the log is append-only. Ordering among
// submissions on the same date comes from the table's AUTOINCREMENT seq,
// which SQLite assigns under its single writer lock.
func (db *DB) Append(ctx context.Context, s *model.Submission) error {
	s.ID = xid.New().String()
	s.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO submissions
		   (id, user_id, problem_name, topic, difficulty, occurred_on, notes, code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.UserID,
		s.ProblemName,
		s.Topic,
		string(s.Difficulty),
		s.OccurredOn,
		s.Notes,
		s.Code,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: appending submission for user %s: %w", s.UserID, err)
	}
	return nil
}

// AllFor returns the user's whole log, oldest date first, ties in insertion
// order. An unknown user simply has an empty log here; the service decides
// whether that is a NotFound.
func (db *DB) AllFor(ctx context.Context, userID string) ([]model.Submission, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, problem_name, topic, difficulty, occurred_on, notes, code, created_at
		 FROM submissions
		 WHERE user_id = ?
		 ORDER BY occurred_on ASC, seq ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing submissions for user %s: %w", userID, err)
	}
	defer rows.Close()

	submissions := make([]model.Submission, 0)
	for rows.Next() {
		var (
			s          model.Submission
			difficulty string
		)
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.ProblemName, &s.Topic, &difficulty,
			&s.OccurredOn, &s.Notes, &s.Code, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning submission row: %w", err)
		}
		s.Difficulty = model.Difficulty(difficulty)
		submissions = append(submissions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating submissions: %w", err)
	}
	return submissions, nil
}
