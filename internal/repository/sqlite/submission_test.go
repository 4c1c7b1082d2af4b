package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sakif/codesync/internal/model"
)

func appendTestSubmission(t *testing.T, db *DB, userID, problem string, date model.Date) *model.Submission {
	t.Helper()
	s := &model.Submission{
		UserID:      userID,
		ProblemName: problem,
		Topic:       "arrays",
		Difficulty:  model.DifficultyMedium,
		OccurredOn:  date,
		Notes:       "two pointers",
		Code:        "def solve(): pass",
	}
	if err := db.Append(context.Background(), s); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	return s
}

func TestAppend_SetsIDAndCreatedAt(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")

	s := appendTestSubmission(t, db, user.ID, "two-sum", model.NewDate(2024, time.January, 1))

	if s.ID == "" {
		t.Error("Append() did not set ID")
	}
	if s.CreatedAt.IsZero() {
		t.Error("Append() did not set CreatedAt")
	}
}

func TestAppend_UnknownUserRejected(t *testing.T) {
	// The foreign key on user_id stops orphaned log entries.
	db := newTestDB(t)

	err := db.Append(context.Background(), &model.Submission{
		UserID:      "ghost",
		ProblemName: "two-sum",
		Topic:       "arrays",
		Difficulty:  model.DifficultyEasy,
		OccurredOn:  model.NewDate(2024, time.January, 1),
	})
	if err == nil {
		t.Fatal("Append() should fail for a user that does not exist")
	}
}

func TestAllFor_RoundTripsFields(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")
	want := appendTestSubmission(t, db, user.ID, "two-sum", model.NewDate(2024, time.March, 9))

	got, err := db.AllFor(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("AllFor() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("AllFor() returned %d rows, want 1", len(got))
	}

	s := got[0]
	if s.ID != want.ID || s.UserID != user.ID || s.ProblemName != "two-sum" ||
		s.Topic != "arrays" || s.Difficulty != model.DifficultyMedium ||
		s.Notes != "two pointers" || s.Code != "def solve(): pass" {
		t.Errorf("AllFor() row = %+v, want %+v", s, *want)
	}
	if s.OccurredOn.String() != "2024-03-09" {
		t.Errorf("OccurredOn = %s, want 2024-03-09", s.OccurredOn)
	}
}

func TestAllFor_OrderedByDateThenInsertion(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")

	// Inserted out of date order; two share a date.
	appendTestSubmission(t, db, user.ID, "c", model.NewDate(2024, time.January, 3))
	appendTestSubmission(t, db, user.ID, "a1", model.NewDate(2024, time.January, 1))
	appendTestSubmission(t, db, user.ID, "b", model.NewDate(2024, time.January, 2))
	appendTestSubmission(t, db, user.ID, "a2", model.NewDate(2024, time.January, 1))

	got, err := db.AllFor(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("AllFor() error = %v", err)
	}

	wantOrder := []string{"a1", "a2", "b", "c"}
	if len(got) != len(wantOrder) {
		t.Fatalf("AllFor() returned %d rows, want %d", len(got), len(wantOrder))
	}
	for i, name := range wantOrder {
		if got[i].ProblemName != name {
			t.Errorf("position %d = %q, want %q", i, got[i].ProblemName, name)
		}
	}
}

func TestAllFor_IsolatedPerUser(t *testing.T) {
	db := newTestDB(t)
	ada := createTestUser(t, db, "Ada", "ada@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")

	appendTestSubmission(t, db, ada.ID, "a", model.NewDate(2024, time.January, 1))
	appendTestSubmission(t, db, bob.ID, "b", model.NewDate(2024, time.January, 1))
	appendTestSubmission(t, db, bob.ID, "c", model.NewDate(2024, time.January, 2))

	got, err := db.AllFor(context.Background(), ada.ID)
	if err != nil {
		t.Fatalf("AllFor() error = %v", err)
	}
	if len(got) != 1 || got[0].ProblemName != "a" {
		t.Errorf("AllFor(ada) = %+v, want only submission a", got)
	}
}

func TestAllFor_EmptyLog(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")

	got, err := db.AllFor(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("AllFor() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("AllFor() = %v, want empty non-nil slice", got)
	}
}

func TestAppend_Concurrent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.Append(context.Background(), &model.Submission{
				UserID:      user.ID,
				ProblemName: "p",
				Topic:       "arrays",
				Difficulty:  model.DifficultyEasy,
				OccurredOn:  model.NewDate(2024, time.January, 1),
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Append() error = %v", err)
		}
	}

	got, err := db.AllFor(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("AllFor() error = %v", err)
	}
	if len(got) != n {
		t.Errorf("AllFor() returned %d rows, want %d", len(got), n)
	}
}

func TestFileDatabase_PersistsAndEnforcesForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codesync.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New(%s) error = %v", path, err)
	}
	user := createTestUser(t, db, "Ada", "ada@example.com")
	appendTestSubmission(t, db, user.ID, "two-sum", model.NewDate(2024, time.January, 1))

	// Several connections may be open on a file database; each one must
	// refuse orphaned rows, not just the first.
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.Append(context.Background(), &model.Submission{
				UserID: "ghost", ProblemName: "p", Topic: "t",
				Difficulty: model.DifficultyEasy, OccurredOn: model.NewDate(2024, time.January, 2),
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err == nil {
			t.Error("Append() for an unknown user succeeded on a pooled connection")
		}
	}
	db.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	subs, err := reopened.AllFor(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("AllFor() error = %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("len(subs) after reopen = %d, want 1", len(subs))
	}
}
