package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/codesync/internal/apperror"
	"github.com/sakif/codesync/internal/model"
)

var today = model.NewDate(2024, time.March, 10)

type submissionFixture struct {
	users *fakeUserRepo
	subs  *fakeSubmissionRepo
	svc   *SubmissionService
	alice model.Session
	bob   model.Session
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()

	users := newFakeUserRepo()
	subs := newFakeSubmissionRepo()

	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		if err := users.Create(context.Background(), &model.User{Name: email, Email: email}); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	svc := NewSubmissionService(users, subs, nil, discardLogger())
	svc.now = fixedNow(today)

	return &submissionFixture{
		users: users,
		subs:  subs,
		svc:   svc,
		alice: model.Session{Token: "t-alice", UserID: "user-001"},
		bob:   model.Session{Token: "t-bob", UserID: "user-002"},
	}
}

func validInput() SubmissionInput {
	return SubmissionInput{
		ProblemName: "Two Sum",
		Topic:       "Arrays",
		Difficulty:  "Easy",
		Date:        "2024-03-09",
		Notes:       "hash map",
		Code:        "func twoSum() {}",
	}
}

func TestAppend_Success(t *testing.T) {
	f := newSubmissionFixture(t)

	in := validInput()
	in.ProblemName = "  Two Sum  "
	in.Difficulty = "easy"

	sub, err := f.svc.Append(context.Background(), f.alice, f.alice.UserID, in)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if sub.ID == "" {
		t.Error("ID should be assigned")
	}
	if sub.UserID != f.alice.UserID {
		t.Errorf("UserID = %q, want %q", sub.UserID, f.alice.UserID)
	}
	if sub.ProblemName != "Two Sum" {
		t.Errorf("ProblemName = %q, want trimmed", sub.ProblemName)
	}
	if sub.Topic != "arrays" {
		t.Errorf("Topic = %q, want normalized %q", sub.Topic, "arrays")
	}
	if sub.Difficulty != model.DifficultyEasy {
		t.Errorf("Difficulty = %q, want canonical %q", sub.Difficulty, model.DifficultyEasy)
	}
	if got := sub.OccurredOn.String(); got != "2024-03-09" {
		t.Errorf("OccurredOn = %s", got)
	}
	if n := len(f.subs.byUser[f.alice.UserID]); n != 1 {
		t.Errorf("stored = %d, want 1", n)
	}
}

func TestAppend_TodayIsAllowed(t *testing.T) {
	f := newSubmissionFixture(t)

	in := validInput()
	in.Date = today.String()

	if _, err := f.svc.Append(context.Background(), f.alice, f.alice.UserID, in); err != nil {
		t.Fatalf("Append() for today: %v", err)
	}
}

func TestAppend_ForbiddenForOtherUser(t *testing.T) {
	f := newSubmissionFixture(t)

	_, err := f.svc.Append(context.Background(), f.alice, f.bob.UserID, validInput())
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Append() error = %v, want ErrForbidden", err)
	}
	if len(f.subs.byUser) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestAppend_EmptySessionIsForbidden(t *testing.T) {
	f := newSubmissionFixture(t)

	_, err := f.svc.Append(context.Background(), model.Session{}, "", validInput())
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Append() error = %v, want ErrForbidden", err)
	}
}

func TestAppend_UnknownUser(t *testing.T) {
	f := newSubmissionFixture(t)
	ghost := model.Session{Token: "t", UserID: "user-999"}

	_, err := f.svc.Append(context.Background(), ghost, ghost.UserID, validInput())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Append() error = %v, want ErrNotFound", err)
	}
}

func TestAppend_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*SubmissionInput)
		wantField string
	}{
		{"empty problem name", func(in *SubmissionInput) { in.ProblemName = "   " }, "problem_name"},
		{"long problem name", func(in *SubmissionInput) { in.ProblemName = strings.Repeat("x", MaxProblemNameLength+1) }, "problem_name"},
		{"empty topic", func(in *SubmissionInput) { in.Topic = "" }, "topic"},
		{"long topic", func(in *SubmissionInput) { in.Topic = strings.Repeat("t", MaxTopicLength+1) }, "topic"},
		{"unknown difficulty", func(in *SubmissionInput) { in.Difficulty = "Extreme" }, "difficulty"},
		{"empty difficulty", func(in *SubmissionInput) { in.Difficulty = "" }, "difficulty"},
		{"not a date", func(in *SubmissionInput) { in.Date = "yesterday" }, "date"},
		{"impossible date", func(in *SubmissionInput) { in.Date = "2024-02-30" }, "date"},
		{"empty date", func(in *SubmissionInput) { in.Date = "" }, "date"},
		{"future date", func(in *SubmissionInput) { in.Date = "2024-03-11" }, "date"},
		{"zero date", func(in *SubmissionInput) { in.Date = "0001-01-01" }, "date"},
		{"long notes", func(in *SubmissionInput) { in.Notes = strings.Repeat("n", MaxNotesLength+1) }, "notes"},
		{"long code", func(in *SubmissionInput) { in.Code = strings.Repeat("c", MaxCodeLength+1) }, "code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmissionFixture(t)
			in := validInput()
			tt.mutate(&in)

			_, err := f.svc.Append(context.Background(), f.alice, f.alice.UserID, in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Append() error = %v, want validation error", err)
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", appErr.Field, tt.wantField)
			}
			if len(f.subs.byUser) != 0 {
				t.Error("nothing should be stored on validation failure")
			}
		})
	}
}

func TestAppend_LimitsCountCharacters(t *testing.T) {
	f := newSubmissionFixture(t)

	in := validInput()
	in.ProblemName = strings.Repeat("é", MaxProblemNameLength)
	in.Topic = strings.Repeat("ü", MaxTopicLength)

	if _, err := f.svc.Append(context.Background(), f.alice, f.alice.UserID, in); err != nil {
		t.Fatalf("Append() with multi-byte names at the limit: %v", err)
	}
}

func TestAppend_EarliestDate(t *testing.T) {
	f := newSubmissionFixture(t)

	in := validInput()
	in.Date = "0001-01-02"

	sub, err := f.svc.Append(context.Background(), f.alice, f.alice.UserID, in)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if sub.OccurredOn.IsZero() {
		t.Error("0001-01-02 should not be the zero date")
	}
}

func TestAppend_RepositoryError(t *testing.T) {
	f := newSubmissionFixture(t)
	f.subs.appendErr = errors.New("disk full")

	_, err := f.svc.Append(context.Background(), f.alice, f.alice.UserID, validInput())
	if err == nil {
		t.Fatal("Append() should propagate repository errors")
	}
	if errors.Is(err, apperror.ErrValidation) {
		t.Error("storage failure reported as validation error")
	}
}

func TestAllFor_OrderedByDate(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2024-03-05", "2024-03-01", "2024-03-05", "2024-03-03"} {
		in := validInput()
		in.Date = d
		in.ProblemName = "p" + d
		if _, err := f.svc.Append(ctx, f.alice, f.alice.UserID, in); err != nil {
			t.Fatalf("Append(%s): %v", d, err)
		}
	}

	subs, err := f.svc.AllFor(ctx, f.alice.UserID)
	if err != nil {
		t.Fatalf("AllFor() error = %v", err)
	}

	var got []string
	for _, s := range subs {
		got = append(got, s.OccurredOn.String())
	}
	want := []string{"2024-03-01", "2024-03-03", "2024-03-05", "2024-03-05"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", got, want)
	}
	// Same-day entries keep insertion order.
	if subs[2].ID > subs[3].ID {
		t.Errorf("same-day order flipped: %s before %s", subs[2].ID, subs[3].ID)
	}
}

func TestAllFor_EmptyAndUnknown(t *testing.T) {
	f := newSubmissionFixture(t)

	subs, err := f.svc.AllFor(context.Background(), f.bob.UserID)
	if err != nil {
		t.Fatalf("AllFor() error = %v", err)
	}
	if subs == nil || len(subs) != 0 {
		t.Errorf("AllFor() = %v, want empty non-nil slice", subs)
	}

	if _, err := f.svc.AllFor(context.Background(), "user-999"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown user: error = %v, want ErrNotFound", err)
	}
}
