// Run with: go test ./internal/apperror/ -v
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// Each case is one struct in the slice; the assertion logic is written once.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("topic", "topic is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("submission", "abc123"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "AuthFailed wraps ErrAuth",
			err:       AuthFailed("invalid email or password"),
			target:    ErrAuth,
			wantMatch: true,
		},
		{
			name:      "DuplicateIdentity matches ErrAuth",
			err:       DuplicateIdentity("email", "ada@example.com"),
			target:    ErrAuth,
			wantMatch: true,
		},
		{
			name:      "DuplicateIdentity matches ErrConflict",
			err:       DuplicateIdentity("email", "ada@example.com"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("service: building profile: %w", NotFound("user", "x")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("user", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "AuthFailed does NOT match ErrConflict",
			err:       AuthFailed("nope"),
			target:    ErrConflict,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("user", "abc123"),
			wantMessage: "user not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("problem_name", "problem name is required"),
			wantMessage: "problem name is required",
		},
		{
			name:        "DuplicateIdentity names the field",
			err:         DuplicateIdentity("email", "ada@example.com"),
			wantMessage: "an account with email ada@example.com already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("user", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestErrorsAs(t *testing.T) {
	// Handlers use errors.As to pull the message and field out of a wrapped chain.
	err := fmt.Errorf("outer: %w", ValidationFailed("difficulty", "bad difficulty"))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As() did not find *AppError")
	}
	if appErr.Field != "difficulty" {
		t.Errorf("Field = %q, want %q", appErr.Field, "difficulty")
	}
}
