package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"title": "required", "date": "invalid"}}
	if got := withFields.Error(); got != "validation failed: date, title" {
		t.Fatalf("expected sorted field list, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	base.add("first", "ignored")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected first message to be kept, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}

	base.merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestTransitionErrorMatchesSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("update: %w", &TransitionError{From: scheduler.StatusCancelled, To: scheduler.StatusConfirmed})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected wrapped TransitionError to match ErrInvalidTransition")
	}

	var tErr *TransitionError
	if !errors.As(err, &tErr) || tErr.From != scheduler.StatusCancelled || tErr.To != scheduler.StatusConfirmed {
		t.Fatalf("expected TransitionError details, got %v", err)
	}
	if errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("TransitionError must not match unrelated sentinels")
	}
}
