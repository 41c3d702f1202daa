package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("display_name", "required")

	if got := err.Error(); got != "validation: display_name — required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "display_name", Message: "required"},
		{Field: "content_type", Message: "unknown"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
}

func TestAuditRejectedError_UnwrapsToUnprocessable(t *testing.T) {
	t.Parallel()

	report := AuditReport{
		Issues: []Issue{
			{Severity: SeverityBlocker, RuleID: "FC_STR_002"},
			{Severity: SeverityMajor, RuleID: "TECH_LATEX_003"},
			{Severity: SeverityBlocker, RuleID: "FC_STR_003"},
		},
	}
	var err error = fmt.Errorf("submit: %w", &AuditRejectedError{Report: report})

	if !errors.Is(err, ErrUnprocessable) {
		t.Fatal("errors.Is(err, ErrUnprocessable) = false")
	}

	var rejected *AuditRejectedError
	if !errors.As(err, &rejected) {
		t.Fatal("errors.As(err, *AuditRejectedError) = false")
	}
	if got := rejected.Error(); got != "audit rejected: 2 blocker(s)" {
		t.Errorf("unexpected Error(): %q", got)
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrValidation,
		ErrUnauthorized, ErrForbidden, ErrConflict,
		ErrInvalidInput, ErrUnprocessable, ErrUnavailable,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel errors %d and %d should not match", i, j)
			}
		}
	}
}
