package moderation

import (
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

const maxDisplayName = 200

// SubmitInput holds the parameters for submitting a dataset.
type SubmitInput struct {
	ContentType  domain.ContentType
	SubjectLabel string
	DisplayName  string
	Body         []byte
}

// Validate checks all fields and collects all errors.
func (i SubmitInput) Validate() error {
	var errs []domain.FieldError

	if !i.ContentType.IsValid() {
		errs = append(errs, domain.FieldError{Field: "content_type", Message: "must be one of flashcard, decoder, practice"})
	}
	if len([]rune(strings.TrimSpace(i.DisplayName))) > maxDisplayName {
		errs = append(errs, domain.FieldError{Field: "display_name", Message: "max 200 characters"})
	}
	if len(strings.TrimSpace(string(i.Body))) == 0 {
		errs = append(errs, domain.FieldError{Field: "body", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ListInboxInput filters the inbox listing.
type ListInboxInput struct {
	Status domain.InboxStatus
}

// Validate checks all fields and collects all errors.
func (i ListInboxInput) Validate() error {
	if i.Status != "" && !i.Status.IsValid() {
		return domain.NewValidationError("status", "must be one of pending, moved_to_user, moved_to_shared, rejected")
	}
	return nil
}

// MoveToSharedInput holds the options of an approve-to-shared transition.
type MoveToSharedInput struct {
	CreateSubjectIfMissing bool
}

// AssignInput redirects a pending record to a target scope.
type AssignInput struct {
	TargetScope            domain.Scope
	TargetSubjectID        string
	TargetTenantID         string
	CreateSubjectIfMissing bool
}

// Validate checks all fields and collects all errors.
func (i AssignInput) Validate() error {
	var errs []domain.FieldError

	switch i.TargetScope {
	case domain.ScopeShared:
		if strings.TrimSpace(i.TargetSubjectID) == "" {
			errs = append(errs, domain.FieldError{Field: "target_subject_id", Message: "required for shared scope"})
		}
	case domain.ScopeUser:
		if id := domain.NormalizeID(i.TargetTenantID); id != "" && !domain.IsSlug(id) {
			errs = append(errs, domain.FieldError{Field: "target_tenant_id", Message: "must match [a-z0-9_-]+"})
		}
	default:
		errs = append(errs, domain.FieldError{Field: "target_scope", Message: "must be user or shared"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// PromoteSource names one personal dataset to publish.
type PromoteSource struct {
	TenantID string
	FileName string
}

// BulkPromoteInput publishes identical personal copies of datasets to one
// shared subject.
type BulkPromoteInput struct {
	SchoolID               string
	SubjectID              string
	CreateSubjectIfMissing bool
	Sources                []PromoteSource
}

// Validate checks all fields and collects all errors.
func (i BulkPromoteInput) Validate() error {
	var errs []domain.FieldError

	if !domain.IsSlug(i.SchoolID) {
		errs = append(errs, domain.FieldError{Field: "school_id", Message: "must match [a-z0-9_-]+"})
	}
	if strings.TrimSpace(i.SubjectID) == "" {
		errs = append(errs, domain.FieldError{Field: "subject_id", Message: "required"})
	}
	if len(i.Sources) == 0 {
		errs = append(errs, domain.FieldError{Field: "sources", Message: "at least one source required"})
	}
	for _, src := range i.Sources {
		if !domain.IsSlug(src.TenantID) || !domain.IsSafeFileName(src.FileName) {
			errs = append(errs, domain.FieldError{Field: "sources", Message: "invalid source " + src.TenantID + "/" + src.FileName})
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
