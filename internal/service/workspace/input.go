package workspace

import (
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

const maxDisplayName = 200

// CreateWorkspaceInput holds the parameters for creating a workspace.
type CreateWorkspaceInput struct {
	ID          string
	DisplayName string
}

// Validate checks all fields and collects all errors.
func (i CreateWorkspaceInput) Validate() error {
	var errs []domain.FieldError

	id := domain.NormalizeID(i.ID)
	if id == "" {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	} else if !domain.IsSlug(id) {
		errs = append(errs, domain.FieldError{Field: "id", Message: "must match [a-z0-9_-]+"})
	}
	if len([]rune(strings.TrimSpace(i.DisplayName))) > maxDisplayName {
		errs = append(errs, domain.FieldError{Field: "display_name", Message: "max 200 characters"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// SubjectInput describes one subject of a new school.
type SubjectInput struct {
	ID    string
	Label string
}

// CreateSchoolInput holds the parameters for registering a school.
type CreateSchoolInput struct {
	ID       string
	Name     string
	Subjects []SubjectInput
}

// Validate checks all fields and collects all errors.
func (i CreateSchoolInput) Validate() error {
	var errs []domain.FieldError

	if id := domain.NormalizeID(i.ID); id == "" {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	} else if !domain.IsSlug(id) {
		errs = append(errs, domain.FieldError{Field: "id", Message: "must match [a-z0-9_-]+"})
	}

	seen := make(map[string]bool, len(i.Subjects))
	for _, s := range i.Subjects {
		id := domain.NormalizeID(s.ID)
		switch {
		case !domain.IsSubjectID(id):
			errs = append(errs, domain.FieldError{Field: "subjects", Message: "subject id " + s.ID + " must use letters, digits, CJK, _ or -"})
		case seen[id]:
			errs = append(errs, domain.FieldError{Field: "subjects", Message: "duplicate subject id " + id})
		}
		seen[id] = true
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// AssignSchoolInput links a workspace to a school and enables subjects.
type AssignSchoolInput struct {
	TenantID   string
	SchoolID   string
	SubjectIDs []string
}

// Validate checks all fields and collects all errors.
func (i AssignSchoolInput) Validate() error {
	var errs []domain.FieldError
	if !domain.IsSlug(i.TenantID) {
		errs = append(errs, domain.FieldError{Field: "tenant_id", Message: "required"})
	}
	if !domain.IsSlug(i.SchoolID) {
		errs = append(errs, domain.FieldError{Field: "school_id", Message: "required"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
