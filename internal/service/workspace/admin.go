package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// CreateWorkspace creates a tenant workspace. Admin only.
func (s *Service) CreateWorkspace(ctx context.Context, input CreateWorkspaceInput) (domain.Workspace, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Workspace{}, err
	}
	if err := input.Validate(); err != nil {
		return domain.Workspace{}, err
	}

	ws, err := s.store.CreateWorkspace(ctx, input.ID, input.DisplayName)
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("create workspace: %w", err)
	}
	return ws, nil
}

// ListWorkspaces returns every workspace. Admin only.
func (s *Service) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.ListWorkspaces(ctx)
}

// DeactivateWorkspace soft-deletes a workspace. Its content stays in place
// but it can no longer read or submit. Admin only.
func (s *Service) DeactivateWorkspace(ctx context.Context, tenantID string) (domain.Workspace, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Workspace{}, err
	}

	ws, err := s.store.UpdateWorkspace(ctx, tenantID, func(ws *domain.Workspace) error {
		if ws.IsSystem {
			return fmt.Errorf("workspace %s is a system workspace: %w", tenantID, domain.ErrForbidden)
		}
		ws.Status = domain.WorkspaceStatusInactive
		return nil
	})
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("deactivate workspace: %w", err)
	}

	s.log.InfoContext(ctx, "workspace deactivated", slog.String("tenant_id", tenantID))
	return ws, nil
}

// CreateSchool registers a school with its subject list. Admin only.
func (s *Service) CreateSchool(ctx context.Context, input CreateSchoolInput) (domain.School, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.School{}, err
	}
	if err := input.Validate(); err != nil {
		return domain.School{}, err
	}

	school := domain.School{ID: domain.NormalizeID(input.ID), Name: strings.TrimSpace(input.Name)}
	for _, sub := range input.Subjects {
		school.Subjects = append(school.Subjects, domain.Subject{
			ID:      domain.NormalizeID(sub.ID),
			Label:   strings.TrimSpace(sub.Label),
			Enabled: true,
		})
	}

	created, err := s.store.CreateSchool(ctx, school)
	if err != nil {
		return domain.School{}, fmt.Errorf("create school: %w", err)
	}
	return created, nil
}

// AssignWorkspaceSchool links a workspace to a school and replaces its
// enabled subjects. Every subject must be registered in the school.
// Admin only.
func (s *Service) AssignWorkspaceSchool(ctx context.Context, input AssignSchoolInput) (domain.Workspace, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Workspace{}, err
	}
	if err := input.Validate(); err != nil {
		return domain.Workspace{}, err
	}

	school, err := s.store.GetSchool(ctx, input.SchoolID)
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("get school: %w", err)
	}

	subjects := make([]string, 0, len(input.SubjectIDs))
	var errs []domain.FieldError
	for _, id := range input.SubjectIDs {
		id = domain.NormalizeID(id)
		if _, ok := school.Subject(id); !ok {
			errs = append(errs, domain.FieldError{Field: "subject_ids", Message: "unknown subject " + id})
			continue
		}
		if !slices.Contains(subjects, id) {
			subjects = append(subjects, id)
		}
	}
	if len(errs) > 0 {
		return domain.Workspace{}, &domain.ValidationError{Errors: errs}
	}

	ws, err := s.store.UpdateWorkspace(ctx, input.TenantID, func(ws *domain.Workspace) error {
		ws.SchoolID = school.ID
		ws.EnabledSubjectIDs = subjects
		return nil
	})
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("assign school: %w", err)
	}

	s.log.InfoContext(ctx, "workspace assigned to school",
		slog.String("tenant_id", input.TenantID),
		slog.String("school_id", school.ID),
		slog.Int("subjects", len(subjects)),
	)
	return ws, nil
}
