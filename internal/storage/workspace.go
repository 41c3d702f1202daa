package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// CreateWorkspace claims id, initializes empty catalog indexes for every
// content type and appends the workspace to the global list.
func (s *Store) CreateWorkspace(ctx context.Context, id, displayName string) (_ domain.Workspace, err error) {
	ctx, done := s.begin(ctx, "create_workspace")
	defer done(&err)

	id = domain.NormalizeID(id)
	if !domain.IsSlug(id) {
		return domain.Workspace{}, fmt.Errorf("%w: workspace id %q must match [a-z0-9_-]+", domain.ErrInvalidInput, id)
	}
	if domain.IsReservedID(id) {
		return domain.Workspace{}, fmt.Errorf("workspace id %q is reserved: %w", id, domain.ErrConflict)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = id
	}

	now := s.timestamp()
	ws := domain.Workspace{
		ID:                id,
		DisplayName:       displayName,
		Status:            domain.WorkspaceStatusActive,
		EnabledSubjectIDs: []string{},
		DataVersion:       dataVersionTag,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	data, err := marshalDoc(ws)
	if err != nil {
		return domain.Workspace{}, err
	}
	if err := s.create(ctx, metaKey(id), data); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Workspace{}, fmt.Errorf("workspace %q already exists: %w", id, domain.ErrConflict)
		}
		return domain.Workspace{}, err
	}

	for _, ct := range domain.ContentTypes {
		err := s.create(ctx, tenantIndexKey(id, ct), []byte("[]"))
		if err != nil && !errors.Is(err, domain.ErrConflict) {
			return domain.Workspace{}, err
		}
	}

	if err := s.putWorkspaceListEntry(ctx, ws); err != nil {
		return domain.Workspace{}, err
	}

	s.log.InfoContext(ctx, "workspace created", slog.String("tenant_id", id))
	return ws, nil
}

// GetWorkspace returns the workspace metadata.
func (s *Store) GetWorkspace(ctx context.Context, id string) (_ domain.Workspace, err error) {
	ctx, done := s.begin(ctx, "get_workspace")
	defer done(&err)
	return s.getWorkspace(ctx, id)
}

func (s *Store) getWorkspace(ctx context.Context, id string) (domain.Workspace, error) {
	if !domain.IsSlug(id) {
		return domain.Workspace{}, fmt.Errorf("%w: workspace id %q", domain.ErrInvalidInput, id)
	}
	ws, err := readJSON[domain.Workspace](ctx, s, metaKey(id))
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("workspace %s: %w", id, err)
	}
	return ws, nil
}

// ListWorkspaces returns the global workspace list.
func (s *Store) ListWorkspaces(ctx context.Context) (_ []domain.Workspace, err error) {
	ctx, done := s.begin(ctx, "list_workspaces")
	defer done(&err)
	return readJSONOr(ctx, s, workspacesKey, []domain.Workspace{})
}

// UpdateWorkspace applies fn to the workspace metadata and mirrors the
// result into the workspace list.
func (s *Store) UpdateWorkspace(ctx context.Context, id string, fn func(ws *domain.Workspace) error) (_ domain.Workspace, err error) {
	ctx, done := s.begin(ctx, "update_workspace")
	defer done(&err)
	return s.updateWorkspace(ctx, id, fn)
}

func (s *Store) updateWorkspace(ctx context.Context, id string, fn func(ws *domain.Workspace) error) (domain.Workspace, error) {
	if !domain.IsSlug(id) {
		return domain.Workspace{}, fmt.Errorf("%w: workspace id %q", domain.ErrInvalidInput, id)
	}

	var updated domain.Workspace
	err := mutateJSON(ctx, s, metaKey(id), func(ws *domain.Workspace, exists bool) (bool, error) {
		if !exists {
			return false, fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
		}
		if err := fn(ws); err != nil {
			return false, err
		}
		ws.ID = id
		ws.UpdatedAt = s.timestamp()
		updated = *ws
		return true, nil
	})
	if err != nil {
		return domain.Workspace{}, err
	}

	if err := s.putWorkspaceListEntry(ctx, updated); err != nil {
		return domain.Workspace{}, err
	}
	return updated, nil
}

func (s *Store) putWorkspaceListEntry(ctx context.Context, ws domain.Workspace) error {
	return mutateJSON(ctx, s, workspacesKey, func(list *[]domain.Workspace, _ bool) (bool, error) {
		i := slices.IndexFunc(*list, func(w domain.Workspace) bool { return w.ID == ws.ID })
		if i >= 0 {
			(*list)[i] = ws
		} else {
			*list = append(*list, ws)
		}
		return true, nil
	})
}

// EnsureWorkspaceSubject enables subjectID for the workspace.
func (s *Store) EnsureWorkspaceSubject(ctx context.Context, tenantID, subjectID string) (err error) {
	ctx, done := s.begin(ctx, "ensure_workspace_subject")
	defer done(&err)

	_, err = s.updateWorkspace(ctx, tenantID, func(ws *domain.Workspace) error {
		if !ws.HasSubject(subjectID) {
			ws.EnabledSubjectIDs = append(ws.EnabledSubjectIDs, subjectID)
		}
		return nil
	})
	return err
}

// GetWorkspaceContext resolves the workspace, its school and the subjects
// it may read shared content from.
func (s *Store) GetWorkspaceContext(ctx context.Context, tenantID string) (_ domain.WorkspaceContext, err error) {
	ctx, done := s.begin(ctx, "get_workspace_context")
	defer done(&err)
	return s.workspaceContext(ctx, tenantID)
}

func (s *Store) workspaceContext(ctx context.Context, tenantID string) (domain.WorkspaceContext, error) {
	ws, err := s.getWorkspace(ctx, tenantID)
	if err != nil {
		return domain.WorkspaceContext{}, err
	}
	if !ws.IsActive() {
		return domain.WorkspaceContext{}, fmt.Errorf("workspace %s is inactive: %w", tenantID, domain.ErrForbidden)
	}
	if ws.SchoolID == "" {
		return domain.NewWorkspaceContext(ws, nil), nil
	}

	school, err := s.getSchool(ctx, ws.SchoolID)
	if err != nil {
		return domain.WorkspaceContext{}, err
	}
	return domain.NewWorkspaceContext(ws, &school), nil
}

// CreateSchool registers a school and its subjects.
func (s *Store) CreateSchool(ctx context.Context, school domain.School) (_ domain.School, err error) {
	ctx, done := s.begin(ctx, "create_school")
	defer done(&err)

	school.ID = domain.NormalizeID(school.ID)
	if !domain.IsSlug(school.ID) {
		return domain.School{}, fmt.Errorf("%w: school id %q must match [a-z0-9_-]+", domain.ErrInvalidInput, school.ID)
	}
	school.Subjects = slices.Clone(school.Subjects)
	seen := make(map[string]bool, len(school.Subjects))
	for i, sub := range school.Subjects {
		sub.ID = domain.NormalizeID(sub.ID)
		if !domain.IsSubjectID(sub.ID) {
			return domain.School{}, fmt.Errorf("%w: invalid subject id %q", domain.ErrInvalidInput, sub.ID)
		}
		if seen[sub.ID] {
			return domain.School{}, fmt.Errorf("%w: duplicate subject id %q", domain.ErrInvalidInput, sub.ID)
		}
		seen[sub.ID] = true
		if strings.TrimSpace(sub.Label) == "" {
			sub.Label = sub.ID
		}
		school.Subjects[i] = sub
	}
	if school.Subjects == nil {
		school.Subjects = []domain.Subject{}
	}

	data, err := marshalDoc(school)
	if err != nil {
		return domain.School{}, err
	}
	if err := s.create(ctx, schoolKey(school.ID), data); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.School{}, fmt.Errorf("school %q already exists: %w", school.ID, domain.ErrConflict)
		}
		return domain.School{}, err
	}

	s.log.InfoContext(ctx, "school created", slog.String("school_id", school.ID), slog.Int("subjects", len(school.Subjects)))
	return school, nil
}

// GetSchool returns the school registry.
func (s *Store) GetSchool(ctx context.Context, id string) (_ domain.School, err error) {
	ctx, done := s.begin(ctx, "get_school")
	defer done(&err)
	return s.getSchool(ctx, id)
}

func (s *Store) getSchool(ctx context.Context, id string) (domain.School, error) {
	if !domain.IsSlug(id) {
		return domain.School{}, fmt.Errorf("%w: school id %q", domain.ErrInvalidInput, id)
	}
	school, err := readJSON[domain.School](ctx, s, schoolKey(id))
	if err != nil {
		return domain.School{}, fmt.Errorf("school %s: %w", id, err)
	}
	return school, nil
}

// EnsureSchoolSubject registers sub in the school unless a subject with the
// same ID exists. It returns the registered subject and whether it was added.
func (s *Store) EnsureSchoolSubject(ctx context.Context, schoolID string, sub domain.Subject) (_ domain.Subject, created bool, err error) {
	ctx, done := s.begin(ctx, "ensure_school_subject")
	defer done(&err)

	if !domain.IsSubjectID(sub.ID) {
		return domain.Subject{}, false, fmt.Errorf("%w: invalid subject id %q", domain.ErrInvalidInput, sub.ID)
	}
	if strings.TrimSpace(sub.Label) == "" {
		sub.Label = sub.ID
	}

	result := sub
	err = mutateJSON(ctx, s, schoolKey(schoolID), func(school *domain.School, exists bool) (bool, error) {
		if !exists {
			return false, fmt.Errorf("school %s: %w", schoolID, domain.ErrNotFound)
		}
		if existing, ok := school.Subject(sub.ID); ok {
			result = existing
			created = false
			return false, nil
		}
		school.Subjects = append(school.Subjects, sub)
		result, created = sub, true
		return true, nil
	})
	if err != nil {
		return domain.Subject{}, false, err
	}
	if created {
		s.log.InfoContext(ctx, "school subject added", slog.String("school_id", schoolID), slog.String("subject_id", sub.ID))
	}
	return result, created, nil
}
