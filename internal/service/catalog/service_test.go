package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Manual mock (func fields)
// ---------------------------------------------------------------------------

type mockCatalogStore struct {
	GetWorkspaceContextFunc func(ctx context.Context, tenantID string) (domain.WorkspaceContext, error)
	ListCatalogFunc         func(ctx context.Context, tenantID string, ct domain.ContentType) ([]domain.CatalogEntry, error)
	ListSharedCatalogFunc   func(ctx context.Context, schoolID, subjectID string, ct domain.ContentType) ([]domain.CatalogEntry, error)

	mu           sync.Mutex
	sharedCalled []string
}

func (m *mockCatalogStore) GetWorkspaceContext(ctx context.Context, tenantID string) (domain.WorkspaceContext, error) {
	return m.GetWorkspaceContextFunc(ctx, tenantID)
}

func (m *mockCatalogStore) ListCatalog(ctx context.Context, tenantID string, ct domain.ContentType) ([]domain.CatalogEntry, error) {
	return m.ListCatalogFunc(ctx, tenantID, ct)
}

func (m *mockCatalogStore) ListSharedCatalog(ctx context.Context, schoolID, subjectID string, ct domain.ContentType) ([]domain.CatalogEntry, error) {
	m.mu.Lock()
	m.sharedCalled = append(m.sharedCalled, schoolID+"/"+subjectID)
	m.mu.Unlock()
	return m.ListSharedCatalogFunc(ctx, schoolID, subjectID, ct)
}

func tenantCtx(id string) context.Context {
	return ctxutil.WithTenantID(context.Background(), id)
}

func schoolContext(subjects ...string) domain.WorkspaceContext {
	school := &domain.School{ID: "s1"}
	var accessible []domain.Subject
	for _, id := range subjects {
		sub := domain.Subject{ID: id, Label: id, Enabled: true}
		school.Subjects = append(school.Subjects, sub)
		accessible = append(accessible, sub)
	}
	return domain.WorkspaceContext{
		Workspace:          domain.Workspace{ID: "alice", Status: domain.WorkspaceStatusActive, SchoolID: "s1"},
		School:             school,
		AccessibleSubjects: accessible,
	}
}

func entry(file, name string) domain.CatalogEntry {
	return domain.CatalogEntry{ID: "ds_" + name, Name: name, File: file}
}

// ---------------------------------------------------------------------------
// GetMergedCatalog
// ---------------------------------------------------------------------------

func TestGetMergedCatalog_PersonalWins(t *testing.T) {
	t.Parallel()

	store := &mockCatalogStore{
		GetWorkspaceContextFunc: func(ctx context.Context, tenantID string) (domain.WorkspaceContext, error) {
			return schoolContext("econ", "stats"), nil
		},
		ListSharedCatalogFunc: func(ctx context.Context, schoolID, subjectID string, ct domain.ContentType) ([]domain.CatalogEntry, error) {
			switch subjectID {
			case "econ":
				return []domain.CatalogEntry{entry("flashcard_e_a.json", "shared-a"), entry("flashcard_e_b.json", "shared-b")}, nil
			case "stats":
				return []domain.CatalogEntry{entry("flashcard_s_c.json", "shared-c")}, nil
			}
			return nil, nil
		},
		ListCatalogFunc: func(ctx context.Context, tenantID string, ct domain.ContentType) ([]domain.CatalogEntry, error) {
			return []domain.CatalogEntry{entry("flashcard_e_b.json", "mine-b"), entry("flashcard_x.json", "mine-x")}, nil
		},
	}
	svc := NewService(slog.Default(), store)

	got, err := svc.GetMergedCatalog(tenantCtx("alice"), domain.ContentTypeFlashcard)
	require.NoError(t, err)
	require.Len(t, got, 4)

	byFile := make(map[string]domain.CatalogEntry)
	for _, e := range got {
		byFile[e.File] = e
	}
	assert.Equal(t, domain.ScopeUser, byFile["flashcard_e_b.json"].Scope)
	assert.Equal(t, "mine-b", byFile["flashcard_e_b.json"].Name)
	assert.Equal(t, domain.ScopeShared, byFile["flashcard_e_a.json"].Scope)
	assert.Equal(t, domain.ScopeShared, byFile["flashcard_s_c.json"].Scope)
	assert.Equal(t, domain.ScopeUser, byFile["flashcard_x.json"].Scope)

	assert.Equal(t, []string{"flashcard_e_a.json", "flashcard_e_b.json", "flashcard_s_c.json", "flashcard_x.json"},
		[]string{got[0].File, got[1].File, got[2].File, got[3].File})
	assert.ElementsMatch(t, []string{"s1/econ", "s1/stats"}, store.sharedCalled)
}

func TestGetMergedCatalog_NoSchool(t *testing.T) {
	t.Parallel()

	store := &mockCatalogStore{
		GetWorkspaceContextFunc: func(ctx context.Context, tenantID string) (domain.WorkspaceContext, error) {
			return domain.NewWorkspaceContext(domain.Workspace{ID: tenantID, Status: domain.WorkspaceStatusActive}, nil), nil
		},
		ListCatalogFunc: func(ctx context.Context, tenantID string, ct domain.ContentType) ([]domain.CatalogEntry, error) {
			return nil, nil
		},
	}
	svc := NewService(slog.Default(), store)

	got, err := svc.GetMergedCatalog(tenantCtx("bob"), domain.ContentTypeDecoder)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, store.sharedCalled)
}

func TestGetMergedCatalog_Errors(t *testing.T) {
	t.Parallel()

	okContext := func(ctx context.Context, tenantID string) (domain.WorkspaceContext, error) {
		return schoolContext("econ"), nil
	}

	tests := []struct {
		name    string
		ctx     context.Context
		ct      domain.ContentType
		store   *mockCatalogStore
		wantErr error
	}{
		{
			name:    "no tenant",
			ctx:     context.Background(),
			ct:      domain.ContentTypeFlashcard,
			store:   &mockCatalogStore{},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "bad content type",
			ctx:     tenantCtx("alice"),
			ct:      "video",
			store:   &mockCatalogStore{},
			wantErr: domain.ErrValidation,
		},
		{
			name: "inactive workspace",
			ctx:  tenantCtx("alice"),
			ct:   domain.ContentTypeFlashcard,
			store: &mockCatalogStore{
				GetWorkspaceContextFunc: func(ctx context.Context, tenantID string) (domain.WorkspaceContext, error) {
					return domain.WorkspaceContext{}, domain.ErrForbidden
				},
			},
			wantErr: domain.ErrForbidden,
		},
		{
			name: "shared read fails",
			ctx:  tenantCtx("alice"),
			ct:   domain.ContentTypeFlashcard,
			store: &mockCatalogStore{
				GetWorkspaceContextFunc: okContext,
				ListSharedCatalogFunc: func(ctx context.Context, schoolID, subjectID string, ct domain.ContentType) ([]domain.CatalogEntry, error) {
					return nil, domain.ErrUnavailable
				},
			},
			wantErr: domain.ErrUnavailable,
		},
		{
			name: "personal read fails",
			ctx:  tenantCtx("alice"),
			ct:   domain.ContentTypeFlashcard,
			store: &mockCatalogStore{
				GetWorkspaceContextFunc: okContext,
				ListSharedCatalogFunc: func(ctx context.Context, schoolID, subjectID string, ct domain.ContentType) ([]domain.CatalogEntry, error) {
					return nil, nil
				},
				ListCatalogFunc: func(ctx context.Context, tenantID string, ct domain.ContentType) ([]domain.CatalogEntry, error) {
					return nil, errors.New("boom")
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewService(slog.Default(), tt.store)
			_, err := svc.GetMergedCatalog(tt.ctx, tt.ct)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
