package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
)

type workspaceServiceMock struct {
	GetWorkspaceContextFunc func(ctx context.Context) (domain.WorkspaceContext, error)
	ListCatalogFunc         func(ctx context.Context, ct domain.ContentType) ([]domain.CatalogEntry, error)
	GetDatasetFunc          func(ctx context.Context, fileName string) (storage.Dataset, error)
}

func (m *workspaceServiceMock) GetWorkspaceContext(ctx context.Context) (domain.WorkspaceContext, error) {
	return m.GetWorkspaceContextFunc(ctx)
}

func (m *workspaceServiceMock) ListCatalog(ctx context.Context, ct domain.ContentType) ([]domain.CatalogEntry, error) {
	return m.ListCatalogFunc(ctx, ct)
}

func (m *workspaceServiceMock) GetDataset(ctx context.Context, fileName string) (storage.Dataset, error) {
	return m.GetDatasetFunc(ctx, fileName)
}

type catalogServiceMock struct {
	GetMergedCatalogFunc func(ctx context.Context, ct domain.ContentType) ([]domain.CatalogEntry, error)
}

func (m *catalogServiceMock) GetMergedCatalog(ctx context.Context, ct domain.ContentType) ([]domain.CatalogEntry, error) {
	return m.GetMergedCatalogFunc(ctx, ct)
}

func TestGetDataset_SharedHeaders(t *testing.T) {
	t.Parallel()

	var gotName string
	svc := &workspaceServiceMock{
		GetDatasetFunc: func(_ context.Context, fileName string) (storage.Dataset, error) {
			gotName = fileName
			return storage.Dataset{
				FileName:  fileName,
				Scope:     domain.ScopeShared,
				SubjectID: "econ",
				Body:      []byte(`{"cards":[{"front":"a"}]}`),
			}, nil
		},
	}
	h := NewWorkspaceHandler(svc, &catalogServiceMock{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/datasets/flashcard_econ_deck.json", nil)
	req.SetPathValue("fileName", "flashcard_econ_deck.json")
	rec := httptest.NewRecorder()

	h.GetDataset(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotName != "flashcard_econ_deck.json" {
		t.Errorf("unexpected file name %q", gotName)
	}
	if got := rec.Header().Get("X-Dataset-Scope"); got != "shared" {
		t.Errorf("expected scope header shared, got %q", got)
	}
	if got := rec.Header().Get("X-Dataset-Subject"); got != "econ" {
		t.Errorf("expected subject header econ, got %q", got)
	}
	if rec.Body.String() != `{"cards":[{"front":"a"}]}` {
		t.Errorf("expected body returned verbatim, got %s", rec.Body.String())
	}
}

func TestGetDataset_PersonalHasNoSubjectHeader(t *testing.T) {
	t.Parallel()

	svc := &workspaceServiceMock{
		GetDatasetFunc: func(_ context.Context, fileName string) (storage.Dataset, error) {
			return storage.Dataset{FileName: fileName, Scope: domain.ScopeUser, Body: []byte(`[]`)}, nil
		},
	}
	h := NewWorkspaceHandler(svc, &catalogServiceMock{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/datasets/decoder_x.json", nil)
	req.SetPathValue("fileName", "decoder_x.json")
	rec := httptest.NewRecorder()

	h.GetDataset(rec, req)

	if rec.Header().Get("X-Dataset-Scope") != "user" {
		t.Errorf("expected scope header user, got %q", rec.Header().Get("X-Dataset-Scope"))
	}
	if _, ok := rec.Header()["X-Dataset-Subject"]; ok {
		t.Error("expected no subject header for personal datasets")
	}
}

func TestGetDataset_NotFound(t *testing.T) {
	t.Parallel()

	svc := &workspaceServiceMock{
		GetDatasetFunc: func(context.Context, string) (storage.Dataset, error) {
			return storage.Dataset{}, domain.ErrNotFound
		},
	}
	h := NewWorkspaceHandler(svc, &catalogServiceMock{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/datasets/missing.json", nil)
	req.SetPathValue("fileName", "missing.json")
	rec := httptest.NewRecorder()

	h.GetDataset(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	t.Parallel()

	entries := []domain.CatalogEntry{
		{ID: "a", Name: "A", File: "flashcard_econ_a.json", Subject: "econ", Scope: domain.ScopeShared},
		{ID: "b", Name: "B", File: "flashcard_econ_b.json", Subject: "econ", Scope: domain.ScopeUser},
	}
	var personalCT, mergedCT domain.ContentType
	h := NewWorkspaceHandler(
		&workspaceServiceMock{ListCatalogFunc: func(_ context.Context, ct domain.ContentType) ([]domain.CatalogEntry, error) {
			personalCT = ct
			return entries[1:], nil
		}},
		&catalogServiceMock{GetMergedCatalogFunc: func(_ context.Context, ct domain.ContentType) ([]domain.CatalogEntry, error) {
			mergedCT = ct
			return entries, nil
		}},
		discardLogger(),
	)

	tests := []struct {
		name    string
		handle  http.HandlerFunc
		wantLen int
	}{
		{name: "personal", handle: h.ListCatalog, wantLen: 1},
		{name: "merged", handle: h.MergedCatalog, wantLen: 2},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/flashcard", nil)
		req.SetPathValue("contentType", "flashcard")
		rec := httptest.NewRecorder()

		tt.handle(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", tt.name, rec.Code)
		}
		var got []domain.CatalogEntry
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("%s: failed to decode response: %v", tt.name, err)
		}
		if len(got) != tt.wantLen {
			t.Errorf("%s: expected %d entries, got %d", tt.name, tt.wantLen, len(got))
		}
	}

	if personalCT != domain.ContentTypeFlashcard || mergedCT != domain.ContentTypeFlashcard {
		t.Errorf("content type not forwarded: %q %q", personalCT, mergedCT)
	}
}

func TestWorkspaceContext_Unauthorized(t *testing.T) {
	t.Parallel()

	svc := &workspaceServiceMock{
		GetWorkspaceContextFunc: func(context.Context) (domain.WorkspaceContext, error) {
			return domain.WorkspaceContext{}, domain.ErrUnauthorized
		},
	}
	h := NewWorkspaceHandler(svc, &catalogServiceMock{}, discardLogger())

	rec := httptest.NewRecorder()
	h.Context(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workspace/context", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}
