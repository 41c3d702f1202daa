package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
)

type workspaceService interface {
	GetWorkspaceContext(ctx context.Context) (domain.WorkspaceContext, error)
	ListCatalog(ctx context.Context, ct domain.ContentType) ([]domain.CatalogEntry, error)
	GetDataset(ctx context.Context, fileName string) (storage.Dataset, error)
}

type catalogService interface {
	GetMergedCatalog(ctx context.Context, ct domain.ContentType) ([]domain.CatalogEntry, error)
}

// WorkspaceHandler serves the tenant's read endpoints.
type WorkspaceHandler struct {
	workspaces workspaceService
	catalog    catalogService
	log        *slog.Logger
}

// NewWorkspaceHandler creates a WorkspaceHandler.
func NewWorkspaceHandler(workspaces workspaceService, catalog catalogService, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaces: workspaces,
		catalog:    catalog,
		log:        logger.With("handler", "workspace"),
	}
}

// Context handles GET /api/v1/workspace/context.
func (h *WorkspaceHandler) Context(w http.ResponseWriter, r *http.Request) {
	wc, err := h.workspaces.GetWorkspaceContext(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, wc)
}

// ListCatalog handles GET /api/v1/catalog/{contentType}.
func (h *WorkspaceHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.workspaces.ListCatalog(r.Context(), domain.ContentType(r.PathValue("contentType")))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// MergedCatalog handles GET /api/v1/catalog/{contentType}/merged.
func (h *WorkspaceHandler) MergedCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.GetMergedCatalog(r.Context(), domain.ContentType(r.PathValue("contentType")))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetDataset handles GET /api/v1/datasets/{fileName}. The body is returned
// as is; the scope it was found in is reported in X-Dataset-Scope.
func (h *WorkspaceHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.workspaces.GetDataset(r.Context(), r.PathValue("fileName"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.Header().Set("X-Dataset-Scope", ds.Scope.String())
	if ds.SubjectID != "" {
		w.Header().Set("X-Dataset-Subject", ds.SubjectID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(ds.Body) //nolint:errcheck
}
