package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/service/workspace"
)

type adminService interface {
	CreateWorkspace(ctx context.Context, input workspace.CreateWorkspaceInput) (domain.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)
	DeactivateWorkspace(ctx context.Context, tenantID string) (domain.Workspace, error)
	CreateSchool(ctx context.Context, input workspace.CreateSchoolInput) (domain.School, error)
	AssignWorkspaceSchool(ctx context.Context, input workspace.AssignSchoolInput) (domain.Workspace, error)
}

// AdminHandler serves workspace and school administration endpoints.
type AdminHandler struct {
	svc adminService
	log *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc adminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		svc: svc,
		log: logger.With("handler", "admin"),
	}
}

type createWorkspaceRequest struct {
	ID          string `json:"id" validate:"required,max=64"`
	DisplayName string `json:"displayName" validate:"max=200"`
}

type subjectRequest struct {
	ID    string `json:"id" validate:"required,max=64"`
	Label string `json:"label" validate:"max=100"`
}

type createSchoolRequest struct {
	ID       string           `json:"id" validate:"required,max=64"`
	Name     string           `json:"name" validate:"max=200"`
	Subjects []subjectRequest `json:"subjects" validate:"dive"`
}

type assignSchoolRequest struct {
	SchoolID   string   `json:"schoolId" validate:"required,max=64"`
	SubjectIDs []string `json:"subjectIds" validate:"dive,required"`
}

// CreateWorkspace handles POST /api/v1/admin/workspaces.
func (h *AdminHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if !decodeJSON(w, r, defaultMaxBodyBytes, &req) {
		return
	}

	ws, err := h.svc.CreateWorkspace(r.Context(), workspace.CreateWorkspaceInput{
		ID:          req.ID,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

// ListWorkspaces handles GET /api/v1/admin/workspaces.
func (h *AdminHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListWorkspaces(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeactivateWorkspace handles POST /api/v1/admin/workspaces/{id}/deactivate.
func (h *AdminHandler) DeactivateWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.svc.DeactivateWorkspace(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// CreateSchool handles POST /api/v1/admin/schools.
func (h *AdminHandler) CreateSchool(w http.ResponseWriter, r *http.Request) {
	var req createSchoolRequest
	if !decodeJSON(w, r, defaultMaxBodyBytes, &req) {
		return
	}

	input := workspace.CreateSchoolInput{ID: req.ID, Name: req.Name}
	for _, s := range req.Subjects {
		input.Subjects = append(input.Subjects, workspace.SubjectInput{ID: s.ID, Label: s.Label})
	}

	school, err := h.svc.CreateSchool(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, school)
}

// AssignSchool handles PUT /api/v1/admin/workspaces/{id}/school.
func (h *AdminHandler) AssignSchool(w http.ResponseWriter, r *http.Request) {
	var req assignSchoolRequest
	if !decodeJSON(w, r, defaultMaxBodyBytes, &req) {
		return
	}

	ws, err := h.svc.AssignWorkspaceSchool(r.Context(), workspace.AssignSchoolInput{
		TenantID:   r.PathValue("id"),
		SchoolID:   req.SchoolID,
		SubjectIDs: req.SubjectIDs,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}
