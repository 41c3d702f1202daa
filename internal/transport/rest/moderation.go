package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/service/moderation"
)

type moderationService interface {
	Audit(ctx context.Context, ct domain.ContentType, body []byte) (domain.AuditReport, error)
	Submit(ctx context.Context, input moderation.SubmitInput) (moderation.SubmitResult, error)
	ListInbox(ctx context.Context, input moderation.ListInboxInput) ([]domain.InboxRecord, error)
	GetInboxDetail(ctx context.Context, id string) (moderation.InboxDetail, error)
	MoveToUser(ctx context.Context, id string) (domain.InboxRecord, error)
	MoveToShared(ctx context.Context, id string, input moderation.MoveToSharedInput) (domain.InboxRecord, error)
	Reject(ctx context.Context, id string) (domain.InboxRecord, error)
	Assign(ctx context.Context, id string, input moderation.AssignInput) (domain.InboxRecord, error)
}

// ModerationHandler serves submission, audit and inbox endpoints.
type ModerationHandler struct {
	svc          moderationService
	maxBodyBytes int64
	log          *slog.Logger
}

// NewModerationHandler creates a ModerationHandler. maxBodyBytes bounds
// submitted payloads; zero selects 10 MiB.
func NewModerationHandler(svc moderationService, maxBodyBytes int64, logger *slog.Logger) *ModerationHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &ModerationHandler{
		svc:          svc,
		maxBodyBytes: maxBodyBytes,
		log:          logger.With("handler", "moderation"),
	}
}

type submitRequest struct {
	ContentType string          `json:"contentType" validate:"required,oneof=flashcard decoder practice"`
	Subject     string          `json:"subject" validate:"max=100"`
	DisplayName string          `json:"displayName" validate:"max=200"`
	Body        json.RawMessage `json:"body" validate:"required"`
}

type moveToSharedRequest struct {
	CreateSubjectIfMissing bool `json:"createSubjectIfMissing"`
}

type assignRequest struct {
	TargetScope            string `json:"targetScope" validate:"required,oneof=user shared"`
	TargetSubjectID        string `json:"targetSubjectId" validate:"required_if=TargetScope shared,max=100"`
	TargetTenantID         string `json:"targetTenantId" validate:"max=64"`
	CreateSubjectIfMissing bool   `json:"createSubjectIfMissing"`
}

// Submit handles POST /api/v1/datasets.
func (h *ModerationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	result, err := h.svc.Submit(r.Context(), moderation.SubmitInput{
		ContentType:  domain.ContentType(req.ContentType),
		SubjectLabel: req.Subject,
		DisplayName:  req.DisplayName,
		Body:         req.Body,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Audit handles POST /api/v1/audit/{contentType}. The request body is the
// raw payload; nothing is stored.
func (h *ModerationHandler) Audit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.svc.Audit(r.Context(), domain.ContentType(r.PathValue("contentType")), body)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListInbox handles GET /api/v1/inbox?status=pending.
func (h *ModerationHandler) ListInbox(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListInbox(r.Context(), moderation.ListInboxInput{
		Status: domain.InboxStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// InboxDetail handles GET /api/v1/inbox/{id}.
func (h *ModerationHandler) InboxDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetInboxDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// MoveToUser handles POST /api/v1/inbox/{id}/move-to-user.
func (h *ModerationHandler) MoveToUser(w http.ResponseWriter, r *http.Request) {
	h.writeRecord(w, r)(h.svc.MoveToUser(r.Context(), r.PathValue("id")))
}

// MoveToShared handles POST /api/v1/inbox/{id}/move-to-shared.
func (h *ModerationHandler) MoveToShared(w http.ResponseWriter, r *http.Request) {
	var req moveToSharedRequest
	if !decodeOptionalJSON(w, r, defaultMaxBodyBytes, &req) {
		return
	}
	h.writeRecord(w, r)(h.svc.MoveToShared(r.Context(), r.PathValue("id"), moderation.MoveToSharedInput{
		CreateSubjectIfMissing: req.CreateSubjectIfMissing,
	}))
}

// Reject handles POST /api/v1/inbox/{id}/reject.
func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.writeRecord(w, r)(h.svc.Reject(r.Context(), r.PathValue("id")))
}

// Assign handles POST /api/v1/inbox/{id}/assign.
func (h *ModerationHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeJSON(w, r, defaultMaxBodyBytes, &req) {
		return
	}
	h.writeRecord(w, r)(h.svc.Assign(r.Context(), r.PathValue("id"), moderation.AssignInput{
		TargetScope:            domain.Scope(req.TargetScope),
		TargetSubjectID:        req.TargetSubjectID,
		TargetTenantID:         req.TargetTenantID,
		CreateSubjectIfMissing: req.CreateSubjectIfMissing,
	}))
}

func (h *ModerationHandler) writeRecord(w http.ResponseWriter, r *http.Request) func(domain.InboxRecord, error) {
	return func(rec domain.InboxRecord, err error) {
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}
