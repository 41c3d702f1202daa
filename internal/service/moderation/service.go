package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/heartmarshall/studyvault-backend/internal/audit"
	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/pkg/ctxutil"
	"github.com/heartmarshall/studyvault-backend/pkg/keymutex"
)

type moderationStore interface {
	GetWorkspaceContext(ctx context.Context, tenantID string) (domain.WorkspaceContext, error)
	UpsertDataset(ctx context.Context, tenantID string, ct domain.ContentType, fileName string, body []byte, displayName, subject string) (domain.CatalogEntry, error)
	GetPersonalDataset(ctx context.Context, tenantID, fileName string) ([]byte, error)
	ListCatalog(ctx context.Context, tenantID string, ct domain.ContentType) ([]domain.CatalogEntry, error)
	SubmitDataset(ctx context.Context, ct domain.ContentType, body []byte, rec domain.InboxRecord) (domain.CatalogEntry, error)
	ListInboxRecords(ctx context.Context) ([]domain.InboxRecord, error)
	GetInboxRecord(ctx context.Context, id string) (domain.InboxRecord, error)
	TransitionInboxRecord(ctx context.Context, id string, fn func(rec *domain.InboxRecord) error) (domain.InboxRecord, error)
	GetSchool(ctx context.Context, id string) (domain.School, error)
	EnsureSchoolSubject(ctx context.Context, schoolID string, sub domain.Subject) (domain.Subject, bool, error)
	EnsureWorkspaceSubject(ctx context.Context, tenantID, subjectID string) error
	PublishShared(ctx context.Context, schoolID, subjectID string, ct domain.ContentType, fileName string, body []byte, displayName string) (domain.CatalogEntry, error)
}

type contentAuditor interface {
	AuditPayload(ct domain.ContentType, p audit.Payload) domain.AuditReport
}

// Observer receives moderation instrumentation.
type Observer interface {
	ObserveAudit(ct domain.ContentType, report domain.AuditReport)
	ObserveSubmission(ct domain.ContentType, result string)
	ObserveTransition(to domain.InboxStatus, result string)
}

type nopObserver struct{}

func (nopObserver) ObserveAudit(domain.ContentType, domain.AuditReport) {}
func (nopObserver) ObserveSubmission(domain.ContentType, string)        {}
func (nopObserver) ObserveTransition(domain.InboxStatus, string)        {}

// Service implements dataset submission and the inbox state machine.
type Service struct {
	store   moderationStore
	auditor contentAuditor
	obs     Observer
	log     *slog.Logger
	records *keymutex.KeyMutex
	now     func() time.Time
}

// NewService creates a new Moderation service. obs may be nil.
func NewService(logger *slog.Logger, store moderationStore, auditor contentAuditor, obs Observer) *Service {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Service{
		store:   store,
		auditor: auditor,
		obs:     obs,
		log:     logger.With("service", "moderation"),
		records: keymutex.New(),
		now:     time.Now,
	}
}

// caller is the identity acting on a request.
type caller struct {
	tenantID string
	role     domain.Role
}

func (c caller) canModerate() bool { return c.role.CanModerate() }

func callerFromCtx(ctx context.Context) (caller, error) {
	id, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return caller{}, domain.ErrUnauthorized
	}
	return caller{tenantID: id, role: domain.Role(ctxutil.RoleFromCtx(ctx))}, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// resultLabel turns an operation outcome into a metric label.
func resultLabel(err error) string {
	var rejected *domain.AuditRejectedError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rejected):
		return "rejected"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthorized):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUnprocessable):
		return "unprocessable"
	}
	return "error"
}

// InboxDetail is an inbox record with the dataset body it refers to.
type InboxDetail struct {
	Record domain.InboxRecord `json:"record"`
	Body   json.RawMessage    `json:"body"`
}

// SubmitResult is the outcome of an accepted submission.
type SubmitResult struct {
	FileName string             `json:"fileName"`
	Entry    domain.CatalogEntry `json:"entry"`
	Record   domain.InboxRecord  `json:"record"`
	Report   domain.AuditReport  `json:"report"`
}
