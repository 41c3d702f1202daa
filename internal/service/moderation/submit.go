package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/studyvault-backend/internal/audit"
	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// Audit runs the content auditor without storing anything.
func (s *Service) Audit(ctx context.Context, ct domain.ContentType, body []byte) (domain.AuditReport, error) {
	if !ct.IsValid() {
		return domain.AuditReport{}, domain.NewValidationError("content_type", "must be one of flashcard, decoder, practice")
	}
	p, err := audit.Normalize(body)
	if err != nil {
		return domain.AuditReport{}, fmt.Errorf("normalize payload: %w", err)
	}
	report := s.auditor.AuditPayload(ct, p)
	s.obs.ObserveAudit(ct, report)
	return report, nil
}

// Submit audits a payload and, when no Blocker is found, stores it in the
// caller's personal scope and opens a pending inbox record. A failed audit
// returns *domain.AuditRejectedError and stores nothing.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (_ SubmitResult, err error) {
	defer func() { s.obs.ObserveSubmission(input.ContentType, resultLabel(err)) }()

	tenantID, err := s.requireTenant(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := input.Validate(); err != nil {
		return SubmitResult{}, err
	}

	wc, err := s.store.GetWorkspaceContext(ctx, tenantID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("get workspace context: %w", err)
	}

	p, err := audit.Normalize(input.Body)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("normalize payload: %w", err)
	}
	report := s.auditor.AuditPayload(input.ContentType, p)
	s.obs.ObserveAudit(input.ContentType, report)
	if !report.OverallPass {
		s.log.InfoContext(ctx, "submission rejected by audit",
			slog.String("tenant_id", tenantID),
			slog.String("content_type", input.ContentType.String()),
			slog.Int("blockers", report.CountBySeverity(domain.SeverityBlocker)),
		)
		return SubmitResult{Report: report}, &domain.AuditRejectedError{Report: report}
	}

	subject := domain.NormalizeSubjectLabel(input.SubjectLabel)
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = "untitled"
	}
	fileName := domain.DatasetFileName(input.ContentType, subject, displayName)

	rec := domain.InboxRecord{
		ID:          uuid.NewString(),
		FileName:    fileName,
		DisplayName: displayName,
		ContentType: input.ContentType,
		SubjectID:   subject,
		TenantID:    tenantID,
		SchoolID:    wc.SchoolID(),
		CreatedAt:   s.timestamp(),
		Status:      domain.InboxStatusPending,
	}
	entry, err := s.store.SubmitDataset(ctx, input.ContentType, p.Canonical(), rec)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("store submission: %w", err)
	}

	s.log.InfoContext(ctx, "submission accepted",
		slog.String("tenant_id", tenantID),
		slog.String("record_id", rec.ID),
		slog.String("file_name", fileName),
		slog.String("content_type", input.ContentType.String()),
		slog.Int("issues", len(report.Issues)),
	)

	return SubmitResult{FileName: fileName, Entry: entry, Record: rec, Report: report}, nil
}

func (s *Service) requireTenant(ctx context.Context) (string, error) {
	c, err := callerFromCtx(ctx)
	if err != nil {
		return "", err
	}
	return c.tenantID, nil
}
