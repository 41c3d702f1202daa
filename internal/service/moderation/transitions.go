package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// MoveToUser acknowledges a pending record in its owner's personal scope.
// The dataset must still be readable.
func (s *Service) MoveToUser(ctx context.Context, id string) (_ domain.InboxRecord, err error) {
	defer func() { s.obs.ObserveTransition(domain.InboxStatusMovedToUser, resultLabel(err)) }()

	c, rec, unlock, err := s.begin(ctx, id, authorize)
	if err != nil {
		return domain.InboxRecord{}, err
	}
	defer unlock()

	if _, err := s.store.GetPersonalDataset(ctx, rec.TenantID, rec.FileName); err != nil {
		return domain.InboxRecord{}, fmt.Errorf("get dataset %s: %w", rec.FileName, err)
	}

	target := userTarget(rec.TenantID, rec.FileName)
	return s.finish(ctx, c, id, func(r *domain.InboxRecord, now time.Time) {
		r.Status = domain.InboxStatusMovedToUser
		r.MovedAt = &now
		r.MovedTarget = target
	})
}

// MoveToShared publishes the record's dataset to the shared scope of its
// school. The record's subject must resolve to a registered subject unless
// input.CreateSubjectIfMissing is set, in which case the subject is added
// to the school and enabled for the owner.
func (s *Service) MoveToShared(ctx context.Context, id string, input MoveToSharedInput) (_ domain.InboxRecord, err error) {
	defer func() { s.obs.ObserveTransition(domain.InboxStatusMovedToShared, resultLabel(err)) }()

	c, rec, unlock, err := s.begin(ctx, id, authorize)
	if err != nil {
		return domain.InboxRecord{}, err
	}
	defer unlock()

	target, err := s.publish(ctx, rec, rec.SubjectID, input.CreateSubjectIfMissing)
	if err != nil {
		return domain.InboxRecord{}, err
	}

	return s.finish(ctx, c, id, func(r *domain.InboxRecord, now time.Time) {
		r.Status = domain.InboxStatusMovedToShared
		r.MovedAt = &now
		r.MovedTarget = target
	})
}

// Reject closes a pending record without touching storage. The dataset
// stays in the owner's personal scope.
func (s *Service) Reject(ctx context.Context, id string) (_ domain.InboxRecord, err error) {
	defer func() { s.obs.ObserveTransition(domain.InboxStatusRejected, resultLabel(err)) }()

	c, _, unlock, err := s.begin(ctx, id, authorize)
	if err != nil {
		return domain.InboxRecord{}, err
	}
	defer unlock()

	return s.finish(ctx, c, id, func(r *domain.InboxRecord, now time.Time) {
		r.Status = domain.InboxStatusRejected
		r.RejectedAt = &now
		r.RejectedBy = c.tenantID
	})
}

// Assign redirects a pending record to a target chosen by a moderator: a
// shared subject of the owner's school, or a personal scope, possibly of
// another workspace.
func (s *Service) Assign(ctx context.Context, id string, input AssignInput) (_ domain.InboxRecord, err error) {
	to := domain.InboxStatusMovedToUser
	if input.TargetScope == domain.ScopeShared {
		to = domain.InboxStatusMovedToShared
	}
	defer func() { s.obs.ObserveTransition(to, resultLabel(err)) }()

	if err := input.Validate(); err != nil {
		return domain.InboxRecord{}, err
	}

	c, rec, unlock, err := s.begin(ctx, id, authorizeModerator)
	if err != nil {
		return domain.InboxRecord{}, err
	}
	defer unlock()

	var target string
	switch input.TargetScope {
	case domain.ScopeShared:
		target, err = s.publish(ctx, rec, input.TargetSubjectID, input.CreateSubjectIfMissing)
	default:
		target, err = s.copyToTenant(ctx, rec, domain.NormalizeID(input.TargetTenantID))
	}
	if err != nil {
		return domain.InboxRecord{}, err
	}

	return s.finish(ctx, c, id, func(r *domain.InboxRecord, now time.Time) {
		r.Status = to
		r.MovedAt = &now
		r.MovedTarget = target
		r.AssignedBy = c.tenantID
		r.AssignedAt = &now
	})
}

func authorizeModerator(c caller, rec domain.InboxRecord) error {
	if c.canModerate() {
		return nil
	}
	return fmt.Errorf("assigning inbox record %s requires a moderator: %w", rec.ID, domain.ErrForbidden)
}

// begin locks the record and checks, in order, that it exists, that the
// caller may act on it and that it is still pending.
func (s *Service) begin(ctx context.Context, id string, guard func(caller, domain.InboxRecord) error) (caller, domain.InboxRecord, func(), error) {
	c, err := callerFromCtx(ctx)
	if err != nil {
		return caller{}, domain.InboxRecord{}, nil, err
	}

	unlock, err := s.records.Lock(ctx, id)
	if err != nil {
		return caller{}, domain.InboxRecord{}, nil, fmt.Errorf("lock inbox record: %w: %w", domain.ErrUnavailable, err)
	}

	rec, err := s.store.GetInboxRecord(ctx, id)
	if err != nil {
		unlock()
		return caller{}, domain.InboxRecord{}, nil, fmt.Errorf("get inbox record: %w", err)
	}
	if err := guard(c, rec); err != nil {
		unlock()
		return caller{}, domain.InboxRecord{}, nil, err
	}
	if !rec.IsPending() {
		unlock()
		return caller{}, domain.InboxRecord{}, nil, fmt.Errorf("inbox record %s is %s: %w", id, rec.Status, domain.ErrConflict)
	}
	return c, rec, unlock, nil
}

// finish applies the terminal transition. The store re-checks the pending
// status inside its write cycle.
func (s *Service) finish(ctx context.Context, c caller, id string, apply func(r *domain.InboxRecord, now time.Time)) (domain.InboxRecord, error) {
	now := s.timestamp()
	updated, err := s.store.TransitionInboxRecord(ctx, id, func(r *domain.InboxRecord) error {
		apply(r, now)
		return nil
	})
	if err != nil {
		return domain.InboxRecord{}, fmt.Errorf("transition inbox record: %w", err)
	}

	s.log.InfoContext(ctx, "inbox record moved",
		slog.String("record_id", id),
		slog.String("status", updated.Status.String()),
		slog.String("target", updated.MovedTarget),
		slog.String("actor", c.tenantID),
	)
	return updated, nil
}

// publish copies the record's dataset into a shared subject and returns
// the target description.
func (s *Service) publish(ctx context.Context, rec domain.InboxRecord, subjectRef string, create bool) (string, error) {
	body, err := s.store.GetPersonalDataset(ctx, rec.TenantID, rec.FileName)
	if err != nil {
		return "", fmt.Errorf("get dataset %s: %w", rec.FileName, err)
	}

	schoolID := rec.SchoolID
	if schoolID == "" {
		wc, err := s.store.GetWorkspaceContext(ctx, rec.TenantID)
		if err != nil {
			return "", fmt.Errorf("get workspace context: %w", err)
		}
		schoolID = wc.SchoolID()
	}
	if schoolID == "" {
		return "", fmt.Errorf("workspace %s has no school: %w", rec.TenantID, domain.ErrUnprocessable)
	}

	sub, err := s.resolveSubject(ctx, schoolID, subjectRef, create)
	if err != nil {
		return "", err
	}
	if create {
		if err := s.store.EnsureWorkspaceSubject(ctx, rec.TenantID, sub.ID); err != nil {
			return "", fmt.Errorf("enable subject for owner: %w", err)
		}
	}

	if _, err := s.store.PublishShared(ctx, schoolID, sub.ID, rec.ContentType, rec.FileName, body, rec.DisplayName); err != nil {
		return "", fmt.Errorf("publish shared: %w", err)
	}
	return sharedTarget(schoolID, sub.ID, rec.FileName), nil
}

// resolveSubject maps a subject ID or label to a registered subject of the
// school, registering it when create is set.
func (s *Service) resolveSubject(ctx context.Context, schoolID, ref string, create bool) (domain.Subject, error) {
	school, err := s.store.GetSchool(ctx, schoolID)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("get school: %w", err)
	}
	if sub, ok := school.ResolveSubject(ref); ok {
		return sub, nil
	}
	if !create {
		return domain.Subject{}, fmt.Errorf("subject %q is not registered in school %s: %w", ref, schoolID, domain.ErrUnprocessable)
	}

	sub, created, err := s.store.EnsureSchoolSubject(ctx, schoolID, domain.Subject{
		ID:      domain.SubjectIDFromLabel(ref),
		Label:   domain.NormalizeSubjectLabel(ref),
		Enabled: true,
	})
	if err != nil {
		return domain.Subject{}, fmt.Errorf("ensure school subject: %w", err)
	}
	if created {
		s.log.InfoContext(ctx, "subject created on publish",
			slog.String("school_id", schoolID),
			slog.String("subject_id", sub.ID),
		)
	}
	return sub, nil
}

// copyToTenant places the record's dataset in the personal scope of
// targetID, or leaves it with the owner when targetID is empty or the owner.
func (s *Service) copyToTenant(ctx context.Context, rec domain.InboxRecord, targetID string) (string, error) {
	body, err := s.store.GetPersonalDataset(ctx, rec.TenantID, rec.FileName)
	if err != nil {
		return "", fmt.Errorf("get dataset %s: %w", rec.FileName, err)
	}
	if targetID == "" || targetID == rec.TenantID {
		return userTarget(rec.TenantID, rec.FileName), nil
	}
	if _, err := s.store.UpsertDataset(ctx, targetID, rec.ContentType, rec.FileName, body, rec.DisplayName, rec.SubjectID); err != nil {
		return "", fmt.Errorf("copy dataset to %s: %w", targetID, err)
	}
	return userTarget(targetID, rec.FileName), nil
}

func userTarget(tenantID, fileName string) string {
	return "user/" + tenantID + "/" + fileName
}

func sharedTarget(schoolID, subjectID, fileName string) string {
	return "shared/" + schoolID + "/" + subjectID + "/" + fileName
}
