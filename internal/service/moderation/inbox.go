package moderation

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// ListInbox returns inbox records, newest first. Moderators see every
// record, tenants only their own.
func (s *Service) ListInbox(ctx context.Context, input ListInboxInput) ([]domain.InboxRecord, error) {
	c, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	all, err := s.store.ListInboxRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inbox records: %w", err)
	}

	out := make([]domain.InboxRecord, 0, len(all))
	for _, rec := range all {
		if !c.canModerate() && rec.TenantID != c.tenantID {
			continue
		}
		if input.Status != "" && rec.Status != input.Status {
			continue
		}
		out = append(out, rec)
	}
	slices.SortStableFunc(out, func(a, b domain.InboxRecord) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return out, nil
}

// GetInboxDetail returns a record with its dataset body. Only the owner
// and moderators may read it.
func (s *Service) GetInboxDetail(ctx context.Context, id string) (InboxDetail, error) {
	c, err := callerFromCtx(ctx)
	if err != nil {
		return InboxDetail{}, err
	}

	rec, err := s.store.GetInboxRecord(ctx, id)
	if err != nil {
		return InboxDetail{}, fmt.Errorf("get inbox record: %w", err)
	}
	if err := authorize(c, rec); err != nil {
		return InboxDetail{}, err
	}

	body, err := s.store.GetPersonalDataset(ctx, rec.TenantID, rec.FileName)
	if err != nil {
		return InboxDetail{}, fmt.Errorf("get dataset %s: %w", rec.FileName, err)
	}
	return InboxDetail{Record: rec, Body: body}, nil
}

// authorize allows the record owner and moderators.
func authorize(c caller, rec domain.InboxRecord) error {
	if c.canModerate() || rec.TenantID == c.tenantID {
		return nil
	}
	return fmt.Errorf("inbox record %s belongs to another workspace: %w", rec.ID, domain.ErrForbidden)
}
