package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// AppendInboxRecord adds a new record to the inbox.
func (s *Store) AppendInboxRecord(ctx context.Context, rec domain.InboxRecord) (err error) {
	ctx, done := s.begin(ctx, "append_inbox_record")
	defer done(&err)

	if rec.ID == "" {
		return fmt.Errorf("%w: inbox record id is required", domain.ErrInvalidInput)
	}
	return s.appendInboxRecord(ctx, rec)
}

func (s *Store) appendInboxRecord(ctx context.Context, rec domain.InboxRecord) error {
	return mutateJSON(ctx, s, inboxKey, func(list *[]domain.InboxRecord, _ bool) (bool, error) {
		if slices.ContainsFunc(*list, func(r domain.InboxRecord) bool { return r.ID == rec.ID }) {
			return false, fmt.Errorf("inbox record %s: %w", rec.ID, domain.ErrAlreadyExists)
		}
		*list = append(*list, rec)
		return true, nil
	})
}

// ensureInboxRecord appends rec unless a record with its ID exists.
func (s *Store) ensureInboxRecord(ctx context.Context, rec domain.InboxRecord) error {
	err := s.appendInboxRecord(ctx, rec)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil
	}
	return err
}

// ListInboxRecords returns every inbox record in insertion order.
func (s *Store) ListInboxRecords(ctx context.Context) (_ []domain.InboxRecord, err error) {
	ctx, done := s.begin(ctx, "list_inbox_records")
	defer done(&err)
	return readJSONOr(ctx, s, inboxKey, []domain.InboxRecord{})
}

// GetInboxRecord returns one inbox record.
func (s *Store) GetInboxRecord(ctx context.Context, id string) (_ domain.InboxRecord, err error) {
	ctx, done := s.begin(ctx, "get_inbox_record")
	defer done(&err)

	list, err := readJSONOr(ctx, s, inboxKey, []domain.InboxRecord{})
	if err != nil {
		return domain.InboxRecord{}, err
	}
	for _, r := range list {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.InboxRecord{}, fmt.Errorf("inbox record %s: %w", id, domain.ErrNotFound)
}

// TransitionInboxRecord applies fn to a pending record. The pending status
// is checked against the freshly read inbox inside the write cycle, so a
// record already moved by someone else fails with ErrConflict and stays
// unchanged. fn must set a terminal status.
func (s *Store) TransitionInboxRecord(ctx context.Context, id string, fn func(rec *domain.InboxRecord) error) (_ domain.InboxRecord, err error) {
	ctx, done := s.begin(ctx, "transition_inbox_record")
	defer done(&err)

	var updated domain.InboxRecord
	err = mutateJSON(ctx, s, inboxKey, func(list *[]domain.InboxRecord, _ bool) (bool, error) {
		i := slices.IndexFunc(*list, func(r domain.InboxRecord) bool { return r.ID == id })
		if i < 0 {
			return false, fmt.Errorf("inbox record %s: %w", id, domain.ErrNotFound)
		}
		rec := (*list)[i]
		if !rec.IsPending() {
			return false, fmt.Errorf("inbox record %s is %s: %w", id, rec.Status, domain.ErrConflict)
		}
		if err := fn(&rec); err != nil {
			return false, err
		}
		if !rec.Status.IsTerminal() {
			return false, fmt.Errorf("inbox record %s: transition must end in a terminal status, got %q", id, rec.Status)
		}
		rec.ID = id
		(*list)[i] = rec
		updated = rec
		return true, nil
	})
	if err != nil {
		return domain.InboxRecord{}, err
	}

	s.log.InfoContext(ctx, "inbox record transitioned",
		slog.String("record_id", id),
		slog.String("status", updated.Status.String()),
	)
	return updated, nil
}
