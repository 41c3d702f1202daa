package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// intent is a write-ahead record for a body write, its index upsert and
// the inbox record of a submission.
type intent struct {
	ID        string              `json:"id"`
	BodyKey   string              `json:"bodyKey"`
	IndexKey  string              `json:"indexKey"`
	FileName  string              `json:"fileName"`
	Name      string              `json:"name"`
	Subject   string              `json:"subject"`
	Record    *domain.InboxRecord `json:"record,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

func newUUID() string { return uuid.NewString() }

func (s *Store) recordIntent(ctx context.Context, in intent) error {
	data, err := marshalDoc(in)
	if err != nil {
		return err
	}
	return s.create(ctx, journalKey(in.ID), data)
}

// clearIntent drops a finished intent. A failure only leaves work for
// Recover, so it is logged and not returned.
func (s *Store) clearIntent(ctx context.Context, in intent) {
	if err := s.remove(ctx, journalKey(in.ID)); err != nil {
		s.log.WarnContext(ctx, "clear write intent", slog.String("intent_id", in.ID), slog.String("error", err.Error()))
	}
}

// Recover replays intents left by interrupted dataset writes: when the body
// was written the index entry is upserted and the inbox record of a
// submission is appended, otherwise the intent is dropped.
// It returns the number of index entries repaired.
func (s *Store) Recover(ctx context.Context) (repaired int, err error) {
	keys, err := s.backend.List(ctx, journalPrefix)
	if err != nil {
		return 0, s.backendErr("list", journalPrefix, err)
	}

	for _, key := range keys {
		opCtx, done := s.begin(ctx, "recover")
		fixed, err := s.replayIntent(opCtx, key)
		done(&err)
		if err != nil {
			return repaired, err
		}
		if fixed {
			repaired++
		}
	}

	if len(keys) > 0 {
		s.log.InfoContext(ctx, "journal recovered", slog.Int("intents", len(keys)), slog.Int("repaired", repaired))
	}
	return repaired, nil
}

func (s *Store) replayIntent(ctx context.Context, key string) (bool, error) {
	in, err := readJSON[intent](ctx, s, key)
	if errors.Is(err, ErrCorruptDocument) {
		s.log.WarnContext(ctx, "dropping corrupt intent", slog.String("key", key))
		return false, s.remove(ctx, key)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("replay %s: %w", key, err)
	}

	ok, err := s.exists(ctx, in.BodyKey)
	if err != nil {
		return false, err
	}
	if ok {
		if _, err := s.upsertIndexEntry(ctx, in.IndexKey, in.FileName, in.Name, in.Subject); err != nil {
			return false, err
		}
		if in.Record != nil {
			if err := s.ensureInboxRecord(ctx, *in.Record); err != nil {
				return false, err
			}
		}
	}
	if err := s.remove(ctx, key); err != nil {
		return false, err
	}
	return ok, nil
}

// PendingIntents returns the number of unfinished write intents.
func (s *Store) PendingIntents(ctx context.Context) (int, error) {
	keys, err := s.backend.List(ctx, journalPrefix)
	if err != nil {
		return 0, s.backendErr("list", journalPrefix, err)
	}
	return len(keys), nil
}
