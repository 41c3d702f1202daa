// Package storage is the atomic document store for workspaces, datasets,
// catalog indexes, school registries and the moderation inbox. It runs on
// any Backend that offers atomic single-document writes with versions.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/pkg/keymutex"
)

const (
	defaultOpTimeout = 5 * time.Second
	defaultRetries   = 5
)

// Observer receives store instrumentation.
type Observer interface {
	ObserveStoreOp(op string, d time.Duration, err error)
	ObserveStoreRetry(keyKind string)
}

type nopObserver struct{}

func (nopObserver) ObserveStoreOp(string, time.Duration, error) {}
func (nopObserver) ObserveStoreRetry(string)                    {}

// Options tunes a Store. Zero values select defaults.
type Options struct {
	OpTimeout time.Duration
	Retries   int
	Observer  Observer
	Now       func() time.Time
	NewID     func() string
}

// Store implements the document layout on top of a Backend.
type Store struct {
	backend   Backend
	log       *slog.Logger
	locks     *keymutex.KeyMutex
	opTimeout time.Duration
	retries   int
	observer  Observer
	now       func() time.Time
	newID     func() string
}

// New creates a Store.
func New(logger *slog.Logger, backend Backend, opts Options) *Store {
	s := &Store{
		backend:   backend,
		log:       logger.With("component", "store"),
		locks:     keymutex.New(),
		opTimeout: opts.OpTimeout,
		retries:   opts.Retries,
		observer:  opts.Observer,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if s.opTimeout <= 0 {
		s.opTimeout = defaultOpTimeout
	}
	if s.retries <= 0 {
		s.retries = defaultRetries
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = newUUID
	}
	return s
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) (err error) {
	ctx, done := s.begin(ctx, "ping")
	defer done(&err)
	return s.backendErr("ping", "", s.backend.Ping(ctx))
}

// WriteAtomic replaces the value at key in a single atomic step.
func (s *Store) WriteAtomic(ctx context.Context, key string, data []byte) (err error) {
	ctx, done := s.begin(ctx, "write_atomic")
	defer done(&err)
	return s.writeAtomic(ctx, key, data)
}

// Read returns the raw value at key.
func (s *Store) Read(ctx context.Context, key string) (_ []byte, err error) {
	ctx, done := s.begin(ctx, "read")
	defer done(&err)
	doc, err := s.backend.Read(ctx, key)
	if err != nil {
		return nil, s.backendErr("read", key, err)
	}
	return doc.Data, nil
}

// begin bounds an operation with the store timeout and reports its
// duration when the returned func runs.
func (s *Store) begin(ctx context.Context, op string) (context.Context, func(*error)) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	start := time.Now()
	return ctx, func(errp *error) {
		cancel()
		s.observer.ObserveStoreOp(op, time.Since(start), *errp)
	}
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// backendErr maps backend failures to domain errors. Missing documents
// become ErrNotFound; everything else is ErrUnavailable.
func (s *Store) backendErr(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoDocument):
		return fmt.Errorf("%s %s: %w", op, key, domain.ErrNotFound)
	case errors.Is(err, ErrInvalidKey):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("%s %s: %w: %w", op, key, domain.ErrUnavailable, err)
}

func (s *Store) writeAtomic(ctx context.Context, key string, data []byte) error {
	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		return s.backendErr("lock", key, err)
	}
	defer unlock()

	_, err = s.backend.Write(ctx, key, data, AnyVersion)
	return s.backendErr("write", key, err)
}

// create writes key only if it does not exist yet.
func (s *Store) create(ctx context.Context, key string, data []byte) error {
	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		return s.backendErr("lock", key, err)
	}
	defer unlock()

	_, err = s.backend.Write(ctx, key, data, 0)
	if errors.Is(err, ErrVersionConflict) {
		return fmt.Errorf("create %s: %w", key, domain.ErrConflict)
	}
	return s.backendErr("create", key, err)
}

func (s *Store) remove(ctx context.Context, key string) error {
	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		return s.backendErr("lock", key, err)
	}
	defer unlock()
	return s.backendErr("delete", key, s.backend.Delete(ctx, key))
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.backend.Read(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNoDocument):
		return false, nil
	}
	return false, s.backendErr("read", key, err)
}

// mutate runs a read-modify-write cycle on key. The key lock serializes
// writers in this process; the version check catches writers elsewhere and
// the cycle is retried. fn returning nil data leaves the document as is.
func (s *Store) mutate(ctx context.Context, key string, fn func(data []byte, exists bool) ([]byte, error)) error {
	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		return s.backendErr("lock", key, err)
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		doc, err := s.backend.Read(ctx, key)
		exists := err == nil
		if err != nil && !errors.Is(err, ErrNoDocument) {
			return s.backendErr("read", key, err)
		}
		if !exists {
			doc = Document{}
		}

		next, err := fn(doc.Data, exists)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		_, err = s.backend.Write(ctx, key, next, doc.Version)
		if !errors.Is(err, ErrVersionConflict) {
			return s.backendErr("write", key, err)
		}
		if attempt >= s.retries {
			return fmt.Errorf("write %s: %w: still conflicting after %d attempts", key, domain.ErrUnavailable, attempt+1)
		}
		s.observer.ObserveStoreRetry(keyKind(key))
		s.log.Debug("version conflict, retrying", slog.String("key", key), slog.Int("attempt", attempt+1))
	}
}

func readJSON[T any](ctx context.Context, s *Store, key string) (T, error) {
	var v T
	doc, err := s.backend.Read(ctx, key)
	if err != nil {
		return v, s.backendErr("read", key, err)
	}
	if err := json.Unmarshal(doc.Data, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, key, err)
	}
	return v, nil
}

// readJSONOr is readJSON with a fallback for missing documents.
func readJSONOr[T any](ctx context.Context, s *Store, key string, fallback T) (T, error) {
	v, err := readJSON[T](ctx, s, key)
	if errors.Is(err, domain.ErrNotFound) {
		return fallback, nil
	}
	return v, err
}

// mutateJSON decodes the document at key, applies fn and writes it back
// when fn reports a change.
func mutateJSON[T any](ctx context.Context, s *Store, key string, fn func(v *T, exists bool) (bool, error)) error {
	return s.mutate(ctx, key, func(data []byte, exists bool) ([]byte, error) {
		var v T
		if exists {
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, key, err)
			}
		}
		changed, err := fn(&v, exists)
		if err != nil || !changed {
			return nil, err
		}
		return marshalDoc(v)
	})
}

func marshalDoc(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}
