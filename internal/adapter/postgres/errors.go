package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/studyvault-backend/internal/storage"
)

// mapError converts pgx/pgconn errors to storage backend errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped — they pass through.
func mapError(err error, op, key string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", op, key, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, key, storage.ErrNoDocument)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation: a concurrent insert won
			return fmt.Errorf("%s %s: %w", op, key, storage.ErrVersionConflict)
		case "40001": // serialization_failure
			return fmt.Errorf("%s %s: %w", op, key, storage.ErrVersionConflict)
		}
	}

	return fmt.Errorf("%s %s: %w", op, key, err)
}

func isNoDocument(err error) bool {
	return errors.Is(err, storage.ErrNoDocument)
}
