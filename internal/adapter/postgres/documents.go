package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/studyvault-backend/internal/storage"
)

const documentsTable = "documents"

// Documents implements storage.Backend on the documents table. Each write
// is a single statement guarded by the row version, so no explicit
// transaction is needed.
type Documents struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewDocuments creates a Documents backend on pool.
func NewDocuments(pool *pgxpool.Pool) *Documents {
	return &Documents{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (d *Documents) Read(ctx context.Context, key string) (storage.Document, error) {
	if err := storage.ValidateKey(key); err != nil {
		return storage.Document{}, err
	}

	query, args, err := d.sb.Select("body", "version").
		From(documentsTable).
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return storage.Document{}, fmt.Errorf("build read query: %w", err)
	}

	var doc storage.Document
	if err := d.pool.QueryRow(ctx, query, args...).Scan(&doc.Data, &doc.Version); err != nil {
		return storage.Document{}, mapError(err, "read", key)
	}
	return doc, nil
}

func (d *Documents) Write(ctx context.Context, key string, data []byte, expectVersion int64) (int64, error) {
	if err := storage.ValidateKey(key); err != nil {
		return 0, err
	}

	var (
		query string
		args  []any
		err   error
	)
	switch {
	case expectVersion == storage.AnyVersion:
		query, args, err = d.sb.Insert(documentsTable).
			Columns("key", "body", "version").
			Values(key, data, 1).
			Suffix("ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, version = " + documentsTable + ".version + 1, updated_at = now() RETURNING version").
			ToSql()
	case expectVersion == 0:
		query, args, err = d.sb.Insert(documentsTable).
			Columns("key", "body", "version").
			Values(key, data, 1).
			Suffix("ON CONFLICT (key) DO NOTHING RETURNING version").
			ToSql()
	default:
		query, args, err = d.sb.Update(documentsTable).
			Set("body", data).
			Set("version", squirrel.Expr("version + 1")).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"key": key, "version": expectVersion}).
			Suffix("RETURNING version").
			ToSql()
	}
	if err != nil {
		return 0, fmt.Errorf("build write query: %w", err)
	}

	var version int64
	err = d.pool.QueryRow(ctx, query, args...).Scan(&version)
	err = mapError(err, "write", key)
	if expectVersion != storage.AnyVersion && isNoDocument(err) {
		// No row returned: the key exists (insert) or the version moved (update).
		return 0, fmt.Errorf("write %s: %w", key, storage.ErrVersionConflict)
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (d *Documents) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	query, args, err := d.sb.Delete(documentsTable).
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	if _, err := d.pool.Exec(ctx, query, args...); err != nil {
		return mapError(err, "delete", key)
	}
	return nil
}

func (d *Documents) List(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := d.sb.Select("key").
		From(documentsTable).
		Where(squirrel.Expr(`key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")).
		OrderBy(`key COLLATE "C"`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list", prefix)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, mapError(err, "list", prefix)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list", prefix)
	}
	return keys, nil
}

func (d *Documents) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
