// Package postgres implements the metadata and record repositories on
// PostgreSQL using a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/database/internal"
)

const metaColumns = `id, object_key, content_type, etag, file_size_bytes, created_at, updated_at`

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func scanMetaData(row pgx.Row) (mediagate.MetaData, error) {
	var m mediagate.MetaData
	err := row.Scan(&m.ID, &m.Key, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *repo) Get(ctx context.Context, key string) (mediagate.MetaData, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE object_key = $1 AND deleted_at IS NULL
	`, metaColumns, r.tableName)

	m, err := scanMetaData(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mediagate.MetaData{}, fmt.Errorf("get %s: %w", key, mediagate.ErrNotFound)
		}
		return mediagate.MetaData{}, fmt.Errorf("get %s: %w", key, err)
	}

	return m, nil
}

// Upsert relies on xmax being zero only for freshly inserted tuples.
func (r *repo) Upsert(ctx context.Context, entry mediagate.ObjectEntry) (mediagate.MetaData, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (object_key, content_type, etag, file_size_bytes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (object_key) DO UPDATE
		SET content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			file_size_bytes = EXCLUDED.file_size_bytes,
			updated_at = NOW(),
			deleted_at = NULL,
			cleaned_up_at = NULL
		RETURNING %s, (xmax = 0) AS inserted
	`, r.tableName, metaColumns)

	var m mediagate.MetaData
	var inserted bool

	err := r.pool.QueryRow(ctx, query, entry.Key, entry.ContentType, entry.ETag, entry.Size).Scan(
		&m.ID, &m.Key, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt, &inserted,
	)
	if err != nil {
		return mediagate.MetaData{}, false, fmt.Errorf("upsert %s: %w", entry.Key, mapConstraint(err))
	}

	return m, inserted, nil
}

func (r *repo) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE object_key = $1 AND deleted_at IS NULL
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", key, mediagate.ErrNotFound)
	}

	return nil
}

func (r *repo) List(ctx context.Context, q mediagate.ListQuery) (mediagate.ListResult, error) {
	return r.listWithCondition(ctx, q, "deleted_at IS NULL", "list")
}

func (r *repo) ListPendingCleanup(ctx context.Context, q mediagate.ListQuery) (mediagate.ListResult, error) {
	return r.listWithCondition(ctx, q, "deleted_at IS NOT NULL AND cleaned_up_at IS NULL", "list pending cleanup")
}

func (r *repo) listWithCondition(ctx context.Context, q mediagate.ListQuery, whereCondition, opName string) (mediagate.ListResult, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return mediagate.ListResult{}, fmt.Errorf("%s: %w", opName, err)
	}

	limit := internal.NormalizeLimit(q.Limit)
	args := []any{internal.EscapeLikePattern(q.KeyPrefix)}

	after := ""
	if q.Cursor != "" {
		after = "AND (created_at, object_key) > ($3, $4)"
		args = append(args, limit+1, cursor.CreatedAt, cursor.Key)
	} else {
		args = append(args, limit+1)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s AND object_key LIKE $1 || '%%' %s
		ORDER BY created_at, object_key
		LIMIT $2
	`, metaColumns, r.tableName, whereCondition, after)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return mediagate.ListResult{}, fmt.Errorf("%s: %w", opName, err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (mediagate.MetaData, error) {
		return scanMetaData(row)
	})
	if err != nil {
		return mediagate.ListResult{}, fmt.Errorf("%s: scan: %w", opName, err)
	}

	var nextCursor string
	if len(items) > limit {
		last := items[limit-1]
		nextCursor = internal.EncodeCursor(last.CreatedAt, last.Key)
		items = items[:limit]
	}

	return mediagate.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *repo) MarkCleanedUp(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET cleaned_up_at = NOW()
		WHERE id = $1 AND deleted_at IS NOT NULL AND cleaned_up_at IS NULL
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark cleaned up: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mark cleaned up: %w", mediagate.ErrNotFound)
	}

	return nil
}
