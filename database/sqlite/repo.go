package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/database/internal"
)

const metaColumns = `id, object_key, content_type, etag, file_size_bytes, created_at, updated_at`

type repo struct {
	db        *sql.DB
	tableName string
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetaData(row rowScanner) (mediagate.MetaData, error) {
	var m mediagate.MetaData
	var idStr, createdAt, updatedAt string

	if err := row.Scan(&idStr, &m.Key, &m.ContentType, &m.Etag, &m.FileSizeBytes, &createdAt, &updatedAt); err != nil {
		return mediagate.MetaData{}, err
	}

	var err error
	if m.ID, err = uuid.Parse(idStr); err != nil {
		return mediagate.MetaData{}, fmt.Errorf("parse id: %w", err)
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return mediagate.MetaData{}, fmt.Errorf("parse created_at: %w", err)
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return mediagate.MetaData{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return m, nil
}

func (r *repo) Get(ctx context.Context, key string) (mediagate.MetaData, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE object_key = ? AND deleted_at IS NULL`, metaColumns, r.tableName)

	m, err := scanMetaData(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mediagate.MetaData{}, fmt.Errorf("get %s: %w", key, mediagate.ErrNotFound)
		}
		return mediagate.MetaData{}, fmt.Errorf("get %s: %w", key, err)
	}

	return m, nil
}

// Upsert inserts a row or revives and overwrites the existing one for the key.
// The candidate id comes back unchanged only when a new row was inserted.
func (r *repo) Upsert(ctx context.Context, entry mediagate.ObjectEntry) (mediagate.MetaData, bool, error) {
	now := formatTime(time.Now())
	candidate := uuid.New()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, object_key, content_type, etag, file_size_bytes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (object_key) DO UPDATE SET
			content_type = excluded.content_type,
			etag = excluded.etag,
			file_size_bytes = excluded.file_size_bytes,
			updated_at = excluded.updated_at,
			deleted_at = NULL,
			cleaned_up_at = NULL
		RETURNING %s`, r.tableName, metaColumns)

	m, err := scanMetaData(r.db.QueryRowContext(ctx, query,
		candidate.String(), entry.Key, entry.ContentType, entry.ETag, entry.Size, now, now,
	))
	if err != nil {
		return mediagate.MetaData{}, false, fmt.Errorf("upsert %s: %w", entry.Key, mapConstraint(err))
	}

	return m, m.ID == candidate, nil
}

// Delete soft-deletes a live row.
func (r *repo) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s SET deleted_at = ? WHERE object_key = ? AND deleted_at IS NULL`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, formatTime(time.Now()), key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return expectOneRow(result, fmt.Sprintf("delete %s", key))
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
		after = "AND (created_at, object_key) > (?, ?)"
		args = append(args, formatTime(cursor.CreatedAt), cursor.Key)
	}
	args = append(args, limit+1)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s
		WHERE %s AND object_key LIKE ? || '%%' ESCAPE '\' %s
		ORDER BY created_at, object_key
		LIMIT ?`, metaColumns, r.tableName, whereCondition, after)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return mediagate.ListResult{}, fmt.Errorf("%s: %w", opName, err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]mediagate.MetaData, 0, limit)
	for rows.Next() {
		m, scanErr := scanMetaData(rows)
		if scanErr != nil {
			return mediagate.ListResult{}, fmt.Errorf("%s: scan: %w", opName, scanErr)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return mediagate.ListResult{}, fmt.Errorf("%s: rows: %w", opName, err)
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
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s SET cleaned_up_at = ?
		WHERE id = ? AND deleted_at IS NOT NULL AND cleaned_up_at IS NULL`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("mark cleaned up: %w", err)
	}

	return expectOneRow(result, "mark cleaned up")
}

func expectOneRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, mediagate.ErrNotFound)
	}
	return nil
}
