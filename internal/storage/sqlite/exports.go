package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/diet-planner/internal/storage"
	"github.com/google/uuid"
)

func (s *SQLiteStorage) CreateExport(ctx context.Context, rec *storage.ExportRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.OwnerUserID = strings.TrimSpace(rec.OwnerUserID)

	const query = `
        INSERT INTO export_records (id, owner_user_id, catalog_id, format, object_key, data, size_bytes, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `

	var objectKey sql.NullString
	if rec.ObjectKey != nil {
		objectKey = sql.NullString{String: *rec.ObjectKey, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.ID.String(),
		rec.OwnerUserID,
		rec.CatalogID,
		rec.Format,
		objectKey,
		rec.Data,
		rec.SizeBytes,
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetExport(ctx context.Context, id uuid.UUID) (*storage.ExportRecord, error) {
	const query = `
        SELECT id, owner_user_id, catalog_id, format, object_key, data, size_bytes, created_at
        FROM export_records
        WHERE id = ?
    `

	rec, err := scanExport(s.db.QueryRowContext(ctx, query, id.String()), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get export: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStorage) ListExports(ctx context.Context, ownerUserID string, limit, offset int) ([]storage.ExportRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
        SELECT id, owner_user_id, catalog_id, format, object_key, size_bytes, created_at
        FROM export_records
        WHERE owner_user_id = ?
        ORDER BY created_at DESC
        LIMIT ? OFFSET ?
    `

	rows, err := s.db.QueryContext(ctx, query, strings.TrimSpace(ownerUserID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	out := []storage.ExportRecord{}
	for rows.Next() {
		rec, err := scanExport(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) DeleteExport(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM export_records WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(row rowScanner, withData bool) (*storage.ExportRecord, error) {
	var (
		rec       storage.ExportRecord
		idStr     string
		objectKey sql.NullString
		createdAt string
	)

	dest := []any{&idStr, &rec.OwnerUserID, &rec.CatalogID, &rec.Format, &objectKey}
	if withData {
		dest = append(dest, &rec.Data)
	}
	dest = append(dest, &rec.SizeBytes, &createdAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid export id %q: %w", idStr, err)
	}
	rec.ID = id

	if objectKey.Valid {
		key := objectKey.String
		rec.ObjectKey = &key
	}

	rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	return &rec, nil
}
