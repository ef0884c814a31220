package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fdg312/diet-planner/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresExportsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresExportsStorage(pool *pgxpool.Pool) *PostgresExportsStorage {
	return &PostgresExportsStorage{pool: pool}
}

// Exports возвращает хранилище выгрузок на том же пуле
func (s *PostgresStorage) Exports() *PostgresExportsStorage {
	return NewPostgresExportsStorage(s.pool)
}

func (s *PostgresExportsStorage) CreateExport(ctx context.Context, rec *storage.ExportRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.OwnerUserID = strings.TrimSpace(rec.OwnerUserID)

	const query = `
		INSERT INTO export_records (id, owner_user_id, catalog_id, format, object_key, data, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.OwnerUserID,
		rec.CatalogID,
		rec.Format,
		rec.ObjectKey,
		rec.Data,
		rec.SizeBytes,
		rec.CreatedAt,
	)
	return err
}

func (s *PostgresExportsStorage) GetExport(ctx context.Context, id uuid.UUID) (*storage.ExportRecord, error) {
	const query = `
		SELECT id, owner_user_id, catalog_id, format, object_key, data, size_bytes, created_at
		FROM export_records
		WHERE id = $1
	`

	var rec storage.ExportRecord
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.OwnerUserID,
		&rec.CatalogID,
		&rec.Format,
		&rec.ObjectKey,
		&rec.Data,
		&rec.SizeBytes,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresExportsStorage) ListExports(ctx context.Context, ownerUserID string, limit, offset int) ([]storage.ExportRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, owner_user_id, catalog_id, format, object_key, size_bytes, created_at
		FROM export_records
		WHERE owner_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, query, strings.TrimSpace(ownerUserID), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []storage.ExportRecord{}
	for rows.Next() {
		var rec storage.ExportRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.OwnerUserID,
			&rec.CatalogID,
			&rec.Format,
			&rec.ObjectKey,
			&rec.SizeBytes,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresExportsStorage) DeleteExport(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM export_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
