package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage: Postgres реализация SnapshotStorage.
// Схема (таблица user_snapshots) создаётся goose-миграциями.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// New открывает пул и проверяет соединение
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) LoadSnapshot(ctx context.Context, ownerUserID, key string) ([]byte, bool, error) {
	const query = `
		SELECT payload
		FROM user_snapshots
		WHERE owner_user_id = $1 AND snapshot_key = $2
	`

	var payload []byte
	err := s.pool.QueryRow(ctx, query, strings.TrimSpace(ownerUserID), key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *PostgresStorage) SaveSnapshot(ctx context.Context, ownerUserID, key string, payload []byte) error {
	const query = `
		INSERT INTO user_snapshots (owner_user_id, snapshot_key, payload, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW(), NOW())
		ON CONFLICT (owner_user_id, snapshot_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`

	_, err := s.pool.Exec(ctx, query, strings.TrimSpace(ownerUserID), key, string(payload))
	return err
}

func (s *PostgresStorage) DeleteSnapshot(ctx context.Context, ownerUserID, key string) error {
	const query = `DELETE FROM user_snapshots WHERE owner_user_id = $1 AND snapshot_key = $2`

	_, err := s.pool.Exec(ctx, query, strings.TrimSpace(ownerUserID), key)
	return err
}

func (s *PostgresStorage) ListSnapshotKeys(ctx context.Context, ownerUserID string) ([]string, error) {
	const query = `
		SELECT snapshot_key
		FROM user_snapshots
		WHERE owner_user_id = $1
		ORDER BY snapshot_key
	`

	rows, err := s.pool.Query(ctx, query, strings.TrimSpace(ownerUserID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close закрывает пул соединений
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
