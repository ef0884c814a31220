package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout has fixed-width fractions so TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStorage: файловая реализация SnapshotStorage для single-node запуска без Postgres
type SQLiteStorage struct {
	db *sql.DB
}

// New открывает (или создаёт) файл базы и схему
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite не любит параллельные писатели на одном файле
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS user_snapshots (
        owner_user_id TEXT NOT NULL,
        snapshot_key TEXT NOT NULL,
        payload TEXT NOT NULL,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL,
        PRIMARY KEY (owner_user_id, snapshot_key)
    );

    CREATE TABLE IF NOT EXISTS export_records (
        id TEXT PRIMARY KEY,
        owner_user_id TEXT NOT NULL,
        catalog_id TEXT NOT NULL,
        format TEXT NOT NULL,
        object_key TEXT NULL,
        data BLOB NULL,
        size_bytes INTEGER NOT NULL DEFAULT 0,
        created_at TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_export_records_owner ON export_records(owner_user_id, created_at);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadSnapshot(ctx context.Context, ownerUserID, key string) ([]byte, bool, error) {
	const query = `SELECT payload FROM user_snapshots WHERE owner_user_id = ? AND snapshot_key = ?`

	var payload string
	err := s.db.QueryRowContext(ctx, query, strings.TrimSpace(ownerUserID), key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return []byte(payload), true, nil
}

func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, ownerUserID, key string, payload []byte) error {
	const query = `
        INSERT INTO user_snapshots (owner_user_id, snapshot_key, payload, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (owner_user_id, snapshot_key) DO UPDATE SET
            payload = excluded.payload,
            updated_at = excluded.updated_at
    `

	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx, query, strings.TrimSpace(ownerUserID), key, string(payload), now, now)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteSnapshot(ctx context.Context, ownerUserID, key string) error {
	const query = `DELETE FROM user_snapshots WHERE owner_user_id = ? AND snapshot_key = ?`

	if _, err := s.db.ExecContext(ctx, query, strings.TrimSpace(ownerUserID), key); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListSnapshotKeys(ctx context.Context, ownerUserID string) ([]string, error) {
	const query = `SELECT snapshot_key FROM user_snapshots WHERE owner_user_id = ? ORDER BY snapshot_key`

	rows, err := s.db.QueryContext(ctx, query, strings.TrimSpace(ownerUserID))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
