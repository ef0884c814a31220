package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/diet-planner/internal/storage"
	"github.com/google/uuid"
)

type ExportsMemoryStorage struct {
	mu      sync.RWMutex
	exports map[uuid.UUID]storage.ExportRecord
}

func NewExportsMemoryStorage() *ExportsMemoryStorage {
	return &ExportsMemoryStorage{
		exports: make(map[uuid.UUID]storage.ExportRecord),
	}
}

func (s *ExportsMemoryStorage) CreateExport(ctx context.Context, rec *storage.ExportRecord) error {
	_ = ctx
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.OwnerUserID = strings.TrimSpace(rec.OwnerUserID)

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	stored.Data = cloneBytes(rec.Data)
	s.exports[rec.ID] = stored
	return nil
}

func (s *ExportsMemoryStorage) GetExport(ctx context.Context, id uuid.UUID) (*storage.ExportRecord, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.exports[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	rec.Data = cloneBytes(rec.Data)
	return &rec, nil
}

func (s *ExportsMemoryStorage) ListExports(ctx context.Context, ownerUserID string, limit, offset int) ([]storage.ExportRecord, error) {
	_ = ctx
	owner := strings.TrimSpace(ownerUserID)

	s.mu.RLock()
	out := make([]storage.ExportRecord, 0)
	for _, rec := range s.exports {
		if rec.OwnerUserID != owner {
			continue
		}
		rec.Data = nil
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []storage.ExportRecord{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *ExportsMemoryStorage) DeleteExport(ctx context.Context, id uuid.UUID) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exports[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.exports, id)
	return nil
}
