package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/diet-planner/internal/storage"
)

// MemoryStorage: in-memory реализация SnapshotStorage
type MemoryStorage struct {
	mu        sync.RWMutex
	snapshots map[string]map[string]storage.Snapshot
	exports   *ExportsMemoryStorage
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		snapshots: make(map[string]map[string]storage.Snapshot),
		exports:   NewExportsMemoryStorage(),
	}
}

// Exports возвращает хранилище выгрузок
func (m *MemoryStorage) Exports() *ExportsMemoryStorage {
	return m.exports
}

func (m *MemoryStorage) LoadSnapshot(ctx context.Context, ownerUserID, key string) ([]byte, bool, error) {
	_ = ctx
	owner := strings.TrimSpace(ownerUserID)

	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[owner][key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(snap.Payload), true, nil
}

func (m *MemoryStorage) SaveSnapshot(ctx context.Context, ownerUserID, key string, payload []byte) error {
	_ = ctx
	owner := strings.TrimSpace(ownerUserID)

	m.mu.Lock()
	defer m.mu.Unlock()

	byKey, ok := m.snapshots[owner]
	if !ok {
		byKey = make(map[string]storage.Snapshot)
		m.snapshots[owner] = byKey
	}
	byKey[key] = storage.Snapshot{
		OwnerUserID: owner,
		Key:         key,
		Payload:     cloneBytes(payload),
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

func (m *MemoryStorage) DeleteSnapshot(ctx context.Context, ownerUserID, key string) error {
	_ = ctx
	owner := strings.TrimSpace(ownerUserID)

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.snapshots[owner], key)
	return nil
}

func (m *MemoryStorage) ListSnapshotKeys(ctx context.Context, ownerUserID string) ([]string, error) {
	_ = ctx
	owner := strings.TrimSpace(ownerUserID)

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.snapshots[owner]))
	for key := range m.snapshots[owner] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close ничего не делает для in-memory хранилища
func (m *MemoryStorage) Close() error {
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
