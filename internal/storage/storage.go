package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound возвращается Get/Delete методами, когда записи нет
var ErrNotFound = errors.New("not found")

// Snapshot: сохранённое состояние пользователя под логическим ключом.
// Payload хранится как непрозрачный JSON; сервер не разбирает его на уровне хранилища.
type Snapshot struct {
	OwnerUserID string // "default", если авторизация выключена
	Key         string // например "meal_selection:tamil-nadu"
	Payload     []byte
	UpdatedAt   time.Time
}

// SnapshotStorage: интерфейс key-value хранилища снапшотов
type SnapshotStorage interface {
	// LoadSnapshot возвращает payload и found=false, если ключа нет
	LoadSnapshot(ctx context.Context, ownerUserID, key string) ([]byte, bool, error)

	// SaveSnapshot целиком перезаписывает значение (last writer wins)
	SaveSnapshot(ctx context.Context, ownerUserID, key string, payload []byte) error

	// DeleteSnapshot удаляет ключ; отсутствие ключа не ошибка
	DeleteSnapshot(ctx context.Context, ownerUserID, key string) error

	// ListSnapshotKeys возвращает ключи владельца в алфавитном порядке
	ListSnapshotKeys(ctx context.Context, ownerUserID string) ([]string, error)

	// Close закрывает соединение (для Postgres и SQLite)
	Close() error
}

// ExportsStorage: интерфейс для работы с выгрузками плана (PDF/CSV)
type ExportsStorage interface {
	// CreateExport сохраняет метаданные выгрузки; ID и CreatedAt заполняются, если пусты
	CreateExport(ctx context.Context, rec *ExportRecord) error

	// GetExport возвращает выгрузку по ID или ErrNotFound
	GetExport(ctx context.Context, id uuid.UUID) (*ExportRecord, error)

	// ListExports возвращает выгрузки владельца, новые первыми
	ListExports(ctx context.Context, ownerUserID string, limit, offset int) ([]ExportRecord, error)

	// DeleteExport удаляет запись или возвращает ErrNotFound
	DeleteExport(ctx context.Context, id uuid.UUID) error
}

// ExportRecord: метаданные выгрузки
type ExportRecord struct {
	ID          uuid.UUID
	OwnerUserID string
	CatalogID   string
	Format      string  // "pdf" or "csv"
	ObjectKey   *string // S3 object key (NULL без blob store)
	SizeBytes   int64
	CreatedAt   time.Time
	Data        []byte // содержимое файла, если blob store не настроен
}
