// Package snapshots stores user state as whole JSON values under logical keys.
package snapshots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fdg312/diet-planner/internal/metrics"
	"github.com/fdg312/diet-planner/internal/storage"
)

const (
	KeyCalculatorEntries = "calculator_entries"
	KeySavedPosts        = "saved_posts"
	KeyUserState         = "user_state"

	mealSelectionPrefix = "meal_selection:"
)

// MealSelectionKey is the key of one catalog's selection. Each catalog is stored separately.
func MealSelectionKey(catalogID string) string {
	return mealSelectionPrefix + strings.TrimSpace(catalogID)
}

// Repository wraps a SnapshotStorage with JSON encoding.
type Repository struct {
	storage storage.SnapshotStorage
	logger  logrus.FieldLogger
	metrics *metrics.Manager
}

func NewRepository(s storage.SnapshotStorage, logger logrus.FieldLogger, m *metrics.Manager) *Repository {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Repository{
		storage: s,
		logger:  logger.WithField("component", "snapshots"),
		metrics: m,
	}
}

// Load returns the stored value for key, or def when the key is missing.
// A stored value that does not decode as T is logged and replaced by def.
func Load[T any](ctx context.Context, r *Repository, ownerUserID, key string, def T) (T, error) {
	payload, found, err := r.storage.LoadSnapshot(ctx, ownerUserID, key)
	if err != nil {
		return def, fmt.Errorf("load snapshot %q: %w", key, err)
	}
	if !found || len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return def, nil
	}

	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		r.logger.WithFields(logrus.Fields{
			"owner": ownerUserID,
			"key":   key,
		}).WithError(err).Warn("stored snapshot is malformed, using default")
		if r.metrics != nil {
			r.metrics.CounterSnapshotErrors.WithLabelValues(keyFamily(key)).Inc()
		}
		return def, nil
	}
	return value, nil
}

// Save replaces the stored value for key.
func Save[T any](ctx context.Context, r *Repository, ownerUserID, key string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", key, err)
	}
	if err := r.storage.SaveSnapshot(ctx, ownerUserID, key, payload); err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (r *Repository) Delete(ctx context.Context, ownerUserID, key string) error {
	if err := r.storage.DeleteSnapshot(ctx, ownerUserID, key); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", key, err)
	}
	return nil
}

// Keys lists the owner's stored keys.
func (r *Repository) Keys(ctx context.Context, ownerUserID string) ([]string, error) {
	keys, err := r.storage.ListSnapshotKeys(ctx, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}
	return keys, nil
}

// keyFamily strips the per-catalog suffix so metric labels stay bounded.
func keyFamily(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
