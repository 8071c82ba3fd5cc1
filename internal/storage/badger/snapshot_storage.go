package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// SnapshotStorage implements the SnapshotStorage interface for Badger
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// Save stores a snapshot, replacing any existing one for the same symbol/kind
func (s *SnapshotStorage) Save(ctx context.Context, snapshot *models.SourceSnapshot) error {
	if snapshot.Symbol == "" || snapshot.Kind == "" {
		return fmt.Errorf("snapshot symbol and kind are required")
	}

	snapshot.Symbol = strings.ToUpper(snapshot.Symbol)
	snapshot.Key = models.SnapshotKey(snapshot.Symbol, snapshot.Kind)
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now()
	}

	if err := s.db.Store().Upsert(snapshot.Key, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Get retrieves the snapshot for a symbol/kind, or an error when absent
func (s *SnapshotStorage) Get(ctx context.Context, symbol string, kind models.SnapshotKind) (*models.SourceSnapshot, error) {
	key := models.SnapshotKey(strings.ToUpper(symbol), kind)
	var snapshot models.SourceSnapshot
	if err := s.db.Store().Get(key, &snapshot); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("snapshot not found: %s", key)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}

// Prune deletes snapshots fetched before the cutoff, returns count deleted
func (s *SnapshotStorage) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	var stale []models.SourceSnapshot
	err := s.db.Store().Find(&stale, badgerhold.Where("FetchedAt").Lt(olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to find stale snapshots: %w", err)
	}

	deleted := 0
	for _, snapshot := range stale {
		if err := s.db.Store().Delete(snapshot.Key, &models.SourceSnapshot{}); err != nil {
			s.logger.Warn().Str("key", snapshot.Key).Err(err).Msg("Failed to delete stale snapshot")
			continue
		}
		deleted++
	}

	return deleted, nil
}
