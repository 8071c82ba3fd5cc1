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

// WatchlistStorage implements the WatchlistStorage interface for Badger
type WatchlistStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewWatchlistStorage creates a new WatchlistStorage instance
func NewWatchlistStorage(db *BadgerDB, logger arbor.ILogger) interfaces.WatchlistStorage {
	return &WatchlistStorage{
		db:     db,
		logger: logger,
	}
}

// Add inserts or updates a watchlist entry
func (s *WatchlistStorage) Add(ctx context.Context, entry *models.WatchlistEntry) error {
	if entry.Symbol == "" {
		return fmt.Errorf("watchlist symbol is required")
	}

	entry.Symbol = strings.ToUpper(entry.Symbol)
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}

	// Preserve scan history when the entry already exists
	var existing models.WatchlistEntry
	if err := s.db.Store().Get(entry.Symbol, &existing); err == nil {
		entry.AddedAt = existing.AddedAt
		if entry.LastScanned == nil {
			entry.LastScanned = existing.LastScanned
			entry.LastRisk = existing.LastRisk
		}
	}

	if err := s.db.Store().Upsert(entry.Symbol, entry); err != nil {
		return fmt.Errorf("failed to save watchlist entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by symbol
func (s *WatchlistStorage) Get(ctx context.Context, symbol string) (*models.WatchlistEntry, error) {
	var entry models.WatchlistEntry
	if err := s.db.Store().Get(strings.ToUpper(symbol), &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("watchlist entry not found: %s", strings.ToUpper(symbol))
		}
		return nil, fmt.Errorf("failed to get watchlist entry: %w", err)
	}
	return &entry, nil
}

// List returns all entries ordered by symbol
func (s *WatchlistStorage) List(ctx context.Context) ([]*models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry
	if err := s.db.Store().Find(&entries, badgerhold.Where("Symbol").Ne("").SortBy("Symbol")); err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}

	result := make([]*models.WatchlistEntry, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}
	return result, nil
}

// Remove deletes an entry by symbol
func (s *WatchlistStorage) Remove(ctx context.Context, symbol string) error {
	err := s.db.Store().Delete(strings.ToUpper(symbol), &models.WatchlistEntry{})
	if err == badgerhold.ErrNotFound {
		return fmt.Errorf("watchlist entry not found: %s", strings.ToUpper(symbol))
	}
	if err != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
	}
	return nil
}

// MarkScanned records the scan time and resulting risk level for a symbol
func (s *WatchlistStorage) MarkScanned(ctx context.Context, symbol string, at time.Time, risk string) error {
	entry, err := s.Get(ctx, symbol)
	if err != nil {
		return err
	}

	entry.LastScanned = &at
	entry.LastRisk = risk

	if err := s.db.Store().Upsert(entry.Symbol, entry); err != nil {
		return fmt.Errorf("failed to mark watchlist entry scanned: %w", err)
	}
	return nil
}

// Count returns the number of watchlist entries
func (s *WatchlistStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.WatchlistEntry{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count watchlist: %w", err)
	}
	return int(count), nil
}
