package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/vigil/internal/models"
)

// ReportStorage - interface for analysis report persistence
type ReportStorage interface {
	// SaveReport stores a report under its ID
	SaveReport(ctx context.Context, report *models.AnalysisReport) error

	// GetReport retrieves a report by ID
	GetReport(ctx context.Context, id string) (*models.AnalysisReport, error)

	// GetReportsBySymbol returns reports for a symbol ordered by CreatedAt desc
	GetReportsBySymbol(ctx context.Context, symbol string, limit, offset int) ([]*models.AnalysisReport, error)

	// GetLatestReport returns the most recent report for a symbol
	GetLatestReport(ctx context.Context, symbol string) (*models.AnalysisReport, error)

	// CountReportsBySymbol returns the number of stored reports for a symbol
	CountReportsBySymbol(ctx context.Context, symbol string) (int, error)

	// PruneReports deletes reports created before the cutoff, returns count deleted
	PruneReports(ctx context.Context, olderThan time.Time) (int, error)
}

// WatchlistStorage - interface for watchlist persistence
type WatchlistStorage interface {
	// Add inserts or updates a watchlist entry
	Add(ctx context.Context, entry *models.WatchlistEntry) error

	// Get retrieves an entry by symbol
	Get(ctx context.Context, symbol string) (*models.WatchlistEntry, error)

	// List returns all entries ordered by symbol
	List(ctx context.Context) ([]*models.WatchlistEntry, error)

	// Remove deletes an entry by symbol
	Remove(ctx context.Context, symbol string) error

	// MarkScanned records the scan time and resulting risk level for a symbol
	MarkScanned(ctx context.Context, symbol string, at time.Time, risk string) error

	// Count returns the number of watchlist entries
	Count(ctx context.Context) (int, error)
}

// SnapshotStorage - interface for cached source payloads
type SnapshotStorage interface {
	// Save stores a snapshot, replacing any existing one for the same symbol/kind
	Save(ctx context.Context, snapshot *models.SourceSnapshot) error

	// Get retrieves the snapshot for a symbol/kind, or an error when absent
	Get(ctx context.Context, symbol string, kind models.SnapshotKind) (*models.SourceSnapshot, error)

	// Prune deletes snapshots fetched before the cutoff, returns count deleted
	Prune(ctx context.Context, olderThan time.Time) (int, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	ReportStorage() ReportStorage
	WatchlistStorage() WatchlistStorage
	SnapshotStorage() SnapshotStorage
	KVStorage() KeyValueStorage

	// LoadVariablesFromFiles seeds default KV values and loads variables.toml
	// style files from the given directory into the KV store
	LoadVariablesFromFiles(ctx context.Context, dirPath string) error

	// SeedWatchlistFromFile loads a YAML seed file into the watchlist when the
	// stored watchlist is empty; a missing file is not an error
	SeedWatchlistFromFile(ctx context.Context, path string) error

	Close() error
}
