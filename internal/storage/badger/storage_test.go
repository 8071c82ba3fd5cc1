package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()

	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "badger"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return manager
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestReportStorageRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	store := manager.ReportStorage()

	report := &models.AnalysisReport{
		ID:        "r-1",
		Symbol:    "aapl",
		RiskLevel: models.RiskLevelLow,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.SaveReport(ctx, report))

	got, err := store.GetReport(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol, "symbol is normalized to uppercase on save")
	assert.Equal(t, models.RiskLevelLow, got.RiskLevel)

	_, err = store.GetReport(ctx, "missing")
	assert.Error(t, err)
}

func TestReportStorageOrdersBySymbolAndTime(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	store := manager.ReportStorage()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.SaveReport(ctx, &models.AnalysisReport{
			ID:        id,
			Symbol:    "MSFT",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.SaveReport(ctx, &models.AnalysisReport{
		ID:        "other",
		Symbol:    "AAPL",
		CreatedAt: time.Now(),
	}))

	reports, err := store.GetReportsBySymbol(ctx, "MSFT", 2, 0)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "new", reports[0].ID, "most recent report first")
	assert.Equal(t, "mid", reports[1].ID)

	latest, err := store.GetLatestReport(ctx, "msft")
	require.NoError(t, err)
	assert.Equal(t, "new", latest.ID)

	count, err := store.CountReportsBySymbol(ctx, "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestReportStoragePrune(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	store := manager.ReportStorage()

	require.NoError(t, store.SaveReport(ctx, &models.AnalysisReport{
		ID: "stale", Symbol: "AAPL", CreatedAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, store.SaveReport(ctx, &models.AnalysisReport{
		ID: "fresh", Symbol: "AAPL", CreatedAt: time.Now(),
	}))

	deleted, err := store.PruneReports(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = store.GetReport(ctx, "stale")
	assert.Error(t, err)
	_, err = store.GetReport(ctx, "fresh")
	assert.NoError(t, err)
}

func TestWatchlistStorage(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	store := manager.WatchlistStorage()

	require.NoError(t, store.Add(ctx, &models.WatchlistEntry{Symbol: "msft", CompanyName: "Microsoft"}))
	require.NoError(t, store.Add(ctx, &models.WatchlistEntry{Symbol: "AAPL"}))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "AAPL", entries[0].Symbol, "entries ordered by symbol")
	assert.Equal(t, "MSFT", entries[1].Symbol)

	scannedAt := time.Now()
	require.NoError(t, store.MarkScanned(ctx, "AAPL", scannedAt, models.RiskLevelHigh))

	entry, err := store.Get(ctx, "aapl")
	require.NoError(t, err)
	require.NotNil(t, entry.LastScanned)
	assert.Equal(t, models.RiskLevelHigh, entry.LastRisk)

	require.NoError(t, store.Remove(ctx, "MSFT"))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Error(t, store.Remove(ctx, "MSFT"), "removing an absent entry errors")
}

func TestSnapshotStorage(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	store := manager.SnapshotStorage()

	require.NoError(t, store.Save(ctx, &models.SourceSnapshot{
		Symbol:  "AAPL",
		Kind:    models.SnapshotQuote,
		Payload: []byte(`{"price":"150.00"}`),
	}))

	snapshot, err := store.Get(ctx, "AAPL", models.SnapshotQuote)
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotKey("AAPL", models.SnapshotQuote), snapshot.Key)
	assert.False(t, snapshot.FetchedAt.IsZero())

	// Replacing the same symbol/kind keeps one record
	require.NoError(t, store.Save(ctx, &models.SourceSnapshot{
		Symbol:  "AAPL",
		Kind:    models.SnapshotQuote,
		Payload: []byte(`{"price":"151.00"}`),
	}))
	snapshot, err = store.Get(ctx, "AAPL", models.SnapshotQuote)
	require.NoError(t, err)
	assert.Contains(t, string(snapshot.Payload), "151.00")

	_, err = store.Get(ctx, "AAPL", models.SnapshotNews)
	assert.Error(t, err)
}

func TestKVStorage(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	store := manager.KVStorage()

	created, err := store.Upsert(ctx, "EODHD_API_Token", "secret", "test token")
	require.NoError(t, err)
	assert.True(t, created)

	// Keys are case-insensitive
	value, err := store.Get(ctx, "eodhd_api_token")
	require.NoError(t, err)
	assert.Equal(t, "secret", value)

	created, err = store.Upsert(ctx, "eodhd_api_token", "rotated", "")
	require.NoError(t, err)
	assert.False(t, created)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated", all["eodhd_api_token"])

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestSeedWatchlistFromFile(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	// Missing file is not an error
	require.NoError(t, manager.SeedWatchlistFromFile(ctx, filepath.Join(t.TempDir(), "absent.yaml")))

	seedFile := filepath.Join(t.TempDir(), "watchlist.yaml")
	writeFile(t, seedFile, `symbols:
  - symbol: AAPL
    company_name: Apple Inc.
  - symbol: MSFT
`)
	require.NoError(t, manager.SeedWatchlistFromFile(ctx, seedFile))

	count, err := manager.WatchlistStorage().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// A second seed never overwrites a populated watchlist
	require.NoError(t, manager.WatchlistStorage().Remove(ctx, "MSFT"))
	require.NoError(t, manager.SeedWatchlistFromFile(ctx, seedFile))
	count, err = manager.WatchlistStorage().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
