package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

// memSnapshots is an in-memory SnapshotStorage for tests.
type memSnapshots struct {
	snapshots map[string]*models.SourceSnapshot
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{snapshots: make(map[string]*models.SourceSnapshot)}
}

func (m *memSnapshots) Save(ctx context.Context, snapshot *models.SourceSnapshot) error {
	snapshot.Key = models.SnapshotKey(snapshot.Symbol, snapshot.Kind)
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now()
	}
	m.snapshots[snapshot.Key] = snapshot
	return nil
}

func (m *memSnapshots) Get(ctx context.Context, symbol string, kind models.SnapshotKind) (*models.SourceSnapshot, error) {
	snapshot, ok := m.snapshots[models.SnapshotKey(symbol, kind)]
	if !ok {
		return nil, fmt.Errorf("snapshot not found")
	}
	return snapshot, nil
}

func (m *memSnapshots) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	return 0, nil
}

func testConfig() *common.CacheConfig {
	return &common.CacheConfig{
		Enabled:    true,
		QuoteTTL:   15 * time.Minute,
		HistoryTTL: 6 * time.Hour,
		NewsTTL:    time.Hour,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	svc := NewService(newMemSnapshots(), testConfig(), nil, arbor.NewLogger())
	ctx := context.Background()

	quote := &models.Quote{Symbol: "AAPL", Price: "150.00"}
	require.NoError(t, svc.Store(ctx, "AAPL", models.SnapshotQuote, quote))

	var got models.Quote
	require.True(t, svc.Load(ctx, "AAPL", models.SnapshotQuote, &got))
	assert.Equal(t, "150.00", got.Price)
}

func TestCacheMissWhenAbsent(t *testing.T) {
	svc := NewService(newMemSnapshots(), testConfig(), nil, arbor.NewLogger())

	var got models.Quote
	assert.False(t, svc.Load(context.Background(), "AAPL", models.SnapshotQuote, &got))
}

func TestCacheMissWhenStale(t *testing.T) {
	store := newMemSnapshots()
	svc := NewService(store, testConfig(), nil, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.SourceSnapshot{
		Symbol:    "AAPL",
		Kind:      models.SnapshotQuote,
		Payload:   []byte(`{"symbol":"AAPL"}`),
		FetchedAt: time.Now().Add(-time.Hour),
	}))

	var got models.Quote
	assert.False(t, svc.Load(ctx, "AAPL", models.SnapshotQuote, &got))
}

func TestCacheDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	store := newMemSnapshots()
	svc := NewService(store, cfg, nil, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, svc.Store(ctx, "AAPL", models.SnapshotQuote, &models.Quote{Symbol: "AAPL"}))
	assert.Empty(t, store.snapshots, "disabled cache stores nothing")

	var got models.Quote
	assert.False(t, svc.Load(ctx, "AAPL", models.SnapshotQuote, &got))
}
