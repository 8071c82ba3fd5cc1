// Package cache provides snapshot freshness checking for fetched source data.
// A snapshot younger than its TTL is served from storage instead of refetching.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/eodhd"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// ExchangeMetadataProvider supplies exchange trading-schedule metadata for
// schedule-aware history freshness. The EODHD client satisfies this.
type ExchangeMetadataProvider interface {
	GetExchangeMetadata(ctx context.Context, exchangeCode string) (*eodhd.ExchangeMetadata, error)
}

// Service implements CacheService over snapshot storage.
type Service struct {
	snapshots interfaces.SnapshotStorage
	config    *common.CacheConfig
	exchange  ExchangeMetadataProvider
	logger    arbor.ILogger

	mu       sync.Mutex
	metadata map[string]*eodhd.ExchangeMetadata
}

// NewService creates a new cache service. The exchange provider may be nil;
// history freshness then falls back to the flat TTL.
func NewService(snapshots interfaces.SnapshotStorage, config *common.CacheConfig, exchange ExchangeMetadataProvider, logger arbor.ILogger) *Service {
	return &Service{
		snapshots: snapshots,
		config:    config,
		exchange:  exchange,
		logger:    logger,
		metadata:  make(map[string]*eodhd.ExchangeMetadata),
	}
}

// ttlFor returns the freshness window for a snapshot kind.
func (s *Service) ttlFor(kind models.SnapshotKind) time.Duration {
	switch kind {
	case models.SnapshotQuote:
		return s.config.QuoteTTL
	case models.SnapshotHistory:
		return s.config.HistoryTTL
	case models.SnapshotForecast:
		return s.config.ForecastTTL
	case models.SnapshotFinancials:
		return s.config.FinancialsTTL
	case models.SnapshotNews:
		return s.config.NewsTTL
	default:
		return 0
	}
}

// Load unmarshals a fresh cached payload for symbol/kind into out. Returns
// false when caching is disabled, no snapshot exists, the snapshot is stale,
// or the payload cannot be decoded; misses are never errors.
func (s *Service) Load(ctx context.Context, symbol string, kind models.SnapshotKind, out interface{}) bool {
	if !s.config.Enabled {
		return false
	}

	snapshot, err := s.snapshots.Get(ctx, symbol, kind)
	if err != nil {
		return false
	}

	if !s.isFresh(ctx, symbol, kind, snapshot.FetchedAt) {
		return false
	}

	if err := json.Unmarshal(snapshot.Payload, out); err != nil {
		s.logger.Warn().
			Err(err).
			Str("symbol", symbol).
			Str("kind", string(kind)).
			Msg("Failed to decode cached snapshot, refetching")
		return false
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Str("kind", string(kind)).
		Str("fetched_at", snapshot.FetchedAt.Format(time.RFC3339)).
		Msg("Serving snapshot from cache")
	return true
}

// Store marshals payload and persists it as the snapshot for symbol/kind.
func (s *Service) Store(ctx context.Context, symbol string, kind models.SnapshotKind, payload interface{}) error {
	if !s.config.Enabled {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return s.snapshots.Save(ctx, &models.SourceSnapshot{
		Symbol:    symbol,
		Kind:      kind,
		Payload:   data,
		FetchedAt: time.Now(),
	})
}

// isFresh decides whether a snapshot fetched at fetchedAt can still be served.
// History snapshots prefer the exchange trading schedule when configured:
// data fetched after the latest close (plus publication delay) stays fresh
// until the next close, regardless of the flat TTL.
func (s *Service) isFresh(ctx context.Context, symbol string, kind models.SnapshotKind, fetchedAt time.Time) bool {
	if kind == models.SnapshotHistory && s.config.UseExchangeSchedule && s.exchange != nil {
		if metadata := s.exchangeMetadata(ctx, symbol); metadata != nil {
			result := common.CheckTickerStaleness(fetchedAt, time.Now(), metadata)
			s.logger.Debug().
				Str("symbol", symbol).
				Bool("stale", result.IsStale).
				Str("reason", result.Reason).
				Msg("Exchange-schedule staleness check")
			return !result.IsStale
		}
	}

	ttl := s.ttlFor(kind)
	if ttl <= 0 {
		return false
	}
	return time.Since(fetchedAt) < ttl
}

// exchangeMetadata fetches and memoizes exchange metadata for the symbol's
// exchange. A fetch failure degrades to nil (flat TTL) rather than an error.
func (s *Service) exchangeMetadata(ctx context.Context, symbol string) *eodhd.ExchangeMetadata {
	code := common.ParseTicker(symbol).DetailsExchangeCode()

	s.mu.Lock()
	cached, ok := s.metadata[code]
	s.mu.Unlock()
	if ok {
		return cached
	}

	metadata, err := s.exchange.GetExchangeMetadata(ctx, code)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("exchange", code).
			Msg("Failed to fetch exchange metadata, using flat TTL")
		return nil
	}

	s.mu.Lock()
	s.metadata[code] = metadata
	s.mu.Unlock()
	return metadata
}
