// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"

	"github.com/ternarybob/vigil/internal/models"
)

// CacheService provides snapshot freshness checking and reuse.
// Used by the analysis pipeline to skip refetching source data that is still
// within its freshness window.
type CacheService interface {
	// Load unmarshals a fresh cached payload for symbol/kind into out.
	// Returns false when no snapshot exists, the snapshot is stale, or the
	// payload cannot be decoded; misses are never errors.
	Load(ctx context.Context, symbol string, kind models.SnapshotKind, out interface{}) bool

	// Store marshals payload and persists it as the snapshot for symbol/kind.
	Store(ctx context.Context, symbol string, kind models.SnapshotKind, payload interface{}) error
}
