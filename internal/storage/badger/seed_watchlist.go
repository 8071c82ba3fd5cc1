package badger

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/vigil/internal/models"
)

// SeedWatchlistFromFile loads a YAML seed file into the watchlist when the
// stored watchlist is empty. A missing file is not an error; an unreadable or
// malformed file is. Seeding never overwrites an existing watchlist.
func (m *Manager) SeedWatchlistFromFile(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	count, err := m.watchlist.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to check watchlist state: %w", err)
	}
	if count > 0 {
		m.logger.Debug().Int("entries", count).Msg("Watchlist already populated, skipping seed")
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug().Str("file", path).Msg("Watchlist seed file not found, skipping")
			return nil
		}
		return fmt.Errorf("failed to read watchlist seed file: %w", err)
	}

	var seed models.WatchlistSeed
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return fmt.Errorf("failed to parse watchlist seed file %s: %w", path, err)
	}

	seeded := 0
	for i := range seed.Symbols {
		entry := seed.Symbols[i]
		if entry.Symbol == "" {
			m.logger.Warn().Str("file", path).Msg("Skipping seed entry with empty symbol")
			continue
		}
		if err := m.watchlist.Add(ctx, &entry); err != nil {
			m.logger.Error().Err(err).Str("symbol", entry.Symbol).Msg("Failed to seed watchlist entry")
			continue
		}
		seeded++
	}

	m.logger.Info().Int("count", seeded).Str("file", path).Msg("Seeded watchlist from file")
	return nil
}
