package badger

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// VariableFile represents the structure of a variable in a TOML file
// Format:
// [key_name]
// value = "some-value"
// description = "optional description"
type VariableFile struct {
	Value       string `toml:"value"`
	Description string `toml:"description"`
}

// LoadVariablesFromFiles seeds the default KV values and then loads
// variables.toml style files from the given directory. File values override
// the seeded defaults; keys already customized in the store keep their
// descriptions refreshed but are otherwise overwritten by file content.
func (m *Manager) LoadVariablesFromFiles(ctx context.Context, dirPath string) error {
	m.logger.Debug().Str("dir", dirPath).Msg("Loading variables from files")

	// Seed defaults first so a fresh store always carries the source URLs
	seeded := 0
	for _, def := range common.GetDefaultKVValues() {
		if _, err := m.kv.Get(ctx, def.Key); err == interfaces.ErrKeyNotFound {
			if _, err := m.kv.Upsert(ctx, def.Key, def.Value, def.Description); err != nil {
				m.logger.Warn().Err(err).Str("key", def.Key).Msg("Failed to seed default value")
				continue
			}
			seeded++
		}
	}
	if seeded > 0 {
		m.logger.Debug().Int("count", seeded).Msg("Seeded default KV values")
	}

	loadedCount := 0
	skippedCount := 0
	errorCount := 0

	// variables.toml directly in the configured directory
	variablesFile := filepath.Join(dirPath, "variables.toml")
	if _, err := os.Stat(variablesFile); err == nil {
		loaded, skipped, errors := m.loadVariablesFromFile(ctx, variablesFile)
		loadedCount += loaded
		skippedCount += skipped
		errorCount += errors
	}

	// Any additional .toml files in a variables/ subdirectory
	variablesDir := filepath.Join(dirPath, "variables")
	if info, err := os.Stat(variablesDir); err == nil && info.IsDir() {
		loaded, skipped, errors := m.loadVariablesFromDirectory(ctx, variablesDir)
		loadedCount += loaded
		skippedCount += skipped
		errorCount += errors
	}

	m.logger.Debug().
		Int("loaded", loadedCount).
		Int("skipped", skippedCount).
		Int("errors", errorCount).
		Msg("Finished loading variables from files")

	return nil
}

// loadVariablesFromFile loads variables from a single TOML file
func (m *Manager) loadVariablesFromFile(ctx context.Context, filePath string) (loaded, skipped, errors int) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		m.logger.Warn().Err(err).Str("file", filePath).Msg("Failed to read variable file")
		return 0, 0, 1
	}

	var variables map[string]VariableFile
	if err := toml.Unmarshal(content, &variables); err != nil {
		m.logger.Warn().Err(err).Str("file", filePath).Msg("Failed to parse variable file")
		return 0, 0, 1
	}

	fileName := filepath.Base(filePath)
	for key, variable := range variables {
		if variable.Value == "" {
			m.logger.Warn().Str("file", fileName).Str("key", key).Msg("Skipping variable with empty value")
			skipped++
			continue
		}

		description := variable.Description
		if description == "" {
			description = "Loaded from " + fileName
		}

		if _, err := m.kv.Upsert(ctx, key, variable.Value, description); err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("Failed to store variable")
			errors++
			continue
		}
		loaded++
	}

	return loaded, skipped, errors
}

// loadVariablesFromDirectory loads variables from all TOML files in a directory
func (m *Manager) loadVariablesFromDirectory(ctx context.Context, dirPath string) (loaded, skipped, errors int) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		m.logger.Warn().Err(err).Str("dir", dirPath).Msg("Failed to read variables directory")
		return 0, 0, 1
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}

		filePath := filepath.Join(dirPath, entry.Name())
		l, s, e := m.loadVariablesFromFile(ctx, filePath)
		loaded += l
		skipped += s
		errors += e
	}

	return loaded, skipped, errors
}
