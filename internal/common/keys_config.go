package common

// KeysDirConfig contains configuration for key/value file loading.
// Variables files hold API tokens and base URL overrides that are seeded
// into the key/value store on startup.
type KeysDirConfig struct {
	// Dir is the directory containing key/value files in TOML format
	// Each TOML file has [section-name] entries with 'value' and optional 'description' fields
	// Default: ./
	Dir string `toml:"dir"`
}
