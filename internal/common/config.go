package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production" - controls test URL validation
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Market      MarketConfig    `toml:"market"`
	EODHD       EODHDConfig     `toml:"eodhd"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Cache       CacheConfig     `toml:"cache"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Watchlist   WatchlistConfig `toml:"watchlist"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	PDF         PDFConfig       `toml:"pdf"`
	Variables   KeysDirConfig   `toml:"variables"` // Variables directory configuration (./keys/*.toml) for key/value pairs
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level         string   `toml:"level"`           // "debug", "info", "warn", "error"
	Format        string   `toml:"format"`          // "json" or "text"
	Output        []string `toml:"output"`          // "stdout", "file"
	TimeFormat    string   `toml:"time_format"`     // Time format for logs (default: "15:04:05.000")
	MinEventLevel string   `toml:"min_event_level"` // Minimum log level to broadcast over the log WebSocket ("debug", "info", "warn", "error")
}

// MarketConfig contains settings for fetching public market pages
// (Google Finance quote pages, StockAnalysis history/forecast/news pages).
type MarketConfig struct {
	DefaultExchange  string        `toml:"default_exchange"`  // Exchange assumed for bare symbols (default: "NASDAQ")
	UserAgent        string        `toml:"user_agent"`        // User agent sent with page requests
	RequestTimeout   time.Duration `toml:"request_timeout"`   // HTTP request timeout
	RequestDelay     time.Duration `toml:"request_delay"`     // Minimum delay between requests to the same host
	MaxBodySize      int           `toml:"max_body_size"`     // Maximum response body size in bytes
	MaxArticles      int           `toml:"max_articles"`      // Maximum news articles to fetch per symbol
	HistoryDays      int           `toml:"history_days"`      // Trading days of price history to collect
	EnableJavaScript bool          `toml:"enable_javascript"` // Render JavaScript-heavy pages with chromedp before parsing
	RenderWaitTime   time.Duration `toml:"render_wait_time"`  // Time to wait for JavaScript to render
}

// EODHDConfig contains EODHD API configuration for end-of-day price data.
type EODHDConfig struct {
	APIToken       string        `toml:"api_token"`       // EODHD API token
	BaseURL        string        `toml:"base_url"`        // API base URL (override for tests)
	RateLimit      time.Duration `toml:"rate_limit"`      // Minimum time between API requests
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
}

// GeminiConfig contains Google Gemini API configuration for narrative generation
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for narrative generation (default: "gemini-2.5-flash")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration for narrative generation
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key for Claude operations
	Model       string  `toml:"model"`       // Model for narrative generation (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "gemini" or "claude" (default: "gemini")
}

// CacheConfig controls snapshot reuse for fetched source data.
// A snapshot younger than its TTL is served from storage instead of refetching.
type CacheConfig struct {
	Enabled             bool          `toml:"enabled"`               // Enable snapshot caching (default: true)
	QuoteTTL            time.Duration `toml:"quote_ttl"`             // Quote snapshot lifetime (default: 15m)
	HistoryTTL          time.Duration `toml:"history_ttl"`           // Price history snapshot lifetime (default: 6h)
	ForecastTTL         time.Duration `toml:"forecast_ttl"`          // Analyst forecast snapshot lifetime (default: 24h)
	FinancialsTTL       time.Duration `toml:"financials_ttl"`        // Financials snapshot lifetime (default: 24h)
	NewsTTL             time.Duration `toml:"news_ttl"`              // News snapshot lifetime (default: 1h)
	UseExchangeSchedule bool          `toml:"use_exchange_schedule"` // Refresh history based on exchange close times instead of a flat TTL
}

// SchedulerConfig contains configuration for scheduled watchlist scans
type SchedulerConfig struct {
	Enabled      bool   `toml:"enabled"`        // Enable the watchlist scan scheduler
	Schedule     string `toml:"schedule"`       // Cron schedule for scans (default: "0 18 * * 1-5")
	RunOnStartup bool   `toml:"run_on_startup"` // Run a scan immediately when the server starts
}

// WatchlistConfig contains configuration for watchlist seeding
type WatchlistConfig struct {
	SeedFile string `toml:"seed_file"` // YAML file with initial watchlist entries, loaded once on first start
}

// WebSocketConfig contains configuration for WebSocket log streaming
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast ("debug", "info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Log message patterns to exclude from broadcasting
	// Whitelist of event types to broadcast via WebSocket. Empty list allows all events.
	// Example: ["analysis_started", "analysis_completed", "scan_progress"]
	AllowedEvents []string `toml:"allowed_events"`
	// Throttle intervals for high-frequency events. Map of event type to duration string.
	// Example: {"scan_progress": "1s"}
	ThrottleIntervals map[string]string `toml:"throttle_intervals"`
}

// PDFConfig contains configuration for PDF report rendering
type PDFConfig struct {
	OutputDir string `toml:"output_dir"` // Directory for generated PDF reports
	PageSize  string `toml:"page_size"`  // Page size: "A4" or "Letter" (default: "A4")
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in vigil.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development", // Default to development mode - allows test URLs
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:         "info",                     // Info level for production (debug|info|warn|error)
			Format:        "text",                     // Human-readable text format (text|json)
			Output:        []string{"stdout", "file"}, // Log to both console and file
			MinEventLevel: "info",                     // Broadcast info and above over the log WebSocket
		},
		Market: MarketConfig{
			DefaultExchange:  "NASDAQ",
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout:   30 * time.Second,
			RequestDelay:     1 * time.Second,
			MaxBodySize:      10 * 1024 * 1024, // 10MB
			MaxArticles:      10,
			HistoryDays:      25,              // Covers the 20-observation minimum the indicator engine needs
			EnableJavaScript: false,           // Google Finance and StockAnalysis serve usable HTML without rendering
			RenderWaitTime:   3 * time.Second, // Wait 3 seconds for JavaScript when rendering is enabled
		},
		EODHD: EODHDConfig{
			APIToken:       "", // User must provide API token (EODHD_API_TOKEN or config)
			BaseURL:        "https://eodhd.com/api",
			RateLimit:      1 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Gemini: GeminiConfig{
			APIKey:      "",                 // User must provide API key (GEMINI_API_KEY or config)
			Model:       "gemini-2.5-flash", // Model for narrative generation
			MaxTokens:   8192,               // Default max tokens
			Timeout:     "5m",               // 5 minutes for operations
			RateLimit:   "4s",               // Default to 4s (15 RPM) for free tier
			Temperature: 0.7,                // Default temperature
		},
		Claude: ClaudeConfig{
			APIKey:      "",                          // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022", // Model for narrative generation
			MaxTokens:   8192,                        // Default max tokens
			Timeout:     "5m",                        // 5 minutes for operations
			RateLimit:   "1s",                        // Default rate limit
			Temperature: 0.7,                         // Default temperature
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Cache: CacheConfig{
			Enabled:             true,
			QuoteTTL:            15 * time.Minute,
			HistoryTTL:          6 * time.Hour,
			ForecastTTL:         24 * time.Hour,
			FinancialsTTL:       24 * time.Hour,
			NewsTTL:             1 * time.Hour,
			UseExchangeSchedule: true, // Refresh history when the exchange publishes a new close
		},
		Scheduler: SchedulerConfig{
			Enabled:      false,          // Disabled by default - user must explicitly opt-in
			Schedule:     "0 18 * * 1-5", // 6pm on weekdays, after US market close
			RunOnStartup: false,
		},
		Watchlist: WatchlistConfig{
			SeedFile: "", // No seed file by default
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info", // Default: info level and above
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
				"Publishing Event",
			},
			// Empty AllowedEvents allows all events
			AllowedEvents: []string{},
			// Throttle high-frequency events to prevent WebSocket flooding during watchlist scans
			ThrottleIntervals: map[string]string{
				"scan_progress": "1s", // Max 1 scan progress update per second
			},
		},
		PDF: PDFConfig{
			OutputDir: "./data/reports",
			PageSize:  "A4",
		},
		Variables: KeysDirConfig{
			Dir: "./", // Default directory for variables.toml file
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
// Priority system: CLI flags > Environment variables > Config file > Defaults
// kvStorage can be nil for backward compatibility (replacement will be skipped)
func LoadFromFile(kvStorage interfaces.KeyValueStorage, path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles(kvStorage)
	}
	return LoadFromFiles(kvStorage, path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env -> CLI
// Later files override earlier files. Priority system: CLI flags > Environment variables > Last config file > ... > First config file > Defaults
// Example: LoadFromFiles(kvStorage, "base.toml", "override.toml") - override.toml settings take precedence over base.toml
// kvStorage can be nil for backward compatibility (replacement will be skipped)
func LoadFromFiles(kvStorage interfaces.KeyValueStorage, paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Perform {key-name} replacement if KV storage is available
	if kvStorage != nil {
		ctx := context.Background()
		kvMap, err := kvStorage.GetAll(ctx)
		if err != nil {
			// Log warning and skip replacement (graceful degradation)
			logger := arbor.NewLogger()
			logger.Warn().Err(err).Msg("Failed to fetch KV map for config replacement, skipping replacement")
		} else {
			// Replace in config struct
			logger := arbor.NewLogger()
			if err := ReplaceInStruct(config, kvMap, logger); err != nil {
				logger.Warn().Err(err).Msg("Failed to replace key references in config")
			} else {
				logger.Info().Int("keys", len(kvMap)).Msg("Applied key/value replacements to config")
			}
		}
	}

	// Apply environment variables (overrides all file configs and replacements)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: VIGIL_ENV, fallback: GO_ENV)
	if env := os.Getenv("VIGIL_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("VIGIL_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VIGIL_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("VIGIL_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("VIGIL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("VIGIL_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("VIGIL_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if minEventLevel := os.Getenv("VIGIL_LOG_MIN_EVENT_LEVEL"); minEventLevel != "" {
		config.Logging.MinEventLevel = minEventLevel
	}

	// Market configuration
	if defaultExchange := os.Getenv("VIGIL_MARKET_DEFAULT_EXCHANGE"); defaultExchange != "" {
		config.Market.DefaultExchange = defaultExchange
	}
	if userAgent := os.Getenv("VIGIL_MARKET_USER_AGENT"); userAgent != "" {
		config.Market.UserAgent = userAgent
	}
	if requestTimeout := os.Getenv("VIGIL_MARKET_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Market.RequestTimeout = rt
		}
	}
	if requestDelay := os.Getenv("VIGIL_MARKET_REQUEST_DELAY"); requestDelay != "" {
		if rd, err := time.ParseDuration(requestDelay); err == nil {
			config.Market.RequestDelay = rd
		}
	}
	if maxBodySize := os.Getenv("VIGIL_MARKET_MAX_BODY_SIZE"); maxBodySize != "" {
		if mbs, err := strconv.Atoi(maxBodySize); err == nil {
			config.Market.MaxBodySize = mbs
		}
	}
	if maxArticles := os.Getenv("VIGIL_MARKET_MAX_ARTICLES"); maxArticles != "" {
		if ma, err := strconv.Atoi(maxArticles); err == nil {
			config.Market.MaxArticles = ma
		}
	}
	if historyDays := os.Getenv("VIGIL_MARKET_HISTORY_DAYS"); historyDays != "" {
		if hd, err := strconv.Atoi(historyDays); err == nil {
			config.Market.HistoryDays = hd
		}
	}
	if enableJavaScript := os.Getenv("VIGIL_MARKET_ENABLE_JAVASCRIPT"); enableJavaScript != "" {
		if ej, err := strconv.ParseBool(enableJavaScript); err == nil {
			config.Market.EnableJavaScript = ej
		}
	}
	if renderWaitTime := os.Getenv("VIGIL_MARKET_RENDER_WAIT_TIME"); renderWaitTime != "" {
		if rwt, err := time.ParseDuration(renderWaitTime); err == nil {
			config.Market.RenderWaitTime = rwt
		}
	}

	// EODHD configuration
	// Prefixed env var takes priority, then the conventional unprefixed name
	if apiToken := os.Getenv("VIGIL_EODHD_API_TOKEN"); apiToken != "" {
		config.EODHD.APIToken = apiToken
	} else if apiToken := os.Getenv("EODHD_API_TOKEN"); apiToken != "" {
		config.EODHD.APIToken = apiToken
	}
	if baseURL := os.Getenv("VIGIL_EODHD_BASE_URL"); baseURL != "" {
		config.EODHD.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("VIGIL_EODHD_RATE_LIMIT"); rateLimit != "" {
		if rl, err := time.ParseDuration(rateLimit); err == nil {
			config.EODHD.RateLimit = rl
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("VIGIL_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("VIGIL_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if maxTokens := os.Getenv("VIGIL_GEMINI_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Gemini.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("VIGIL_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("VIGIL_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("VIGIL_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("VIGIL_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // VIGIL_ prefix takes priority
	}
	if model := os.Getenv("VIGIL_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("VIGIL_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("VIGIL_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("VIGIL_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("VIGIL_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("VIGIL_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Cache configuration
	if enabled := os.Getenv("VIGIL_CACHE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Cache.Enabled = e
		}
	}
	if quoteTTL := os.Getenv("VIGIL_CACHE_QUOTE_TTL"); quoteTTL != "" {
		if ttl, err := time.ParseDuration(quoteTTL); err == nil {
			config.Cache.QuoteTTL = ttl
		}
	}
	if historyTTL := os.Getenv("VIGIL_CACHE_HISTORY_TTL"); historyTTL != "" {
		if ttl, err := time.ParseDuration(historyTTL); err == nil {
			config.Cache.HistoryTTL = ttl
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("VIGIL_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("VIGIL_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
	if runOnStartup := os.Getenv("VIGIL_SCHEDULER_RUN_ON_STARTUP"); runOnStartup != "" {
		if r, err := strconv.ParseBool(runOnStartup); err == nil {
			config.Scheduler.RunOnStartup = r
		}
	}

	// Watchlist configuration
	if seedFile := os.Getenv("VIGIL_WATCHLIST_SEED_FILE"); seedFile != "" {
		config.Watchlist.SeedFile = seedFile
	}

	// WebSocket configuration
	if minLevel := os.Getenv("VIGIL_WEBSOCKET_MIN_LEVEL"); minLevel != "" {
		config.WebSocket.MinLevel = minLevel
	}
	if excludePatterns := os.Getenv("VIGIL_WEBSOCKET_EXCLUDE_PATTERNS"); excludePatterns != "" {
		// Split comma-separated patterns
		patterns := []string{}
		for _, p := range splitString(excludePatterns, ",") {
			trimmed := trimSpace(p)
			if trimmed != "" {
				patterns = append(patterns, trimmed)
			}
		}
		if len(patterns) > 0 {
			config.WebSocket.ExcludePatterns = patterns
		}
	}
	if allowedEvents := os.Getenv("VIGIL_WEBSOCKET_ALLOWED_EVENTS"); allowedEvents != "" {
		// Split comma-separated event types
		events := []string{}
		for _, e := range splitString(allowedEvents, ",") {
			trimmed := trimSpace(e)
			if trimmed != "" {
				events = append(events, trimmed)
			}
		}
		if len(events) > 0 {
			config.WebSocket.AllowedEvents = events
		}
	}
	if scanProgressThrottle := os.Getenv("VIGIL_WEBSOCKET_THROTTLE_SCAN_PROGRESS"); scanProgressThrottle != "" {
		// Parse duration string (e.g., "2s", "1500ms")
		if _, err := time.ParseDuration(scanProgressThrottle); err == nil {
			if config.WebSocket.ThrottleIntervals == nil {
				config.WebSocket.ThrottleIntervals = make(map[string]string)
			}
			config.WebSocket.ThrottleIntervals["scan_progress"] = scanProgressThrottle
		}
	}

	// PDF configuration
	if outputDir := os.Getenv("VIGIL_PDF_OUTPUT_DIR"); outputDir != "" {
		config.PDF.OutputDir = outputDir
	}
	if pageSize := os.Getenv("VIGIL_PDF_PAGE_SIZE"); pageSize != "" {
		config.PDF.PageSize = pageSize
	}

	// Variables configuration
	if variablesDir := os.Getenv("VIGIL_VARIABLES_DIR"); variablesDir != "" {
		config.Variables.Dir = variablesDir
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority
// Resolution order: environment variables → KV store → config fallback → error
// This ensures VIGIL_* environment variables always take precedence
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	// Map of KV store key names to environment variable names
	// Environment variables have highest priority
	// Order: prefixed name first, then the conventional unprefixed name
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"VIGIL_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"google_api_key":    {"VIGIL_GEMINI_API_KEY", "GEMINI_API_KEY"}, // Legacy KV store key
		"anthropic_api_key": {"VIGIL_CLAUDE_API_KEY"},
		"claude_api_key":    {"VIGIL_CLAUDE_API_KEY"},
		"eodhd_api_token":   {"VIGIL_EODHD_API_TOKEN", "EODHD_API_TOKEN"},
	}

	// For Claude, also check the standard ANTHROPIC_API_KEY env var
	if name == "anthropic_api_key" || name == "claude_api_key" {
		if envValue := os.Getenv("ANTHROPIC_API_KEY"); envValue != "" {
			return envValue, nil
		}
	}

	// Check environment variables (highest priority, try prefixed names first)
	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Try to resolve from KV store (medium priority - file-based variables)
	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	// Fallback to config value (lowest priority)
	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// ValidateScanSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateScanSchedule(schedule string) error {
	// Parse the cron expression
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	// Check for minimum 5-minute interval
	// Validate minute field (first field in standard cron)
	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	// Check for patterns that violate 5-minute minimum
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	// Check for */n patterns where n < 5
	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// AllowTestURLs returns true if test URLs (localhost, 127.0.0.1, etc.) are allowed
// Test URLs are only allowed in development mode
func (c *Config) AllowTestURLs() bool {
	return !c.IsProduction()
}
