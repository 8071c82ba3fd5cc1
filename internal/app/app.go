package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/handlers"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/services/analysis"
	"github.com/ternarybob/vigil/internal/services/cache"
	"github.com/ternarybob/vigil/internal/services/events"
	"github.com/ternarybob/vigil/internal/services/llm"
	"github.com/ternarybob/vigil/internal/services/pdf"
	"github.com/ternarybob/vigil/internal/services/scheduler"
	"github.com/ternarybob/vigil/internal/sources"
	"github.com/ternarybob/vigil/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	EventService   interfaces.EventService

	Sources          *sources.Registry
	LLMService       interfaces.LLMService
	CacheService     interfaces.CacheService
	AnalysisService  *analysis.Service
	PDFService       interfaces.PDFService
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	AnalysisHandler  *handlers.AnalysisHandler
	AgentsHandler    *handlers.AgentsHandler
	WatchlistHandler *handlers.WatchlistHandler
	ReportsHandler   *handlers.ReportsHandler
	SchedulerHandler *handlers.SchedulerHandler
	WSHandler        *handlers.WebSocketHandler

	logStreamer *handlers.LogStreamer
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	common.SetDefaultExchange(cfg.Market.DefaultExchange)

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// WebSocket handler must exist before the log streamer so log broadcasts
	// have somewhere to go.
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger, &app.Config.WebSocket)

	app.logStreamer = handlers.NewLogStreamer(app.WSHandler, app.Logger, &app.Config.WebSocket)
	app.logStreamer.Start()
	app.Logger.SetChannel("websocket", app.logStreamer.Channel())

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("llm_provider", app.LLMService.Provider()).
		Str("llm_model", app.LLMService.Model()).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = manager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	ctx := context.Background()

	// Load variables from files (e.g. API keys) before config replacement so
	// loaded values can be referenced.
	if err := a.StorageManager.LoadVariablesFromFiles(ctx, a.Config.Variables.Dir); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load variables from files")
	}

	// Replace {key-name} references in config values with KV store values.
	// Must happen before the LLM and source services read their config.
	kvMap, err := a.StorageManager.KVStorage().GetAll(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to fetch KV map for config replacement, skipping replacement")
	} else if len(kvMap) > 0 {
		if err := common.ReplaceInStruct(a.Config, kvMap, a.Logger); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to replace key references in config")
		} else {
			a.Logger.Debug().Int("keys", len(kvMap)).Msg("Applied key/value replacements to config")
		}
	}

	if a.Config.Watchlist.SeedFile != "" {
		if err := a.StorageManager.SeedWatchlistFromFile(ctx, a.Config.Watchlist.SeedFile); err != nil {
			a.Logger.Warn().Err(err).Str("file", a.Config.Watchlist.SeedFile).Msg("Failed to seed watchlist")
		}
	}

	return nil
}

// initServices initializes all business services in dependency order.
func (a *App) initServices() error {
	ctx := context.Background()

	a.Sources = sources.NewRegistry(ctx, a.Config, a.StorageManager.KVStorage(), a.Logger)
	a.Logger.Debug().Msg("Source registry initialized")

	llmService, err := llm.NewLLMService(a.Config, a.StorageManager.KVStorage(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	a.LLMService = llmService
	a.Logger.Debug().
		Str("provider", llmService.Provider()).
		Str("model", llmService.Model()).
		Msg("LLM service initialized")

	// Typed-nil guard: ExchangeMetadata returns a concrete client pointer.
	var exchange cache.ExchangeMetadataProvider
	if client := a.Sources.ExchangeMetadata(); client != nil {
		exchange = client
	}
	a.CacheService = cache.NewService(a.StorageManager.SnapshotStorage(), &a.Config.Cache, exchange, a.Logger)
	a.Logger.Debug().Bool("enabled", a.Config.Cache.Enabled).Msg("Snapshot cache initialized")

	a.AnalysisService = analysis.NewService(
		a.Sources,
		a.LLMService,
		a.StorageManager,
		a.CacheService,
		a.EventService,
		a.Config,
		a.Logger,
	)
	a.Logger.Debug().Msg("Analysis service initialized")

	a.PDFService = pdf.NewService(&a.Config.PDF, a.Logger)

	a.SchedulerService = scheduler.NewService(
		a.AnalysisService,
		a.StorageManager,
		a.EventService,
		&a.Config.Scheduler,
		a.Logger,
	)
	if err := a.SchedulerService.Start(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to start scheduler service")
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.AnalysisHandler = handlers.NewAnalysisHandler(a.AnalysisService, a.PDFService, a.StorageManager, a.Logger)
	a.AgentsHandler = handlers.NewAgentsHandler(a.AnalysisService, a.Logger)
	a.WatchlistHandler = handlers.NewWatchlistHandler(a.StorageManager, a.Logger)
	a.ReportsHandler = handlers.NewReportsHandler(a.StorageManager, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService)
}

// Close closes all application resources in reverse dependency order.
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.Sources != nil {
		a.Sources.Close()
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.logStreamer != nil {
		a.logStreamer.Stop()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
