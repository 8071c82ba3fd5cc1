package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/indicators"
	"github.com/ternarybob/vigil/internal/services/analysis"
	"github.com/ternarybob/vigil/internal/services/cache"
	"github.com/ternarybob/vigil/internal/services/events"
	"github.com/ternarybob/vigil/internal/services/llm"
	"github.com/ternarybob/vigil/internal/sources"
	"github.com/ternarybob/vigil/internal/storage/badger"
)

func main() {
	configPath := os.Getenv("VIGIL_CONFIG")
	if configPath == "" {
		configPath = "vigil.toml"
	}

	// KV replacement happens after storage comes up, so nil here.
	config, err := common.LoadFromFile(nil, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Console-only warn logger so stdio stays clean for the MCP protocol.
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	common.SetDefaultExchange(config.Market.DefaultExchange)

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	ctx := context.Background()
	if err := storageManager.LoadVariablesFromFiles(ctx, config.Variables.Dir); err != nil {
		logger.Warn().Err(err).Msg("Failed to load variables from files")
	}
	if kvMap, err := storageManager.KVStorage().GetAll(ctx); err == nil && len(kvMap) > 0 {
		if err := common.ReplaceInStruct(config, kvMap, logger); err != nil {
			logger.Warn().Err(err).Msg("Failed to replace key references in config")
		}
	}

	registry := sources.NewRegistry(ctx, config, storageManager.KVStorage(), logger)
	defer registry.Close()

	llmService, err := llm.NewLLMService(config, storageManager.KVStorage(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize LLM service")
	}

	var exchange cache.ExchangeMetadataProvider
	if client := registry.ExchangeMetadata(); client != nil {
		exchange = client
	}
	cacheService := cache.NewService(storageManager.SnapshotStorage(), &config.Cache, exchange, logger)

	eventService := events.NewService(logger)
	defer eventService.Close()

	analysisService := analysis.NewService(
		registry,
		llmService,
		storageManager,
		cacheService,
		eventService,
		config,
		logger,
	)

	engine := indicators.NewEngine(indicators.DefaultConfig())

	mcpServer := server.NewMCPServer(
		"vigil",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createAnalyzeStockTool(), handleAnalyzeStock(analysisService, logger))
	mcpServer.AddTool(createGetQuoteTool(), handleGetQuote(registry, logger))
	mcpServer.AddTool(createDetectAnomaliesTool(), handleDetectAnomalies(registry, engine, config.Market.HistoryDays, logger))
	mcpServer.AddTool(createGetLatestReportTool(), handleGetLatestReport(storageManager, logger))
	mcpServer.AddTool(createListWatchlistTool(), handleListWatchlist(storageManager, logger))

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
