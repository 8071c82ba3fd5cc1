package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/app"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	logLevel     = flag.String("log-level", "", "Log level (overrides config: debug, info, warn, error)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Vigil version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Shorthand port flag takes precedence.
	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}

	// Startup order: config -> CLI overrides -> logger -> banner. The logger
	// cannot exist before the config that configures it.
	var err error

	// Auto-discover a config file when none is specified.
	if len(configFiles) == 0 {
		if _, err := os.Stat("vigil.toml"); err == nil {
			configFiles = append(configFiles, "vigil.toml")
		} else if _, err := os.Stat("deployments/local/vigil.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/vigil.toml")
		}
	}

	// Key/value replacement happens later in app.New once storage is up, so
	// the KV store is nil here.
	config, err = common.LoadFromFiles(nil, configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		if len(configFiles) == 0 {
			tempLogger.Fatal().Err(err).Msg("Failed to load configuration: no config file found")
		} else {
			tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		}
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, finalPort, *serverHost)
	if *logLevel != "" {
		config.Logging.Level = *logLevel
	}

	logger = common.InitLogger(config)

	common.InstallCrashHandler("./logs")
	defer func() {
		if r := recover(); r != nil {
			common.WriteCrashFile(r, string(debug.Stack()))
			os.Exit(1)
		}
	}()

	common.PrintBanner(common.GetFullVersion())

	logger.Debug().
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Str("default_exchange", config.Market.DefaultExchange).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Msg("Resolved configuration (sanitized)")

	logger.Info().
		Strs("config_files", configFiles).
		Int("port", config.Server.Port).
		Str("host", config.Server.Host).
		Msg("Application configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	srv := server.New(application)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				common.WriteCrashFile(r, string(debug.Stack()))
				logger.Fatal().Str("panic", fmt.Sprintf("%v", r)).Msg("Server goroutine panicked")
			}
		}()

		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Give the listener a moment before announcing readiness.
	time.Sleep(100 * time.Millisecond)

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received")

	logger.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}
