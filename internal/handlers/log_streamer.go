package handlers

import (
	"strings"
	"sync"

	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/levels"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/vigil/internal/common"
)

// defaultExcludePatterns keeps connection housekeeping out of the log stream.
var defaultExcludePatterns = []string{
	"WebSocket client connected",
	"WebSocket client disconnected",
	"HTTP request",
	"HTTP response",
	"Publishing Event",
}

// LogStreamer consumes log batches from arbor's channel writer and broadcasts
// filtered entries to WebSocket clients. Register its channel on the logger
// with SetChannel.
type LogStreamer struct {
	handler         *WebSocketHandler
	logger          arbor.ILogger
	channel         chan []arbormodels.LogEvent
	done            chan struct{}
	wg              sync.WaitGroup
	minLevel        levels.LogLevel
	excludePatterns []string
}

// NewLogStreamer creates a log streamer for the WebSocket handler. wsConfig
// may be nil; defaults then apply.
func NewLogStreamer(handler *WebSocketHandler, logger arbor.ILogger, wsConfig *common.WebSocketConfig) *LogStreamer {
	minLevel := levels.InfoLevel
	excludePatterns := defaultExcludePatterns

	if wsConfig != nil {
		minLevel = parseLogLevel(wsConfig.MinLevel)
		if len(wsConfig.ExcludePatterns) > 0 {
			excludePatterns = wsConfig.ExcludePatterns
		}
	}

	return &LogStreamer{
		handler:         handler,
		logger:          logger,
		channel:         make(chan []arbormodels.LogEvent, 10),
		done:            make(chan struct{}),
		minLevel:        minLevel,
		excludePatterns: excludePatterns,
	}
}

// Channel returns the channel for arbor to send log batches to.
func (s *LogStreamer) Channel() chan []arbormodels.LogEvent {
	return s.channel
}

// Start launches the consumer goroutine.
func (s *LogStreamer) Start() {
	s.wg.Add(1)
	go s.consume()
}

// Stop shuts down the consumer after draining buffered batches.
func (s *LogStreamer) Stop() {
	close(s.done)
	s.wg.Wait()
}

func (s *LogStreamer) consume() {
	defer s.wg.Done()

	for {
		select {
		case batch := <-s.channel:
			for _, entry := range batch {
				s.process(entry)
			}
		case <-s.done:
			// Drain anything already buffered before exiting.
			for {
				select {
				case batch := <-s.channel:
					for _, entry := range batch {
						s.process(entry)
					}
				default:
					return
				}
			}
		}
	}
}

// process filters a single log event and broadcasts it. Broadcasting must not
// log through arbor or the entry would feed back into this channel.
func (s *LogStreamer) process(entry arbormodels.LogEvent) {
	arborLevel := plogToArborLevel(entry.Level)
	if arborLevel < s.minLevel {
		return
	}

	for _, pattern := range s.excludePatterns {
		if strings.Contains(entry.Message, pattern) {
			return
		}
	}

	s.handler.BroadcastLog(LogEntry{
		Timestamp: entry.Timestamp.Format("15:04:05"),
		Level:     mapLevel(arborLevel),
		Message:   entry.Message,
	})
}

// plogToArborLevel converts phuslu/log.Level to arbor levels.LogLevel
func plogToArborLevel(level plog.Level) levels.LogLevel {
	switch level {
	case plog.ErrorLevel:
		return levels.ErrorLevel
	case plog.WarnLevel:
		return levels.WarnLevel
	case plog.InfoLevel:
		return levels.InfoLevel
	case plog.DebugLevel:
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// parseLogLevel converts string log level to arbor levels.LogLevel
func parseLogLevel(level string) levels.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return levels.ErrorLevel
	case "warn", "warning":
		return levels.WarnLevel
	case "info":
		return levels.InfoLevel
	case "debug":
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// mapLevel maps arbor log levels to UI strings
func mapLevel(level levels.LogLevel) string {
	switch level {
	case levels.ErrorLevel:
		return "error"
	case levels.WarnLevel:
		return "warn"
	case levels.InfoLevel:
		return "info"
	case levels.DebugLevel:
		return "debug"
	default:
		return "info"
	}
}
