// Package scheduler runs watchlist scans on a cron schedule. Scans walk the
// watchlist sequentially so source politeness delays are preserved; a scan
// that is still running when the next tick fires is never overlapped.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// Analyzer runs a full analysis for one symbol. The analysis service
// satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, symbol, companyName string) (*models.AnalysisReport, error)
}

// Service implements interfaces.SchedulerService.
type Service struct {
	analyzer Analyzer
	storage  interfaces.StorageManager
	events   interfaces.EventService
	config   *common.SchedulerConfig
	cron     *cron.Cron
	logger   arbor.ILogger

	mu        sync.Mutex
	running   bool
	scanning  bool
	entryID   cron.EntryID
	lastRun   *time.Time
	lastError string
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates the watchlist scan scheduler. events may be nil.
func NewService(
	analyzer Analyzer,
	storage interfaces.StorageManager,
	events interfaces.EventService,
	config *common.SchedulerConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		analyzer: analyzer,
		storage:  storage,
		events:   events,
		config:   config,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the configured schedule and starts the cron loop. A
// disabled scheduler starts nothing and returns nil.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if !s.config.Enabled {
		s.logger.Info().Msg("Watchlist scan scheduler disabled")
		return nil
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "0 18 * * 1-5"
	}

	entryID, err := s.cron.AddFunc(schedule, s.runScan)
	if err != nil {
		return fmt.Errorf("invalid scan schedule %q: %w", schedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.running = true
	s.logger.Info().Str("schedule", schedule).Msg("Watchlist scan scheduler started")

	if s.config.RunOnStartup {
		s.logger.Info().Msg("Running startup watchlist scan")
		go s.runScan()
	}

	return nil
}

// Stop halts the cron loop and waits for a running scan to finish.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	// cron.Stop's context completes when in-flight jobs return.
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Watchlist scan scheduler stopped")
	return nil
}

// TriggerScanNow starts a scan immediately unless one is already in progress.
func (s *Service) TriggerScanNow() error {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return fmt.Errorf("a watchlist scan is already running")
	}
	s.mu.Unlock()

	s.logger.Info().Msg("Manual watchlist scan triggered")
	go s.runScan()
	return nil
}

// IsRunning reports whether a scan is currently executing.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Status returns the current schedule state.
func (s *Service) Status() interfaces.ScanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := interfaces.ScanStatus{
		Enabled:   s.config.Enabled,
		Schedule:  s.config.Schedule,
		IsRunning: s.scanning,
		LastRun:   s.lastRun,
		LastError: s.lastError,
	}
	if s.running {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

// runScan walks the watchlist and analyzes each symbol in turn. Overlapping
// invocations are skipped.
func (s *Service) runScan() {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous watchlist scan still running, skipping this cycle")
		return
	}
	s.scanning = true
	s.mu.Unlock()

	started := time.Now()
	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.lastRun = &started
		s.mu.Unlock()
	}()

	ctx := context.Background()

	entries, err := s.storage.WatchlistStorage().List(ctx)
	if err != nil {
		s.setLastError(fmt.Sprintf("failed to list watchlist: %v", err))
		s.logger.Error().Err(err).Msg("Watchlist scan aborted")
		return
	}
	if len(entries) == 0 {
		s.setLastError("")
		s.logger.Info().Msg("Watchlist empty, nothing to scan")
		return
	}

	s.publish(ctx, interfaces.EventScanStarted, map[string]interface{}{"symbols": len(entries)})
	s.logger.Info().Int("symbols", len(entries)).Msg("Watchlist scan started")

	failed := 0
	for i, entry := range entries {
		s.publish(ctx, interfaces.EventScanProgress, map[string]interface{}{
			"symbol": entry.Symbol,
			"index":  i + 1,
			"total":  len(entries),
		})

		report, err := s.analyzer.Analyze(ctx, entry.Symbol, entry.CompanyName)
		if err != nil {
			failed++
			s.logger.Warn().Err(err).Str("symbol", entry.Symbol).Msg("Scan analysis failed")
			continue
		}

		if err := s.storage.WatchlistStorage().MarkScanned(ctx, entry.Symbol, time.Now(), report.RiskLevel); err != nil {
			s.logger.Warn().Err(err).Str("symbol", entry.Symbol).Msg("Failed to record scan result")
		}
	}

	if failed > 0 {
		s.setLastError(fmt.Sprintf("%d of %d symbols failed", failed, len(entries)))
	} else {
		s.setLastError("")
	}

	duration := time.Since(started).Round(time.Millisecond)
	s.publish(ctx, interfaces.EventScanCompleted, map[string]interface{}{
		"symbols":  len(entries),
		"failed":   failed,
		"duration": duration.String(),
	})
	s.logger.Info().
		Int("symbols", len(entries)).
		Int("failed", failed).
		Dur("duration", duration).
		Msg("Watchlist scan completed")
}

func (s *Service) setLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Str("event", string(eventType)).Msg("Failed to publish scan event")
	}
}
