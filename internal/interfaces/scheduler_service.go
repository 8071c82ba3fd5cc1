package interfaces

import "time"

// ScanStatus represents the current status of the watchlist scan schedule
type ScanStatus struct {
	Enabled   bool       `json:"enabled"`
	Schedule  string     `json:"schedule"`
	IsRunning bool       `json:"is_running"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// SchedulerService manages cron-based watchlist scans
type SchedulerService interface {
	// Start the scheduler with the configured cron expression
	Start() error

	// Stop the scheduler and wait for a running scan to finish
	Stop() error

	// TriggerScanNow runs a watchlist scan immediately; returns an error when
	// a scan is already in progress
	TriggerScanNow() error

	// IsRunning returns true if a scan is currently executing
	IsRunning() bool

	// Status returns the current schedule state
	Status() ScanStatus
}
