package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// ReportStorage implements the ReportStorage interface for Badger
type ReportStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewReportStorage creates a new ReportStorage instance
func NewReportStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ReportStorage {
	return &ReportStorage{
		db:     db,
		logger: logger,
	}
}

// SaveReport stores a report under its ID
func (s *ReportStorage) SaveReport(ctx context.Context, report *models.AnalysisReport) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}

	report.Symbol = strings.ToUpper(report.Symbol)
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by ID
func (s *ReportStorage) GetReport(ctx context.Context, id string) (*models.AnalysisReport, error) {
	var report models.AnalysisReport
	if err := s.db.Store().Get(id, &report); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("report not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// GetReportsBySymbol returns reports for a symbol ordered by CreatedAt desc
func (s *ReportStorage) GetReportsBySymbol(ctx context.Context, symbol string, limit, offset int) ([]*models.AnalysisReport, error) {
	query := badgerhold.Where("Symbol").Eq(strings.ToUpper(symbol)).Index("Symbol").
		SortBy("CreatedAt").Reverse()
	if offset > 0 {
		query = query.Skip(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []models.AnalysisReport
	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}

	result := make([]*models.AnalysisReport, len(reports))
	for i := range reports {
		result[i] = &reports[i]
	}
	return result, nil
}

// GetLatestReport returns the most recent report for a symbol
func (s *ReportStorage) GetLatestReport(ctx context.Context, symbol string) (*models.AnalysisReport, error) {
	reports, err := s.GetReportsBySymbol(ctx, symbol, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("no reports found for symbol: %s", strings.ToUpper(symbol))
	}
	return reports[0], nil
}

// CountReportsBySymbol returns the number of stored reports for a symbol
func (s *ReportStorage) CountReportsBySymbol(ctx context.Context, symbol string) (int, error) {
	count, err := s.db.Store().Count(&models.AnalysisReport{},
		badgerhold.Where("Symbol").Eq(strings.ToUpper(symbol)).Index("Symbol"))
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return int(count), nil
}

// PruneReports deletes reports created before the cutoff, returns count deleted
func (s *ReportStorage) PruneReports(ctx context.Context, olderThan time.Time) (int, error) {
	var stale []models.AnalysisReport
	err := s.db.Store().Find(&stale, badgerhold.Where("CreatedAt").Lt(olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to find stale reports: %w", err)
	}

	deleted := 0
	for _, report := range stale {
		if err := s.db.Store().Delete(report.ID, &models.AnalysisReport{}); err != nil {
			s.logger.Warn().Str("id", report.ID).Err(err).Msg("Failed to delete stale report")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info().Int("count", deleted).Msg("Pruned stale reports")
	}
	return deleted, nil
}
