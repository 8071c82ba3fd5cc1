// Package analysis orchestrates the per-symbol pipeline: gather source data,
// compute anomaly indicators, generate LLM sections, and assemble the stored
// report. Sections degrade independently; a failed source or LLM call marks
// its section unavailable instead of failing the run.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/indicators"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// DataSource supplies the raw per-symbol data the pipeline consumes. The
// source registry satisfies it.
type DataSource interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	History(ctx context.Context, symbol string, days int) (models.ObservationSeries, error)
	Forecast(ctx context.Context, symbol string) (*models.Forecast, error)
	Financials(ctx context.Context, symbol string) (*models.Financials, error)
	News(ctx context.Context, symbol string) ([]models.NewsItem, error)
}

// anomalyStatusUnavailable is recorded when the indicator engine cannot run.
const anomalyStatusUnavailable = "Fraud indicators unavailable (insufficient history)"

// Service runs analyses. Construct with NewService.
type Service struct {
	source  DataSource
	llm     interfaces.LLMService
	engine  *indicators.Engine
	storage interfaces.StorageManager
	cache   interfaces.CacheService
	events  interfaces.EventService
	config  *common.Config
	logger  arbor.ILogger
}

// NewService creates the analysis service. cache and events may be nil;
// caching and event publication are then skipped.
func NewService(
	source DataSource,
	llm interfaces.LLMService,
	storage interfaces.StorageManager,
	cache interfaces.CacheService,
	events interfaces.EventService,
	config *common.Config,
	logger arbor.ILogger,
) *Service {
	return &Service{
		source:  source,
		llm:     llm,
		engine:  indicators.NewEngine(indicators.DefaultConfig()),
		storage: storage,
		cache:   cache,
		events:  events,
		config:  config,
		logger:  logger,
	}
}

// Analyze runs the full pipeline for a symbol and stores the resulting
// report. companyName may be empty; it is then resolved from the quote page
// or, failing that, from the LLM.
func (s *Service) Analyze(ctx context.Context, symbol, companyName string) (*models.AnalysisReport, error) {
	started := time.Now()
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	s.publish(ctx, interfaces.EventAnalysisStarted, map[string]interface{}{"symbol": symbol})
	s.logger.Info().Str("symbol", symbol).Msg("Starting analysis")

	data := &symbolData{Symbol: symbol, CompanyName: companyName}
	report := &models.AnalysisReport{
		ID:            common.NewReportID(),
		Symbol:        symbol,
		Sections:      make(map[string]string),
		SectionErrors: make(map[string]string),
		Provider:      s.llm.Provider(),
		Model:         s.llm.Model(),
		CreatedAt:     started,
	}

	s.step(ctx, symbol, "gathering source data")
	s.gather(ctx, data, report)

	if data.Quote == nil && len(data.History) == 0 {
		err := fmt.Errorf("no data available for %s: %s", symbol, report.SectionErrors["quote"])
		s.publish(ctx, interfaces.EventAnalysisFailed, map[string]interface{}{"symbol": symbol, "error": err.Error()})
		return nil, err
	}

	s.resolveCompanyName(ctx, data)
	report.CompanyName = data.CompanyName
	report.Quote = data.Quote
	report.History = data.History
	report.Forecast = data.Forecast
	report.Financials = data.Financials
	report.News = data.News

	s.step(ctx, symbol, "computing anomaly indicators")
	s.computeAnomalies(data, report)

	s.step(ctx, symbol, "computing technical indicators")
	if technical, err := s.technicalIndicators(ctx, data.History); err != nil {
		report.SectionErrors["technical_indicators"] = err.Error()
	} else {
		report.Technical = technical
	}

	s.step(ctx, symbol, "deriving fundamental metrics")
	if data.Financials != nil {
		if fundamental, err := s.fundamentalMetrics(ctx, data.Financials); err != nil {
			report.SectionErrors["fundamental_metrics"] = err.Error()
		} else {
			report.Fundamental = fundamental
		}
	}

	contextText := buildContext(data)
	for _, spec := range narrativeSections {
		s.step(ctx, symbol, "generating "+spec.Name)
		s.generateSection(ctx, report, spec, contextText)
	}

	s.step(ctx, symbol, "generating "+fraudNarrativeSpec.Name)
	if data.Anomalies != nil {
		s.generateSection(ctx, report, fraudNarrativeSpec, anomalySummary(symbol, data.Anomalies))
	} else {
		report.SectionErrors[fraudNarrativeSpec.Name] = anomalyStatusUnavailable
	}

	report.Duration = time.Since(started).Round(time.Millisecond).String()

	if err := s.storage.ReportStorage().SaveReport(ctx, report); err != nil {
		s.publish(ctx, interfaces.EventAnalysisFailed, map[string]interface{}{"symbol": symbol, "error": err.Error()})
		return nil, fmt.Errorf("failed to save report for %s: %w", symbol, err)
	}

	s.publish(ctx, interfaces.EventAnalysisCompleted, map[string]interface{}{
		"symbol":     symbol,
		"report_id":  report.ID,
		"risk_level": report.RiskLevel,
		"duration":   report.Duration,
	})

	s.logger.Info().
		Str("symbol", symbol).
		Str("report_id", report.ID).
		Str("risk_level", report.RiskLevel).
		Str("duration", report.Duration).
		Int("failed_sections", len(report.SectionErrors)).
		Msg("Analysis completed")

	return report, nil
}

// QuickSummary fetches the live quote and generates only the short narrative.
func (s *Service) QuickSummary(ctx context.Context, symbol string) (*models.QuickSummary, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	quote, err := s.fetchQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}

	data := &symbolData{Symbol: symbol, CompanyName: quote.CompanyName, Quote: quote}
	spec := narrativeSections[0]
	text, err := s.llm.Generate(ctx, interfaces.GenerateRequest{
		Prompt:      buildContext(data),
		System:      spec.System,
		MaxTokens:   spec.MaxTokens,
		Temperature: spec.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary for %s: %w", symbol, err)
	}

	return &models.QuickSummary{
		Symbol:      symbol,
		CompanyName: quote.CompanyName,
		Quote:       quote,
		Summary:     strings.TrimSpace(text),
		GeneratedAt: time.Now(),
	}, nil
}

// gather fetches every source, recording failures per section. Fresh cached
// snapshots are served instead of refetching.
func (s *Service) gather(ctx context.Context, data *symbolData, report *models.AnalysisReport) {
	if quote, err := s.fetchQuote(ctx, data.Symbol); err != nil {
		report.SectionErrors["quote"] = err.Error()
		s.logger.Warn().Err(err).Str("symbol", data.Symbol).Msg("Quote unavailable")
	} else {
		data.Quote = quote
	}

	if history, err := s.fetchHistory(ctx, data.Symbol); err != nil {
		report.SectionErrors["history"] = err.Error()
		s.logger.Warn().Err(err).Str("symbol", data.Symbol).Msg("Price history unavailable")
	} else {
		data.History = history
	}

	if forecast, err := s.fetchForecast(ctx, data.Symbol); err != nil {
		report.SectionErrors["forecast"] = err.Error()
		s.logger.Warn().Err(err).Str("symbol", data.Symbol).Msg("Forecast unavailable")
	} else {
		data.Forecast = forecast
	}

	if financials, err := s.fetchFinancials(ctx, data.Symbol); err != nil {
		report.SectionErrors["financials"] = err.Error()
		s.logger.Warn().Err(err).Str("symbol", data.Symbol).Msg("Financials unavailable")
	} else {
		data.Financials = financials
	}

	if news, err := s.fetchNews(ctx, data.Symbol); err != nil {
		report.SectionErrors["news"] = err.Error()
		s.logger.Warn().Err(err).Str("symbol", data.Symbol).Msg("News unavailable")
	} else {
		data.News = news
	}
}

func (s *Service) fetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var quote models.Quote
	if s.cacheLoad(ctx, symbol, models.SnapshotQuote, &quote) {
		return &quote, nil
	}
	fetched, err := s.source.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.cacheStore(ctx, symbol, models.SnapshotQuote, fetched)
	return fetched, nil
}

func (s *Service) fetchHistory(ctx context.Context, symbol string) (models.ObservationSeries, error) {
	var history models.ObservationSeries
	if s.cacheLoad(ctx, symbol, models.SnapshotHistory, &history) {
		return history, nil
	}
	fetched, err := s.source.History(ctx, symbol, s.config.Market.HistoryDays)
	if err != nil {
		return nil, err
	}
	s.cacheStore(ctx, symbol, models.SnapshotHistory, fetched)
	return fetched, nil
}

func (s *Service) fetchForecast(ctx context.Context, symbol string) (*models.Forecast, error) {
	var forecast models.Forecast
	if s.cacheLoad(ctx, symbol, models.SnapshotForecast, &forecast) {
		return &forecast, nil
	}
	fetched, err := s.source.Forecast(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.cacheStore(ctx, symbol, models.SnapshotForecast, fetched)
	return fetched, nil
}

func (s *Service) fetchFinancials(ctx context.Context, symbol string) (*models.Financials, error) {
	var financials models.Financials
	if s.cacheLoad(ctx, symbol, models.SnapshotFinancials, &financials) {
		return &financials, nil
	}
	fetched, err := s.source.Financials(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.cacheStore(ctx, symbol, models.SnapshotFinancials, fetched)
	return fetched, nil
}

func (s *Service) fetchNews(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	var news []models.NewsItem
	if s.cacheLoad(ctx, symbol, models.SnapshotNews, &news) {
		return news, nil
	}
	fetched, err := s.source.News(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.cacheStore(ctx, symbol, models.SnapshotNews, fetched)
	return fetched, nil
}

func (s *Service) cacheLoad(ctx context.Context, symbol string, kind models.SnapshotKind, out interface{}) bool {
	return s.cache != nil && s.cache.Load(ctx, symbol, kind, out)
}

func (s *Service) cacheStore(ctx context.Context, symbol string, kind models.SnapshotKind, payload interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Store(ctx, symbol, kind, payload); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Str("kind", string(kind)).Msg("Failed to store snapshot")
	}
}

// resolveCompanyName fills a missing company name from the quote, then the
// LLM. Resolution failure leaves the name empty.
func (s *Service) resolveCompanyName(ctx context.Context, data *symbolData) {
	if data.CompanyName != "" {
		return
	}
	if data.Quote != nil && data.Quote.CompanyName != "" {
		data.CompanyName = data.Quote.CompanyName
		return
	}

	name, err := s.lookupCompanyName(ctx, data.Symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", data.Symbol).Msg("Failed to resolve company name")
		return
	}
	data.CompanyName = name
}

// lookupCompanyName asks the LLM for the official company name of a ticker.
func (s *Service) lookupCompanyName(ctx context.Context, symbol string) (string, error) {
	text, err := s.llm.Generate(ctx, interfaces.GenerateRequest{
		Prompt:      fmt.Sprintf("Stock ticker symbol: %s\n\nCompany name:", symbol),
		System:      companyNamePrompt,
		MaxTokens:   50,
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if name == "" {
		return "", fmt.Errorf("empty company name response")
	}
	return name, nil
}

// computeAnomalies runs the indicator engine over the gathered history.
// Insufficient data is recorded as a status, not a failure.
func (s *Service) computeAnomalies(data *symbolData, report *models.AnalysisReport) {
	anomalies, err := s.engine.Compute(data.History)
	if err != nil {
		if errors.Is(err, indicators.ErrInsufficientData) {
			report.AnomalyStatus = anomalyStatusUnavailable
			report.RiskLevel = models.RiskLevelLow
			s.logger.Info().Str("symbol", data.Symbol).Msg("Insufficient history for anomaly indicators")
			return
		}
		report.SectionErrors["fraud_indicators"] = err.Error()
		report.RiskLevel = models.RiskLevelLow
		return
	}

	data.Anomalies = anomalies
	report.Anomalies = anomalies
	report.RiskLevel = anomalies.RiskLevel()
}

// technicalIndicators asks the LLM to compute indicator values from the price
// table at temperature 0 and parses the JSON leniently.
func (s *Service) technicalIndicators(ctx context.Context, history models.ObservationSeries) (*models.TechnicalIndicators, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("no price history available")
	}

	prompt := "HISTORICAL PRICE DATA (most recent first):\n" + priceTable(history, 0)
	text, err := s.llm.Generate(ctx, interfaces.GenerateRequest{
		Prompt:       prompt,
		System:       technicalPrompt,
		MaxTokens:    1000,
		Temperature:  0,
		ResponseJSON: true,
	})
	if err != nil {
		return nil, err
	}

	var computed models.TechnicalIndicators
	if err := decodeJSONResponse(text, &computed); err != nil {
		return nil, err
	}
	return &computed, nil
}

// fundamentalMetrics asks the LLM to derive metrics from the scraped
// statements at temperature 0.
func (s *Service) fundamentalMetrics(ctx context.Context, financials *models.Financials) (*models.FundamentalMetrics, error) {
	text, err := s.llm.Generate(ctx, interfaces.GenerateRequest{
		Prompt:       financialsText(financials),
		System:       fundamentalPrompt,
		MaxTokens:    1000,
		Temperature:  0,
		ResponseJSON: true,
	})
	if err != nil {
		return nil, err
	}

	var metrics models.FundamentalMetrics
	if err := decodeJSONResponse(text, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// generateSection produces one narrative section, recording failure in the
// report instead of propagating it.
func (s *Service) generateSection(ctx context.Context, report *models.AnalysisReport, spec sectionSpec, contextText string) {
	text, err := s.llm.Generate(ctx, interfaces.GenerateRequest{
		Prompt:      contextText,
		System:      spec.System,
		MaxTokens:   spec.MaxTokens,
		Temperature: spec.Temperature,
	})
	if err != nil {
		report.SectionErrors[spec.Name] = err.Error()
		s.logger.Warn().Err(err).Str("symbol", report.Symbol).Str("section", spec.Name).Msg("Section generation failed")
		return
	}
	report.Sections[spec.Name] = strings.TrimSpace(text)
}

func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Str("event", string(eventType)).Msg("Failed to publish event")
	}
}

func (s *Service) step(ctx context.Context, symbol, step string) {
	s.publish(ctx, interfaces.EventAnalysisStep, map[string]interface{}{"symbol": symbol, "step": step})
	s.logger.Debug().Str("symbol", symbol).Str("step", step).Msg("Analysis step")
}
