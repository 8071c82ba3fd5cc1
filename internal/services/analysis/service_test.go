package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/storage/badger"
)

// fakeLLM records requests and answers with canned text.
type fakeLLM struct {
	mu    sync.Mutex
	fn    func(req interfaces.GenerateRequest) (string, error)
	calls []interfaces.GenerateRequest
}

func (f *fakeLLM) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(req)
	}
	if req.ResponseJSON {
		return `{"sma_20": 100.0, "trend": "Sideways", "health": "Strong"}`, nil
	}
	return "generated text", nil
}

func (f *fakeLLM) Provider() string { return "test" }
func (f *fakeLLM) Model() string    { return "test-model" }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeSource serves canned data, with per-concern error switches.
type fakeSource struct {
	history     models.ObservationSeries
	quote       *models.Quote
	failQuote   bool
	failHistory bool
}

func (f *fakeSource) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if f.failQuote {
		return nil, fmt.Errorf("quote fetch failed")
	}
	return f.quote, nil
}

func (f *fakeSource) History(ctx context.Context, symbol string, days int) (models.ObservationSeries, error) {
	if f.failHistory {
		return nil, fmt.Errorf("history fetch failed")
	}
	return f.history, nil
}

func (f *fakeSource) Forecast(ctx context.Context, symbol string) (*models.Forecast, error) {
	return &models.Forecast{Symbol: symbol, Consensus: "Buy", AnalystCount: 10, PriceTargetText: "$200.00"}, nil
}

func (f *fakeSource) Financials(ctx context.Context, symbol string) (*models.Financials, error) {
	return &models.Financials{
		Symbol: symbol,
		Income: []models.FinancialRow{{Label: "Revenue", Value: "383,285"}},
	}, nil
}

func (f *fakeSource) News(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	return []models.NewsItem{{Title: "headline", Source: "Reuters"}}, nil
}

// fakeEvents records published events synchronously.
type fakeEvents struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (f *fakeEvents) Subscribe(interfaces.EventType, interfaces.EventHandler) error   { return nil }
func (f *fakeEvents) Unsubscribe(interfaces.EventType, interfaces.EventHandler) error { return nil }
func (f *fakeEvents) Close() error                                                    { return nil }

func (f *fakeEvents) Publish(ctx context.Context, event interfaces.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) PublishSync(ctx context.Context, event interfaces.Event) error {
	return f.Publish(ctx, event)
}

func (f *fakeEvents) types() []interfaces.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]interfaces.EventType, len(f.events))
	for i, e := range f.events {
		types[i] = e.Type
	}
	return types
}

func flatHistory(days int) models.ObservationSeries {
	series := make(models.ObservationSeries, days)
	for i := range series {
		series[i] = models.DailyObservation{
			Date:   fmt.Sprintf("2024-01-%02d", days-i),
			Open:   "100.00",
			High:   "101.00",
			Low:    "99.00",
			Close:  "100.00",
			Volume: "1000000",
		}
	}
	return series
}

func newTestService(t *testing.T, source DataSource, llm interfaces.LLMService, events interfaces.EventService) (*Service, interfaces.StorageManager) {
	t.Helper()

	manager, err := badger.NewManager(arbor.NewLogger(), &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "badger"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return NewService(source, llm, manager, nil, events, common.NewDefaultConfig(), arbor.NewLogger()), manager
}

func TestAnalyzeFullPipeline(t *testing.T) {
	source := &fakeSource{
		history: flatHistory(30),
		quote:   &models.Quote{Symbol: "AAPL", Price: "$150.25", CompanyName: "Apple Inc."},
	}
	llm := &fakeLLM{}
	events := &fakeEvents{}
	svc, manager := newTestService(t, source, llm, events)

	report, err := svc.Analyze(context.Background(), "aapl", "")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", report.Symbol)
	assert.Equal(t, "Apple Inc.", report.CompanyName, "company name resolved from quote")
	assert.Equal(t, models.RiskLevelLow, report.RiskLevel)
	require.NotNil(t, report.Anomalies)
	assert.NotNil(t, report.Technical)
	assert.NotNil(t, report.Fundamental)

	for _, section := range []string{
		models.SectionSummary,
		models.SectionExecutive,
		models.SectionDetailed,
		models.SectionRecommendation,
		models.SectionAnalystSynthesis,
		models.SectionFraudNarrative,
	} {
		assert.Contains(t, report.Sections, section)
	}
	assert.NotEmpty(t, report.Provider)
	assert.NotEmpty(t, report.Duration)

	saved, err := manager.ReportStorage().GetLatestReport(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, report.ID, saved.ID)

	types := events.types()
	assert.Equal(t, interfaces.EventAnalysisStarted, types[0])
	assert.Equal(t, interfaces.EventAnalysisCompleted, types[len(types)-1])
}

func TestAnalyzeSectionsDegradeOnLLMFailure(t *testing.T) {
	source := &fakeSource{
		history: flatHistory(30),
		quote:   &models.Quote{Symbol: "AAPL", Price: "$150.25", CompanyName: "Apple Inc."},
	}
	llm := &fakeLLM{fn: func(req interfaces.GenerateRequest) (string, error) {
		return "", fmt.Errorf("model overloaded")
	}}
	svc, _ := newTestService(t, source, llm, &fakeEvents{})

	report, err := svc.Analyze(context.Background(), "AAPL", "Apple Inc.")
	require.NoError(t, err, "LLM failure never fails the report")

	assert.Empty(t, report.Sections)
	assert.Contains(t, report.SectionErrors, models.SectionSummary)
	assert.Contains(t, report.SectionErrors, "technical_indicators")
	assert.NotNil(t, report.Anomalies, "indicators are independent of the LLM")
}

func TestAnalyzeInsufficientHistory(t *testing.T) {
	source := &fakeSource{
		history: flatHistory(3),
		quote:   &models.Quote{Symbol: "AAPL", Price: "$150.25", CompanyName: "Apple Inc."},
	}
	svc, _ := newTestService(t, source, &fakeLLM{}, &fakeEvents{})

	report, err := svc.Analyze(context.Background(), "AAPL", "")
	require.NoError(t, err)

	assert.Nil(t, report.Anomalies)
	assert.Equal(t, anomalyStatusUnavailable, report.AnomalyStatus)
	assert.Equal(t, models.RiskLevelLow, report.RiskLevel)
	assert.Equal(t, anomalyStatusUnavailable, report.SectionErrors[models.SectionFraudNarrative])
}

func TestAnalyzeFailsWithoutAnyData(t *testing.T) {
	source := &fakeSource{failQuote: true, failHistory: true}
	events := &fakeEvents{}
	svc, _ := newTestService(t, source, &fakeLLM{}, events)

	_, err := svc.Analyze(context.Background(), "AAPL", "")
	require.Error(t, err)

	types := events.types()
	assert.Equal(t, interfaces.EventAnalysisFailed, types[len(types)-1])
}

func TestQuickSummary(t *testing.T) {
	source := &fakeSource{
		quote: &models.Quote{Symbol: "AAPL", Price: "$150.25", CompanyName: "Apple Inc."},
	}
	svc, _ := newTestService(t, source, &fakeLLM{}, &fakeEvents{})

	summary, err := svc.QuickSummary(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", summary.Symbol)
	assert.Equal(t, "Apple Inc.", summary.CompanyName)
	assert.Equal(t, "generated text", summary.Summary)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestRunAgentFraudDetectionUsesNoLLM(t *testing.T) {
	source := &fakeSource{history: flatHistory(30)}
	llm := &fakeLLM{}
	svc, _ := newTestService(t, source, llm, &fakeEvents{})

	result, err := svc.RunAgent(context.Background(), AgentFraudDetection, "AAPL")
	require.NoError(t, err)

	payload, ok := result.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, models.RiskLevelLow, payload["risk_level"])
	assert.Zero(t, llm.callCount(), "fraud detection is pure computation")
}

func TestRunAgentUnknown(t *testing.T) {
	svc, _ := newTestService(t, &fakeSource{}, &fakeLLM{}, &fakeEvents{})

	_, err := svc.RunAgent(context.Background(), "no-such-agent", "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
}

func TestAgentsListsOperations(t *testing.T) {
	svc, _ := newTestService(t, &fakeSource{}, &fakeLLM{}, &fakeEvents{})

	agents := svc.Agents()
	assert.Contains(t, agents, AgentFullAnalysis)
	assert.Contains(t, agents, AgentFraudDetection)
	assert.Contains(t, agents, AgentMetaAnalysis)
	assert.Len(t, agents, 12)
}
