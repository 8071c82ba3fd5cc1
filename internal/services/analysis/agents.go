package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// Agent operation names, matching the HTTP agent routes.
const (
	AgentTechnicalAnalysis        = "technical-analysis"
	AgentFundamentalAnalysis      = "fundamental-analysis"
	AgentCompanyName              = "company-name"
	AgentFraudDetection           = "fraud-detection"
	AgentFraudAnalysis            = "fraud-analysis"
	AgentSummary                  = "summary"
	AgentExecutiveSummary         = "executive-summary"
	AgentDetailedAnalysis         = "detailed-analysis"
	AgentInvestmentRecommendation = "investment-recommendation"
	AgentAnalystSynthesis         = "analyst-synthesis"
	AgentMetaAnalysis             = "meta-analysis"
	AgentFullAnalysis             = "full-analysis"
)

// agentFunc runs one agent operation for a symbol.
type agentFunc func(ctx context.Context, symbol string) (interface{}, error)

// agentRegistry maps agent names to their implementations.
func (s *Service) agentRegistry() map[string]agentFunc {
	return map[string]agentFunc{
		AgentTechnicalAnalysis:        s.agentTechnicalAnalysis,
		AgentFundamentalAnalysis:      s.agentFundamentalAnalysis,
		AgentCompanyName:              s.agentCompanyName,
		AgentFraudDetection:           s.agentFraudDetection,
		AgentFraudAnalysis:            s.agentFraudAnalysis,
		AgentSummary:                  s.narrativeAgent(narrativeSections[0]),
		AgentExecutiveSummary:         s.narrativeAgent(narrativeSections[1]),
		AgentDetailedAnalysis:         s.narrativeAgent(narrativeSections[2]),
		AgentInvestmentRecommendation: s.narrativeAgent(narrativeSections[3]),
		AgentAnalystSynthesis:         s.narrativeAgent(narrativeSections[4]),
		AgentMetaAnalysis:             s.narrativeAgent(metaAnalysisSpec),
		AgentFullAnalysis:             s.agentFullAnalysis,
	}
}

// Agents lists the available agent operation names, sorted.
func (s *Service) Agents() []string {
	registry := s.agentRegistry()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunAgent executes a single agent operation for a symbol.
func (s *Service) RunAgent(ctx context.Context, agent, symbol string) (*models.AgentResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	run, ok := s.agentRegistry()[agent]
	if !ok {
		return nil, fmt.Errorf("unknown agent: %s", agent)
	}

	started := time.Now()
	s.logger.Debug().Str("agent", agent).Str("symbol", symbol).Msg("Running agent")

	result, err := run(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("agent", agent).Str("symbol", symbol).Msg("Agent failed")
		return nil, fmt.Errorf("agent %s failed: %w", agent, err)
	}

	s.logger.Info().
		Str("agent", agent).
		Str("symbol", symbol).
		Dur("duration", time.Since(started)).
		Msg("Agent completed")

	return &models.AgentResult{
		Agent:       agent,
		Symbol:      symbol,
		Result:      result,
		GeneratedAt: time.Now(),
	}, nil
}

func (s *Service) agentTechnicalAnalysis(ctx context.Context, symbol string) (interface{}, error) {
	history, err := s.fetchHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.technicalIndicators(ctx, history)
}

func (s *Service) agentFundamentalAnalysis(ctx context.Context, symbol string) (interface{}, error) {
	financials, err := s.fetchFinancials(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.fundamentalMetrics(ctx, financials)
}

func (s *Service) agentCompanyName(ctx context.Context, symbol string) (interface{}, error) {
	name, err := s.lookupCompanyName(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return map[string]string{"company_name": name}, nil
}

// agentFraudDetection runs the indicator engine alone. No LLM involved.
func (s *Service) agentFraudDetection(ctx context.Context, symbol string) (interface{}, error) {
	history, err := s.fetchHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}

	anomalies, err := s.engine.Compute(history)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"fraud_indicators": anomalies,
		"risk_level":       anomalies.RiskLevel(),
	}, nil
}

// agentFraudAnalysis runs the engine and narrates the result.
func (s *Service) agentFraudAnalysis(ctx context.Context, symbol string) (interface{}, error) {
	history, err := s.fetchHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}

	anomalies, err := s.engine.Compute(history)
	if err != nil {
		return nil, err
	}

	text, err := s.llm.Generate(ctx, interfaces.GenerateRequest{
		Prompt:      anomalySummary(symbol, anomalies),
		System:      fraudNarrativeSpec.System,
		MaxTokens:   fraudNarrativeSpec.MaxTokens,
		Temperature: fraudNarrativeSpec.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"fraud_indicators": anomalies,
		"risk_level":       anomalies.RiskLevel(),
		"analysis":         strings.TrimSpace(text),
	}, nil
}

// narrativeAgent builds an agent that gathers context and generates one
// narrative section.
func (s *Service) narrativeAgent(spec sectionSpec) agentFunc {
	return func(ctx context.Context, symbol string) (interface{}, error) {
		contextText, err := s.gatherContext(ctx, symbol)
		if err != nil {
			return nil, err
		}

		text, err := s.llm.Generate(ctx, interfaces.GenerateRequest{
			Prompt:      contextText,
			System:      spec.System,
			MaxTokens:   spec.MaxTokens,
			Temperature: spec.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return map[string]string{spec.Name: strings.TrimSpace(text)}, nil
	}
}

// gatherContext assembles the shared prompt context for standalone narrative
// agents. Missing auxiliary data degrades silently; a context needs at least
// a quote or history.
func (s *Service) gatherContext(ctx context.Context, symbol string) (string, error) {
	data := &symbolData{Symbol: symbol}

	if quote, err := s.fetchQuote(ctx, symbol); err == nil {
		data.Quote = quote
		data.CompanyName = quote.CompanyName
	}
	if history, err := s.fetchHistory(ctx, symbol); err == nil {
		data.History = history
		if anomalies, err := s.engine.Compute(history); err == nil {
			data.Anomalies = anomalies
		}
	}
	if forecast, err := s.fetchForecast(ctx, symbol); err == nil {
		data.Forecast = forecast
	}
	if news, err := s.fetchNews(ctx, symbol); err == nil {
		data.News = news
	}

	if data.Quote == nil && len(data.History) == 0 {
		return "", fmt.Errorf("no data available for %s", symbol)
	}
	return buildContext(data), nil
}

// agentFullAnalysis runs every other agent sequentially, publishing progress
// per step. A failed agent contributes an error entry instead of aborting.
func (s *Service) agentFullAnalysis(ctx context.Context, symbol string) (interface{}, error) {
	agents := []string{
		AgentTechnicalAnalysis,
		AgentFundamentalAnalysis,
		AgentCompanyName,
		AgentFraudDetection,
		AgentFraudAnalysis,
		AgentSummary,
		AgentExecutiveSummary,
		AgentDetailedAnalysis,
		AgentInvestmentRecommendation,
		AgentAnalystSynthesis,
	}

	registry := s.agentRegistry()
	results := make(map[string]interface{}, len(agents)+1)

	for i, agent := range agents {
		s.publish(ctx, interfaces.EventAnalysisStep, map[string]interface{}{
			"symbol": symbol,
			"step":   agent,
			"index":  i + 1,
			"total":  len(agents) + 1,
		})

		result, err := registry[agent](ctx, symbol)
		if err != nil {
			results[agent] = map[string]string{"error": err.Error()}
			continue
		}
		results[agent] = result
	}

	// Meta-analysis synthesizes the other agents' outputs rather than the raw
	// source context.
	s.publish(ctx, interfaces.EventAnalysisStep, map[string]interface{}{
		"symbol": symbol,
		"step":   AgentMetaAnalysis,
		"index":  len(agents) + 1,
		"total":  len(agents) + 1,
	})
	if meta, err := s.metaAnalysis(ctx, symbol, results); err != nil {
		results[AgentMetaAnalysis] = map[string]string{"error": err.Error()}
	} else {
		results[AgentMetaAnalysis] = meta
	}

	return results, nil
}

// metaAnalysis narrates a synthesis over the collected agent outputs.
func (s *Service) metaAnalysis(ctx context.Context, symbol string, results map[string]interface{}) (interface{}, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "AGENT OUTPUTS FOR %s:\n\n", symbol)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "=== %s ===\n%v\n\n", name, results[name])
	}

	text, err := s.llm.Generate(ctx, interfaces.GenerateRequest{
		Prompt:      b.String(),
		System:      metaAnalysisSpec.System,
		MaxTokens:   metaAnalysisSpec.MaxTokens,
		Temperature: metaAnalysisSpec.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return map[string]string{metaAnalysisSpec.Name: strings.TrimSpace(text)}, nil
}
