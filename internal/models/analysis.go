package models

import "time"

// Section names used across report assembly and the agent API.
const (
	SectionSummary          = "summary"
	SectionExecutive        = "executive_summary"
	SectionDetailed         = "detailed_analysis"
	SectionRecommendation   = "investment_recommendation"
	SectionAnalystSynthesis = "analyst_synthesis"
	SectionFraudNarrative   = "fraud_analysis"
	SectionMetaAnalysis     = "meta_analysis"
)

// TechnicalIndicators is the structured block the LLM computes from the
// price history table. Values arrive as loose JSON; fields the model omits
// stay zero-valued.
type TechnicalIndicators struct {
	SMA20      float64 `json:"sma_20,omitempty"`
	SMA50      float64 `json:"sma_50,omitempty"`
	RSI14      float64 `json:"rsi_14,omitempty"`
	MACD       string  `json:"macd,omitempty"`
	Support    float64 `json:"support,omitempty"`
	Resistance float64 `json:"resistance,omitempty"`
	Trend      string  `json:"trend,omitempty"`
	Commentary string  `json:"commentary,omitempty"`
}

// FundamentalMetrics is the structured block the LLM derives from scraped
// financial statements.
type FundamentalMetrics struct {
	RevenueGrowthPct float64 `json:"revenue_growth_pct,omitempty"`
	NetMarginPct     float64 `json:"net_margin_pct,omitempty"`
	EPS              string  `json:"eps,omitempty"`
	DebtToEquity     string  `json:"debt_to_equity,omitempty"`
	Health           string  `json:"health,omitempty"`
	Commentary       string  `json:"commentary,omitempty"`
}

// AnalysisReport is the full output of an analysis run: everything gathered,
// computed and narrated for one symbol. Stored by ID and queryable by symbol.
type AnalysisReport struct {
	ID          string `json:"id" badgerhold:"key"`
	Symbol      string `json:"symbol" badgerholdIndex:"Symbol"`
	CompanyName string `json:"company_name,omitempty"`

	Quote      *Quote            `json:"quote,omitempty"`
	History    ObservationSeries `json:"history,omitempty"`
	Forecast   *Forecast         `json:"forecast,omitempty"`
	Financials *Financials       `json:"financials,omitempty"`
	News       []NewsItem        `json:"news,omitempty"`

	Anomalies     *AnomalyReport `json:"fraud_indicators,omitempty"`
	RiskLevel     string         `json:"risk_level"`
	AnomalyStatus string         `json:"fraud_indicator_status,omitempty"`

	Technical   *TechnicalIndicators `json:"technical_indicators,omitempty"`
	Fundamental *FundamentalMetrics  `json:"fundamental_metrics,omitempty"`

	// Narrative sections keyed by the Section* constants. A section missing
	// from the map was not produced for this run.
	Sections map[string]string `json:"sections,omitempty"`

	// SectionErrors records sections that failed to generate, keyed the same
	// way. A failed section never fails the report.
	SectionErrors map[string]string `json:"section_errors,omitempty"`

	Provider  string    `json:"llm_provider,omitempty"`
	Model     string    `json:"llm_model,omitempty"`
	CreatedAt time.Time `json:"created_at" badgerholdIndex:"CreatedAt"`
	Duration  string    `json:"duration,omitempty"`
}

// QuickSummary is the lightweight per-symbol response: live quote plus a
// short narrative.
type QuickSummary struct {
	Symbol      string    `json:"symbol"`
	CompanyName string    `json:"company_name,omitempty"`
	Quote       *Quote    `json:"quote,omitempty"`
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AgentResult is the response envelope for a single agent operation.
type AgentResult struct {
	Agent       string      `json:"agent"`
	Symbol      string      `json:"symbol"`
	Result      interface{} `json:"result"`
	GeneratedAt time.Time   `json:"generated_at"`
}
