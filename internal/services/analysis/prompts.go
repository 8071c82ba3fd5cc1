package analysis

import "github.com/ternarybob/vigil/internal/models"

// sectionSpec describes one narrative section: its system prompt, token
// budget, and sampling temperature.
type sectionSpec struct {
	Name        string
	System      string
	MaxTokens   int
	Temperature float64
}

// narrativeSections are generated in order from the shared context block.
var narrativeSections = []sectionSpec{
	{
		Name: models.SectionSummary,
		System: `You are a financial analyst. Create a very brief summary (2-3 sentences) of the stock's current status.
Focus only on: current price movement, market cap, and overall sentiment.`,
		MaxTokens:   200,
		Temperature: 0.3,
	},
	{
		Name: models.SectionExecutive,
		System: `You are a senior financial analyst creating executive summaries for investors.
Provide a comprehensive, professional summary (8-12 sentences) covering:
1. Current stock performance and valuation
2. Price trends and volatility
3. News sentiment
4. Risk factors and opportunities
Format: clear paragraphs, professional tone.`,
		MaxTokens:   800,
		Temperature: 0.5,
	},
	{
		Name: models.SectionDetailed,
		System: `You are a financial analyst. Generate a detailed analysis including:
1. Week-by-week price movement
2. News impact assessment
3. Fundamental analysis
4. Risk-reward analysis`,
		MaxTokens:   1500,
		Temperature: 0.5,
	},
	{
		Name: models.SectionRecommendation,
		System: `You are an investment advisor. Generate investment recommendations for 3 time horizons:
1. 1 Week (short-term trading)
2. 6 Months (medium-term)
3. 2 Years (long-term)
Include entry/exit points, price targets, and strategies for each horizon.`,
		MaxTokens:   2000,
		Temperature: 0.7,
	},
	{
		Name: models.SectionAnalystSynthesis,
		System: `You are a financial analyst. Synthesize the analyst ratings and price targets:
1. Consensus ratings
2. Price target analysis
3. Analyst perspectives
4. Revenue/earnings outlook`,
		MaxTokens:   1500,
		Temperature: 0.5,
	},
}

// fraudNarrativeSpec narrates the anomaly report. Its prompt carries the
// anomaly summary instead of the shared context.
var fraudNarrativeSpec = sectionSpec{
	Name: models.SectionFraudNarrative,
	System: `You are a securities fraud analyst and forensic accountant with expertise in detecting market manipulation, insider trading, and fraudulent activities.

METRICS REFERENCE:
- Volume spike ratio > 3x baseline: unusual trading activity, potential information leak or manipulation
- Ratio > 5x: high severity, strong indicator of informed trading
- Abnormal return beyond thresholds: unusual price movement without clear fundamental catalyst
- Volume spike and abnormal return on the same day: critical indicator of insider activity
- Cumulative abnormal return beyond 10%: sustained abnormal performance suggesting manipulation

Provide: 1) overall risk assessment (LOW/MODERATE/HIGH/CRITICAL with confidence 1-10),
2) key findings referencing specific dates and metrics, 3) most likely scenario
(insider trading, manipulation, information leakage, or legitimate activity),
4) implications for investors. Be specific and analytical.`,
	MaxTokens:   2000,
	Temperature: 0.3,
}

// metaAnalysisSpec synthesizes the other sections' outputs.
var metaAnalysisSpec = sectionSpec{
	Name: models.SectionMetaAnalysis,
	System: `You are a senior analyst performing a meta-analysis over the outputs of several specialist analyses:
1. Cross-validate the insights against each other
2. State confidence levels
3. Assess remaining uncertainty
4. Provide an overall synthesis`,
	MaxTokens:   2000,
	Temperature: 0.5,
}

// technicalPrompt asks for technical indicators computed from the price table.
const technicalPrompt = `You are a technical analysis expert. Calculate technical indicators from the provided historical price data.

Calculate:
1. 20-day simple moving average of closing prices (sma_20)
2. 50-day simple moving average when enough data (sma_50)
3. 14-period relative strength index (rsi_14)
4. MACD signal: "Bullish" or "Bearish" from the 12/26-day EMA relationship (macd)
5. Nearest support and resistance levels from recent lows and highs (support, resistance)
6. Overall trend: "Uptrend", "Downtrend", or "Sideways" (trend)
7. One-sentence commentary (commentary)

Return ONLY a valid JSON object with keys sma_20, sma_50, rsi_14, macd, support, resistance, trend, commentary. No explanation, no markdown.`

// fundamentalPrompt asks for fundamental metrics derived from the statements.
const fundamentalPrompt = `You are a fundamental analysis expert. Derive key metrics from the provided financial statement data.

Derive:
1. Year-over-year revenue growth percentage (revenue_growth_pct)
2. Net margin percentage (net_margin_pct)
3. Earnings per share as reported (eps)
4. Debt-to-equity as reported or derived (debt_to_equity)
5. Overall financial health: "Strong", "Adequate", or "Weak" (health)
6. One-sentence commentary (commentary)

Return ONLY a valid JSON object with keys revenue_growth_pct, net_margin_pct, eps, debt_to_equity, health, commentary. No explanation, no markdown.`

// companyNamePrompt resolves a ticker to its official company name.
const companyNamePrompt = `You are a financial data expert. Given a stock ticker symbol, provide ONLY the official full company name (e.g., "Microsoft Corporation", "Apple Inc.").
Do NOT include any explanation, ticker symbol, or additional text. Return exactly one line with just the company name.`
