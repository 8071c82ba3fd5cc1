package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/vigil/internal/models"
)

func sampleReport() *models.AnalysisReport {
	return &models.AnalysisReport{
		ID:          "rpt_test",
		Symbol:      "AAPL",
		CompanyName: "Apple Inc.",
		RiskLevel:   models.RiskLevelHigh,
		CreatedAt:   time.Date(2024, 1, 8, 14, 30, 0, 0, time.UTC),
		Quote: &models.Quote{
			Price:     "$150.25",
			Change:    "1.25%",
			MarketCap: "2.40T USD",
		},
		History: models.ObservationSeries{
			{Date: "Jan 5, 2024", Open: "181.99", High: "182.76", Low: "180.17", Close: "181.18", Volume: "62,303,300"},
		},
		Anomalies: &models.AnomalyReport{
			VolumeSpikes: []models.VolumeSpike{
				{Date: "2024-01-05", Ratio: 4.2, Volume: 4200000, AverageVolume: 1000000, Severity: models.SeverityMedium},
			},
			AbnormalReturns: []models.AbnormalReturnEvent{
				{Date: "2024-01-05", DailyReturn: 6.1, ExpectedReturn: 0.2, AbnormalReturn: 5.9, Severity: models.SeverityHigh},
			},
			CumulativeAbnormalReturn: 5.9,
			RedFlags:                 []string{"Volume spike and abnormal return on 2024-01-05"},
		},
		Technical:   &models.TechnicalIndicators{SMA20: 150.5, Trend: "Uptrend"},
		Fundamental: &models.FundamentalMetrics{EPS: "6.42", Health: "Strong"},
		Forecast:    &models.Forecast{PriceTargetText: "$210.50", Consensus: "Buy", AnalystCount: 32},
		News:        []models.NewsItem{{Title: "Apple beats expectations", Source: "Reuters"}},
		Sections: map[string]string{
			models.SectionSummary:        "Short summary.",
			models.SectionExecutive:      "Executive overview.",
			models.SectionRecommendation: "Hold.",
		},
		SectionErrors: map[string]string{
			models.SectionDetailed: "model overloaded",
		},
		Provider: "anthropic",
		Model:    "claude-sonnet",
	}
}

func TestBuildReportMarkdownLayout(t *testing.T) {
	md := BuildReportMarkdown(sampleReport())

	assert.True(t, strings.HasPrefix(md, "# Apple Inc. (AAPL) Analysis Report\n"))
	assert.Contains(t, md, "**Risk Level: High**")
	assert.Contains(t, md, "## Market Snapshot")
	assert.Contains(t, md, "| Price | $150.25 |")
	assert.Contains(t, md, "### Volume Spikes")
	assert.Contains(t, md, "| 2024-01-05 | 4200000 | 1000000 | 4.2x | MEDIUM |")
	assert.Contains(t, md, "### Abnormal Returns")
	assert.Contains(t, md, "Cumulative Abnormal Return: 5.90%")
	assert.Contains(t, md, "### Red Flags")
	assert.Contains(t, md, "- Volume spike and abnormal return on 2024-01-05")
	assert.Contains(t, md, "| SMA 20 | 150.50 |")
	assert.Contains(t, md, "| Health | Strong |")
	assert.Contains(t, md, "- Price Target: $210.50")
	assert.Contains(t, md, "## Recent Price History (1 days)")
	assert.Contains(t, md, "| Jan 5, 2024 | 181.99 | 182.76 | 180.17 | 181.18 | 62,303,300 |")
	assert.Contains(t, md, "## Executive Summary\n\nExecutive overview.")
	assert.Contains(t, md, "## Investment Recommendation\n\nHold.")
	assert.Contains(t, md, "- Apple beats expectations (Reuters)")
	assert.Contains(t, md, "Analysis by anthropic (claude-sonnet)")
}

func TestBuildReportMarkdownFailedSectionNoted(t *testing.T) {
	md := BuildReportMarkdown(sampleReport())
	assert.Contains(t, md, "## Detailed Analysis\n\n*Unavailable: model overloaded*")
}

func TestBuildReportMarkdownSectionOrder(t *testing.T) {
	md := BuildReportMarkdown(sampleReport())
	executive := strings.Index(md, "## Executive Summary")
	summary := strings.Index(md, "## Summary")
	recommendation := strings.Index(md, "## Investment Recommendation")
	assert.Less(t, executive, summary)
	assert.Less(t, summary, recommendation)
}

func TestBuildReportMarkdownMinimal(t *testing.T) {
	report := &models.AnalysisReport{
		Symbol:        "XYZ",
		RiskLevel:     models.RiskLevelLow,
		AnomalyStatus: "Fraud indicators unavailable (insufficient history)",
		CreatedAt:     time.Now(),
	}

	md := BuildReportMarkdown(report)
	assert.True(t, strings.HasPrefix(md, "# XYZ Analysis Report\n"))
	assert.Contains(t, md, "*Fraud indicators unavailable (insufficient history)*")
	assert.NotContains(t, md, "## Market Snapshot")
	assert.NotContains(t, md, "## Recent Price History")
	assert.NotContains(t, md, "## Recent News")
}

func TestBuildReportMarkdownHistoryCapped(t *testing.T) {
	report := sampleReport()
	report.History = flatHistory(25)

	md := BuildReportMarkdown(report)
	assert.Contains(t, md, "## Recent Price History (10 days)")
	assert.Equal(t, markdownHistoryDays, strings.Count(md, "| 100.00 | 101.00 | 99.00 | 100.00 | 1000000 |"))
}
