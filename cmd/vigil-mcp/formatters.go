package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/vigil/internal/models"
)

// formatQuote formats a live quote as markdown
func formatQuote(quote *models.Quote) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Quote: %s\n\n", quote.Symbol))
	if quote.CompanyName != "" {
		sb.WriteString(fmt.Sprintf("**Company:** %s\n", quote.CompanyName))
	}
	sb.WriteString(fmt.Sprintf("**Price:** %s\n", quote.Price))
	if quote.Change != "" {
		sb.WriteString(fmt.Sprintf("**Change:** %s\n", quote.Change))
	}
	if quote.DayRange != "" {
		sb.WriteString(fmt.Sprintf("**Day range:** %s\n", quote.DayRange))
	}
	if quote.YearRange != "" {
		sb.WriteString(fmt.Sprintf("**Year range:** %s\n", quote.YearRange))
	}
	if quote.MarketCap != "" {
		sb.WriteString(fmt.Sprintf("**Market cap:** %s\n", quote.MarketCap))
	}
	if quote.PERatio != "" {
		sb.WriteString(fmt.Sprintf("**P/E ratio:** %s\n", quote.PERatio))
	}
	if quote.DividendYield != "" {
		sb.WriteString(fmt.Sprintf("**Dividend yield:** %s\n", quote.DividendYield))
	}
	if quote.Source != "" {
		sb.WriteString(fmt.Sprintf("**Source:** %s\n", quote.Source))
	}
	sb.WriteString(fmt.Sprintf("**Fetched:** %s\n", quote.FetchedAt.Format(time.RFC3339)))
	return sb.String()
}

// formatAnomalyReport formats an anomaly indicator report as markdown
func formatAnomalyReport(symbol string, report *models.AnomalyReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Anomaly Indicators: %s\n\n", symbol))
	sb.WriteString(fmt.Sprintf("**Risk level:** %s\n\n", report.RiskLevel()))

	if !report.HasAnomalies() {
		sb.WriteString("No volume spikes or abnormal returns detected in the analyzed window.\n")
		return sb.String()
	}

	if len(report.VolumeSpikes) > 0 {
		sb.WriteString(fmt.Sprintf("### Volume Spikes (%d)\n\n", len(report.VolumeSpikes)))
		sb.WriteString("| Date | Volume | Baseline | Ratio | Severity |\n")
		sb.WriteString("|------|--------|----------|-------|----------|\n")
		for _, spike := range report.VolumeSpikes {
			sb.WriteString(fmt.Sprintf("| %s | %.0f | %.0f | %.1fx | %s |\n",
				spike.Date, spike.Volume, spike.AverageVolume, spike.Ratio, spike.Severity))
		}
		sb.WriteString("\n")
	}

	if len(report.AbnormalReturns) > 0 {
		sb.WriteString(fmt.Sprintf("### Abnormal Returns (%d)\n\n", len(report.AbnormalReturns)))
		sb.WriteString("| Date | Return | Expected | Abnormal | Severity |\n")
		sb.WriteString("|------|--------|----------|----------|----------|\n")
		for _, event := range report.AbnormalReturns {
			sb.WriteString(fmt.Sprintf("| %s | %+.2f%% | %+.2f%% | %+.2f%% | %s |\n",
				event.Date, event.DailyReturn, event.ExpectedReturn, event.AbnormalReturn, event.Severity))
		}
		sb.WriteString(fmt.Sprintf("\n**Cumulative abnormal return:** %+.2f%%\n\n", report.CumulativeAbnormalReturn))
	}

	if len(report.RedFlags) > 0 {
		sb.WriteString("### Red Flags\n\n")
		for _, flag := range report.RedFlags {
			sb.WriteString(fmt.Sprintf("- %s\n", flag))
		}
	}

	return sb.String()
}

// formatWatchlist formats watchlist entries as markdown
func formatWatchlist(entries []*models.WatchlistEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Watchlist (%d symbols)\n\n", len(entries)))

	if len(entries) == 0 {
		sb.WriteString("The watchlist is empty.\n")
		return sb.String()
	}

	sb.WriteString("| Symbol | Company | Added | Last Scanned | Last Risk |\n")
	sb.WriteString("|--------|---------|-------|--------------|----------|\n")
	for _, entry := range entries {
		lastScanned := "never"
		if entry.LastScanned != nil {
			lastScanned = entry.LastScanned.Format(time.RFC3339)
		}
		risk := entry.LastRisk
		if risk == "" {
			risk = "-"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			entry.Symbol, entry.CompanyName, entry.AddedAt.Format("2006-01-02"), lastScanned, risk))
	}

	return sb.String()
}
