package analysis

import (
	"fmt"
	"strings"

	"github.com/ternarybob/vigil/internal/models"
)

// markdownHistoryDays caps the history table in rendered reports.
const markdownHistoryDays = 10

// sectionTitles maps section keys to their report headings, in render order.
var sectionOrder = []struct {
	Key   string
	Title string
}{
	{models.SectionExecutive, "Executive Summary"},
	{models.SectionSummary, "Summary"},
	{models.SectionDetailed, "Detailed Analysis"},
	{models.SectionAnalystSynthesis, "Analyst Synthesis"},
	{models.SectionFraudNarrative, "Fraud Indicator Analysis"},
	{models.SectionRecommendation, "Investment Recommendation"},
}

// BuildReportMarkdown assembles a stored report into the markdown document
// the PDF renderer consumes. Missing data is omitted; failed sections get a
// short unavailable note so the document structure stays stable.
func BuildReportMarkdown(report *models.AnalysisReport) string {
	var b strings.Builder

	title := report.Symbol
	if report.CompanyName != "" {
		title = fmt.Sprintf("%s (%s)", report.CompanyName, report.Symbol)
	}
	fmt.Fprintf(&b, "# %s Analysis Report\n\n", title)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "**Risk Level: %s**\n\n", report.RiskLevel)

	writeQuoteTable(&b, report.Quote)
	writeAnomalies(&b, report)
	writeTechnical(&b, report.Technical)
	writeFundamental(&b, report.Fundamental)
	writeForecast(&b, report.Forecast)
	writeHistoryTable(&b, report.History)

	for _, section := range sectionOrder {
		text, ok := report.Sections[section.Key]
		if !ok {
			if reason, failed := report.SectionErrors[section.Key]; failed {
				fmt.Fprintf(&b, "## %s\n\n*Unavailable: %s*\n\n", section.Title, reason)
			}
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.Title, text)
	}

	writeNews(&b, report.News)

	if report.Provider != "" {
		fmt.Fprintf(&b, "---\n\nAnalysis by %s", report.Provider)
		if report.Model != "" {
			fmt.Fprintf(&b, " (%s)", report.Model)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeQuoteTable(b *strings.Builder, quote *models.Quote) {
	if quote == nil {
		return
	}

	b.WriteString("## Market Snapshot\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	rows := []struct{ label, value string }{
		{"Price", quote.Price},
		{"Change", quote.Change},
		{"Previous Close", quote.PreviousClose},
		{"Day Range", quote.DayRange},
		{"52-Week Range", quote.YearRange},
		{"Market Cap", quote.MarketCap},
		{"P/E Ratio", quote.PERatio},
		{"Dividend Yield", quote.DividendYield},
	}
	for _, row := range rows {
		if row.value != "" {
			fmt.Fprintf(b, "| %s | %s |\n", row.label, row.value)
		}
	}
	b.WriteString("\n")
}

func writeAnomalies(b *strings.Builder, report *models.AnalysisReport) {
	b.WriteString("## Anomaly Indicators\n\n")

	if report.Anomalies == nil {
		status := report.AnomalyStatus
		if status == "" {
			status = "Not computed."
		}
		fmt.Fprintf(b, "*%s*\n\n", status)
		return
	}

	anomalies := report.Anomalies
	if len(anomalies.VolumeSpikes) > 0 {
		b.WriteString("### Volume Spikes\n\n")
		b.WriteString("| Date | Volume | Average | Ratio | Severity |\n|------|--------|---------|-------|----------|\n")
		for _, spike := range anomalies.VolumeSpikes {
			fmt.Fprintf(b, "| %s | %.0f | %.0f | %.1fx | %s |\n",
				spike.Date, spike.Volume, spike.AverageVolume, spike.Ratio, spike.Severity)
		}
		b.WriteString("\n")
	}

	if len(anomalies.AbnormalReturns) > 0 {
		b.WriteString("### Abnormal Returns\n\n")
		b.WriteString("| Date | Daily Return | Expected | Abnormal | Severity |\n|------|--------------|----------|----------|----------|\n")
		for _, event := range anomalies.AbnormalReturns {
			fmt.Fprintf(b, "| %s | %.2f%% | %.2f%% | %.2f%% | %s |\n",
				event.Date, event.DailyReturn, event.ExpectedReturn, event.AbnormalReturn, event.Severity)
		}
		b.WriteString("\n")
	}

	if anomalies.HasAnomalies() {
		fmt.Fprintf(b, "Cumulative Abnormal Return: %.2f%%\n\n", anomalies.CumulativeAbnormalReturn)
	}

	if len(anomalies.RedFlags) > 0 {
		b.WriteString("### Red Flags\n\n")
		for _, flag := range anomalies.RedFlags {
			fmt.Fprintf(b, "- %s\n", flag)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No red flags detected.\n\n")
	}
}

func writeTechnical(b *strings.Builder, technical *models.TechnicalIndicators) {
	if technical == nil {
		return
	}

	b.WriteString("## Technical Indicators\n\n")
	b.WriteString("| Indicator | Value |\n|-----------|-------|\n")
	if technical.SMA20 != 0 {
		fmt.Fprintf(b, "| SMA 20 | %.2f |\n", technical.SMA20)
	}
	if technical.SMA50 != 0 {
		fmt.Fprintf(b, "| SMA 50 | %.2f |\n", technical.SMA50)
	}
	if technical.RSI14 != 0 {
		fmt.Fprintf(b, "| RSI 14 | %.1f |\n", technical.RSI14)
	}
	if technical.MACD != "" {
		fmt.Fprintf(b, "| MACD | %s |\n", technical.MACD)
	}
	if technical.Support != 0 {
		fmt.Fprintf(b, "| Support | %.2f |\n", technical.Support)
	}
	if technical.Resistance != 0 {
		fmt.Fprintf(b, "| Resistance | %.2f |\n", technical.Resistance)
	}
	if technical.Trend != "" {
		fmt.Fprintf(b, "| Trend | %s |\n", technical.Trend)
	}
	b.WriteString("\n")
	if technical.Commentary != "" {
		fmt.Fprintf(b, "%s\n\n", technical.Commentary)
	}
}

func writeFundamental(b *strings.Builder, fundamental *models.FundamentalMetrics) {
	if fundamental == nil {
		return
	}

	b.WriteString("## Fundamental Metrics\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	if fundamental.RevenueGrowthPct != 0 {
		fmt.Fprintf(b, "| Revenue Growth | %.1f%% |\n", fundamental.RevenueGrowthPct)
	}
	if fundamental.NetMarginPct != 0 {
		fmt.Fprintf(b, "| Net Margin | %.1f%% |\n", fundamental.NetMarginPct)
	}
	if fundamental.EPS != "" {
		fmt.Fprintf(b, "| EPS | %s |\n", fundamental.EPS)
	}
	if fundamental.DebtToEquity != "" {
		fmt.Fprintf(b, "| Debt/Equity | %s |\n", fundamental.DebtToEquity)
	}
	if fundamental.Health != "" {
		fmt.Fprintf(b, "| Health | %s |\n", fundamental.Health)
	}
	b.WriteString("\n")
	if fundamental.Commentary != "" {
		fmt.Fprintf(b, "%s\n\n", fundamental.Commentary)
	}
}

func writeForecast(b *strings.Builder, forecast *models.Forecast) {
	if forecast == nil {
		return
	}

	b.WriteString("## Analyst Forecasts\n\n")
	if forecast.PriceTargetText != "" {
		fmt.Fprintf(b, "- Price Target: %s\n", forecast.PriceTargetText)
	}
	if forecast.Consensus != "" {
		fmt.Fprintf(b, "- Consensus: %s\n", forecast.Consensus)
	}
	if forecast.AnalystCount > 0 {
		fmt.Fprintf(b, "- Analysts: %d\n", forecast.AnalystCount)
	}
	b.WriteString("\n")
	if forecast.Summary != "" {
		fmt.Fprintf(b, "%s\n\n", forecast.Summary)
	}
}

func writeHistoryTable(b *strings.Builder, history models.ObservationSeries) {
	if len(history) == 0 {
		return
	}

	days := len(history)
	if days > markdownHistoryDays {
		days = markdownHistoryDays
	}

	fmt.Fprintf(b, "## Recent Price History (%d days)\n\n", days)
	b.WriteString("| Date | Open | High | Low | Close | Volume |\n|------|------|------|-----|-------|--------|\n")
	for _, obs := range history[:days] {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
			obs.Date, obs.Open, obs.High, obs.Low, obs.Close, obs.Volume)
	}
	b.WriteString("\n")
}

func writeNews(b *strings.Builder, news []models.NewsItem) {
	if len(news) == 0 {
		return
	}

	b.WriteString("## Recent News\n\n")
	for _, item := range news {
		fmt.Fprintf(b, "- %s", item.Title)
		if item.Source != "" {
			fmt.Fprintf(b, " (%s)", item.Source)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
