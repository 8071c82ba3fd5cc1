package analysis

import (
	"fmt"
	"strings"

	"github.com/ternarybob/vigil/internal/models"
)

// symbolData is everything gathered for a symbol before narration.
type symbolData struct {
	Symbol      string
	CompanyName string
	Quote       *models.Quote
	History     models.ObservationSeries
	Forecast    *models.Forecast
	Financials  *models.Financials
	News        []models.NewsItem
	Anomalies   *models.AnomalyReport
}

// contextHistoryDays is how many history rows the narrative context carries.
// The full table goes only to the technical-indicator prompt.
const contextHistoryDays = 10

// buildContext renders the gathered data as the deterministic text block fed
// to every narrative prompt. The same symbol data always produces the same
// context, so prompt differences come only from the section instructions.
func buildContext(data *symbolData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "STOCK: %s\n", data.Symbol)
	if data.CompanyName != "" {
		fmt.Fprintf(&b, "Company: %s\n", data.CompanyName)
	}

	if q := data.Quote; q != nil {
		fmt.Fprintf(&b, "Current Price: %s\n", q.Price)
		if q.Change != "" {
			fmt.Fprintf(&b, "Change: %s\n", q.Change)
		}
		if q.MarketCap != "" {
			fmt.Fprintf(&b, "Market Cap: %s\n", q.MarketCap)
		}
		if q.PERatio != "" {
			fmt.Fprintf(&b, "P/E Ratio: %s\n", q.PERatio)
		}
		if q.DividendYield != "" {
			fmt.Fprintf(&b, "Dividend Yield: %s\n", q.DividendYield)
		}
		if q.YearRange != "" {
			fmt.Fprintf(&b, "52-Week Range: %s\n", q.YearRange)
		}
	}

	if f := data.Forecast; f != nil {
		b.WriteString("\nANALYST FORECASTS:\n")
		if f.AnalystCount > 0 {
			fmt.Fprintf(&b, "Number of Analysts: %d\n", f.AnalystCount)
		}
		if f.Consensus != "" {
			fmt.Fprintf(&b, "Consensus Rating: %s\n", f.Consensus)
		}
		if f.PriceTargetText != "" {
			fmt.Fprintf(&b, "Average Price Target: %s\n", f.PriceTargetText)
		}
		if f.RevenueThisYear != "" {
			fmt.Fprintf(&b, "Revenue Forecast (This Year): %s\n", f.RevenueThisYear)
		}
		if f.EPSThisYear != "" {
			fmt.Fprintf(&b, "EPS Forecast (This Year): %s\n", f.EPSThisYear)
		}
	}

	if len(data.History) > 0 {
		fmt.Fprintf(&b, "\nRECENT PRICE HISTORY (most recent first, %d days):\n", min(len(data.History), contextHistoryDays))
		b.WriteString(priceTable(data.History, contextHistoryDays))
	}

	if data.Anomalies != nil && len(data.Anomalies.RedFlags) > 0 {
		b.WriteString("\nANOMALY RED FLAGS:\n")
		for _, flag := range data.Anomalies.RedFlags {
			fmt.Fprintf(&b, "- %s\n", flag)
		}
	}

	if len(data.News) > 0 {
		fmt.Fprintf(&b, "\nRECENT NEWS (%d articles):\n", len(data.News))
		for i, item := range data.News {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item.Title)
			if item.Source != "" {
				fmt.Fprintf(&b, "   Source: %s\n", item.Source)
			}
			if item.Content != "" {
				content := item.Content
				if len(content) > 500 {
					content = content[:500] + "..."
				}
				fmt.Fprintf(&b, "   Content: %s\n", content)
			}
		}
	}

	return b.String()
}

// priceTable renders up to days observations as a pipe-delimited table.
func priceTable(history models.ObservationSeries, days int) string {
	var b strings.Builder
	b.WriteString("Date | Open | High | Low | Close | Volume\n")
	for i, day := range history {
		if days > 0 && i >= days {
			break
		}
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %s\n",
			day.Date, day.Open, day.High, day.Low, day.Close, day.Volume)
	}
	return b.String()
}

// anomalySummary renders an anomaly report as the text block for the
// fraud-risk narrative prompt.
func anomalySummary(symbol string, report *models.AnomalyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ANOMALY INDICATORS FOR %s:\n", symbol)

	if len(report.VolumeSpikes) > 0 {
		fmt.Fprintf(&b, "\nVOLUME SPIKES (%d):\n", len(report.VolumeSpikes))
		for _, spike := range report.VolumeSpikes {
			fmt.Fprintf(&b, "- %s: volume %.0f vs average %.0f (%.1fx, %s)\n",
				spike.Date, spike.Volume, spike.AverageVolume, spike.Ratio, spike.Severity)
		}
	}

	if len(report.AbnormalReturns) > 0 {
		fmt.Fprintf(&b, "\nABNORMAL RETURNS (%d):\n", len(report.AbnormalReturns))
		for _, event := range report.AbnormalReturns {
			fmt.Fprintf(&b, "- %s: return %.2f%% vs expected %.2f%% (abnormal %.2f%%, %s)\n",
				event.Date, event.DailyReturn, event.ExpectedReturn, event.AbnormalReturn, event.Severity)
		}
	}

	fmt.Fprintf(&b, "\nCumulative Abnormal Return: %.2f%%\n", report.CumulativeAbnormalReturn)

	if len(report.RedFlags) > 0 {
		b.WriteString("\nRED FLAGS:\n")
		for _, flag := range report.RedFlags {
			fmt.Fprintf(&b, "- %s\n", flag)
		}
	} else {
		b.WriteString("\nNo red flags detected.\n")
	}

	return b.String()
}

// financialsText renders scraped statement rows for the fundamental prompt.
func financialsText(financials *models.Financials) string {
	var b strings.Builder
	section := func(name string, rows []models.FinancialRow) {
		if len(rows) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", name)
		for _, row := range rows {
			fmt.Fprintf(&b, "%s: %s\n", row.Label, row.Value)
		}
		b.WriteString("\n")
	}
	section("INCOME STATEMENT", financials.Income)
	section("BALANCE SHEET", financials.BalanceSheet)
	section("RATIOS", financials.Ratios)
	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
