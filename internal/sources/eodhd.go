package sources

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/eodhd"
	"github.com/ternarybob/vigil/internal/models"
)

// EODHDSource adapts the EODHD API client to the history and quote source
// interfaces. API bars are formatted into the same raw observation strings
// the scrapers produce, so downstream parsing is identical for both paths.
type EODHDSource struct {
	client *eodhd.Client
	logger arbor.ILogger
}

// NewEODHDSource wraps an EODHD client as a data source.
func NewEODHDSource(client *eodhd.Client, logger arbor.ILogger) *EODHDSource {
	return &EODHDSource{client: client, logger: logger}
}

// FetchHistory returns up to days of end-of-day bars, most recent first.
// The date range requested is widened to cover weekends and holidays.
func (e *EODHDSource) FetchHistory(ctx context.Context, ticker common.Ticker, days int) (models.ObservationSeries, error) {
	if days <= 0 {
		days = 90
	}

	now := time.Now()
	from := now.AddDate(0, 0, -days*2)

	bars, err := e.client.GetEOD(ctx, ticker.EODHDSymbol(),
		eodhd.WithDateRange(from, now),
		eodhd.WithOrder("d"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch EOD history for %s: %w", ticker.String(), err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no EOD history returned for %s", ticker.String())
	}
	if len(bars) > days {
		bars = bars[:days]
	}

	series := make(models.ObservationSeries, 0, len(bars))
	for _, bar := range bars {
		series = append(series, models.DailyObservation{
			Date:   bar.DateStr,
			Open:   formatPrice(bar.Open),
			High:   formatPrice(bar.High),
			Low:    formatPrice(bar.Low),
			Close:  formatPrice(bar.Close),
			Volume: strconv.FormatInt(bar.Volume, 10),
		})
	}

	e.logger.Debug().
		Str("symbol", ticker.String()).
		Int("bars", len(series)).
		Msg("Fetched EOD history")

	return series, nil
}

// FetchQuote returns the latest real-time quote from the API.
func (e *EODHDSource) FetchQuote(ctx context.Context, ticker common.Ticker) (*models.Quote, error) {
	data, err := e.client.GetRealTimeQuote(ctx, ticker.EODHDSymbol())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", ticker.String(), err)
	}

	return &models.Quote{
		Symbol:    ticker.Code,
		Exchange:  ticker.Exchange,
		Price:     formatPrice(data.Close),
		Source:    "eodhd",
		FetchedAt: time.Now(),
	}, nil
}

func formatPrice(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
