// -----------------------------------------------------------------------
// Anomaly Indicator Engine - volume spikes, abnormal returns, red flags
// -----------------------------------------------------------------------

package indicators

import (
	"errors"
	"fmt"

	"github.com/ternarybob/vigil/internal/models"
)

// ErrInsufficientData marks a series that cannot support the computation.
// It is a data-sufficiency outcome, not a fault: callers check it with
// errors.Is and proceed without the indicators.
var ErrInsufficientData = errors.New("insufficient data for anomaly indicators")

// Config holds the engine thresholds. The defaults are the calibrated
// values; they are configuration so tests can probe boundaries, not because
// deployments are expected to tune them.
type Config struct {
	// MinObservations is the minimum series length to attempt anything.
	MinObservations int `json:"min_observations"`
	// BaselineSkip excludes the most recent days from the volume baseline
	// and the expected-return window, so the days under test do not
	// contaminate their own reference.
	BaselineSkip int `json:"baseline_skip"`
	// MinBaselineVolumes is the minimum parseable volumes in the baseline pool.
	MinBaselineVolumes int `json:"min_baseline_volumes"`
	// SpikeWindow is how many recent days are tested for volume spikes.
	SpikeWindow int `json:"spike_window"`
	// SpikeRatio flags a day when volume/baseline exceeds it.
	SpikeRatio float64 `json:"spike_ratio"`
	// SpikeRatioHigh upgrades a spike to HIGH severity.
	SpikeRatioHigh float64 `json:"spike_ratio_high"`
	// MinReturns is the minimum parseable daily returns for the
	// abnormal-return analysis; below it the report stays partial.
	MinReturns int `json:"min_returns"`
	// ReturnWindow is how many recent returns are tested for abnormality.
	ReturnWindow int `json:"return_window"`
	// AbnormalReturnPct is the absolute percentage-point floor for flagging.
	AbnormalReturnPct float64 `json:"abnormal_return_pct"`
	// AbnormalReturnHighPct upgrades an abnormal return to HIGH severity.
	AbnormalReturnHighPct float64 `json:"abnormal_return_high_pct"`
	// SigmaMultiple is the dispersion floor: a flagged deviation must also
	// exceed SigmaMultiple times the trailing standard deviation.
	SigmaMultiple float64 `json:"sigma_multiple"`
	// MultiSpikeCount triggers the manipulation aggregate flag.
	MultiSpikeCount int `json:"multi_spike_count"`
	// HighCARPct triggers the cumulative-abnormal-return aggregate flag.
	HighCARPct float64 `json:"high_car_pct"`
}

// DefaultConfig returns the calibrated engine thresholds.
func DefaultConfig() Config {
	return Config{
		MinObservations:       20,
		BaselineSkip:          5,
		MinBaselineVolumes:    10,
		SpikeWindow:           10,
		SpikeRatio:            3.0,
		SpikeRatioHigh:        5.0,
		MinReturns:            10,
		ReturnWindow:          10,
		AbnormalReturnPct:     2.0,
		AbnormalReturnHighPct: 5.0,
		SigmaMultiple:         2.0,
		MultiSpikeCount:       3,
		HighCARPct:            10.0,
	}
}

// Engine computes anomaly indicators over a daily observation series. It is
// pure and stateless beyond its thresholds: no I/O, no mutation of the
// input, safe for concurrent use from any number of callers.
type Engine struct {
	config Config
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// dailyReturn pairs a close-to-close percentage return with the label of the
// later day.
type dailyReturn struct {
	date string
	pct  float64
}

// Compute derives the anomaly report for a most-recent-first observation
// series.
//
// It returns ErrInsufficientData when the series is shorter than
// MinObservations, when fewer than MinBaselineVolumes baseline volumes
// parse, or when the volume baseline is zero. Too few parseable returns is
// not an error: the report is returned with volume spikes only, and the
// aggregate flags are skipped along with the abnormal-return analysis.
func (e *Engine) Compute(observations []models.DailyObservation) (*models.AnomalyReport, error) {
	if len(observations) < e.config.MinObservations {
		return nil, fmt.Errorf("%w: need %d observations, have %d",
			ErrInsufficientData, e.config.MinObservations, len(observations))
	}

	baseline, err := e.volumeBaseline(observations)
	if err != nil {
		return nil, err
	}

	report := &models.AnomalyReport{
		VolumeSpikes:    []models.VolumeSpike{},
		AbnormalReturns: []models.AbnormalReturnEvent{},
		RedFlags:        []string{},
	}

	e.detectVolumeSpikes(observations, baseline, report)

	returns := e.dailyReturns(observations)
	if len(returns) < e.config.MinReturns {
		return report, nil
	}

	cumulative := e.detectAbnormalReturns(returns, report)
	e.appendAggregateFlags(report, cumulative)
	report.CumulativeAbnormalReturn = round(cumulative, 2)

	return report, nil
}

// volumeBaseline averages the parseable, non-negative volumes of the
// observations past BaselineSkip.
func (e *Engine) volumeBaseline(observations []models.DailyObservation) (float64, error) {
	volumes := make([]float64, 0, len(observations))
	for _, obs := range observations[e.config.BaselineSkip:] {
		v, ok := parseVolume(obs.Volume)
		if !ok || v < 0 {
			continue
		}
		volumes = append(volumes, v)
	}

	if len(volumes) < e.config.MinBaselineVolumes {
		return 0, fmt.Errorf("%w: need %d baseline volumes, have %d",
			ErrInsufficientData, e.config.MinBaselineVolumes, len(volumes))
	}

	baseline := mean(volumes)
	if baseline == 0 {
		// Every baseline volume parsed to zero: the pool carries no signal
		// to normalize against, so the indicator is unavailable rather
		// than a division by zero.
		return 0, fmt.Errorf("%w: volume baseline is zero", ErrInsufficientData)
	}

	return baseline, nil
}

// detectVolumeSpikes tests the SpikeWindow most recent days against the
// baseline. Spikes inside the BaselineSkip window additionally raise a red
// flag, since those are the days the baseline was built to test.
func (e *Engine) detectVolumeSpikes(observations []models.DailyObservation, baseline float64, report *models.AnomalyReport) {
	window := e.config.SpikeWindow
	if window > len(observations) {
		window = len(observations)
	}

	for i, obs := range observations[:window] {
		volume, ok := parseVolume(obs.Volume)
		if !ok {
			continue
		}

		ratio := volume / baseline
		if ratio <= e.config.SpikeRatio {
			continue
		}

		severity := models.SeverityMedium
		if ratio > e.config.SpikeRatioHigh {
			severity = models.SeverityHigh
		}

		report.VolumeSpikes = append(report.VolumeSpikes, models.VolumeSpike{
			Date:          obs.Date,
			Ratio:         round(ratio, 2),
			Volume:        volume,
			AverageVolume: baseline,
			Severity:      severity,
		})

		if i < e.config.BaselineSkip {
			report.RedFlags = append(report.RedFlags,
				fmt.Sprintf("Volume spike detected on %s: %.1fx normal volume", obs.Date, ratio))
		}
	}
}

// dailyReturns computes close-to-close percentage returns for every adjacent
// pair, most-recent-first. Pairs with an unparseable close, or a
// non-positive earlier close, are skipped.
func (e *Engine) dailyReturns(observations []models.DailyObservation) []dailyReturn {
	returns := make([]dailyReturn, 0, len(observations)-1)
	for i := 0; i < len(observations)-1; i++ {
		today, ok := parseClose(observations[i].Close)
		if !ok {
			continue
		}
		yesterday, ok := parseClose(observations[i+1].Close)
		if !ok || yesterday <= 0 {
			continue
		}
		returns = append(returns, dailyReturn{
			date: observations[i].Date,
			pct:  (today - yesterday) / yesterday * 100,
		})
	}
	return returns
}

// detectAbnormalReturns flags the ReturnWindow most recent returns whose
// deviation from the trailing expected return clears both the absolute and
// the dispersion thresholds, and returns the cumulative abnormal return.
// The cumulative sum accumulates the flagged days only - unflagged
// deviations are deliberately excluded.
func (e *Engine) detectAbnormalReturns(returns []dailyReturn, report *models.AnomalyReport) float64 {
	trailing := make([]float64, 0, len(returns)-e.config.BaselineSkip)
	for _, r := range returns[e.config.BaselineSkip:] {
		trailing = append(trailing, r.pct)
	}
	expected := mean(trailing)
	dispersion := pstdev(trailing)

	window := e.config.ReturnWindow
	if window > len(returns) {
		window = len(returns)
	}

	cumulative := 0.0
	for i, r := range returns[:window] {
		abnormal := r.pct - expected
		if abs(abnormal) <= e.config.AbnormalReturnPct || abs(abnormal) <= e.config.SigmaMultiple*dispersion {
			continue
		}

		severity := models.SeverityMedium
		if abs(abnormal) > e.config.AbnormalReturnHighPct {
			severity = models.SeverityHigh
		}

		report.AbnormalReturns = append(report.AbnormalReturns, models.AbnormalReturnEvent{
			Date:           r.date,
			DailyReturn:    round(r.pct, 2),
			ExpectedReturn: round(expected, 2),
			AbnormalReturn: round(abnormal, 2),
			Severity:       severity,
		})
		cumulative += abnormal

		if i < e.config.BaselineSkip {
			direction := "gain"
			if abnormal < 0 {
				direction = "drop"
			}
			report.RedFlags = append(report.RedFlags,
				fmt.Sprintf("Abnormal %s on %s: %.2f%% (expected %.2f%%)", direction, r.date, abs(abnormal), expected))
		}
	}

	return cumulative
}

// appendAggregateFlags raises the cross-event flags, in order: repeated
// spikes, high cumulative abnormal return, then spike/abnormal-return
// coincidence. Coincidence is exact string equality on the date labels -
// differently formatted labels for the same calendar day will not match,
// and that brittleness is kept rather than papered over.
func (e *Engine) appendAggregateFlags(report *models.AnomalyReport, cumulative float64) {
	if len(report.VolumeSpikes) >= e.config.MultiSpikeCount {
		report.RedFlags = append(report.RedFlags,
			fmt.Sprintf("Multiple volume spikes detected (%d days) - potential manipulation", len(report.VolumeSpikes)))
	}

	if abs(cumulative) > e.config.HighCARPct {
		report.RedFlags = append(report.RedFlags,
			fmt.Sprintf("High Cumulative Abnormal Return (%.2f%%) - unusual price pattern", cumulative))
	}

	for _, spike := range report.VolumeSpikes {
		for _, ar := range report.AbnormalReturns {
			if spike.Date == ar.Date {
				report.RedFlags = append(report.RedFlags,
					fmt.Sprintf("CRITICAL: Volume spike + Abnormal return on %s - possible insider trading", spike.Date))
				break
			}
		}
	}
}
