package models

// Severity grades an anomaly event.
type Severity string

const (
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// RiskLevel summarizes an AnomalyReport for API consumers.
const (
	RiskLevelHigh = "High"
	RiskLevelLow  = "Low"
)

// VolumeSpike records a day whose trading volume exceeded the spike
// threshold relative to the trailing baseline.
type VolumeSpike struct {
	Date          string   `json:"date"`
	Ratio         float64  `json:"ratio"`
	Volume        float64  `json:"volume"`
	AverageVolume float64  `json:"avg_volume"`
	Severity      Severity `json:"severity"`
}

// AbnormalReturnEvent records a day whose return deviated from the trailing
// expected return by more than the flagging thresholds.
type AbnormalReturnEvent struct {
	Date           string   `json:"date"`
	DailyReturn    float64  `json:"daily_return"`
	ExpectedReturn float64  `json:"expected_return"`
	AbnormalReturn float64  `json:"abnormal_return"`
	Severity       Severity `json:"severity"`
}

// AnomalyReport is the output of the anomaly indicator engine: volume spikes,
// abnormal-return events, the cumulative abnormal return over the flagged
// days, and human-readable red flags. It is produced fresh per computation
// and has no persistent identity of its own.
type AnomalyReport struct {
	VolumeSpikes             []VolumeSpike         `json:"volume_spikes"`
	AbnormalReturns          []AbnormalReturnEvent `json:"abnormal_returns"`
	CumulativeAbnormalReturn float64               `json:"cumulative_abnormal_return"`
	RedFlags                 []string              `json:"red_flags"`
}

// RiskLevel derives the coarse risk grade: High when any red flag is present.
func (r *AnomalyReport) RiskLevel() string {
	if r != nil && len(r.RedFlags) > 0 {
		return RiskLevelHigh
	}
	return RiskLevelLow
}

// HasAnomalies reports whether any spike or abnormal return was flagged.
func (r *AnomalyReport) HasAnomalies() bool {
	return r != nil && (len(r.VolumeSpikes) > 0 || len(r.AbnormalReturns) > 0)
}
