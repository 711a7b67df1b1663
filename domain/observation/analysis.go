package observation

import (
	"encoding/json"
	"time"

	"districtrisk/domain/core"
)

// Verdict is a discretized risk band.
type Verdict string

const (
	VerdictLow    Verdict = "LOW"
	VerdictMedium Verdict = "MEDIUM"
	VerdictHigh   Verdict = "HIGH"
)

// Rank orders bands from lowest to highest.
func (v Verdict) Rank() int {
	switch v {
	case VerdictLow:
		return 0
	case VerdictMedium:
		return 1
	case VerdictHigh:
		return 2
	default:
		return -1
	}
}

// Description is the operator-facing summary of the band.
func (v Verdict) Description() string {
	switch v {
	case VerdictLow:
		return "Minimal service stress - operations running smoothly"
	case VerdictMedium:
		return "Moderate service stress - requires monitoring"
	case VerdictHigh:
		return "High service stress - immediate attention needed"
	default:
		return ""
	}
}

// RankingEntry is one aggregated district row of a ranking or export.
type RankingEntry struct {
	State    string            `json:"state"`
	District string            `json:"district"`
	Score    float64           `json:"average_risk"`
	Rank     int               `json:"rank"`
	Rows     int               `json:"rows"`
	Means    map[string]Metric `json:"means,omitempty"`
}

// Mean returns the aggregated value for a numeric column.
func (e RankingEntry) Mean(col string) Metric {
	if col == ColRisk {
		return Some(e.Score)
	}
	return e.Means[col]
}

// TrendPoint is one (date, score) sample.
type TrendPoint struct {
	Date  time.Time
	Score float64
}

// MarshalJSON renders the date in core.DateLayout.
func (p TrendPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string  `json:"date"`
		Score float64 `json:"risk_score"`
	}{core.FormatDate(p.Date), p.Score})
}

// Direction is the sign of a trend's slope.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Trend is the ordered history of a district with derived statistics.
type Trend struct {
	State      string       `json:"state"`
	District   string       `json:"district"`
	Points     []TrendPoint `json:"data"`
	Slope      float64      `json:"slope_per_day"`
	Direction  Direction    `json:"direction"`
	Volatility float64      `json:"volatility"`
	Skipped    int          `json:"skipped_rows"`
}

// DistrictMean is a district's average score within a state.
type DistrictMean struct {
	District string  `json:"district"`
	Mean     float64 `json:"average_risk"`
}

// HotspotReport describes the outlier test for one state.
type HotspotReport struct {
	State       string         `json:"state"`
	Sensitivity float64        `json:"sensitivity"`
	StateMean   float64        `json:"state_mean"`
	StateStdDev float64        `json:"state_stddev"`
	Threshold   float64        `json:"threshold"`
	Districts   []DistrictMean `json:"districts"`
	Hotspots    []DistrictMean `json:"hotspots"`
}

// Names returns the flagged district names in ascending order.
func (r HotspotReport) Names() []string {
	names := make([]string, 0, len(r.Hotspots))
	for _, h := range r.Hotspots {
		names = append(names, h.District)
	}
	return names
}
