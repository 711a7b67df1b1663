package risk

import (
	"math"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// flatSlopeTolerance absorbs floating-point noise in the fitted slope.
const flatSlopeTolerance = 1e-12

// TrendStatistics fits score against day ordinal and measures volatility as the
// population standard deviation of successive first differences.
// Fewer than two points give a zero slope; fewer than two differences give zero volatility.
func TrendStatistics(points []observation.TrendPoint) (slope float64, direction observation.Direction, volatility float64) {
	if len(points) >= 2 {
		xs := make([]float64, len(points))
		ys := make([]float64, len(points))
		for i, p := range points {
			xs[i] = core.DayOrdinal(p.Date)
			ys[i] = p.Score
		}
		_, slope = stat.LinearRegression(xs, ys, nil, false)
		if math.IsNaN(slope) || math.IsInf(slope, 0) {
			slope = 0
		}

		diffs := make([]float64, len(points)-1)
		for i := 1; i < len(points); i++ {
			diffs[i-1] = points[i].Score - points[i-1].Score
		}
		if sd, err := stats.StandardDeviationPopulation(diffs); err == nil {
			volatility = sd
		}
	}

	switch {
	case slope > flatSlopeTolerance:
		direction = observation.DirectionUp
	case slope < -flatSlopeTolerance:
		direction = observation.DirectionDown
	default:
		direction = observation.DirectionFlat
	}
	return slope, direction, volatility
}

// buildTrend scores a date-ordered history, skipping unscorable rows.
func buildTrend(state, district string, history []observation.Observation, scorer *Scorer) (*observation.Trend, error) {
	scored, skipped := scorer.ScoreAll(history)
	if len(scored) == 0 {
		return nil, core.NewScoringError(state+"/"+district, "no scorable observations in history")
	}

	points := make([]observation.TrendPoint, len(scored))
	for i, so := range scored {
		points[i] = observation.TrendPoint{Date: so.Date, Score: so.Score}
	}
	slope, direction, volatility := TrendStatistics(points)

	return &observation.Trend{
		State:      state,
		District:   district,
		Points:     points,
		Slope:      slope,
		Direction:  direction,
		Volatility: volatility,
		Skipped:    skipped,
	}, nil
}
