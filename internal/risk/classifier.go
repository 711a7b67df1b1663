package risk

import (
	"fmt"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
)

// Default verdict cut-points over the service_stress_risk scale.
// Bands are closed-open: [.., low) LOW, [low, high) MEDIUM, [high, ..) HIGH.
const (
	DefaultLowThreshold  = 0.01
	DefaultHighThreshold = 0.03
)

// Classifier maps a continuous score to a verdict band.
type Classifier struct {
	low  float64
	high float64
}

// NewClassifier validates and returns a classifier with the given cut-points.
func NewClassifier(low, high float64) (Classifier, error) {
	if !isFinite(low) || !isFinite(high) {
		return Classifier{}, core.NewInvalidArgumentError("thresholds", "must be finite")
	}
	if low >= high {
		return Classifier{}, core.NewInvalidArgumentError("thresholds", fmt.Sprintf("low %v must be below high %v", low, high))
	}
	return Classifier{low: low, high: high}, nil
}

// DefaultClassifier uses DefaultLowThreshold and DefaultHighThreshold.
func DefaultClassifier() Classifier {
	return Classifier{low: DefaultLowThreshold, high: DefaultHighThreshold}
}

// Thresholds returns the (low, high) cut-points.
func (c Classifier) Thresholds() (float64, float64) {
	return c.low, c.high
}

// Classify returns the band containing score; boundary values belong to the higher band.
func (c Classifier) Classify(score float64) (observation.Verdict, error) {
	if !isFinite(score) {
		return "", fmt.Errorf("%w: %v is not finite", core.ErrInvalidScore, score)
	}
	switch {
	case score < c.low:
		return observation.VerdictLow, nil
	case score < c.high:
		return observation.VerdictMedium, nil
	default:
		return observation.VerdictHigh, nil
	}
}
