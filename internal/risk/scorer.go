package risk

import (
	"math"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
	"districtrisk/ports"
)

// ScoredObservation pairs an observation with its resolved score.
type ScoredObservation struct {
	observation.Observation
	Score     float64
	Estimated bool // true when the estimator produced the score
}

// Scorer resolves an observation's stress score: the stored value when present,
// otherwise the estimator's prediction from the indicator vector.
type Scorer struct {
	estimator ports.Estimator
}

// NewScorer creates a scorer; est may be nil, in which case only stored scores resolve.
func NewScorer(est ports.Estimator) *Scorer {
	return &Scorer{estimator: est}
}

// HasEstimator reports whether rows without a stored score can be scored.
func (s *Scorer) HasEstimator() bool {
	return s.estimator != nil
}

// Estimator returns the underlying estimator, or nil.
func (s *Scorer) Estimator() ports.Estimator {
	return s.estimator
}

// Score returns the observation's score. A stored service_stress_risk is
// authoritative and returned unchanged.
func (s *Scorer) Score(obs observation.Observation) (float64, error) {
	scored, err := s.resolve(obs)
	if err != nil {
		return 0, err
	}
	return scored.Score, nil
}

// Resolve is Score that also reports whether the estimator was used.
func (s *Scorer) Resolve(obs observation.Observation) (ScoredObservation, error) {
	return s.resolve(obs)
}

func (s *Scorer) resolve(obs observation.Observation) (ScoredObservation, error) {
	if stored := obs.ServiceStressRisk; stored.Valid && isFinite(stored.Value) {
		return ScoredObservation{Observation: obs, Score: stored.Value}, nil
	}

	vector, err := obs.Indicators()
	if err != nil {
		return ScoredObservation{}, err
	}
	if s.estimator == nil {
		return ScoredObservation{}, core.NewScoringError(obs.Key().String(), "no stored score and no estimator configured")
	}
	score, err := s.estimator.Predict(vector)
	if err != nil {
		return ScoredObservation{}, core.NewScoringError(obs.Key().String(), err.Error())
	}
	if !isFinite(score) {
		return ScoredObservation{}, core.NewScoringError(obs.Key().String(), "estimator returned a non-finite score")
	}
	return ScoredObservation{Observation: obs, Score: score, Estimated: true}, nil
}

// ScoreAll scores a batch, skipping rows that cannot be scored. The returned
// slice keeps input order.
func (s *Scorer) ScoreAll(population []observation.Observation) ([]ScoredObservation, int) {
	scored := make([]ScoredObservation, 0, len(population))
	skipped := 0
	for _, obs := range population {
		so, err := s.resolve(obs)
		if err != nil {
			skipped++
			continue
		}
		scored = append(scored, so)
	}
	return scored, skipped
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
