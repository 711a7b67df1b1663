package testkit

import (
	"testing"
	"time"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
	"districtrisk/internal/dataset"
)

// Date parses a YYYY-MM-DD literal and panics on error; for fixtures only.
func Date(s string) time.Time {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Scored returns an observation carrying only a stored score.
func Scored(state, district, date string, score float64) observation.Observation {
	return observation.Observation{
		State:             state,
		District:          district,
		Date:              Date(date),
		ServiceStressRisk: observation.Some(score),
	}
}

// Unscored returns an observation with indicators and no stored score.
func Unscored(state, district, date string, ratio, child, elderly float64) observation.Observation {
	return observation.Observation{
		State:                     state,
		District:                  district,
		Date:                      Date(date),
		BiometricToEnrolmentRatio: observation.Some(ratio),
		ChildUpdatePressure:       observation.Some(child),
		ElderlyUpdatePressure:     observation.Some(elderly),
	}
}

// NewIndex builds an Index from fixtures, failing the test on error.
func NewIndex(t testing.TB, rows ...observation.Observation) *dataset.Index {
	t.Helper()
	idx, err := dataset.NewIndex(rows)
	if err != nil {
		t.Fatalf("failed to build fixture index: %v", err)
	}
	return idx
}

// TwoDistrictState is the reference scenario: district A scores 10, 20, 30 and
// district B scores 50, 50, 50 on the same three dates of state S.
func TwoDistrictState() []observation.Observation {
	return []observation.Observation{
		Scored("S", "A", "2025-01-01", 10),
		Scored("S", "A", "2025-01-02", 20),
		Scored("S", "A", "2025-01-03", 30),
		Scored("S", "B", "2025-01-01", 50),
		Scored("S", "B", "2025-01-02", 50),
		Scored("S", "B", "2025-01-03", 50),
	}
}
