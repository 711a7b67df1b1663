package risk

import (
	"context"
	"testing"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
	"districtrisk/internal/dataset"
	"districtrisk/internal/testkit"
	"districtrisk/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, est ports.Estimator, rows ...observation.Observation) *Engine {
	t.Helper()
	return NewEngine(testkit.NewIndex(t, rows...), NewScorer(est), DefaultConfig())
}

func TestEngine_ReferenceScenario(t *testing.T) {
	e := newTestEngine(t, nil, testkit.TwoDistrictState()...)
	population, err := e.Index().Filter(dataset.Filter{State: "S"})
	require.NoError(t, err)

	top, err := e.Top(1, population, Descending)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "B", top[0].District)
	assert.Equal(t, 50.0, top[0].Score)
	assert.Equal(t, 1, top[0].Rank)

	trend, err := e.Trend("S", "A")
	require.NoError(t, err)
	assert.Equal(t, observation.DirectionUp, trend.Direction)
	assert.InDelta(t, 10.0, trend.Slope, 1e-9)
	assert.Equal(t, 0.0, trend.Volatility, "differences are constant")

	// three of the six scores (10, 20, 30) are at or below 30
	pct, err := e.PercentileAt("S", "A", testkit.Date("2025-01-03"), ScopeState)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, pct.Percentile, 1e-9)
	assert.Equal(t, 6, pct.PopulationSize)

	// B's 50 ties with two peers and tops the population
	pct, err = e.PercentileAt("S", "B", testkit.Date("2025-01-01"), ScopeState)
	require.NoError(t, err)
	assert.Equal(t, 100.0, pct.Percentile)
}

func TestPercentile_Properties(t *testing.T) {
	population := []float64{0.3, 0.1, 0.2, 0.2, 0.5}

	prev := -1.0
	for s := 0.0; s <= 0.6; s += 0.01 {
		p, err := Percentile(s, population)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 100.0)
		assert.GreaterOrEqual(t, p, prev, "non-decreasing at %v", s)
		prev = p
	}

	p, _ := Percentile(0.2, population)
	assert.InDelta(t, 60.0, p, 1e-9, "ties are counted as at-or-below")

	_, err := Percentile(0.2, nil)
	assert.ErrorIs(t, err, core.ErrEmptyPopulation)
}

func TestEngine_PercentileScopes(t *testing.T) {
	rows := append(testkit.TwoDistrictState(),
		testkit.Scored("T", "C", "2025-01-03", 5),
		testkit.Scored("T", "C", "2025-01-04", 100),
	)
	e := newTestEngine(t, nil, rows...)

	byDate, err := e.PercentileAt("S", "A", testkit.Date("2025-01-03"), ScopeDate)
	require.NoError(t, err)
	assert.Equal(t, 3, byDate.PopulationSize)
	assert.InDelta(t, 200.0/3, byDate.Percentile, 1e-9)

	all, err := e.PercentileAt("S", "A", testkit.Date("2025-01-03"), ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, 8, all.PopulationSize)
	assert.InDelta(t, 50.0, all.Percentile, 1e-9)

	_, err = e.PercentileAt("S", "A", testkit.Date("2030-01-01"), ScopeState)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = ParseScope("galaxy")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestEngine_PercentileOfUnscorableSubject(t *testing.T) {
	rows := append(testkit.TwoDistrictState(), testkit.Unscored("S", "C", "2025-01-01", 1, 1, 1))
	e := newTestEngine(t, nil, rows...)

	_, err := e.PercentileAt("S", "C", testkit.Date("2025-01-01"), ScopeState)
	assert.ErrorIs(t, err, core.ErrScoring)

	pct, err := e.PercentileAt("S", "A", testkit.Date("2025-01-01"), ScopeState)
	require.NoError(t, err)
	assert.Equal(t, 1, pct.Skipped)
	assert.Equal(t, 6, pct.PopulationSize)
}

func TestTop_CountOrderAndIdempotence(t *testing.T) {
	rows := []observation.Observation{
		testkit.Scored("S", "Delta", "2025-01-01", 0.02),
		testkit.Scored("S", "Alpha", "2025-01-01", 0.02),
		testkit.Scored("S", "Charlie", "2025-01-01", 0.05),
		testkit.Scored("T", "Alpha", "2025-01-01", 0.02),
		testkit.Scored("S", "Bravo", "2025-01-01", 0.01),
	}
	e := newTestEngine(t, nil, rows...)
	population := e.Index().All()

	top, err := e.Top(10, population, Descending)
	require.NoError(t, err)
	require.Len(t, top, 5, "min(n, distinct districts)")

	names := make([]string, len(top))
	for i, entry := range top {
		names[i] = entry.State + "/" + entry.District
		assert.Equal(t, i+1, entry.Rank)
	}
	assert.Equal(t, []string{"S/Charlie", "S/Alpha", "T/Alpha", "S/Delta", "S/Bravo"}, names)

	again, err := e.Top(10, population, Descending)
	require.NoError(t, err)
	assert.Equal(t, top, again)

	bottom, err := e.Top(2, population, Ascending)
	require.NoError(t, err)
	require.Len(t, bottom, 2)
	assert.Equal(t, "Bravo", bottom[0].District)
	assert.Equal(t, "Alpha", bottom[1].District)

	_, err = e.Top(0, population, Descending)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestTrend_SinglePointIsFlat(t *testing.T) {
	e := newTestEngine(t, nil, testkit.Scored("S", "A", "2025-01-01", 0.02))

	trend, err := e.Trend("S", "A")
	require.NoError(t, err)
	assert.Equal(t, observation.DirectionFlat, trend.Direction)
	assert.Equal(t, 0.0, trend.Slope)
	assert.Equal(t, 0.0, trend.Volatility)
	assert.Len(t, trend.Points, 1)

	_, err = e.Trend("S", "Z")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTrend_VolatilityAndDirection(t *testing.T) {
	e := newTestEngine(t, nil,
		testkit.Scored("S", "A", "2025-01-01", 4),
		testkit.Scored("S", "A", "2025-01-02", 2),
		testkit.Scored("S", "A", "2025-01-03", 3),
		testkit.Scored("S", "A", "2025-01-04", 0),
	)
	trend, err := e.Trend("S", "A")
	require.NoError(t, err)
	assert.Equal(t, observation.DirectionDown, trend.Direction)
	// differences -2, 1, -3 have mean -4/3 and population stddev sqrt(78/27)
	assert.InDelta(t, 1.6996731711975948, trend.Volatility, 1e-12)

	flat := newTestEngine(t, nil, testkit.TwoDistrictState()...)
	trendB, err := flat.Trend("S", "B")
	require.NoError(t, err)
	assert.Equal(t, observation.DirectionFlat, trendB.Direction)
}

func TestTrend_AllRowsUnscorable(t *testing.T) {
	e := newTestEngine(t, nil, testkit.Unscored("S", "A", "2025-01-01", 1, 1, 1))
	_, err := e.Trend("S", "A")
	assert.ErrorIs(t, err, core.ErrScoring)
}

func TestHotspots(t *testing.T) {
	rows := []observation.Observation{
		testkit.Scored("S", "A", "2025-01-01", 0.010),
		testkit.Scored("S", "B", "2025-01-01", 0.011),
		testkit.Scored("S", "C", "2025-01-01", 0.009),
		testkit.Scored("S", "D", "2025-01-01", 0.010),
		testkit.Scored("S", "E", "2025-01-01", 0.060),
		testkit.Scored("Solo", "Only", "2025-01-01", 0.9),
		testkit.Scored("Solo", "Only", "2025-01-02", 0.1),
	}
	e := newTestEngine(t, nil, rows...)

	report, err := e.Hotspots("S", 1.0)
	require.NoError(t, err)
	assert.Equal(t, []string{"E"}, report.Names())
	assert.Greater(t, report.Threshold, report.StateMean)
	assert.Len(t, report.Districts, 5)

	none, err := e.Hotspots("S", 5.0)
	require.NoError(t, err)
	assert.Empty(t, none.Names())

	for _, s := range []float64{0.01, 1, 100} {
		solo, err := e.Hotspots("Solo", s)
		require.NoError(t, err)
		assert.Empty(t, solo.Names(), "a single district is never a hotspot")
	}

	_, err = e.Hotspots("Nowhere", 1)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = e.Hotspots("S", -1)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	defaulted, err := e.Hotspots("S", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultHotspotSensitivity, defaulted.Sensitivity)
}

func TestAllHotspots_OrderedByState(t *testing.T) {
	e := NewEngine(mustLoadSynthetic(t), NewScorer(nil), DefaultConfig())

	reports, err := e.AllHotspots(context.Background(), 1.0)
	require.NoError(t, err)
	require.Len(t, reports, len(e.Index().States()))
	for i, r := range reports {
		assert.Equal(t, e.Index().States()[i], r.State)
	}
}

func TestModelStats(t *testing.T) {
	exact := ports.EstimatorFunc(func(v []float64) (float64, error) { return v[0], nil })
	rows := []observation.Observation{
		testkit.Unscored("S", "A", "2025-01-01", 1, 0, 0),
		testkit.Unscored("S", "A", "2025-01-02", 2, 0, 0),
		testkit.Unscored("S", "A", "2025-01-03", 3, 0, 0),
	}
	rows[0].ServiceStressRisk = observation.Some(1)
	rows[1].ServiceStressRisk = observation.Some(2)
	rows[2].ServiceStressRisk = observation.Some(4)

	stats := newTestEngine(t, exact, rows...).ModelStats()
	assert.Equal(t, 3, stats.Samples)
	assert.InDelta(t, 1.0/3, stats.MAE, 1e-12)
	assert.InDelta(t, 0.5773502691896257, stats.RMSE, 1e-12)
	require.NotNil(t, stats.Spearman)
	assert.InDelta(t, 1.0, *stats.Spearman, 1e-12)

	noModel := newTestEngine(t, nil, rows...).ModelStats()
	assert.Equal(t, 0, noModel.Samples)
	assert.Nil(t, noModel.Spearman)
}

func mustLoadSynthetic(t *testing.T) *dataset.Index {
	t.Helper()
	idx, _, err := dataset.Load(context.Background(), testkit.NewSyntheticSource(testkit.DefaultDistrictConfig()))
	require.NoError(t, err)
	return idx
}
