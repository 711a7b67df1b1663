package risk

import (
	"errors"
	"testing"

	"districtrisk/domain/core"
	"districtrisk/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEstimator struct {
	mock.Mock
}

func (m *mockEstimator) Predict(vector []float64) (float64, error) {
	args := m.Called(vector)
	return args.Get(0).(float64), args.Error(1)
}

func TestScorer_StoredScoreIsAuthoritative(t *testing.T) {
	est := &mockEstimator{}
	scorer := NewScorer(est)

	obs := testkit.Unscored("S", "A", "2025-01-01", 2, 0.01, 0.02)
	obs.ServiceStressRisk.Value = 0.042
	obs.ServiceStressRisk.Valid = true

	so, err := scorer.Resolve(obs)
	require.NoError(t, err)
	assert.Equal(t, 0.042, so.Score)
	assert.False(t, so.Estimated)
	est.AssertNotCalled(t, "Predict", mock.Anything)
}

func TestScorer_FallsBackToEstimator(t *testing.T) {
	est := &mockEstimator{}
	est.On("Predict", []float64{2, 0.01, 0.02}).Return(0.025, nil).Once()
	scorer := NewScorer(est)

	so, err := scorer.Resolve(testkit.Unscored("S", "A", "2025-01-01", 2, 0.01, 0.02))
	require.NoError(t, err)
	assert.Equal(t, 0.025, so.Score)
	assert.True(t, so.Estimated)
	est.AssertExpectations(t)
}

func TestScorer_Errors(t *testing.T) {
	missing := testkit.Scored("S", "A", "2025-01-01", 0)
	missing.ServiceStressRisk.Valid = false

	_, err := NewScorer(&mockEstimator{}).Score(missing)
	assert.ErrorIs(t, err, core.ErrScoring, "missing indicators")

	_, err = NewScorer(nil).Score(testkit.Unscored("S", "A", "2025-01-01", 1, 1, 1))
	assert.ErrorIs(t, err, core.ErrScoring, "no estimator")

	failing := &mockEstimator{}
	failing.On("Predict", mock.Anything).Return(0.0, errors.New("boom"))
	_, err = NewScorer(failing).Score(testkit.Unscored("S", "A", "2025-01-01", 1, 1, 1))
	assert.ErrorIs(t, err, core.ErrScoring, "estimator failure")
}

func TestScorer_ScoreAllSkipsUnscorableRows(t *testing.T) {
	rows := testkit.TwoDistrictState()
	rows = append(rows, testkit.Unscored("S", "C", "2025-01-01", 1, 1, 1))

	scored, skipped := NewScorer(nil).ScoreAll(rows)
	assert.Len(t, scored, 6)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, "A", scored[0].District)
}
