package risk

import (
	"math"
	"testing"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_BoundariesBelongToHigherBand(t *testing.T) {
	c, err := NewClassifier(30, 70)
	require.NoError(t, err)

	cases := []struct {
		score float64
		want  observation.Verdict
	}{
		{29.999, observation.VerdictLow},
		{30, observation.VerdictMedium},
		{69.999, observation.VerdictMedium},
		{70, observation.VerdictHigh},
		{-5, observation.VerdictLow},
		{1e9, observation.VerdictHigh},
	}
	for _, tc := range cases {
		got, err := c.Classify(tc.score)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "score %v", tc.score)
	}
}

func TestClassify_DefaultThresholds(t *testing.T) {
	c := DefaultClassifier()
	low, high := c.Thresholds()
	assert.Equal(t, DefaultLowThreshold, low)
	assert.Equal(t, DefaultHighThreshold, high)

	v, _ := c.Classify(0.005)
	assert.Equal(t, observation.VerdictLow, v)
	v, _ = c.Classify(0.01)
	assert.Equal(t, observation.VerdictMedium, v)
	v, _ = c.Classify(0.03)
	assert.Equal(t, observation.VerdictHigh, v)
}

func TestClassify_Monotonic(t *testing.T) {
	c := DefaultClassifier()
	prev := -1
	for s := -0.01; s <= 0.06; s += 0.0005 {
		v, err := c.Classify(s)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v.Rank(), prev, "score %v", s)
		prev = v.Rank()
	}
}

func TestClassify_RejectsNonFinite(t *testing.T) {
	c := DefaultClassifier()
	for _, s := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := c.Classify(s)
		assert.ErrorIs(t, err, core.ErrInvalidScore)
	}
}

func TestNewClassifier_Validation(t *testing.T) {
	_, err := NewClassifier(0.03, 0.01)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = NewClassifier(0.02, 0.02)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = NewClassifier(math.NaN(), 1)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}
