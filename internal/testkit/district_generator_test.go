package testkit

import (
	"context"
	"testing"

	"districtrisk/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistrictDataGenerator_Deterministic(t *testing.T) {
	config := DefaultDistrictConfig()
	first := NewDistrictDataGenerator(config).Generate()
	second := NewDistrictDataGenerator(config).Generate()

	require.Equal(t, len(first), len(second))
	assert.Equal(t, first, second)
	assert.Len(t, first, len(config.States)*config.DistrictsPerState*config.Days)
}

func TestSyntheticSource_LoadsCleanly(t *testing.T) {
	config := DefaultDistrictConfig()
	idx, report, err := dataset.Load(context.Background(), NewSyntheticSource(config))
	require.NoError(t, err)

	assert.Empty(t, report.Rejected)
	assert.Equal(t, report.TotalRows, idx.Len())
	assert.Len(t, idx.States(), len(config.States))
	assert.Equal(t, len(config.States)*config.DistrictsPerState, idx.DistrictCount())
}

func TestTwoDistrictState_BuildsIndex(t *testing.T) {
	idx := NewIndex(t, TwoDistrictState()...)
	districts, err := idx.Districts("S")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, districts)
}
