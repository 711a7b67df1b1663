package migration

import (
	"testing"

	"districtrisk/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunner_ValidatesTableName(t *testing.T) {
	_, err := NewRunner("observations; DROP TABLE users")
	assert.Error(t, err)

	r, err := NewRunner("analytics.observations")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", r.Version())
	assert.Contains(t, r.upsertQuery(), "INSERT INTO analytics.observations")
}

func TestToRecord_MissingMetricsAreNull(t *testing.T) {
	rec := toRecord(testkit.Scored("Kerala", "Idukki", "2025-03-01", 0.04))

	assert.Equal(t, "Kerala", rec.State)
	assert.Equal(t, "2025-03-01", rec.Date)
	assert.True(t, rec.Risk.Valid)
	assert.Equal(t, 0.04, rec.Risk.Float64)
	assert.False(t, rec.BiometricRatio.Valid)

	rec = toRecord(testkit.Unscored("Kerala", "Idukki", "2025-03-01", 2, 0.01, 0.02))
	assert.False(t, rec.Risk.Valid)
	assert.True(t, rec.ChildPressure.Valid)
	assert.Equal(t, 0.01, rec.ChildPressure.Float64)
}

func TestIndexName_FlattensSchema(t *testing.T) {
	assert.Equal(t, "idx_analytics_observations_date", indexName("analytics.observations", "date"))
	assert.Equal(t, "idx_observations_date", indexName("observations", "date"))
}
