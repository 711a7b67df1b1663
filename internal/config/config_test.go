package config

import (
	"testing"
	"time"

	"districtrisk/internal"
	"districtrisk/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "GIN_MODE", "SHUTDOWN_TIMEOUT", "DATA_SOURCE", "DATA_FILE", "DATA_SHEET",
	"DATABASE_URL", "OBSERVATIONS_TABLE", "LOAD_TIMEOUT", "MODEL_FILE",
	"RISK_LOW_THRESHOLD", "RISK_HIGH_THRESHOLD", "HOTSPOT_SENSITIVITY",
	"PERCENTILE_SCOPE", "EXPORT_DECIMALS", "METRICS_ENABLED", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, SourceSynthetic, cfg.Data.Source)
	assert.Equal(t, "observations", cfg.Data.Table)
	assert.Equal(t, 0.01, cfg.Risk.LowThreshold)
	assert.Equal(t, 0.03, cfg.Risk.HighThreshold)
	assert.Equal(t, 1.0, cfg.Risk.HotspotSensitivity)
	assert.Equal(t, "state", cfg.Risk.PercentileScope)
	assert.Equal(t, -1, cfg.Risk.ExportDecimals)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, internal.LogLevelInfo, cfg.Log.Level)
}

func TestLoad_DataFileImpliesFileSource(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_FILE", "district_risk.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SourceFile, cfg.Data.Source)
	assert.Equal(t, "district_risk.csv", cfg.Data.File)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"thresholds out of order": {"RISK_LOW_THRESHOLD": "0.05", "RISK_HIGH_THRESHOLD": "0.01"},
		"threshold not a number":  {"RISK_LOW_THRESHOLD": "low"},
		"zero sensitivity":        {"HOTSPOT_SENSITIVITY": "0"},
		"unknown scope":           {"PERCENTILE_SCOPE": "galaxy"},
		"unknown source":          {"DATA_SOURCE": "s3"},
		"postgres without url":    {"DATA_SOURCE": "postgres"},
		"file without path":       {"DATA_SOURCE": "file"},
		"bad decimals":            {"EXPORT_DECIMALS": "-3"},
		"bad bool":                {"METRICS_ENABLED": "sometimes"},
		"bad duration":            {"LOAD_TIMEOUT": "soon"},
		"bad log level":           {"LOG_LEVEL": "LOUD"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
