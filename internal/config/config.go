package config

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"districtrisk/internal"
	"districtrisk/internal/errors"
)

// Data source kinds
const (
	SourceFile      = "file"
	SourcePostgres  = "postgres"
	SourceSynthetic = "synthetic"
)

var percentileScopes = []string{"state", "date", "state_date", "all"}

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Data    DataConfig
	Model   ModelConfig
	Risk    RiskConfig
	Metrics MetricsConfig
	Log     LogConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// DataConfig selects and locates the dataset source
type DataConfig struct {
	Source      string
	File        string
	Sheet       string
	DatabaseURL string
	Table       string
	LoadTimeout time.Duration
}

// ModelConfig locates the optional estimator export
type ModelConfig struct {
	File string
}

// RiskConfig holds the engine tunables
type RiskConfig struct {
	LowThreshold       float64
	HighThreshold      float64
	HotspotSensitivity float64
	PercentileScope    string
	ExportDecimals     int
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level internal.LogLevel
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	serverConfig, err := loadServerConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load server configuration")
	}
	config.Server = *serverConfig

	dataConfig, err := loadDataConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load data configuration")
	}
	config.Data = *dataConfig

	config.Model = ModelConfig{File: getEnvOrDefault("MODEL_FILE", "")}

	riskConfig, err := loadRiskConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load risk configuration")
	}
	config.Risk = *riskConfig

	enabled, err := getEnvBoolOrDefault("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}
	config.Metrics = MetricsConfig{Enabled: enabled}

	logConfig, err := loadLogConfig()
	if err != nil {
		return nil, err
	}
	config.Log = *logConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() (*ServerConfig, error) {
	timeout, err := getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		ShutdownTimeout: timeout,
	}, nil
}

func loadDataConfig() (*DataConfig, error) {
	file := getEnvOrDefault("DATA_FILE", "")
	defaultSource := SourceSynthetic
	if file != "" {
		defaultSource = SourceFile
	}

	timeout, err := getEnvDurationOrDefault("LOAD_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return &DataConfig{
		Source:      strings.ToLower(getEnvOrDefault("DATA_SOURCE", defaultSource)),
		File:        file,
		Sheet:       getEnvOrDefault("DATA_SHEET", "Sheet1"),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
		Table:       getEnvOrDefault("OBSERVATIONS_TABLE", "observations"),
		LoadTimeout: timeout,
	}, nil
}

func loadRiskConfig() (*RiskConfig, error) {
	low, err := getEnvFloatOrDefault("RISK_LOW_THRESHOLD", 0.01)
	if err != nil {
		return nil, err
	}
	high, err := getEnvFloatOrDefault("RISK_HIGH_THRESHOLD", 0.03)
	if err != nil {
		return nil, err
	}
	sensitivity, err := getEnvFloatOrDefault("HOTSPOT_SENSITIVITY", 1.0)
	if err != nil {
		return nil, err
	}
	decimals, err := getEnvIntOrDefault("EXPORT_DECIMALS", -1)
	if err != nil {
		return nil, err
	}

	return &RiskConfig{
		LowThreshold:       low,
		HighThreshold:      high,
		HotspotSensitivity: sensitivity,
		PercentileScope:    strings.ToLower(getEnvOrDefault("PERCENTILE_SCOPE", "state")),
		ExportDecimals:     decimals,
	}, nil
}

func loadLogConfig() (*LogConfig, error) {
	raw := getEnvOrDefault("LOG_LEVEL", "INFO")
	level, ok := internal.ParseLogLevel(raw)
	if !ok {
		return nil, errors.ConfigInvalidf("LOG_LEVEL %q is not one of ERROR, WARN, INFO, DEBUG, TRACE", raw)
	}
	return &LogConfig{Level: level}, nil
}

func validateConfig(config *Config) error {
	switch config.Data.Source {
	case SourceFile:
		if config.Data.File == "" {
			return errors.ConfigInvalid("DATA_FILE is required when DATA_SOURCE=file")
		}
	case SourcePostgres:
		if config.Data.DatabaseURL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
	case SourceSynthetic:
	default:
		return errors.ConfigInvalidf("DATA_SOURCE %q is not one of file, postgres, synthetic", config.Data.Source)
	}

	r := config.Risk
	if !finite(r.LowThreshold) || !finite(r.HighThreshold) || r.LowThreshold >= r.HighThreshold {
		return errors.ConfigInvalidf("RISK_LOW_THRESHOLD (%v) must be below RISK_HIGH_THRESHOLD (%v)", r.LowThreshold, r.HighThreshold)
	}
	if !finite(r.HotspotSensitivity) || r.HotspotSensitivity <= 0 {
		return errors.ConfigInvalidf("HOTSPOT_SENSITIVITY must be positive, got %v", r.HotspotSensitivity)
	}
	if !contains(percentileScopes, r.PercentileScope) {
		return errors.ConfigInvalidf("PERCENTILE_SCOPE %q is not one of %s", r.PercentileScope, strings.Join(percentileScopes, ", "))
	}
	if r.ExportDecimals < -1 || r.ExportDecimals > 17 {
		return errors.ConfigInvalidf("EXPORT_DECIMALS must be -1 or 0..17, got %d", r.ExportDecimals)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalidf("%s=%q is not an integer", key, value)
	}
	return intValue, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalidf("%s=%q is not a number", key, value)
	}
	return floatValue, nil
}

func getEnvBoolOrDefault(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.ConfigInvalidf("%s=%q is not a boolean", key, value)
	}
	return boolValue, nil
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.ConfigInvalidf("%s=%q is not a duration", key, value)
	}
	return duration, nil
}
