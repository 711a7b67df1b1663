package container

import (
	"context"
	"fmt"
	"time"

	"districtrisk/adapters/estimator"
	"districtrisk/adapters/excel"
	"districtrisk/adapters/postgres"
	"districtrisk/internal"
	"districtrisk/internal/config"
	"districtrisk/internal/dataset"
	"districtrisk/internal/errors"
	"districtrisk/internal/metrics"
	"districtrisk/internal/narrative"
	"districtrisk/internal/risk"
	"districtrisk/internal/testkit"
	"districtrisk/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Data
	Source ports.ObservationSource
	Store  *dataset.Store

	// Scoring
	Estimator    ports.Estimator
	Scorer       *risk.Scorer
	EngineConfig risk.Config
	Narrator     ports.NarrativeGenerator

	// Observability; nil when metrics are disabled
	Metrics *metrics.Metrics
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	engineConfig, err := buildEngineConfig(cfg.Risk)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:       cfg,
		EngineConfig: engineConfig,
		Narrator:     narrative.NewRuleGenerator(),
	}
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.New()
	}

	return c, nil
}

// Init connects the data source, loads the estimator and performs the initial
// dataset load. A load failure aborts startup.
func (c *Container) Init(ctx context.Context) error {
	if err := c.initSource(ctx); err != nil {
		return err
	}
	if err := c.initEstimator(); err != nil {
		return err
	}

	loadCtx, cancel := context.WithTimeout(ctx, c.Config.Data.LoadTimeout)
	defer cancel()

	store, report, err := dataset.Open(loadCtx, c.Source)
	if err != nil {
		return err
	}
	c.Store = store

	idx := store.Current()
	c.Metrics.ObserveLoad(idx.Len(), idx.LoadedAt())
	internal.DefaultLogger.Info("[Container] loaded %d rows from %s (%d rejected) in %s",
		report.Accepted, report.Source, len(report.Rejected), report.Duration.Round(time.Millisecond))
	return nil
}

func (c *Container) initSource(ctx context.Context) error {
	data := c.Config.Data
	switch data.Source {
	case config.SourceFile:
		c.Source = excel.NewDataReader(excel.ExcelConfig{FilePath: data.File, Sheet: data.Sheet})
	case config.SourcePostgres:
		db, err := sqlx.ConnectContext(ctx, "postgres", data.DatabaseURL)
		if err != nil {
			return errors.DatabaseError("failed to connect to database", err)
		}
		c.DB = db
		src, err := postgres.NewObservationSource(db, data.Table)
		if err != nil {
			return errors.DataSourceError(data.Table, err)
		}
		c.Source = src
	case config.SourceSynthetic:
		c.Source = testkit.NewSyntheticSource(testkit.DefaultDistrictConfig())
	default:
		return errors.ConfigInvalidf("unknown data source %q", data.Source)
	}
	internal.DefaultLogger.Info("[Container] data source: %s", c.Source.Describe())
	return nil
}

// initEstimator loads MODEL_FILE when set. The synthetic source ships with
// the model its scores were generated from.
func (c *Container) initEstimator() error {
	path := c.Config.Model.File
	switch {
	case path != "":
		model, err := estimator.LoadLinearModel(path)
		if err != nil {
			return errors.ModelInvalid(path, err)
		}
		c.Estimator = model
		internal.DefaultLogger.Info("[Container] estimator %q loaded from %s", model.Name, path)
	case c.Config.Data.Source == config.SourceSynthetic:
		coefs, intercept := testkit.SyntheticModel()
		floor := 0.0
		c.Estimator = &estimator.LinearModel{
			Name:         "synthetic",
			Coefficients: coefs,
			Intercept:    intercept,
			Floor:        &floor,
		}
	default:
		internal.DefaultLogger.Warn("[Container] no MODEL_FILE configured; rows without a stored score are unscorable")
	}

	c.Scorer = risk.NewScorer(c.Estimator)
	return nil
}

func buildEngineConfig(rc config.RiskConfig) (risk.Config, error) {
	classifier, err := risk.NewClassifier(rc.LowThreshold, rc.HighThreshold)
	if err != nil {
		return risk.Config{}, errors.Wrap(err, "invalid risk thresholds")
	}
	scope, err := risk.ParseScope(rc.PercentileScope)
	if err != nil {
		return risk.Config{}, errors.Wrapf(err, "invalid PERCENTILE_SCOPE %q", rc.PercentileScope)
	}
	return risk.Config{
		Classifier:         classifier,
		HotspotSensitivity: rc.HotspotSensitivity,
		PercentileScope:    scope,
	}, nil
}

// Engine binds an engine to the currently loaded dataset.
func (c *Container) Engine() *risk.Engine {
	cfg := c.EngineConfig
	cfg.OnSkip = c.Metrics.AddSkipped
	return risk.NewEngine(c.Store.Current(), c.Scorer, cfg)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return errors.DatabaseError("failed to close database", err)
		}
	}
	internal.DefaultLogger.Info("[Container] shutdown complete")
	return nil
}
