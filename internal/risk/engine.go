package risk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
	"districtrisk/internal"
	"districtrisk/internal/dataset"

	"golang.org/x/sync/errgroup"
)

// Scope selects the comparison population for a percentile.
type Scope string

const (
	ScopeState     Scope = "state"      // same state, every date
	ScopeDate      Scope = "date"       // every state, same date
	ScopeStateDate Scope = "state_date" // same state, same date
	ScopeAll       Scope = "all"        // whole dataset
)

// ParseScope validates a scope name; empty means ScopeState.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeState:
		return ScopeState, nil
	case ScopeDate:
		return ScopeDate, nil
	case ScopeStateDate:
		return ScopeStateDate, nil
	case ScopeAll:
		return ScopeAll, nil
	default:
		return "", core.NewInvalidArgumentError("scope", fmt.Sprintf("unknown scope %q", s))
	}
}

// SkipObserver is told how many rows a batch operation skipped as unscorable.
type SkipObserver func(operation string, skipped int)

// Config holds the engine's tunables.
type Config struct {
	Classifier         Classifier
	HotspotSensitivity float64
	PercentileScope    Scope
	OnSkip             SkipObserver
}

// DefaultConfig returns the standard thresholds, sensitivity and scope.
func DefaultConfig() Config {
	return Config{
		Classifier:         DefaultClassifier(),
		HotspotSensitivity: DefaultHotspotSensitivity,
		PercentileScope:    ScopeState,
	}
}

// Engine answers risk questions against one immutable Index. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	index  *dataset.Index
	scorer *Scorer
	cfg    Config
}

// NewEngine binds an index, a scorer and configuration.
func NewEngine(index *dataset.Index, scorer *Scorer, cfg Config) *Engine {
	if cfg.HotspotSensitivity <= 0 {
		cfg.HotspotSensitivity = DefaultHotspotSensitivity
	}
	if cfg.PercentileScope == "" {
		cfg.PercentileScope = ScopeState
	}
	if low, high := cfg.Classifier.Thresholds(); low == 0 && high == 0 {
		cfg.Classifier = DefaultClassifier()
	}
	return &Engine{index: index, scorer: scorer, cfg: cfg}
}

// Index returns the bound dataset index.
func (e *Engine) Index() *dataset.Index {
	return e.index
}

// Scorer returns the bound scorer.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Assessment is the scored, classified view of one observation.
type Assessment struct {
	Observation observation.Observation
	Score       float64
	Estimated   bool
	Verdict     observation.Verdict
}

// Assess scores and classifies the observation at a key.
func (e *Engine) Assess(state, district string, date time.Time) (*Assessment, error) {
	obs, err := e.index.Get(state, district, date)
	if err != nil {
		return nil, err
	}
	so, err := e.scorer.Resolve(obs)
	if err != nil {
		return nil, err
	}
	verdict, err := e.cfg.Classifier.Classify(so.Score)
	if err != nil {
		return nil, err
	}
	return &Assessment{Observation: obs, Score: so.Score, Estimated: so.Estimated, Verdict: verdict}, nil
}

// Classify applies the configured thresholds.
func (e *Engine) Classify(score float64) (observation.Verdict, error) {
	return e.cfg.Classifier.Classify(score)
}

// PercentileResult is an observation's standing within its comparison population.
type PercentileResult struct {
	Score          float64
	Percentile     float64
	Scope          Scope
	PopulationSize int
	Skipped        int
}

// Population returns the comparison population of an observation for a scope.
// The observation itself is a member.
func (e *Engine) Population(obs observation.Observation, scope Scope) ([]observation.Observation, error) {
	switch scope {
	case "", ScopeState:
		return e.index.Filter(dataset.Filter{State: obs.State})
	case ScopeDate:
		return e.index.Filter(dataset.Filter{Date: &obs.Date})
	case ScopeStateDate:
		return e.index.Filter(dataset.Filter{State: obs.State, Date: &obs.Date})
	case ScopeAll:
		return e.index.All(), nil
	default:
		return nil, core.NewInvalidArgumentError("scope", fmt.Sprintf("unknown scope %q", scope))
	}
}

// PercentileAt computes the percentile of the observation at a key within the
// scope's population; an empty scope uses the configured default.
func (e *Engine) PercentileAt(state, district string, date time.Time, scope Scope) (*PercentileResult, error) {
	if scope == "" {
		scope = e.cfg.PercentileScope
	}
	obs, err := e.index.Get(state, district, date)
	if err != nil {
		return nil, err
	}
	score, err := e.scorer.Score(obs)
	if err != nil {
		return nil, err
	}
	population, err := e.Population(obs, scope)
	if err != nil {
		return nil, err
	}
	return e.PercentileOf(score, population, scope)
}

// PercentileOf computes the percentile of score within an arbitrary population.
func (e *Engine) PercentileOf(score float64, population []observation.Observation, scope Scope) (*PercentileResult, error) {
	scored, skipped := e.scoreAll("percentile", population)
	scores := make([]float64, len(scored))
	for i, so := range scored {
		scores[i] = so.Score
	}
	pct, err := Percentile(score, scores)
	if err != nil {
		return nil, err
	}
	return &PercentileResult{
		Score:          score,
		Percentile:     pct,
		Scope:          scope,
		PopulationSize: len(scores),
		Skipped:        skipped,
	}, nil
}

// Top ranks districts of a population by mean score.
func (e *Engine) Top(n int, population []observation.Observation, order Order) ([]observation.RankingEntry, error) {
	scored, _ := e.scoreAll("top", population)
	return Top(n, scored, order)
}

// Trend returns the scored history of a district with derived statistics.
func (e *Engine) Trend(state, district string) (*observation.Trend, error) {
	history, err := e.index.History(state, district)
	if err != nil {
		return nil, err
	}
	trend, err := buildTrend(state, district, history, e.scorer)
	if err != nil {
		return nil, err
	}
	e.observeSkip("trend", trend.Skipped)
	return trend, nil
}

// Hotspots runs the outlier test over a state's districts. A sensitivity of
// zero uses the configured default; negative values are rejected.
func (e *Engine) Hotspots(state string, sensitivity float64) (*observation.HotspotReport, error) {
	sensitivity, err := e.sensitivity(sensitivity)
	if err != nil {
		return nil, err
	}
	rows, err := e.index.Filter(dataset.Filter{State: state})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.NewStateNotFoundError(state)
	}
	scored, _ := e.scoreAll("hotspots", rows)
	report := DetectHotspots(state, districtMeans(scored), sensitivity)
	return &report, nil
}

// AllHotspots runs Hotspots for every state concurrently; reports are in state order.
func (e *Engine) AllHotspots(ctx context.Context, sensitivity float64) ([]observation.HotspotReport, error) {
	if _, err := e.sensitivity(sensitivity); err != nil {
		return nil, err
	}
	states := e.index.States()
	reports := make([]observation.HotspotReport, len(states))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, state := range states {
		i, state := i, state
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := e.Hotspots(state, sensitivity)
			if err != nil {
				return err
			}
			reports[i] = *report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Export aggregates a population into the ranked export rows.
func (e *Engine) Export(population []observation.Observation) []observation.RankingEntry {
	scored, _ := e.scoreAll("export", population)
	return ExportRows(scored)
}

// ScoreRows resolves every scorable row of a population and reports how many
// were skipped.
func (e *Engine) ScoreRows(operation string, population []observation.Observation) ([]ScoredObservation, int) {
	return e.scoreAll(operation, population)
}

// Scores resolves every scorable row of a population.
func (e *Engine) Scores(operation string, population []observation.Observation) []float64 {
	scored, _ := e.scoreAll(operation, population)
	scores := make([]float64, len(scored))
	for i, so := range scored {
		scores[i] = so.Score
	}
	return scores
}

// ModelStats evaluates the estimator against stored scores across the dataset.
func (e *Engine) ModelStats() ModelStats {
	return EvaluateModel(e.scorer, e.index.All())
}

func (e *Engine) sensitivity(s float64) (float64, error) {
	if s == 0 {
		return e.cfg.HotspotSensitivity, nil
	}
	if s < 0 || !isFinite(s) {
		return 0, core.NewInvalidArgumentError("sensitivity", fmt.Sprintf("must be positive, got %v", s))
	}
	return s, nil
}

func (e *Engine) scoreAll(operation string, population []observation.Observation) ([]ScoredObservation, int) {
	scored, skipped := e.scorer.ScoreAll(population)
	e.observeSkip(operation, skipped)
	return scored, skipped
}

func (e *Engine) observeSkip(operation string, skipped int) {
	if skipped == 0 {
		return
	}
	internal.DefaultLogger.Debug("[RiskEngine] %s skipped %d unscorable rows", operation, skipped)
	if e.cfg.OnSkip != nil {
		e.cfg.OnSkip(operation, skipped)
	}
}
