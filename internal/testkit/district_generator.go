package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
)

// DistrictGeneratorConfig configures the synthetic district×date generator
type DistrictGeneratorConfig struct {
	States            []string  `json:"states"`
	DistrictsPerState int       `json:"districts_per_state"`
	Days              int       `json:"days"`
	StepDays          int       `json:"step_days"`
	StartDate         time.Time `json:"start_date"`
	MissingScoreRate  float64   `json:"missing_score_rate"`
	HotspotRate       float64   `json:"hotspot_rate"`
	Seed              int64     `json:"seed"`
}

// DefaultDistrictConfig returns sensible defaults for synthetic data generation
func DefaultDistrictConfig() DistrictGeneratorConfig {
	return DistrictGeneratorConfig{
		States:            []string{"Assam", "Bihar", "Karnataka", "Kerala", "Rajasthan"},
		DistrictsPerState: 8,
		Days:              12,
		StepDays:          7,
		StartDate:         time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		MissingScoreRate:  0.1,
		HotspotRate:       0.15,
		Seed:              42,
	}
}

// DistrictDataGenerator produces a deterministic operational indicator table.
// Scores follow the same linear form as SyntheticModel plus noise, so an
// estimator trained on the stored scores recovers it closely.
type DistrictDataGenerator struct {
	config DistrictGeneratorConfig
	rng    *rand.Rand
}

// NewDistrictDataGenerator creates a new generator
func NewDistrictDataGenerator(config DistrictGeneratorConfig) *DistrictDataGenerator {
	if config.StepDays <= 0 {
		config.StepDays = 1
	}
	return &DistrictDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// SyntheticModel returns the coefficients and intercept used to derive scores.
func SyntheticModel() ([]float64, float64) {
	return []float64{0.003, 0.6, 0.4}, 0.0005
}

// Generate builds the observation table
func (g *DistrictDataGenerator) Generate() []observation.Observation {
	coefs, intercept := SyntheticModel()
	var rows []observation.Observation

	for _, state := range g.config.States {
		for d := 0; d < g.config.DistrictsPerState; d++ {
			district := fmt.Sprintf("%s District %02d", state, d+1)

			// Per-district baseline load and drift
			baseRatio := 1 + g.rng.Float64()*5
			if g.rng.Float64() < g.config.HotspotRate {
				baseRatio *= 2.5
			}
			drift := (g.rng.Float64() - 0.5) * 0.1

			for day := 0; day < g.config.Days; day++ {
				date := g.config.StartDate.AddDate(0, 0, day*g.config.StepDays)
				ratio := math.Max(0, baseRatio+drift*float64(day)+g.rng.NormFloat64()*0.3)
				child := math.Max(0, 0.002+g.rng.Float64()*0.01)
				elderly := math.Max(0, 0.001+g.rng.Float64()*0.008)

				score := intercept + coefs[0]*ratio + coefs[1]*child + coefs[2]*elderly
				score = math.Max(0, score+g.rng.NormFloat64()*0.0005)

				risk := observation.Some(score)
				if g.rng.Float64() < g.config.MissingScoreRate {
					risk = observation.None()
				}

				rows = append(rows, observation.Observation{
					State:                     state,
					District:                  district,
					Date:                      date,
					BiometricToEnrolmentRatio: observation.Some(ratio),
					ChildUpdatePressure:       observation.Some(child),
					ElderlyUpdatePressure:     observation.Some(elderly),
					ServiceStressRisk:         risk,
				})
			}
		}
	}
	return rows
}

// SyntheticSource serves generated rows through the ObservationSource port
type SyntheticSource struct {
	config DistrictGeneratorConfig
}

// NewSyntheticSource creates a source over a generator configuration
func NewSyntheticSource(config DistrictGeneratorConfig) *SyntheticSource {
	return &SyntheticSource{config: config}
}

// Describe names the source for logs and errors
func (s *SyntheticSource) Describe() string {
	return fmt.Sprintf("synthetic dataset (seed %d)", s.config.Seed)
}

// ReadTable renders generated rows as a raw table
func (s *SyntheticSource) ReadTable(ctx context.Context) (*observation.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ToRawTable(NewDistrictDataGenerator(s.config).Generate()), nil
}

// ToRawTable renders observations as source text, the inverse of dataset parsing.
func ToRawTable(rows []observation.Observation) *observation.RawTable {
	headers := append([]string{observation.ColState, observation.ColDistrict, observation.ColDate}, observation.NumericColumns...)
	table := &observation.RawTable{Headers: headers, Rows: make([]observation.RawRow, 0, len(rows))}
	for _, obs := range rows {
		raw := observation.RawRow{
			observation.ColState:    obs.State,
			observation.ColDistrict: obs.District,
			observation.ColDate:     core.FormatDate(obs.Date),
		}
		for _, col := range observation.NumericColumns {
			m, _ := obs.Column(col)
			if m.Valid {
				raw[col] = strconv.FormatFloat(m.Value, 'g', -1, 64)
			} else {
				raw[col] = ""
			}
		}
		table.Rows = append(table.Rows, raw)
	}
	return table
}
