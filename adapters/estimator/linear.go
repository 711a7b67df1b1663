package estimator

import (
	"fmt"
	"math"
	"os"

	"districtrisk/domain/observation"

	"github.com/tidwall/gjson"
)

// LinearModel is a pre-trained linear regressor over the indicator vector.
// It is immutable after load and safe for concurrent use.
type LinearModel struct {
	Name         string
	Coefficients []float64
	Intercept    float64
	// Floor clamps predictions from below when set; stress scores are non-negative.
	Floor *float64
}

// LoadLinearModel reads a JSON model export from disk
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return ParseLinearModel(data)
}

// ParseLinearModel parses a JSON model export of the form
//
//	{"name": "...", "features": [...], "coefficients": [...], "intercept": 0.0, "floor": 0.0}
//
// "coef"/"intercept_" are accepted as aliases. When "features" is present the
// coefficients are reordered to match observation.IndicatorColumns.
func ParseLinearModel(data []byte) (*LinearModel, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("model file is not valid JSON")
	}
	doc := gjson.ParseBytes(data)

	coefs := doc.Get("coefficients")
	if !coefs.Exists() {
		coefs = doc.Get("coef")
	}
	if !coefs.IsArray() {
		return nil, fmt.Errorf("model file has no coefficients array")
	}
	raw := make([]float64, 0, len(observation.IndicatorColumns))
	for _, c := range coefs.Array() {
		if c.Type != gjson.Number {
			return nil, fmt.Errorf("non-numeric coefficient %s", c.Raw)
		}
		raw = append(raw, c.Float())
	}
	if len(raw) != len(observation.IndicatorColumns) {
		return nil, fmt.Errorf("model has %d coefficients, want %d", len(raw), len(observation.IndicatorColumns))
	}

	ordered := raw
	if features := doc.Get("features"); features.IsArray() {
		position := make(map[string]int)
		for i, f := range features.Array() {
			position[f.String()] = i
		}
		ordered = make([]float64, len(observation.IndicatorColumns))
		for i, col := range observation.IndicatorColumns {
			j, ok := position[col]
			if !ok || j >= len(raw) {
				return nil, fmt.Errorf("model is missing feature %s", col)
			}
			ordered[i] = raw[j]
		}
	}

	intercept := doc.Get("intercept")
	if !intercept.Exists() {
		intercept = doc.Get("intercept_")
	}

	model := &LinearModel{
		Name:         doc.Get("name").String(),
		Coefficients: ordered,
		Intercept:    intercept.Float(),
	}
	if floor := doc.Get("floor"); floor.Exists() {
		v := floor.Float()
		model.Floor = &v
	}
	if model.Name == "" {
		model.Name = "linear"
	}
	return model, nil
}

// Predict returns intercept + coefficients·vector
func (m *LinearModel) Predict(vector []float64) (float64, error) {
	if len(vector) != len(m.Coefficients) {
		return 0, fmt.Errorf("vector has %d features, model expects %d", len(vector), len(m.Coefficients))
	}
	y := m.Intercept
	for i, x := range vector {
		y += m.Coefficients[i] * x
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("non-finite prediction")
	}
	if m.Floor != nil && y < *m.Floor {
		y = *m.Floor
	}
	return y, nil
}
