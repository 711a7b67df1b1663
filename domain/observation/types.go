package observation

import (
	"encoding/json"
	"math"
	"time"

	"districtrisk/domain/core"
)

// Column names of the district×date table.
const (
	ColState           = "state"
	ColDistrict        = "district"
	ColDate            = "date"
	ColBiometricRatio  = "biometric_to_enrolment_ratio"
	ColChildPressure   = "child_update_pressure"
	ColElderlyPressure = "elderly_update_pressure"
	ColRisk            = "service_stress_risk"
)

// IndicatorColumns lists the estimator's input columns, in vector order.
var IndicatorColumns = []string{
	ColBiometricRatio,
	ColChildPressure,
	ColElderlyPressure,
}

// NumericColumns lists every aggregated column of the export, in output order.
var NumericColumns = []string{
	ColRisk,
	ColBiometricRatio,
	ColChildPressure,
	ColElderlyPressure,
}

// RequiredColumns must be present in every dataset source.
var RequiredColumns = []string{ColState, ColDistrict, ColDate}

// Metric is a nullable real-valued cell.
type Metric struct {
	Value float64
	Valid bool
}

// Some returns a present metric.
func Some(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// None returns a missing metric.
func None() Metric {
	return Metric{}
}

// MarshalJSON renders missing metrics as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// Key uniquely identifies an observation.
type Key struct {
	State    string
	District string
	Date     time.Time
}

func (k Key) String() string {
	return k.State + "/" + k.District + "/" + core.FormatDate(k.Date)
}

// DistrictKey identifies a district within its state.
type DistrictKey struct {
	State    string
	District string
}

func (k DistrictKey) String() string {
	return k.State + "/" + k.District
}

// Observation is one district/date row of operational indicators.
type Observation struct {
	State                     string
	District                  string
	Date                      time.Time
	BiometricToEnrolmentRatio Metric
	ChildUpdatePressure       Metric
	ElderlyUpdatePressure     Metric
	ServiceStressRisk         Metric
}

// Key returns the (state, district, date) identity of the row.
func (o Observation) Key() Key {
	return Key{State: o.State, District: o.District, Date: o.Date}
}

// DistrictKey returns the (state, district) identity of the row.
func (o Observation) DistrictKey() DistrictKey {
	return DistrictKey{State: o.State, District: o.District}
}

// Column returns the metric stored under a numeric column name.
func (o Observation) Column(name string) (Metric, bool) {
	switch name {
	case ColBiometricRatio:
		return o.BiometricToEnrolmentRatio, true
	case ColChildPressure:
		return o.ChildUpdatePressure, true
	case ColElderlyPressure:
		return o.ElderlyUpdatePressure, true
	case ColRisk:
		return o.ServiceStressRisk, true
	default:
		return Metric{}, false
	}
}

// Indicators returns the estimator input vector in IndicatorColumns order.
func (o Observation) Indicators() ([]float64, error) {
	vector := make([]float64, 0, len(IndicatorColumns))
	for _, col := range IndicatorColumns {
		m, _ := o.Column(col)
		if !m.Valid || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
			return nil, core.NewScoringError(o.Key().String(), "missing or non-numeric "+col)
		}
		vector = append(vector, m.Value)
	}
	return vector, nil
}

// RawRow is a single source row as column name → cell text.
type RawRow map[string]string

// RawTable is an untyped tabular source before validation.
type RawTable struct {
	Headers []string
	Rows    []RawRow
}
