package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
	"districtrisk/internal"
	"districtrisk/ports"
)

// missingTokens are cell values treated as "no value" rather than malformed.
var missingTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"none": true,
}

// RowRejection records why a source row was excluded.
type RowRejection struct {
	Row    int    `json:"row"` // 1-based data row number, header excluded
	Reason string `json:"reason"`
}

// LoadReport summarizes a load for logs and the reload endpoint.
type LoadReport struct {
	Source    string         `json:"source"`
	TotalRows int            `json:"total_rows"`
	Accepted  int            `json:"accepted"`
	Rejected  []RowRejection `json:"rejected,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
}

// Load reads a source and builds an Index.
// Malformed rows are rejected and logged; the load fails with core.ErrDataLoad when
// the source is unreadable, lacks a required column, or yields no valid rows.
func Load(ctx context.Context, source ports.ObservationSource) (*Index, *LoadReport, error) {
	start := time.Now()
	logger := internal.DefaultLogger

	table, err := source.ReadTable(ctx)
	if err != nil {
		return nil, nil, core.NewDataLoadError(source.Describe(), err)
	}

	observations, report, err := ParseTable(table)
	if err != nil {
		return nil, nil, core.NewDataLoadError(source.Describe(), err)
	}
	report.Source = source.Describe()

	for _, r := range report.Rejected {
		logger.Warn("[DatasetLoader] rejected row %d: %s", r.Row, r.Reason)
	}

	idx, err := NewIndex(observations)
	if err != nil {
		return nil, nil, core.NewDataLoadError(source.Describe(), err)
	}
	idx.source = report.Source
	report.Duration = time.Since(start)

	logger.Info("[DatasetLoader] loaded %d/%d rows from %s (%d states, %d districts) in %.2fms",
		report.Accepted, report.TotalRows, report.Source, len(idx.states), idx.DistrictCount(),
		float64(report.Duration.Nanoseconds())/1e6)

	return idx, report, nil
}

// ParseTable validates raw rows into observations.
// Later duplicates of a (state, district, date) key are rejected.
func ParseTable(table *observation.RawTable) ([]observation.Observation, *LoadReport, error) {
	if table == nil {
		return nil, nil, fmt.Errorf("no table")
	}

	present := make(map[string]bool, len(table.Headers))
	for _, h := range table.Headers {
		present[h] = true
	}
	for _, col := range observation.RequiredColumns {
		if !present[col] {
			return nil, nil, fmt.Errorf("missing required column %q", col)
		}
	}

	report := &LoadReport{TotalRows: len(table.Rows)}
	seen := make(map[observation.Key]int, len(table.Rows))
	observations := make([]observation.Observation, 0, len(table.Rows))

	for i, raw := range table.Rows {
		rowNum := i + 1
		obs, err := parseRow(raw)
		if err != nil {
			report.Rejected = append(report.Rejected, RowRejection{Row: rowNum, Reason: err.Error()})
			continue
		}
		if first, dup := seen[obs.Key()]; dup {
			report.Rejected = append(report.Rejected, RowRejection{
				Row:    rowNum,
				Reason: fmt.Sprintf("duplicate key %s (first seen at row %d)", obs.Key(), first),
			})
			continue
		}
		seen[obs.Key()] = rowNum
		observations = append(observations, obs)
	}

	report.Accepted = len(observations)
	if report.Accepted == 0 {
		return nil, report, fmt.Errorf("no valid rows (%d rejected)", len(report.Rejected))
	}
	return observations, report, nil
}

func parseRow(raw observation.RawRow) (observation.Observation, error) {
	var obs observation.Observation

	obs.State = strings.TrimSpace(raw[observation.ColState])
	if obs.State == "" {
		return obs, fmt.Errorf("empty state")
	}
	obs.District = strings.TrimSpace(raw[observation.ColDistrict])
	if obs.District == "" {
		return obs, fmt.Errorf("empty district")
	}
	date, err := core.ParseDate(raw[observation.ColDate])
	if err != nil {
		return obs, err
	}
	obs.Date = date

	if obs.BiometricToEnrolmentRatio, err = parseMetric(raw, observation.ColBiometricRatio, true); err != nil {
		return obs, err
	}
	if obs.ChildUpdatePressure, err = parseMetric(raw, observation.ColChildPressure, true); err != nil {
		return obs, err
	}
	if obs.ElderlyUpdatePressure, err = parseMetric(raw, observation.ColElderlyPressure, true); err != nil {
		return obs, err
	}
	if obs.ServiceStressRisk, err = parseMetric(raw, observation.ColRisk, false); err != nil {
		return obs, err
	}
	return obs, nil
}

func parseMetric(raw observation.RawRow, col string, nonNegative bool) (observation.Metric, error) {
	cell := strings.TrimSpace(raw[col])
	if missingTokens[strings.ToLower(cell)] {
		return observation.None(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return observation.None(), fmt.Errorf("non-numeric %s %q", col, cell)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return observation.None(), fmt.Errorf("non-finite %s %q", col, cell)
	}
	if nonNegative && v < 0 {
		return observation.None(), fmt.Errorf("negative %s %v", col, v)
	}
	return observation.Some(v), nil
}
