package risk

import (
	"sort"

	"districtrisk/domain/observation"

	"github.com/montanaflynn/stats"
)

// DefaultHotspotSensitivity is the standard-deviation multiplier above the state mean.
const DefaultHotspotSensitivity = 1.0

// DetectHotspots flags districts whose mean exceeds stateMean + sensitivity*stddev,
// where mean and population stddev are taken over the per-district means.
// A state with fewer than two districts never has a hotspot.
func DetectHotspots(state string, means []observation.DistrictMean, sensitivity float64) observation.HotspotReport {
	report := observation.HotspotReport{
		State:       state,
		Sensitivity: sensitivity,
		Districts:   means,
		Hotspots:    []observation.DistrictMean{},
	}
	if len(means) == 0 {
		return report
	}

	values := make([]float64, len(means))
	for i, m := range means {
		values[i] = m.Mean
	}
	report.StateMean, _ = stats.Mean(values)
	report.StateStdDev, _ = stats.StandardDeviationPopulation(values)
	report.Threshold = report.StateMean + sensitivity*report.StateStdDev

	if len(means) < 2 {
		return report
	}
	for _, m := range means {
		if m.Mean > report.Threshold {
			report.Hotspots = append(report.Hotspots, m)
		}
	}
	sort.Slice(report.Hotspots, func(i, j int) bool {
		return report.Hotspots[i].District < report.Hotspots[j].District
	})
	return report
}

func districtMeans(scored []ScoredObservation) []observation.DistrictMean {
	entries := aggregateByDistrict(scored, false)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].District < entries[j].District
	})
	means := make([]observation.DistrictMean, len(entries))
	for i, e := range entries {
		means[i] = observation.DistrictMean{District: e.District, Mean: e.Score}
	}
	return means
}
