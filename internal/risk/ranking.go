package risk

import (
	"fmt"
	"sort"
	"strings"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Order selects the ranking direction.
type Order int

const (
	Descending Order = iota
	Ascending
)

// ParseOrder accepts "desc"/"descending" and "asc"/"ascending"; empty means Descending.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	default:
		return Descending, core.NewInvalidArgumentError("order", fmt.Sprintf("unknown order %q", s))
	}
}

// Percentile returns the share of population scores at or below score, in [0,100].
// Ties count as at-or-below.
func Percentile(score float64, population []float64) (float64, error) {
	if len(population) == 0 {
		return 0, core.ErrEmptyPopulation
	}
	if !isFinite(score) {
		return 0, fmt.Errorf("%w: %v is not finite", core.ErrInvalidScore, score)
	}
	sorted := make([]float64, len(population))
	copy(sorted, population)
	sort.Float64s(sorted)
	return stat.CDF(score, stat.Empirical, sorted, nil) * 100, nil
}

// Top returns the n highest (or lowest) districts by mean score.
// Ties are broken by district name, then state, ascending.
func Top(n int, scored []ScoredObservation, order Order) ([]observation.RankingEntry, error) {
	if n <= 0 {
		return nil, core.NewInvalidArgumentError("n", fmt.Sprintf("must be positive, got %d", n))
	}
	entries := aggregateByDistrict(scored, false)
	sortEntries(entries, order)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// aggregateByDistrict groups scored rows by (state, district) in first-seen order
// and averages the score and, when withIndicators is set, every indicator column.
// Means are computed over the group's rows in input order.
func aggregateByDistrict(scored []ScoredObservation, withIndicators bool) []observation.RankingEntry {
	type group struct {
		key    observation.DistrictKey
		scores []float64
		cols   map[string][]float64
	}

	groups := make(map[observation.DistrictKey]*group)
	order := make([]*group, 0)
	for _, so := range scored {
		key := so.DistrictKey()
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, cols: make(map[string][]float64)}
			groups[key] = g
			order = append(order, g)
		}
		g.scores = append(g.scores, so.Score)
		if withIndicators {
			for _, col := range observation.IndicatorColumns {
				if m, _ := so.Column(col); m.Valid {
					g.cols[col] = append(g.cols[col], m.Value)
				}
			}
		}
	}

	entries := make([]observation.RankingEntry, 0, len(order))
	for _, g := range order {
		mean, _ := stats.Mean(g.scores)
		entry := observation.RankingEntry{
			State:    g.key.State,
			District: g.key.District,
			Score:    mean,
			Rows:     len(g.scores),
		}
		if withIndicators {
			entry.Means = make(map[string]observation.Metric, len(observation.IndicatorColumns))
			for _, col := range observation.IndicatorColumns {
				values := g.cols[col]
				if len(values) == 0 {
					entry.Means[col] = observation.None()
					continue
				}
				m, _ := stats.Mean(values)
				entry.Means[col] = observation.Some(m)
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// sortEntries orders by score then district and state names, and assigns 1-based ranks.
func sortEntries(entries []observation.RankingEntry, order Order) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			if order == Ascending {
				return a.Score < b.Score
			}
			return a.Score > b.Score
		}
		if a.District != b.District {
			return a.District < b.District
		}
		return a.State < b.State
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
