package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
)

// Index owns the loaded observations and the State→District→Dates mapping.
// It is immutable after construction; every accessor is safe for concurrent use
// and returned slices must not be modified by callers.
type Index struct {
	observations []observation.Observation // ordered by state, district, date

	states         []string
	districts      map[string][]string               // state → sorted districts
	districtStates map[string][]string               // district → sorted states
	history        map[observation.DistrictKey][]int // pair → row positions, date ascending
	byKey          map[observation.Key]int           // key → row position

	source   string
	loadedAt time.Time
}

// Filter selects observations by exact match; empty fields are wildcards.
type Filter struct {
	State    string
	District string
	Date     *time.Time
}

// NewIndex builds an Index from already validated observations.
// Duplicate (state, district, date) keys are an error.
func NewIndex(observations []observation.Observation) (*Index, error) {
	rows := make([]observation.Observation, len(observations))
	copy(rows, observations)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.State != b.State {
			return a.State < b.State
		}
		if a.District != b.District {
			return a.District < b.District
		}
		return a.Date.Before(b.Date)
	})

	idx := &Index{
		observations:   rows,
		districts:      make(map[string][]string),
		districtStates: make(map[string][]string),
		history:        make(map[observation.DistrictKey][]int),
		byKey:          make(map[observation.Key]int, len(rows)),
		source:         "memory",
		loadedAt:       time.Now(),
	}

	for i, obs := range rows {
		key := obs.Key()
		if _, dup := idx.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate observation %s", key)
		}
		idx.byKey[key] = i

		pair := obs.DistrictKey()
		if _, ok := idx.history[pair]; !ok {
			if _, ok := idx.districts[obs.State]; !ok {
				idx.states = append(idx.states, obs.State)
			}
			idx.districts[obs.State] = append(idx.districts[obs.State], obs.District)
			idx.districtStates[obs.District] = append(idx.districtStates[obs.District], obs.State)
		}
		idx.history[pair] = append(idx.history[pair], i)
	}

	// rows are sorted, so states and per-state districts are already ordered
	for district := range idx.districtStates {
		sort.Strings(idx.districtStates[district])
	}

	return idx, nil
}

// Source names where the index was loaded from
func (idx *Index) Source() string {
	return idx.source
}

// LoadedAt is the time the index was built
func (idx *Index) LoadedAt() time.Time {
	return idx.loadedAt
}

// Len returns the number of observations
func (idx *Index) Len() int {
	return len(idx.observations)
}

// DistrictCount returns the number of distinct (state, district) pairs
func (idx *Index) DistrictCount() int {
	return len(idx.history)
}

// All returns every observation in index order.
func (idx *Index) All() []observation.Observation {
	return idx.observations
}

// States returns the sorted, deduplicated state names.
func (idx *Index) States() []string {
	return idx.states
}

// Districts returns the sorted districts observed under a state.
func (idx *Index) Districts(state string) ([]string, error) {
	districts, ok := idx.districts[state]
	if !ok {
		return nil, core.NewStateNotFoundError(state)
	}
	return districts, nil
}

// Dates returns the ascending dates available for a (state, district) pair.
func (idx *Index) Dates(state, district string) ([]time.Time, error) {
	positions, err := idx.positions(state, district)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(positions))
	for i, p := range positions {
		dates[i] = idx.observations[p].Date
	}
	return dates, nil
}

// History returns a pair's observations in ascending date order.
func (idx *Index) History(state, district string) ([]observation.Observation, error) {
	positions, err := idx.positions(state, district)
	if err != nil {
		return nil, err
	}
	return idx.collect(positions), nil
}

// Get returns the single observation for a key.
func (idx *Index) Get(state, district string, date time.Time) (observation.Observation, error) {
	if _, err := idx.positions(state, district); err != nil {
		return observation.Observation{}, err
	}
	key := observation.Key{State: state, District: district, Date: date}
	p, ok := idx.byKey[key]
	if !ok {
		return observation.Observation{}, fmt.Errorf("%w: no observation for %s", core.ErrNotFound, key)
	}
	return idx.observations[p], nil
}

// Filter returns the observations matching every provided key.
// An unknown state or district is core.ErrNotFound; known keys with no matching
// rows yield an empty result.
func (idx *Index) Filter(f Filter) ([]observation.Observation, error) {
	state := strings.TrimSpace(f.State)
	district := strings.TrimSpace(f.District)

	if state != "" {
		if _, ok := idx.districts[state]; !ok {
			return nil, core.NewStateNotFoundError(state)
		}
	}
	if district != "" {
		if _, ok := idx.districtStates[district]; !ok {
			return nil, core.NewDistrictNotFoundError("", district)
		}
	}

	match := func(obs observation.Observation) bool {
		return (state == "" || obs.State == state) &&
			(district == "" || obs.District == district) &&
			(f.Date == nil || obs.Date.Equal(*f.Date))
	}

	var candidates []int
	switch {
	case state != "" && district != "":
		candidates = idx.history[observation.DistrictKey{State: state, District: district}]
		if candidates == nil {
			return make([]observation.Observation, 0), nil
		}
	case district != "":
		for _, s := range idx.districtStates[district] {
			candidates = append(candidates, idx.history[observation.DistrictKey{State: s, District: district}]...)
		}
	}

	result := make([]observation.Observation, 0)
	if candidates != nil {
		for _, p := range candidates {
			if match(idx.observations[p]) {
				result = append(result, idx.observations[p])
			}
		}
		return result, nil
	}
	for _, obs := range idx.observations {
		if match(obs) {
			result = append(result, obs)
		}
	}
	return result, nil
}

func (idx *Index) positions(state, district string) ([]int, error) {
	if _, ok := idx.districts[state]; !ok {
		return nil, core.NewStateNotFoundError(state)
	}
	positions, ok := idx.history[observation.DistrictKey{State: state, District: district}]
	if !ok || len(positions) == 0 {
		return nil, core.NewHistoryNotFoundError(state, district)
	}
	return positions, nil
}

func (idx *Index) collect(positions []int) []observation.Observation {
	out := make([]observation.Observation, len(positions))
	for i, p := range positions {
		out[i] = idx.observations[p]
	}
	return out
}
