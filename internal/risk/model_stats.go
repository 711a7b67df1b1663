package risk

import (
	"math"
	"sort"

	"districtrisk/domain/observation"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ModelStats compares estimator predictions with stored scores.
type ModelStats struct {
	Samples  int      `json:"samples"`
	MAE      float64  `json:"mae"`
	RMSE     float64  `json:"rmse"`
	Spearman *float64 `json:"spearman"`
}

// EvaluateModel predicts every row that has both a stored score and a complete
// indicator vector, and reports error and rank agreement. Rows the estimator
// rejects are skipped.
func EvaluateModel(scorer *Scorer, population []observation.Observation) ModelStats {
	var result ModelStats
	if !scorer.HasEstimator() {
		return result
	}

	var actual, predicted []float64
	for _, obs := range population {
		if !obs.ServiceStressRisk.Valid {
			continue
		}
		vector, err := obs.Indicators()
		if err != nil {
			continue
		}
		p, err := scorer.Estimator().Predict(vector)
		if err != nil || !isFinite(p) {
			continue
		}
		actual = append(actual, obs.ServiceStressRisk.Value)
		predicted = append(predicted, p)
	}

	result.Samples = len(actual)
	if result.Samples == 0 {
		return result
	}

	absErr := make([]float64, len(actual))
	sqErr := make([]float64, len(actual))
	for i := range actual {
		d := predicted[i] - actual[i]
		absErr[i] = math.Abs(d)
		sqErr[i] = d * d
	}
	result.MAE, _ = stats.Mean(absErr)
	mse, _ := stats.Mean(sqErr)
	result.RMSE = math.Sqrt(mse)

	if result.Samples >= 2 {
		rho := stat.Correlation(fractionalRanks(actual), fractionalRanks(predicted), nil)
		if isFinite(rho) {
			result.Spearman = &rho
		}
	}
	return result
}

// fractionalRanks assigns 1-based ranks, averaging ranks across ties.
func fractionalRanks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
