package ports

// Estimator maps an indicator vector to a continuous stress score.
// Implementations must be safe for concurrent use.
type Estimator interface {
	Predict(vector []float64) (float64, error)
}

// EstimatorFunc adapts a plain function to the Estimator interface.
type EstimatorFunc func(vector []float64) (float64, error)

// Predict calls f(vector).
func (f EstimatorFunc) Predict(vector []float64) (float64, error) {
	return f(vector)
}
