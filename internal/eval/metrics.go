package eval

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RMSE returns the root mean squared error of predictions against
// observations
func RMSE(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return math.NaN()
	}
	var sse float64
	for i := range observed {
		d := predicted[i] - observed[i]
		sse += d * d
	}
	return math.Sqrt(sse / float64(len(observed)))
}

// RSquared returns the coefficient of determination. NaN when the
// observations are constant.
func RSquared(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return math.NaN()
	}
	return stat.RSquaredFrom(predicted, observed, nil)
}
