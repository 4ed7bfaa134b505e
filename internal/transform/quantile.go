package transform

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// quantile returns the empirical p-quantile of values. The empirical
// definition always returns an element of the data, which keeps the trim
// thresholds anchored to observed values.
func quantile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}
