package model

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Forest is a bagged ensemble of regression trees with per-split feature
// subsampling. Defaults follow the conventional regression settings: 500
// trees, mtry = p/3, minimum node size 5, unlimited depth.
type Forest struct {
	Trees       int
	MinNodeSize int
	MaxDepth    int
	seed        int64

	trees      []*treeNode
	importance []float64
}

// NewForest creates an unfitted forest with default hyperparameters. The
// seed fixes the bootstrap and feature-subsampling streams.
func NewForest(seed int64) *Forest {
	return &Forest{
		Trees:       500,
		MinNodeSize: 5,
		seed:        seed,
	}
}

// Fit grows the ensemble. Each tree sees a bootstrap resample of the rows
// and considers max(1, p/3) candidate features per split.
func (m *Forest) Fit(x *mat.Dense, y []float64) error {
	n, p := x.Dims()
	if n != len(y) {
		return fmt.Errorf("forest: %d rows but %d responses", n, len(y))
	}
	if n < 2*m.MinNodeSize {
		return fmt.Errorf("%w: %d rows with min node size %d", ErrDegenerateFit, n, m.MinNodeSize)
	}

	rows := denseRows(x)
	r := rand.New(rand.NewSource(m.seed))
	mtry := max(1, p/3)

	m.trees = make([]*treeNode, 0, m.Trees)
	m.importance = make([]float64, p)

	idx := make([]int, n)
	for b := 0; b < m.Trees; b++ {
		for i := range idx {
			idx[i] = r.Intn(n)
		}
		params := treeParams{
			maxDepth:    m.MaxDepth,
			minNodeSize: m.MinNodeSize,
			mtry:        mtry,
			rng:         r,
		}
		m.trees = append(m.trees, growTree(rows, y, idx, params, 0, m.importance))
	}

	normalize(m.importance)
	return nil
}

// Predict averages the per-tree predictions
func (m *Forest) Predict(x *mat.Dense) []float64 {
	rows := denseRows(x)
	out := make([]float64, len(rows))
	for i, row := range rows {
		var sum float64
		for _, t := range m.trees {
			sum += t.predict(row)
		}
		out[i] = sum / float64(len(m.trees))
	}
	return out
}

// Importance returns normalized total impurity reduction per feature
func (m *Forest) Importance() []float64 {
	return m.importance
}

func normalize(v []float64) {
	var total float64
	for _, x := range v {
		total += x
	}
	if total == 0 {
		return
	}
	for i := range v {
		v[i] /= total
	}
}
