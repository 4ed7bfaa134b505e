package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// GradientBoost is gradient-boosted regression trees with squared-error
// loss. Defaults mirror the conventional boosting settings: 15 rounds,
// learning rate 0.3, tree depth 6, minimum node size 1.
type GradientBoost struct {
	Rounds      int
	LearnRate   float64
	MaxDepth    int
	MinNodeSize int

	base       float64
	trees      []*treeNode
	importance []float64
}

// NewGradientBoost creates an unfitted booster with default
// hyperparameters. Fitting is deterministic (no row or feature
// subsampling), so no seed is needed.
func NewGradientBoost() *GradientBoost {
	return &GradientBoost{
		Rounds:      15,
		LearnRate:   0.3,
		MaxDepth:    6,
		MinNodeSize: 1,
	}
}

// Fit boosts shallow trees on the residuals of the running prediction
func (m *GradientBoost) Fit(x *mat.Dense, y []float64) error {
	n, p := x.Dims()
	if n != len(y) {
		return fmt.Errorf("boost: %d rows but %d responses", n, len(y))
	}
	if n < 2 {
		return fmt.Errorf("%w: %d rows", ErrDegenerateFit, n)
	}

	rows := denseRows(x)
	m.importance = make([]float64, p)

	var sum float64
	for _, v := range y {
		sum += v
	}
	m.base = sum / float64(n)

	current := make([]float64, n)
	for i := range current {
		current[i] = m.base
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	residual := make([]float64, n)

	m.trees = make([]*treeNode, 0, m.Rounds)
	for round := 0; round < m.Rounds; round++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}

		params := treeParams{
			maxDepth:    m.MaxDepth,
			minNodeSize: m.MinNodeSize,
		}
		tree := growTree(rows, residual, idx, params, 0, m.importance)
		m.trees = append(m.trees, tree)

		for i, row := range rows {
			current[i] += m.LearnRate * tree.predict(row)
		}
	}

	normalize(m.importance)
	return nil
}

// Predict sums the shrunken tree contributions over the base prediction
func (m *GradientBoost) Predict(x *mat.Dense) []float64 {
	rows := denseRows(x)
	out := make([]float64, len(rows))
	for i, row := range rows {
		pred := m.base
		for _, t := range m.trees {
			pred += m.LearnRate * t.predict(row)
		}
		out[i] = pred
	}
	return out
}

// Importance returns normalized total impurity reduction per feature
func (m *GradientBoost) Importance() []float64 {
	return m.importance
}
