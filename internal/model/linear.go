package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateFit is returned when a learner cannot be fitted on the
// rows it was given (too few rows, rank-deficient design). The evaluator
// records it per fold and moves on.
var ErrDegenerateFit = errors.New("model: degenerate fit")

// Learner is an independently fittable regression algorithm. Fit consumes
// a design matrix and response vector; Predict scores a matrix with the
// same columns. Implementations are deterministic given their seed.
type Learner interface {
	Fit(x *mat.Dense, y []float64) error
	Predict(x *mat.Dense) []float64
}

// Coefficienter is implemented by learners exposing linear coefficients,
// intercept first, then one per design column
type Coefficienter interface {
	Coefficients() []float64
}

// Importancer is implemented by learners exposing per-feature variable
// importance (total impurity reduction, normalized to sum to 1)
type Importancer interface {
	Importance() []float64
}

// OLS is ordinary least squares linear regression. The intercept column
// is added internally; the design matrix carries features only.
type OLS struct {
	coef []float64 // intercept first
}

// NewOLS creates an unfitted OLS learner
func NewOLS() *OLS {
	return &OLS{}
}

// Fit solves the least squares problem via QR decomposition
func (m *OLS) Fit(x *mat.Dense, y []float64) error {
	n, p := x.Dims()
	if n != len(y) {
		return fmt.Errorf("ols: %d rows but %d responses", n, len(y))
	}
	if n <= p+1 {
		return fmt.Errorf("%w: %d rows for %d coefficients", ErrDegenerateFit, n, p+1)
	}

	design := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
	}
	design.Slice(0, n, 1, p+1).(*mat.Dense).Copy(x)

	var qr mat.QR
	qr.Factorize(design)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewDense(n, 1, y)); err != nil {
		return fmt.Errorf("%w: %v", ErrDegenerateFit, err)
	}

	m.coef = make([]float64, p+1)
	for j := range m.coef {
		m.coef[j] = beta.At(j, 0)
	}
	return nil
}

// Predict scores rows with the fitted coefficients
func (m *OLS) Predict(x *mat.Dense) []float64 {
	n, p := x.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		pred := m.coef[0]
		for j := 0; j < p; j++ {
			pred += m.coef[j+1] * x.At(i, j)
		}
		out[i] = pred
	}
	return out
}

// Coefficients returns the fitted coefficients, intercept first
func (m *OLS) Coefficients() []float64 {
	return m.coef
}
