package eval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"claimsev/internal/dataset"
	"claimsev/internal/model"
	"claimsev/internal/split"
)

// Phase distinguishes cross-validation results from held-out test results
type Phase string

const (
	PhaseCV   Phase = "cv"
	PhaseTest Phase = "test"
)

// Prediction is one observed/predicted pair, on the log10 response scale
type Prediction struct {
	PolicyID  int64   `json:"policy_id"`
	Observed  float64 `json:"observed"`
	Predicted float64 `json:"predicted"`
}

// FoldResult holds the outcome of fitting one unit on one resample.
// Results are keyed by (ModelID, Repeat, Fold) so aggregation does not
// depend on completion order. A failed fit carries Err and empty metrics
// and is excluded from aggregates.
type FoldResult struct {
	ModelID     string
	Phase       Phase
	Repeat      int
	Fold        int
	FoldID      string
	RMSE        float64
	R2          float64
	N           int
	Elapsed     time.Duration
	Predictions []Prediction
	Err         string
}

// Failed reports whether this fold fit failed
func (r FoldResult) Failed() bool {
	return r.Err != ""
}

// FittedUnit is a unit fitted on the full training partition, kept for
// inspection and export
type FittedUnit struct {
	Unit    model.Unit
	Learner model.Learner
	Columns []string
}

// Evaluator fits units against resampling plans. Fold fits share nothing
// and run concurrently on a bounded worker pool; the learner seed for
// each fit derives from (root seed, model id, fold id).
type Evaluator struct {
	Seed           int64
	MaxConcurrency int
	KeepModels     bool
	Logger         *slog.Logger
}

func (e *Evaluator) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Evaluator) limit() int {
	if e.MaxConcurrency < 1 {
		return 1
	}
	return e.MaxConcurrency
}

// CrossValidate fits every unit on every fold of the plan. The returned
// results are ordered (unit, fold) regardless of completion order. Only a
// cancelled context makes this return an error; individual fold failures
// are recorded in their FoldResult.
func (e *Evaluator) CrossValidate(ctx context.Context, units []model.Unit, folds []split.Fold) ([]FoldResult, error) {
	results := make([]FoldResult, len(units)*len(folds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit())

	for ui, unit := range units {
		for fi, fold := range folds {
			slot := ui*len(folds) + fi
			unit, fold := unit, fold
			g.Go(func() error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				results[slot] = e.fitFold(unit, PhaseCV, fold.Repeat, fold.Fold, fold.ID(), fold.Analysis, fold.Assessment)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cross-validation aborted: %w", err)
	}

	e.logger().Info("cross-validation complete",
		"units", len(units),
		"resamples", len(folds),
		"failed_folds", len(Failures(results)),
	)

	return results, nil
}

// TrainTest fits every unit once on the training partition and evaluates
// on the held-out test partition. When KeepModels is set the fitted
// learners are returned for inspection and export.
func (e *Evaluator) TrainTest(ctx context.Context, units []model.Unit, s split.Split) ([]FoldResult, []FittedUnit, error) {
	results := make([]FoldResult, len(units))
	fitted := make([]FittedUnit, len(units))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit())

	for ui, unit := range units {
		ui, unit := ui, unit
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result, learner, columns := e.fit(unit, PhaseTest, 0, 0, "train_test", s.Train, s.Test)
			results[ui] = result
			if e.KeepModels && !result.Failed() {
				fitted[ui] = FittedUnit{Unit: unit, Learner: learner, Columns: columns}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("test evaluation aborted: %w", err)
	}

	if !e.KeepModels {
		fitted = nil
	} else {
		kept := fitted[:0]
		for _, f := range fitted {
			if f.Learner != nil {
				kept = append(kept, f)
			}
		}
		fitted = kept
	}

	return results, fitted, nil
}

func (e *Evaluator) fitFold(unit model.Unit, phase Phase, repeat, fold int, foldID string, analysis, assessment []dataset.TransformedRow) FoldResult {
	result, _, _ := e.fit(unit, phase, repeat, fold, foldID, analysis, assessment)
	return result
}

// fit trains one unit on the analysis rows and scores the assessment
// rows. Failures are captured in the result, never propagated: a
// degenerate resample must not sink the whole run.
func (e *Evaluator) fit(unit model.Unit, phase Phase, repeat, fold int, foldID string, analysis, assessment []dataset.TransformedRow) (FoldResult, model.Learner, []string) {
	start := time.Now()
	result := FoldResult{
		ModelID: unit.ID,
		Phase:   phase,
		Repeat:  repeat,
		Fold:    fold,
		FoldID:  foldID,
	}

	schema := unit.Recipe.Fit(analysis)
	learner := unit.New(split.Derive(e.Seed, "fit", unit.ID, foldID))

	if err := learner.Fit(schema.Matrix(analysis), schema.Response(analysis)); err != nil {
		result.Err = err.Error()
		result.Elapsed = time.Since(start)
		e.logger().Warn("fold fit failed",
			"model", unit.ID,
			"fold", foldID,
			"error", err,
		)
		return result, nil, nil
	}

	observed := schema.Response(assessment)
	predicted := learner.Predict(schema.Matrix(assessment))

	result.N = len(assessment)
	result.RMSE = RMSE(observed, predicted)
	result.R2 = RSquared(observed, predicted)
	result.Elapsed = time.Since(start)
	result.Predictions = make([]Prediction, len(assessment))
	for i, row := range assessment {
		result.Predictions[i] = Prediction{
			PolicyID:  row.PolicyID,
			Observed:  observed[i],
			Predicted: predicted[i],
		}
	}

	e.logger().Debug("fold fit complete",
		"model", unit.ID,
		"fold", foldID,
		"rmse", result.RMSE,
		"r2", result.R2,
		"elapsed", result.Elapsed,
	)

	return result, learner, schema.Columns()
}

// Failures returns the failed fold results, the per-fold failure report
func Failures(results []FoldResult) []FoldResult {
	var out []FoldResult
	for _, r := range results {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}
