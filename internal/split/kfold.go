package split

import (
	"fmt"
	"strconv"

	"claimsev/internal/dataset"
)

// Fold is one resample of the repeated k-fold plan. Analysis rows are
// fitted on, Assessment rows are held out.
type Fold struct {
	Repeat     int
	Fold       int
	Analysis   []dataset.TransformedRow
	Assessment []dataset.TransformedRow
}

// ID returns the stable identifier of the fold within the plan
func (f Fold) ID() string {
	return fmt.Sprintf("repeat%02d_fold%02d", f.Repeat+1, f.Fold+1)
}

// KFold builds a repeated stratified k-fold plan over the training rows.
// Within each repeat every row is held out exactly once: rows are grouped
// into response quantile strata, shuffled per repeat with a sub-seed
// derived from (root seed, repeat index), and dealt round-robin onto the
// folds. Strata smaller than the fold count merge into a fallback group
// (see stratify).
func KFold(rows []dataset.TransformedRow, cfg Config) ([]Fold, error) {
	if len(rows) < cfg.Folds {
		return nil, fmt.Errorf("%w: have %d rows for %d folds", ErrTooFewRows, len(rows), cfg.Folds)
	}

	folds := make([]Fold, 0, cfg.Folds*cfg.Repeats)
	for repeat := 0; repeat < cfg.Repeats; repeat++ {
		assignment := assignFolds(rows, cfg, repeat)

		for fold := 0; fold < cfg.Folds; fold++ {
			f := Fold{Repeat: repeat, Fold: fold}
			for i, row := range rows {
				if assignment[i] == fold {
					f.Assessment = append(f.Assessment, row)
				} else {
					f.Analysis = append(f.Analysis, row)
				}
			}
			folds = append(folds, f)
		}
	}

	cfg.logger().Info("created cross-validation plan",
		"rows", len(rows),
		"folds", cfg.Folds,
		"repeats", cfg.Repeats,
		"resamples", len(folds),
	)

	return folds, nil
}

// assignFolds maps each row index to a fold for one repeat. The deal
// counter runs across strata so fold sizes stay balanced overall, not
// just within each stratum.
func assignFolds(rows []dataset.TransformedRow, cfg Config, repeat int) []int {
	strata := stratify(rows, cfg.StrataBins, cfg.Folds, cfg.logger())
	r := rng(cfg.Seed, "cv", "repeat", strconv.Itoa(repeat))

	assignment := make([]int, len(rows))
	next := 0
	for _, stratum := range strata {
		shuffled := make([]int, len(stratum))
		copy(shuffled, stratum)
		r.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for _, idx := range shuffled {
			assignment[idx] = next % cfg.Folds
			next++
		}
	}

	return assignment
}
