package split

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"claimsev/internal/dataset"
)

// ErrTooFewRows is returned when the table is too small to split at all
var ErrTooFewRows = errors.New("split: too few rows")

// Config controls both split levels. Seed is the root seed; sub-seeds are
// derived per operation, never consumed from a shared stream.
type Config struct {
	Seed       int64
	Proportion float64 // train fraction for the top-level split
	Folds      int
	Repeats    int
	StrataBins int
	Logger     *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Split is the top-level stratified train/test partition. Train and Test
// are disjoint and their union is the input table; both preserve the
// input row order.
type Split struct {
	Train []dataset.TransformedRow
	Test  []dataset.TransformedRow
}

// TrainTest performs a single stratified train/test split. Rows are
// grouped into response quantile strata; within each stratum
// round(proportion*n) rows go to train, the rest to test, so both
// partitions see a similar response distribution. Deterministic for a
// fixed seed.
func TrainTest(rows []dataset.TransformedRow, cfg Config) (Split, error) {
	if len(rows) < 2 {
		return Split{}, fmt.Errorf("%w: have %d, need at least 2", ErrTooFewRows, len(rows))
	}

	strata := stratify(rows, cfg.StrataBins, 2, cfg.logger())
	r := rng(cfg.Seed, "train_test")

	inTrain := make([]bool, len(rows))
	for _, stratum := range strata {
		shuffled := make([]int, len(stratum))
		copy(shuffled, stratum)
		r.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		nTrain := int(math.Round(cfg.Proportion * float64(len(shuffled))))
		if nTrain == len(shuffled) && len(shuffled) > 1 {
			nTrain-- // keep at least one assessment row per stratum
		}
		for _, idx := range shuffled[:nTrain] {
			inTrain[idx] = true
		}
	}

	var out Split
	for i, row := range rows {
		if inTrain[i] {
			out.Train = append(out.Train, row)
		} else {
			out.Test = append(out.Test, row)
		}
	}

	cfg.logger().Info("created train/test split",
		"rows", len(rows),
		"train", len(out.Train),
		"test", len(out.Test),
		"proportion", cfg.Proportion,
		"strata", len(strata),
	)

	return out, nil
}

// stratify groups row indices into response quantile bins. Strata smaller
// than minSize are merged into one best-effort fallback group, logged as a
// warning; stratification degrades, it never fails.
func stratify(rows []dataset.TransformedRow, bins, minSize int, logger *slog.Logger) [][]int {
	if bins < 2 || len(rows) < bins {
		all := make([]int, len(rows))
		for i := range rows {
			all[i] = i
		}
		return [][]int{all}
	}

	responses := make([]float64, len(rows))
	for i, row := range rows {
		responses[i] = row.Response
	}
	sorted := make([]float64, len(responses))
	copy(sorted, responses)
	sort.Float64s(sorted)

	cuts := make([]float64, 0, bins-1)
	for b := 1; b < bins; b++ {
		cuts = append(cuts, stat.Quantile(float64(b)/float64(bins), stat.Empirical, sorted, nil))
	}

	groups := make([][]int, bins)
	for i, v := range responses {
		// first cut >= v; values equal to a cut belong to the lower bin
		b := sort.SearchFloat64s(cuts, v)
		groups[b] = append(groups[b], i)
	}

	var (
		out      [][]int
		fallback []int
		merged   int
	)
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		if len(g) < minSize {
			fallback = append(fallback, g...)
			merged++
			continue
		}
		out = append(out, g)
	}
	if len(fallback) > 0 {
		logger.Warn("strata below minimum size merged into fallback group",
			"merged_strata", merged,
			"fallback_rows", len(fallback),
			"min_size", minSize,
		)
		sort.Ints(fallback)
		out = append(out, fallback)
	}

	return out
}
