package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsev/internal/dataset"
)

func makeRows(n int) []dataset.TransformedRow {
	rows := make([]dataset.TransformedRow, n)
	for i := range rows {
		rows[i] = dataset.TransformedRow{
			PolicyID: int64(i + 1),
			Response: float64(i + 1),
		}
	}
	return rows
}

func ids(rows []dataset.TransformedRow) map[int64]bool {
	out := make(map[int64]bool, len(rows))
	for _, r := range rows {
		out[r.PolicyID] = true
	}
	return out
}

func TestDeriveIsPureAndDistinct(t *testing.T) {
	assert.Equal(t, Derive(2021, "train_test"), Derive(2021, "train_test"))
	assert.NotEqual(t, Derive(2021, "train_test"), Derive(2022, "train_test"))
	assert.NotEqual(t, Derive(2021, "cv", "repeat", "0"), Derive(2021, "cv", "repeat", "1"))
	assert.NotEqual(t, Derive(2021, "train_test"), Derive(2021, "cv"))
}

func TestTrainTestExactCounts(t *testing.T) {
	cfg := Config{Seed: 2021, Proportion: 0.80, StrataBins: 4}

	s, err := TrainTest(makeRows(1000), cfg)
	require.NoError(t, err)

	// four strata of 250, round(0.8*250)=200 each
	assert.Len(t, s.Train, 800)
	assert.Len(t, s.Test, 200)
}

func TestTrainTestDisjointAndExhaustive(t *testing.T) {
	rows := makeRows(333)
	cfg := Config{Seed: 2021, Proportion: 0.80, StrataBins: 4}

	s, err := TrainTest(rows, cfg)
	require.NoError(t, err)

	assert.Equal(t, len(rows), len(s.Train)+len(s.Test))

	trainIDs, testIDs := ids(s.Train), ids(s.Test)
	for id := range trainIDs {
		assert.False(t, testIDs[id], "policy %d in both partitions", id)
	}
	all := ids(rows)
	for id := range all {
		assert.True(t, trainIDs[id] || testIDs[id], "policy %d lost", id)
	}
}

func TestTrainTestReproducible(t *testing.T) {
	rows := makeRows(500)
	cfg := Config{Seed: 2021, Proportion: 0.80, StrataBins: 4}

	first, err := TrainTest(rows, cfg)
	require.NoError(t, err)
	second, err := TrainTest(rows, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Train, second.Train)
	assert.Equal(t, first.Test, second.Test)
}

func TestTrainTestSeedChangesMembership(t *testing.T) {
	rows := makeRows(500)
	a, err := TrainTest(rows, Config{Seed: 1, Proportion: 0.80, StrataBins: 4})
	require.NoError(t, err)
	b, err := TrainTest(rows, Config{Seed: 2, Proportion: 0.80, StrataBins: 4})
	require.NoError(t, err)

	assert.NotEqual(t, ids(a.Test), ids(b.Test))
}

func TestTrainTestStrataDistribution(t *testing.T) {
	rows := makeRows(1000)
	cfg := Config{Seed: 2021, Proportion: 0.80, StrataBins: 4}

	s, err := TrainTest(rows, cfg)
	require.NoError(t, err)

	// each response quartile contributes proportionally to the test set
	var low, high int
	for _, r := range s.Test {
		if r.Response <= 250 {
			low++
		}
		if r.Response > 750 {
			high++
		}
	}
	assert.Equal(t, 50, low)
	assert.Equal(t, 50, high)
}

func TestTrainTestTooFewRows(t *testing.T) {
	_, err := TrainTest(makeRows(1), Config{Seed: 1, Proportion: 0.8, StrataBins: 4})
	assert.ErrorIs(t, err, ErrTooFewRows)
}

func TestTrainTestTinyTableDegradesToSingleStratum(t *testing.T) {
	// 5 rows cannot fill 4 strata; the fallback group still splits
	s, err := TrainTest(makeRows(5), Config{Seed: 1, Proportion: 0.8, StrataBins: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, len(s.Train)+len(s.Test))
	assert.NotEmpty(t, s.Test)
}

func TestKFoldHoldsOutEachRowOncePerRepeat(t *testing.T) {
	rows := makeRows(100)
	cfg := Config{Seed: 2021, Folds: 5, Repeats: 2, StrataBins: 4}

	folds, err := KFold(rows, cfg)
	require.NoError(t, err)
	require.Len(t, folds, 10)

	for repeat := 0; repeat < cfg.Repeats; repeat++ {
		seen := make(map[int64]int)
		for _, f := range folds {
			if f.Repeat != repeat {
				continue
			}
			assert.Len(t, f.Assessment, 20) // 100 rows over 5 folds
			assert.Len(t, f.Analysis, 80)
			for _, r := range f.Assessment {
				seen[r.PolicyID]++
			}
		}
		require.Len(t, seen, 100)
		for id, count := range seen {
			assert.Equal(t, 1, count, "policy %d held out %d times", id, count)
		}
	}
}

func TestKFoldAnalysisAssessmentPartition(t *testing.T) {
	rows := makeRows(60)
	folds, err := KFold(rows, Config{Seed: 7, Folds: 3, Repeats: 1, StrataBins: 4})
	require.NoError(t, err)

	for _, f := range folds {
		assert.Equal(t, len(rows), len(f.Analysis)+len(f.Assessment))
		analysis := ids(f.Analysis)
		for _, r := range f.Assessment {
			assert.False(t, analysis[r.PolicyID])
		}
	}
}

func TestKFoldReproducible(t *testing.T) {
	rows := makeRows(80)
	cfg := Config{Seed: 2021, Folds: 4, Repeats: 3, StrataBins: 4}

	first, err := KFold(rows, cfg)
	require.NoError(t, err)
	second, err := KFold(rows, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestKFoldRepeatsDiffer(t *testing.T) {
	rows := makeRows(80)
	folds, err := KFold(rows, Config{Seed: 2021, Folds: 4, Repeats: 2, StrataBins: 4})
	require.NoError(t, err)

	// same fold index, different repeats: different held-out membership
	assert.NotEqual(t, ids(folds[0].Assessment), ids(folds[4].Assessment))
}

func TestKFoldTooFewRows(t *testing.T) {
	_, err := KFold(makeRows(3), Config{Seed: 1, Folds: 10, Repeats: 1, StrataBins: 4})
	assert.ErrorIs(t, err, ErrTooFewRows)
}

func TestFoldID(t *testing.T) {
	f := Fold{Repeat: 0, Fold: 2}
	assert.Equal(t, "repeat01_fold03", f.ID())
}
