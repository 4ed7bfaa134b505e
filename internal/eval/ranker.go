package eval

import (
	"math"
	"sort"
)

// Ranking is the aggregated performance of one fitting unit over a phase
type Ranking struct {
	ModelID  string  `json:"model_id"`
	Rank     int     `json:"rank"`
	MeanRMSE float64 `json:"mean_rmse"`
	MeanR2   float64 `json:"mean_r2"`
	Folds    int     `json:"folds"`
	Failed   int     `json:"failed"`
}

// Rank aggregates per-fold metrics into one row per unit, ranked
// ascending by mean RMSE (lower is better). Failed folds are excluded
// from the means but counted; a unit with no successful fold carries
// NaN means and ranks after every unit with real metrics. Ties break on
// unit id for determinism.
func Rank(results []FoldResult) []Ranking {
	byModel := make(map[string]*Ranking)
	var order []string

	for _, r := range results {
		agg, ok := byModel[r.ModelID]
		if !ok {
			agg = &Ranking{ModelID: r.ModelID}
			byModel[r.ModelID] = agg
			order = append(order, r.ModelID)
		}
		if r.Failed() {
			agg.Failed++
			continue
		}
		agg.MeanRMSE += r.RMSE
		agg.MeanR2 += r.R2
		agg.Folds++
	}

	out := make([]Ranking, 0, len(order))
	for _, id := range order {
		agg := byModel[id]
		if agg.Folds > 0 {
			agg.MeanRMSE /= float64(agg.Folds)
			agg.MeanR2 /= float64(agg.Folds)
		} else {
			agg.MeanRMSE = math.NaN()
			agg.MeanR2 = math.NaN()
		}
		out = append(out, *agg)
	}

	sort.Slice(out, func(i, j int) bool {
		iDead, jDead := out[i].Folds == 0, out[j].Folds == 0
		if iDead != jDead {
			return jDead
		}
		if !iDead && out[i].MeanRMSE != out[j].MeanRMSE {
			return out[i].MeanRMSE < out[j].MeanRMSE
		}
		return out[i].ModelID < out[j].ModelID
	})
	for i := range out {
		out[i].Rank = i + 1
	}

	return out
}

// RankComparison joins a unit's cross-validation rank against its
// held-out test rank, to compare resampled estimates with generalization
type RankComparison struct {
	ModelID  string  `json:"model_id"`
	CVRank   int     `json:"cv_rank"`
	TestRank int     `json:"test_rank"`
	CVRMSE   float64 `json:"cv_rmse"`
	TestRMSE float64 `json:"test_rmse"`
}

// CompareRanks joins two rankings by unit identity, in CV rank order.
// Units missing from either side are skipped.
func CompareRanks(cv, test []Ranking) []RankComparison {
	testByID := make(map[string]Ranking, len(test))
	for _, t := range test {
		testByID[t.ModelID] = t
	}

	var out []RankComparison
	for _, c := range cv {
		t, ok := testByID[c.ModelID]
		if !ok {
			continue
		}
		out = append(out, RankComparison{
			ModelID:  c.ModelID,
			CVRank:   c.Rank,
			TestRank: t.Rank,
			CVRMSE:   c.MeanRMSE,
			TestRMSE: t.MeanRMSE,
		})
	}
	return out
}
