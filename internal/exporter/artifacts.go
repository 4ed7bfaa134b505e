package exporter

import (
	"fmt"
	"math"

	"claimsev/internal/dataset"
	"claimsev/internal/eval"
	"claimsev/internal/model"
)

// WriteModelingTable writes the transformed modeling table
func (w *Writer) WriteModelingTable(rows []dataset.TransformedRow) error {
	headers := []string{
		"policy_id", "response", "claim_count", "exposure", "exposure_bucket",
		"veh_power", "veh_age", "driv_age", "bonus_malus", "density",
		"veh_brand", "region",
	}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			formatInt64(r.PolicyID),
			formatFloat(r.Response),
			formatInt(r.ClaimCount),
			formatFloat(r.Exposure),
			formatInt(r.ExposureBucket),
			formatFloat(r.VehPower),
			formatFloat(r.VehAge),
			formatInt(r.DrivAge),
			formatFloat(r.BonusMalus),
			formatFloat(r.Density),
			r.VehBrand,
			r.Region,
		})
	}

	return w.writeCSV("modeling_table.csv", headers, records)
}

// WriteFoldMetrics writes the per-fold metric table for one phase
func (w *Writer) WriteFoldMetrics(phase eval.Phase, results []eval.FoldResult) error {
	headers := []string{"model_id", "fold_id", "repeat", "fold", "n", "rmse", "r2", "elapsed_ms", "error"}

	records := make([][]string, 0, len(results))
	for _, r := range results {
		records = append(records, []string{
			r.ModelID,
			r.FoldID,
			formatInt(r.Repeat + 1),
			formatInt(r.Fold + 1),
			formatInt(r.N),
			formatFloat(r.RMSE),
			formatFloat(r.R2),
			formatInt(int(r.Elapsed.Milliseconds())),
			r.Err,
		})
	}

	return w.writeCSV(fmt.Sprintf("metrics_%s.csv", phase), headers, records)
}

// WriteRankings writes the aggregated ranking table for one phase
func (w *Writer) WriteRankings(phase eval.Phase, rankings []eval.Ranking) error {
	headers := []string{"rank", "model_id", "mean_rmse", "mean_r2", "folds", "failed"}

	records := make([][]string, 0, len(rankings))
	for _, r := range rankings {
		records = append(records, []string{
			formatInt(r.Rank),
			r.ModelID,
			formatFloat(r.MeanRMSE),
			formatFloat(r.MeanR2),
			formatInt(r.Folds),
			formatInt(r.Failed),
		})
	}

	return w.writeCSV(fmt.Sprintf("ranking_%s.csv", phase), headers, records)
}

// WriteRankComparison writes the CV-vs-test rank join
func (w *Writer) WriteRankComparison(cmp []eval.RankComparison) error {
	headers := []string{"model_id", "cv_rank", "test_rank", "cv_rmse", "test_rmse"}

	records := make([][]string, 0, len(cmp))
	for _, c := range cmp {
		records = append(records, []string{
			c.ModelID,
			formatInt(c.CVRank),
			formatInt(c.TestRank),
			formatFloat(c.CVRMSE),
			formatFloat(c.TestRMSE),
		})
	}

	return w.writeCSV("rank_comparison.csv", headers, records)
}

// WritePredictions writes one observed-vs-predicted file per unit for the
// given results, carrying both the log10 scale the models operate on and
// the original response scale (10^x).
func (w *Writer) WritePredictions(results []eval.FoldResult) error {
	byModel := make(map[string][]eval.FoldResult)
	var order []string
	for _, r := range results {
		if r.Failed() {
			continue
		}
		if _, ok := byModel[r.ModelID]; !ok {
			order = append(order, r.ModelID)
		}
		byModel[r.ModelID] = append(byModel[r.ModelID], r)
	}

	headers := []string{
		"policy_id", "fold_id", "observed_log10", "predicted_log10", "observed", "predicted",
	}

	for _, id := range order {
		var records [][]string
		var phase eval.Phase
		for _, r := range byModel[id] {
			phase = r.Phase
			for _, p := range r.Predictions {
				records = append(records, []string{
					formatInt64(p.PolicyID),
					r.FoldID,
					formatFloat(p.Observed),
					formatFloat(p.Predicted),
					formatFloat(math.Pow(10, p.Observed)),
					formatFloat(math.Pow(10, p.Predicted)),
				})
			}
		}
		name := fmt.Sprintf("predictions_%s_%s.csv", id, phase)
		if err := w.writeCSV(name, headers, records); err != nil {
			return err
		}
	}

	return nil
}

// WriteInspection writes coefficient tables for linear units and
// variable-importance tables for tree units
func (w *Writer) WriteInspection(fitted []eval.FittedUnit) error {
	for _, f := range fitted {
		if c, ok := f.Learner.(model.Coefficienter); ok {
			if err := w.writeCoefficients(f.Unit.ID, f.Columns, c.Coefficients()); err != nil {
				return err
			}
		}
		if imp, ok := f.Learner.(model.Importancer); ok {
			if err := w.writeImportance(f.Unit.ID, f.Columns, imp.Importance()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeCoefficients(id string, columns []string, coef []float64) error {
	terms := append([]string{"(Intercept)"}, columns...)

	records := make([][]string, 0, len(coef))
	for i, c := range coef {
		term := fmt.Sprintf("term_%d", i)
		if i < len(terms) {
			term = terms[i]
		}
		records = append(records, []string{term, formatFloat(c)})
	}

	return w.writeCSV(fmt.Sprintf("coefficients_%s.csv", id), []string{"term", "estimate"}, records)
}

func (w *Writer) writeImportance(id string, columns []string, importance []float64) error {
	records := make([][]string, 0, len(importance))
	for i, v := range importance {
		feature := fmt.Sprintf("feature_%d", i)
		if i < len(columns) {
			feature = columns[i]
		}
		records = append(records, []string{feature, formatFloat(v)})
	}

	return w.writeCSV(fmt.Sprintf("importance_%s.csv", id), []string{"feature", "importance"}, records)
}
