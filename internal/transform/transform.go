package transform

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"claimsev/internal/dataset"
)

// ErrEmptyTable is returned when there are no rows to fit thresholds on
var ErrEmptyTable = errors.New("transform: empty modeling table")

// ErrNonPositive is returned when a row reaches a log10 transform with a
// non-positive value. Upstream filtering is supposed to prevent this, so
// hitting it means the inputs are broken, not merely noisy.
var ErrNonPositive = errors.New("transform: non-positive value in log10 transform")

// Params holds the fitted trim thresholds. Thresholds are computed once by
// Fit, sequentially, each on the rows surviving the previous trims, and
// are then fixed: re-applying Trim with the same Params to its own output
// removes nothing.
type Params struct {
	ResponseLow   float64 `json:"response_low"`    // P1 of the raw response
	ResponseHigh  float64 `json:"response_high"`   // P99 of the raw response
	BonusMalusMax float64 `json:"bonus_malus_max"` // P99.9, after the response trim
	VehAgeMax     float64 `json:"veh_age_max"`     // P99.9, after the bonus-malus trim
	MaxExposure   float64 `json:"max_exposure"`    // fixed at 1
}

// Stats reports row counts through each trim stage
type Stats struct {
	RowsIn            int `json:"rows_in"`
	AfterResponseTrim int `json:"after_response_trim"`
	AfterBonusMalus   int `json:"after_bonus_malus_trim"`
	AfterVehAge       int `json:"after_veh_age_trim"`
	RowsOut           int `json:"rows_out"`
}

// Fit computes the trim thresholds from the modeling table. The order
// mirrors the trims: the bonus-malus quantile is taken on rows that
// survive the response trim, and the vehicle-age quantile on rows that
// additionally survive the bonus-malus trim. The order is load-bearing
// for numeric parity and must not be rearranged.
func Fit(rows []dataset.ModelingRow) (Params, error) {
	if len(rows) == 0 {
		return Params{}, ErrEmptyTable
	}

	var p Params
	p.MaxExposure = 1.0

	responses := make([]float64, len(rows))
	for i, r := range rows {
		responses[i] = r.Response
	}
	p.ResponseLow = quantile(responses, 0.01)
	p.ResponseHigh = quantile(responses, 0.99)

	var bonusMalus []float64
	for _, r := range rows {
		if r.Response >= p.ResponseLow && r.Response <= p.ResponseHigh {
			bonusMalus = append(bonusMalus, float64(r.BonusMalus))
		}
	}
	if len(bonusMalus) == 0 {
		return Params{}, fmt.Errorf("%w: response trim removed all rows", ErrEmptyTable)
	}
	p.BonusMalusMax = quantile(bonusMalus, 0.999)

	var vehAge []float64
	for _, r := range rows {
		if r.Response >= p.ResponseLow && r.Response <= p.ResponseHigh &&
			float64(r.BonusMalus) < p.BonusMalusMax {
			vehAge = append(vehAge, float64(r.VehAge))
		}
	}
	if len(vehAge) == 0 {
		return Params{}, fmt.Errorf("%w: bonus-malus trim removed all rows", ErrEmptyTable)
	}
	p.VehAgeMax = quantile(vehAge, 0.999)

	return p, nil
}

// Trim applies the fitted outlier filters in their fixed order and
// returns the surviving rows. Idempotent for fixed Params.
func Trim(rows []dataset.ModelingRow, p Params) ([]dataset.ModelingRow, Stats) {
	stats := Stats{RowsIn: len(rows)}

	out := make([]dataset.ModelingRow, 0, len(rows))
	for _, r := range rows {
		if r.Response < p.ResponseLow || r.Response > p.ResponseHigh {
			continue
		}
		out = append(out, r)
	}
	stats.AfterResponseTrim = len(out)

	filtered := out[:0:len(out)]
	for _, r := range out {
		if float64(r.BonusMalus) >= p.BonusMalusMax {
			continue
		}
		filtered = append(filtered, r)
	}
	out = filtered
	stats.AfterBonusMalus = len(out)

	filtered = out[:0:len(out)]
	for _, r := range out {
		if float64(r.VehAge) >= p.VehAgeMax {
			continue
		}
		filtered = append(filtered, r)
	}
	out = filtered
	stats.AfterVehAge = len(out)

	filtered = out[:0:len(out)]
	for _, r := range out {
		if r.Exposure > p.MaxExposure {
			continue
		}
		filtered = append(filtered, r)
	}
	out = filtered
	stats.RowsOut = len(out)

	return out, stats
}

// Apply trims with the fitted thresholds and transforms the survivors:
// response, density, bonus-malus, vehicle age (+10 offset) and vehicle
// power go to log10 scale, exposure is bucketed, and the area and fuel
// columns are dropped. The +10 vehicle-age offset exists so that brand-new
// vehicles (age 0) stay inside the log domain.
func Apply(rows []dataset.ModelingRow, p Params) ([]dataset.TransformedRow, Stats, error) {
	trimmed, stats := Trim(rows, p)

	out := make([]dataset.TransformedRow, 0, len(trimmed))
	for _, r := range trimmed {
		if r.Response <= 0 || r.Density <= 0 || r.BonusMalus <= 0 ||
			r.VehPower <= 0 || float64(r.VehAge)+10 <= 0 {
			return nil, stats, fmt.Errorf("%w: policy %d", ErrNonPositive, r.PolicyID)
		}

		out = append(out, dataset.TransformedRow{
			PolicyID:       r.PolicyID,
			Response:       math.Log10(r.Response),
			ClaimCount:     r.ClaimCount,
			Exposure:       r.Exposure,
			ExposureBucket: ExposureBucket(r.Exposure),
			VehPower:       math.Log10(float64(r.VehPower)),
			VehAge:         math.Log10(float64(r.VehAge) + 10),
			DrivAge:        r.DrivAge,
			BonusMalus:     math.Log10(float64(r.BonusMalus)),
			Density:        math.Log10(float64(r.Density)),
			VehBrand:       r.VehBrand,
			Region:         r.Region,
		})
	}

	return out, stats, nil
}

// FitTransform fits thresholds on the table and applies them to it
func FitTransform(rows []dataset.ModelingRow, logger *slog.Logger) ([]dataset.TransformedRow, Params, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	params, err := Fit(rows)
	if err != nil {
		return nil, Params{}, Stats{}, err
	}

	out, stats, err := Apply(rows, params)
	if err != nil {
		return nil, params, stats, err
	}

	logger.Info("transformed modeling table",
		"rows_in", stats.RowsIn,
		"after_response_trim", stats.AfterResponseTrim,
		"after_bonus_malus_trim", stats.AfterBonusMalus,
		"after_veh_age_trim", stats.AfterVehAge,
		"rows_out", stats.RowsOut,
		"response_low", params.ResponseLow,
		"response_high", params.ResponseHigh,
	)

	return out, params, stats, nil
}

// ExposureBucket maps an exposure in (0,1] to its ordered bucket code:
// 0 for [0,.25), 1 for [.25,.75), 2 for [.75,1), 3 for exactly 1. A full
// policy-year is its own singleton bin, distinct from [.75,1).
func ExposureBucket(exposure float64) int {
	switch {
	case exposure == 1:
		return 3
	case exposure >= 0.75:
		return 2
	case exposure >= 0.25:
		return 1
	default:
		return 0
	}
}
