package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsev/internal/dataset"
)

// buildRows constructs 100 rows with responses 1..100 and mostly uniform
// features, with targeted outliers:
//   - response 100 carries bonus-malus 200 (outlier hidden behind the
//     response trim)
//   - response 50 carries bonus-malus 150 and vehicle age 80
//   - response 60 carries vehicle age 60
func buildRows() []dataset.ModelingRow {
	rows := make([]dataset.ModelingRow, 0, 100)
	for i := 1; i <= 100; i++ {
		r := dataset.ModelingRow{
			PolicyID:    int64(i),
			ClaimCount:  1,
			ClaimAmount: float64(i) * 0.5,
			Response:    float64(i),
			Exposure:    0.5,
			Area:        "D",
			VehPower:    5,
			VehAge:      5,
			DrivAge:     40,
			BonusMalus:  50,
			VehBrand:    "B12",
			VehGas:      "Regular",
			Density:     1000,
			Region:      "R82",
		}
		switch i {
		case 100:
			r.BonusMalus = 200
		case 50:
			r.BonusMalus = 150
			r.VehAge = 80
		case 60:
			r.VehAge = 60
		}
		rows = append(rows, r)
	}
	return rows
}

func TestFitSequentialThresholds(t *testing.T) {
	params, err := Fit(buildRows())
	require.NoError(t, err)

	// empirical P99 of 1..100 is 99; the response-100 row is outside
	assert.Equal(t, 1.0, params.ResponseLow)
	assert.Equal(t, 99.0, params.ResponseHigh)

	// bonus-malus 200 sits on the row already removed by the response
	// trim, so the threshold lands on 150, not 200
	assert.Equal(t, 150.0, params.BonusMalusMax)

	// vehicle age 80 sits on the bonus-malus-trimmed row, so the
	// threshold lands on 60
	assert.Equal(t, 60.0, params.VehAgeMax)

	assert.Equal(t, 1.0, params.MaxExposure)
}

func TestTrimStageCounts(t *testing.T) {
	rows := buildRows()
	params, err := Fit(rows)
	require.NoError(t, err)

	trimmed, stats := Trim(rows, params)
	assert.Equal(t, 100, stats.RowsIn)
	assert.Equal(t, 99, stats.AfterResponseTrim) // response 100 dropped
	assert.Equal(t, 98, stats.AfterBonusMalus)   // bonus-malus 150 dropped
	assert.Equal(t, 97, stats.AfterVehAge)       // vehicle age 60 dropped
	assert.Equal(t, 97, stats.RowsOut)
	assert.Len(t, trimmed, 97)
}

func TestTrimIdempotent(t *testing.T) {
	rows := buildRows()
	params, err := Fit(rows)
	require.NoError(t, err)

	once, _ := Trim(rows, params)
	twice, stats := Trim(once, params)

	assert.Equal(t, once, twice)
	assert.Equal(t, stats.RowsIn, stats.RowsOut)
}

func TestTrimExposureCap(t *testing.T) {
	rows := buildRows()
	rows[10].Exposure = 1.08 // beyond a full policy-year

	params, err := Fit(rows)
	require.NoError(t, err)

	_, stats := Trim(rows, params)
	assert.Equal(t, 96, stats.RowsOut)
}

func TestApplyTransformsAndDropsColumns(t *testing.T) {
	rows := buildRows()
	params, err := Fit(rows)
	require.NoError(t, err)

	out, stats, err := Apply(rows, params)
	require.NoError(t, err)
	require.Len(t, out, stats.RowsOut)

	first := out[0]
	assert.Equal(t, int64(1), first.PolicyID)

	// log10 round trip recovers the raw response
	assert.InDelta(t, 1.0, math.Pow(10, first.Response), 1e-9)
	assert.InDelta(t, math.Log10(1000), first.Density, 1e-12)
	assert.InDelta(t, math.Log10(50), first.BonusMalus, 1e-12)
	assert.InDelta(t, math.Log10(5+10), first.VehAge, 1e-12)
	assert.InDelta(t, math.Log10(5), first.VehPower, 1e-12)

	// exposure 0.5 lands in the middle bucket
	assert.Equal(t, 1, first.ExposureBucket)
}

func TestApplyRoundTrip(t *testing.T) {
	rows := buildRows()
	params, err := Fit(rows)
	require.NoError(t, err)

	out, _, err := Apply(rows, params)
	require.NoError(t, err)

	trimmed, _ := Trim(rows, params)
	require.Len(t, out, len(trimmed))
	for i := range out {
		assert.InDelta(t, trimmed[i].Response, math.Pow(10, out[i].Response), 1e-9)
	}
}

func TestApplyNonPositivePrecondition(t *testing.T) {
	rows := buildRows()
	rows[5].Density = 0

	params, err := Fit(rows)
	require.NoError(t, err)

	_, _, err = Apply(rows, params)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonPositive))
}

func TestFitEmptyTable(t *testing.T) {
	_, err := Fit(nil)
	assert.True(t, errors.Is(err, ErrEmptyTable))
}

func TestExposureBucket(t *testing.T) {
	tests := []struct {
		exposure float64
		bucket   int
	}{
		{0.01, 0},
		{0.24, 0},
		{0.25, 1},
		{0.5, 1},
		{0.74, 1},
		{0.75, 2},
		{0.999, 2},
		{1.0, 3}, // a full year is its own singleton bin
	}

	for _, tt := range tests {
		assert.Equal(t, tt.bucket, ExposureBucket(tt.exposure), "exposure %v", tt.exposure)
	}
}
