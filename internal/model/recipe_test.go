package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsev/internal/dataset"
)

func sampleRows() []dataset.TransformedRow {
	return []dataset.TransformedRow{
		{PolicyID: 1, Response: 3.0, VehPower: 0.7, VehAge: 1.1, DrivAge: 40, BonusMalus: 1.7, Density: 3.0, ExposureBucket: 1, VehBrand: "B12", Region: "R82"},
		{PolicyID: 2, Response: 3.5, VehPower: 0.8, VehAge: 1.2, DrivAge: 55, BonusMalus: 1.8, Density: 2.0, ExposureBucket: 3, VehBrand: "B1", Region: "R24"},
		{PolicyID: 3, Response: 2.8, VehPower: 0.7, VehAge: 1.0, DrivAge: 30, BonusMalus: 1.7, Density: 3.5, ExposureBucket: 0, VehBrand: "B12", Region: "R24"},
	}
}

func TestSchemaColumnsPerEncoding(t *testing.T) {
	rows := sampleRows()

	tests := []struct {
		encoding Encoding
		extra    []string
	}{
		{EncodingDummy, []string{"veh_brand_B12", "region_R82"}},
		{EncodingOneHot, []string{"veh_brand_B1", "veh_brand_B12", "region_R24", "region_R82"}},
		{EncodingOrdinal, []string{"veh_brand", "region"}},
	}

	for _, tt := range tests {
		t.Run(tt.encoding.String(), func(t *testing.T) {
			s := Recipe{Encoding: tt.encoding}.Fit(rows)
			want := append([]string{
				"veh_power", "veh_age", "driv_age", "bonus_malus", "density", "exposure_bucket",
			}, tt.extra...)
			assert.Equal(t, want, s.Columns())
		})
	}
}

func TestSchemaMatrixNumericPassthrough(t *testing.T) {
	rows := sampleRows()
	s := Recipe{Encoding: EncodingOrdinal}.Fit(rows)

	x := s.Matrix(rows)
	n, p := x.Dims()
	assert.Equal(t, 3, n)
	assert.Equal(t, 8, p)

	assert.Equal(t, 0.7, x.At(0, 0)) // veh_power
	assert.Equal(t, 40.0, x.At(0, 2))
	assert.Equal(t, 1.0, x.At(0, 5)) // exposure bucket

	// ordinal codes follow sorted level order: B1=0, B12=1; R24=0, R82=1
	assert.Equal(t, 1.0, x.At(0, 6))
	assert.Equal(t, 0.0, x.At(1, 6))
	assert.Equal(t, 1.0, x.At(0, 7))
	assert.Equal(t, 0.0, x.At(1, 7))
}

func TestSchemaMatrixDummyDropsReference(t *testing.T) {
	rows := sampleRows()
	s := Recipe{Encoding: EncodingDummy}.Fit(rows)

	x := s.Matrix(rows)
	_, p := x.Dims()
	assert.Equal(t, 8, p) // 6 numeric + (2-1) brand + (2-1) region

	// row 0: brand B12 (non-reference), region R82 (non-reference)
	assert.Equal(t, 1.0, x.At(0, 6))
	assert.Equal(t, 1.0, x.At(0, 7))
	// row 1: brand B1 and region R24 are the reference levels
	assert.Equal(t, 0.0, x.At(1, 6))
	assert.Equal(t, 0.0, x.At(1, 7))
}

func TestSchemaMatrixOneHot(t *testing.T) {
	rows := sampleRows()
	s := Recipe{Encoding: EncodingOneHot}.Fit(rows)

	x := s.Matrix(rows)
	_, p := x.Dims()
	assert.Equal(t, 10, p) // 6 numeric + 2 brands + 2 regions

	// row 1: brand B1, region R24
	assert.Equal(t, 1.0, x.At(1, 6))
	assert.Equal(t, 0.0, x.At(1, 7))
	assert.Equal(t, 1.0, x.At(1, 8))
	assert.Equal(t, 0.0, x.At(1, 9))

	// every row has exactly one brand and one region indicator set
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, x.At(i, 6)+x.At(i, 7))
		assert.Equal(t, 1.0, x.At(i, 8)+x.At(i, 9))
	}
}

func TestSchemaUnseenLevelEncodesAsReference(t *testing.T) {
	rows := sampleRows()
	s := Recipe{Encoding: EncodingOneHot}.Fit(rows)

	unseen := []dataset.TransformedRow{{VehBrand: "B99", Region: "R99"}}
	x := s.Matrix(unseen)

	for j := 6; j < 10; j++ {
		assert.Equal(t, 0.0, x.At(0, j))
	}
}

func TestSchemaResponse(t *testing.T) {
	rows := sampleRows()
	s := Recipe{Encoding: EncodingDummy}.Fit(rows)
	assert.Equal(t, []float64{3.0, 3.5, 2.8}, s.Response(rows))
}

func TestRegistryUnits(t *testing.T) {
	units := Registry()
	require.Len(t, units, 3)

	assert.Equal(t, "lm", units[0].ID)
	assert.Equal(t, EncodingDummy, units[0].Recipe.Encoding)
	assert.Equal(t, "rf", units[1].ID)
	assert.Equal(t, EncodingOrdinal, units[1].Recipe.Encoding)
	assert.Equal(t, "xgb", units[2].ID)
	assert.Equal(t, EncodingOneHot, units[2].Recipe.Encoding)

	// the pairings expose the expected inspection interfaces
	_, ok := units[0].New(0).(Coefficienter)
	assert.True(t, ok)
	_, ok = units[1].New(0).(Importancer)
	assert.True(t, ok)
	_, ok = units[2].New(0).(Importancer)
	assert.True(t, ok)
}

func TestLookup(t *testing.T) {
	units, err := Lookup([]string{"xgb", "lm"})
	require.NoError(t, err)
	require.Len(t, units, 2)
	// registry order preserved
	assert.Equal(t, "lm", units[0].ID)
	assert.Equal(t, "xgb", units[1].ID)

	all, err := Lookup(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = Lookup([]string{"lm", "glmnet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "glmnet")
}
