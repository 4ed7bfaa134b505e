package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"claimsev/internal/dataset"
)

// Encoding selects how the two categorical attributes (vehicle brand,
// region) enter the design matrix
type Encoding int

const (
	// EncodingDummy emits one indicator per non-reference level. Paired
	// with the linear model, where full one-hot plus an intercept would
	// be rank deficient.
	EncodingDummy Encoding = iota
	// EncodingOneHot emits one indicator per level
	EncodingOneHot
	// EncodingOrdinal emits the level index as a single numeric column,
	// standing in for native categorical support in the tree learners
	EncodingOrdinal
)

// String returns the recipe name used in artifact files
func (e Encoding) String() string {
	switch e {
	case EncodingDummy:
		return "dummy"
	case EncodingOneHot:
		return "one-hot"
	case EncodingOrdinal:
		return "ordinal"
	default:
		return "unknown"
	}
}

// numericColumns are the passthrough features, in fixed design order
var numericColumns = []string{
	"veh_power", "veh_age", "driv_age", "bonus_malus", "density", "exposure_bucket",
}

// Recipe describes how features become a design matrix. Fit learns the categorical
// levels from the analysis rows; the resulting Schema then encodes any
// row set consistently, so assessment rows see exactly the columns the
// model was fitted on.
type Recipe struct {
	Encoding Encoding
}

// Schema is a fitted Recipe
type Schema struct {
	encoding Encoding
	brands   []string
	regions  []string
	columns  []string
}

// Fit collects the sorted categorical levels from rows
func (r Recipe) Fit(rows []dataset.TransformedRow) *Schema {
	brandSet := make(map[string]bool)
	regionSet := make(map[string]bool)
	for _, row := range rows {
		brandSet[row.VehBrand] = true
		regionSet[row.Region] = true
	}

	s := &Schema{
		encoding: r.Encoding,
		brands:   sortedKeys(brandSet),
		regions:  sortedKeys(regionSet),
	}
	s.columns = s.buildColumns()
	return s
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Schema) buildColumns() []string {
	cols := append([]string{}, numericColumns...)

	switch s.encoding {
	case EncodingOrdinal:
		cols = append(cols, "veh_brand", "region")
	case EncodingDummy:
		for _, b := range s.brands[min(1, len(s.brands)):] {
			cols = append(cols, "veh_brand_"+b)
		}
		for _, r := range s.regions[min(1, len(s.regions)):] {
			cols = append(cols, "region_"+r)
		}
	case EncodingOneHot:
		for _, b := range s.brands {
			cols = append(cols, "veh_brand_"+b)
		}
		for _, r := range s.regions {
			cols = append(cols, "region_"+r)
		}
	}

	return cols
}

// Columns returns the design matrix column names, in order
func (s *Schema) Columns() []string {
	return s.columns
}

// Matrix encodes rows into the design matrix. Levels unseen during Fit
// encode as the reference level (all-zero indicators, ordinal code 0).
func (s *Schema) Matrix(rows []dataset.TransformedRow) *mat.Dense {
	p := len(s.columns)
	x := mat.NewDense(len(rows), p, nil)

	for i, row := range rows {
		x.Set(i, 0, row.VehPower)
		x.Set(i, 1, row.VehAge)
		x.Set(i, 2, float64(row.DrivAge))
		x.Set(i, 3, row.BonusMalus)
		x.Set(i, 4, row.Density)
		x.Set(i, 5, float64(row.ExposureBucket))

		col := len(numericColumns)
		switch s.encoding {
		case EncodingOrdinal:
			x.Set(i, col, float64(levelIndex(s.brands, row.VehBrand)))
			x.Set(i, col+1, float64(levelIndex(s.regions, row.Region)))
		case EncodingDummy:
			col = setIndicators(x, i, col, s.brands, row.VehBrand, true)
			setIndicators(x, i, col, s.regions, row.Region, true)
		case EncodingOneHot:
			col = setIndicators(x, i, col, s.brands, row.VehBrand, false)
			setIndicators(x, i, col, s.regions, row.Region, false)
		}
	}

	return x
}

// Response extracts the response vector
func (s *Schema) Response(rows []dataset.TransformedRow) []float64 {
	y := make([]float64, len(rows))
	for i, row := range rows {
		y[i] = row.Response
	}
	return y
}

// levelIndex returns the position of value among levels, or 0 when unseen
func levelIndex(levels []string, value string) int {
	i := sort.SearchStrings(levels, value)
	if i < len(levels) && levels[i] == value {
		return i
	}
	return 0
}

// setIndicators writes the indicator block for one categorical attribute
// starting at column col and returns the next free column. With dropFirst
// the reference (first) level has no column.
func setIndicators(x *mat.Dense, row, col int, levels []string, value string, dropFirst bool) int {
	start := 0
	if dropFirst {
		start = min(1, len(levels))
	}
	for j, level := range levels[start:] {
		if level == value {
			x.Set(row, col+j, 1)
		}
	}
	return col + len(levels) - start
}
