package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadResult reports what a loader kept and skipped
type LoadResult struct {
	RowsRead    int `json:"rows_read"`
	RowsKept    int `json:"rows_kept"`
	RowsSkipped int `json:"rows_skipped"`
}

// LoadPolicies reads the policy risk-feature table from a .csv or .xlsx
// file. Rows that fail to parse or fail validation (including zero
// exposure, for which the response is undefined downstream) are skipped
// and counted, not fatal.
func LoadPolicies(path string, logger *slog.Logger) ([]PolicyRecord, LoadResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rows, err := readTable(path)
	if err != nil {
		return nil, LoadResult{}, fmt.Errorf("read policy table: %w", err)
	}
	if len(rows) < 2 {
		return nil, LoadResult{}, fmt.Errorf("policy table %s has no data rows", path)
	}

	cols, err := headerIndex(rows[0], []string{
		"IDpol", "ClaimNb", "Exposure", "Area", "VehPower", "VehAge",
		"DrivAge", "BonusMalus", "VehBrand", "VehGas", "Density", "Region",
	})
	if err != nil {
		return nil, LoadResult{}, fmt.Errorf("policy table %s: %w", path, err)
	}

	var (
		policies []PolicyRecord
		result   LoadResult
	)
	for i, row := range rows[1:] {
		result.RowsRead++

		p, err := parsePolicyRow(row, cols)
		if err != nil {
			logger.Debug("skipping policy row", "row", i+2, "error", err)
			result.RowsSkipped++
			continue
		}
		if !p.IsValid() {
			result.RowsSkipped++
			continue
		}

		policies = append(policies, p)
		result.RowsKept++
	}

	logger.Info("loaded policy table",
		"path", path,
		"rows_read", result.RowsRead,
		"rows_kept", result.RowsKept,
		"rows_skipped", result.RowsSkipped,
	)

	return policies, result, nil
}

// LoadClaims reads the individual claim table from a .csv or .xlsx file
func LoadClaims(path string, logger *slog.Logger) ([]ClaimRecord, LoadResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rows, err := readTable(path)
	if err != nil {
		return nil, LoadResult{}, fmt.Errorf("read claim table: %w", err)
	}
	if len(rows) < 2 {
		return nil, LoadResult{}, fmt.Errorf("claim table %s has no data rows", path)
	}

	cols, err := headerIndex(rows[0], []string{"IDpol", "ClaimAmount"})
	if err != nil {
		return nil, LoadResult{}, fmt.Errorf("claim table %s: %w", path, err)
	}

	var (
		claims []ClaimRecord
		result LoadResult
	)
	for i, row := range rows[1:] {
		result.RowsRead++

		c, err := parseClaimRow(row, cols)
		if err != nil {
			logger.Debug("skipping claim row", "row", i+2, "error", err)
			result.RowsSkipped++
			continue
		}
		if !c.IsValid() {
			result.RowsSkipped++
			continue
		}

		claims = append(claims, c)
		result.RowsKept++
	}

	logger.Info("loaded claim table",
		"path", path,
		"rows_read", result.RowsRead,
		"rows_kept", result.RowsKept,
		"rows_skipped", result.RowsSkipped,
	)

	return claims, result, nil
}

// readTable dispatches on file extension
func readTable(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readExcel(path)
	default:
		return nil, fmt.Errorf("unsupported table format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// headerIndex maps the wanted column names to their positions,
// case-insensitively
func headerIndex(header []string, wanted []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int, len(wanted))
	var missing []string
	for _, name := range wanted {
		idx, ok := byName[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parsePolicyRow(row []string, cols map[string]int) (PolicyRecord, error) {
	id, err := fieldInt64(row, cols, "IDpol")
	if err != nil {
		return PolicyRecord{}, err
	}
	claimNb, err := fieldInt(row, cols, "ClaimNb")
	if err != nil {
		return PolicyRecord{}, err
	}
	exposure, err := fieldFloat(row, cols, "Exposure")
	if err != nil {
		return PolicyRecord{}, err
	}
	vehPower, err := fieldInt(row, cols, "VehPower")
	if err != nil {
		return PolicyRecord{}, err
	}
	vehAge, err := fieldInt(row, cols, "VehAge")
	if err != nil {
		return PolicyRecord{}, err
	}
	drivAge, err := fieldInt(row, cols, "DrivAge")
	if err != nil {
		return PolicyRecord{}, err
	}
	bonusMalus, err := fieldInt(row, cols, "BonusMalus")
	if err != nil {
		return PolicyRecord{}, err
	}
	density, err := fieldInt(row, cols, "Density")
	if err != nil {
		return PolicyRecord{}, err
	}

	return PolicyRecord{
		PolicyID:   id,
		ClaimNb:    claimNb,
		Exposure:   exposure,
		Area:       fieldString(row, cols, "Area"),
		VehPower:   vehPower,
		VehAge:     vehAge,
		DrivAge:    drivAge,
		BonusMalus: bonusMalus,
		VehBrand:   fieldString(row, cols, "VehBrand"),
		VehGas:     fieldString(row, cols, "VehGas"),
		Density:    density,
		Region:     fieldString(row, cols, "Region"),
	}, nil
}

func parseClaimRow(row []string, cols map[string]int) (ClaimRecord, error) {
	id, err := fieldInt64(row, cols, "IDpol")
	if err != nil {
		return ClaimRecord{}, err
	}
	amount, err := fieldFloat(row, cols, "ClaimAmount")
	if err != nil {
		return ClaimRecord{}, err
	}
	return ClaimRecord{PolicyID: id, ClaimAmount: amount}, nil
}

func fieldString(row []string, cols map[string]int, name string) string {
	idx := cols[name]
	if idx >= len(row) {
		return ""
	}
	return strings.Trim(strings.TrimSpace(row[idx]), `"`)
}

func fieldFloat(row []string, cols map[string]int, name string) (float64, error) {
	s := fieldString(row, cols, name)
	if s == "" {
		return 0, fmt.Errorf("empty field %s", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", name, err)
	}
	return v, nil
}

// fieldInt accepts integer-valued floats ("4.0") since exported tables
// often carry numeric columns that way
func fieldInt(row []string, cols map[string]int, name string) (int, error) {
	v, err := fieldFloat(row, cols, name)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func fieldInt64(row []string, cols map[string]int, name string) (int64, error) {
	v, err := fieldFloat(row, cols, name)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}
