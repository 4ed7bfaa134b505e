package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readExcel loads all rows from the first non-empty sheet of an xlsx file.
// Spreadsheet exports of the source tables keep the header in row 1 and
// one record per row, mirroring the CSV layout.
func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if len(rows) > 1 {
			return rows, nil
		}
	}

	return nil, fmt.Errorf("no sheet with data rows in %s", path)
}
