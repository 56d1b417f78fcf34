package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// BuildXLSX renders the projection as a spreadsheet: header row, one row per
// sale batch, a spacer, then a TOTAL row summing each product column.
func BuildXLSX(table Table) ([]byte, error) {
	f := excelize.NewFile()
	sheet := sheetName(table.Period)
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Time"}
	for _, name := range table.Products {
		headers = append(headers, name+" Sold")
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, header)

		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		width := float64(len(header) + 2)
		if width < 12 {
			width = 12
		}
		_ = f.SetColWidth(sheet, col, col, width)
	}

	rowIdx := 2
	for _, row := range table.Rows {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", rowIdx), row.Date)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", rowIdx), row.Time)
		for i, q := range row.Quantities {
			cell, err := excelize.CoordinatesToCellName(i+3, rowIdx)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheet, cell, q)
		}
		rowIdx++
	}

	// Spacer row before the totals line.
	rowIdx++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", rowIdx), "TOTAL")
	for i, total := range table.Totals {
		cell, err := excelize.CoordinatesToCellName(i+3, rowIdx)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, total)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

func sheetName(period Period) string {
	name := string(period)
	if name == "" {
		return "Sales"
	}
	return strings.ToUpper(name[:1]) + name[1:] + " Sales"
}
