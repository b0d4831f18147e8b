package gridbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX exports the workbook as an xlsx file. Headers become the
// first spreadsheet row with data rows below (xlsx has no header
// metadata); trailing padding is trimmed so exports stay compact.
// Formulas are written as formulas, values by their variant.
func WriteXLSX(wb Workbook, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range wb.Sheets {
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet to %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %q: %w", name, err)
		}

		rowOffset := 0
		if len(sheet.Headers) > 0 {
			rowOffset = 1
			for c, h := range sheet.Headers {
				if err := setXLSXValue(f, name, 0, c, TextValue(h), ""); err != nil {
					return err
				}
			}
		}

		rows, cols := sheet.trimmedBounds()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				cell := sheet.Rows[r][c]
				if cell.Value.IsEmpty() && cell.Formula == "" {
					continue
				}
				if err := setXLSXValue(f, name, r+rowOffset, c, cell.Value, cell.Formula); err != nil {
					return err
				}
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setXLSXValue(f *excelize.File, sheet string, row, col int, v Value, formula string) error {
	axis, err := FormatLabel(row, col)
	if err != nil {
		return err
	}
	if formula != "" {
		formula = strings.TrimPrefix(formula, "=")
		if err := f.SetCellFormula(sheet, axis, formula); err != nil {
			return fmt.Errorf("set formula at %s!%s: %w", sheet, axis, err)
		}
		return nil
	}
	var content any
	if n, ok := v.Float(); ok {
		content = n
	} else {
		content = v.String()
	}
	if err := f.SetCellValue(sheet, axis, content); err != nil {
		return fmt.Errorf("set value at %s!%s: %w", sheet, axis, err)
	}
	return nil
}

// ReadXLSX imports an xlsx file as a workbook. The first row of each
// sheet is taken as headers, remaining rows as data, padded with the
// same margin a CSV import gets. The first sheet becomes active.
func ReadXLSX(name string, r io.Reader) (Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Workbook{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	wb := NewWorkbook(name)
	wb.Sheets = wb.Sheets[:0]

	for _, sheetName := range f.GetSheetList() {
		records, err := f.GetRows(sheetName)
		if err != nil {
			return Workbook{}, fmt.Errorf("read sheet %q: %w", sheetName, err)
		}

		var headers []string
		var data [][]string
		if len(records) > 0 {
			headers = records[0]
			data = records[1:]
		}

		rows, cols := len(data), len(headers)
		for _, row := range data {
			if len(row) > cols {
				cols = len(row)
			}
		}
		if rows == 0 {
			rows = 1
		}
		if cols == 0 {
			cols = 1
		}

		sheet := newSheet(sheetName, rows+csvPadRows, cols+csvPadCols)
		sheet.Headers = append([]string(nil), headers...)
		for ri, row := range data {
			for ci, raw := range row {
				sheet.Rows[ri][ci].Value = ParseValue(raw)
			}
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}

	if len(wb.Sheets) == 0 {
		wb.Sheets = []Sheet{newSheet("Sheet1", defaultSheetRows, defaultSheetCols)}
	}
	wb.ActiveSheetID = wb.Sheets[0].ID
	return wb, nil
}
