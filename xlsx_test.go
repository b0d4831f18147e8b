package gridbook

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	wb := NewWorkbookFromCSV("ledger", "Date,Amount\n2024-01-01,100\n2024-01-02,200")

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(wb, &buf))

	out, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer out.Close()

	require.Equal(t, []string{"ledger"}, out.GetSheetList())

	v, _ := out.GetCellValue("ledger", "A1")
	assert.Equal(t, "Date", v, "headers exported as the first row")
	v, _ = out.GetCellValue("ledger", "B1")
	assert.Equal(t, "Amount", v)
	v, _ = out.GetCellValue("ledger", "A2")
	assert.Equal(t, "2024-01-01", v)
	v, _ = out.GetCellValue("ledger", "B3")
	assert.Equal(t, "200", v)

	// Padding was trimmed.
	rows, err := out.GetRows("ledger")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWriteXLSX_Formula(t *testing.T) {
	wb := NewWorkbookFromCSV("calc", "a\n1\n2")
	sheet := wb.ActiveSheet()
	id, _ := DeriveCellID(sheet.ID, 2, 0)
	wb, err := wb.SetCellInput(id, "=SUM(A2:A3)")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(wb, &buf))

	out, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer out.Close()

	// Row offset 1 for the header row: grid row 2 lands at A4.
	formula, err := out.GetCellFormula("calc", "A4")
	require.NoError(t, err)
	assert.Equal(t, "SUM(A2:A3)", formula)
}

func TestWriteXLSX_MultiSheet(t *testing.T) {
	wb := NewWorkbookFromCSV("first", "a\n1")
	wb, err := wb.DuplicateSheet(wb.ActiveSheetID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(wb, &buf))

	out, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, []string{"first", "first Copy"}, out.GetSheetList())
}

func TestXLSXRoundTrip(t *testing.T) {
	src := NewWorkbookFromCSV("trip", "Name,Score\nalice,10\nbob,20")

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(src, &buf))

	wb, err := ReadXLSX("trip", &buf)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet := wb.ActiveSheet()
	require.NotNil(t, sheet)
	assert.Equal(t, []string{"Name", "Score"}, sheet.Headers)

	cell, ok := sheet.CellAt(NewCellRef(0, 0))
	require.True(t, ok)
	assert.Equal(t, "alice", cell.Value.String())

	cell, _ = sheet.CellAt(NewCellRef(1, 1))
	assert.Equal(t, "20", cell.Value.String())
	assert.Equal(t, KindNumber, cell.Value.Kind())

	// Imports get the same typing margin as CSV imports.
	assert.GreaterOrEqual(t, sheet.RowCount(), 2+csvPadRows)
	assert.GreaterOrEqual(t, sheet.ColCount(), 2+csvPadCols)
}

func TestReadXLSX_NotAnXLSX(t *testing.T) {
	_, err := ReadXLSX("junk", bytes.NewReader([]byte("definitely not a zip")))
	assert.Error(t, err)
}
