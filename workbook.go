// Package gridbook implements an in-memory spreadsheet workbook: a
// Workbook→Sheet→Cell data model with pure mutation operations, an
// address codec between (row, col) coordinates and labels like "B5", a
// CSV codec, a virtualized viewport engine with a fixed render pool,
// and a client for the remote workbook service.
package gridbook

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Grid sizing constants: CSV imports keep a typing margin beyond the
// imported bounds, and new or sparse sheets get a minimum editable area.
const (
	csvPadRows = 5
	csvPadCols = 2

	defaultSheetRows = 10
	defaultSheetCols = 5
)

// Workbook is the top-level container: an ordered list of sheets plus
// the id of the active one. All operations are pure: they return a new
// Workbook value and leave the receiver untouched, so a surrounding
// store can swap values atomically and concurrent readers never observe
// a partial mutation.
type Workbook struct {
	ID            string
	Name          string
	Sheets        []Sheet
	ActiveSheetID string
}

// NewWorkbook creates a workbook with a single blank default sheet.
func NewWorkbook(name string) Workbook {
	sheet := newSheet("Sheet1", defaultSheetRows, defaultSheetCols)
	return Workbook{
		ID:            uuid.NewString(),
		Name:          name,
		Sheets:        []Sheet{sheet},
		ActiveSheetID: sheet.ID,
	}
}

// NewWorkbookFromCSV builds a workbook with one sheet sized to the
// parsed data plus a fixed padding margin, so the grid has headroom for
// typed-in data beyond the imported bounds. Well-formed CSV never
// fails; empty input yields a minimal padded sheet.
func NewWorkbookFromCSV(name, csvText string) Workbook {
	doc := ParseCSV(csvText)

	dataRows := len(doc.Rows)
	dataCols := len(doc.Headers)
	for _, row := range doc.Rows {
		if len(row) > dataCols {
			dataCols = len(row)
		}
	}
	if dataRows == 0 {
		dataRows = 1
	}
	if dataCols == 0 {
		dataCols = 1
	}

	sheet := newSheet(name, dataRows+csvPadRows, dataCols+csvPadCols)
	sheet.Headers = append([]string(nil), doc.Headers...)
	for r, row := range doc.Rows {
		for c, raw := range row {
			sheet.Rows[r][c].Value = ParseValue(raw)
		}
	}

	return Workbook{
		ID:            uuid.NewString(),
		Name:          name,
		Sheets:        []Sheet{sheet},
		ActiveSheetID: sheet.ID,
	}
}

// ActiveSheet returns a pointer into the workbook's sheet slice for the
// active sheet, or nil when the sheet list is empty. The pointer is for
// reading; mutation goes through the pure operations.
func (wb *Workbook) ActiveSheet() *Sheet {
	for i := range wb.Sheets {
		if wb.Sheets[i].ID == wb.ActiveSheetID {
			return &wb.Sheets[i]
		}
	}
	return nil
}

// SheetByID returns the sheet with the given id, or nil.
func (wb *Workbook) SheetByID(id string) *Sheet {
	for i := range wb.Sheets {
		if wb.Sheets[i].ID == id {
			return &wb.Sheets[i]
		}
	}
	return nil
}

// SheetByName returns the first sheet with the given name, or nil.
func (wb *Workbook) SheetByName(name string) *Sheet {
	for i := range wb.Sheets {
		if wb.Sheets[i].Name == name {
			return &wb.Sheets[i]
		}
	}
	return nil
}

// SetCell replaces the value of the cell with the given id in the
// active sheet and stamps the sheet's UpdatedAt. Returns ErrCellNotFound
// (with the workbook unchanged) when the id does not resolve to a cell
// of the active sheet; the caller decides whether that is fatal.
func (wb Workbook) SetCell(cellID string, v Value) (Workbook, error) {
	return wb.updateCell(cellID, func(c *Cell) { c.Value = v })
}

// SetCellInput applies raw user input to a cell: input starting with
// "=" is stored as an opaque formula (not evaluated), anything else is
// classified into the value variant and clears any previous formula.
func (wb Workbook) SetCellInput(cellID string, raw string) (Workbook, error) {
	return wb.updateCell(cellID, func(c *Cell) {
		if len(raw) > 0 && raw[0] == '=' {
			c.Formula = raw
			return
		}
		c.Formula = ""
		c.Value = ParseValue(raw)
	})
}

func (wb Workbook) updateCell(cellID string, mutate func(*Cell)) (Workbook, error) {
	active := wb.ActiveSheet()
	if active == nil {
		return wb, ErrSheetNotFound
	}
	sheetID, ref, err := splitCellID(cellID)
	if err != nil || sheetID != active.ID {
		return wb, fmt.Errorf("%w: %q", ErrCellNotFound, cellID)
	}
	if _, ok := active.CellAt(ref); !ok {
		return wb, fmt.Errorf("%w: %q", ErrCellNotFound, cellID)
	}

	out := wb
	out.Sheets = append([]Sheet(nil), wb.Sheets...)
	for i := range out.Sheets {
		if out.Sheets[i].ID != active.ID {
			continue
		}
		sheet := out.Sheets[i].clone()
		mutate(&sheet.Rows[ref.Row][ref.Col])
		sheet.UpdatedAt = time.Now()
		out.Sheets[i] = sheet
	}
	return out, nil
}

// AddSheet appends a new blank sheet with the default grid size and
// makes it active.
func (wb Workbook) AddSheet(name string) Workbook {
	sheet := newSheet(name, defaultSheetRows, defaultSheetCols)
	out := wb
	out.Sheets = append(append([]Sheet(nil), wb.Sheets...), sheet)
	out.ActiveSheetID = sheet.ID
	return out
}

// RemoveSheet deletes the sheet with the given id. Removing the only
// sheet fails with ErrLastSheet and leaves the workbook unchanged; an
// unknown id fails with ErrSheetNotFound. When the active sheet is
// removed, the first remaining sheet becomes active.
func (wb Workbook) RemoveSheet(sheetID string) (Workbook, error) {
	if wb.SheetByID(sheetID) == nil {
		return wb, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetID)
	}
	if len(wb.Sheets) <= 1 {
		return wb, ErrLastSheet
	}

	out := wb
	out.Sheets = make([]Sheet, 0, len(wb.Sheets)-1)
	for _, s := range wb.Sheets {
		if s.ID != sheetID {
			out.Sheets = append(out.Sheets, s)
		}
	}
	if out.ActiveSheetID == sheetID {
		out.ActiveSheetID = out.Sheets[0].ID
	}
	return out, nil
}

// DuplicateSheet deep-copies the sheet with the given id under a fresh
// sheet id and re-derived cell ids, appends the copy, and activates it.
func (wb Workbook) DuplicateSheet(sheetID string) (Workbook, error) {
	src := wb.SheetByID(sheetID)
	if src == nil {
		return wb, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetID)
	}
	dup := src.duplicate(src.Name + " Copy")
	out := wb
	out.Sheets = append(append([]Sheet(nil), wb.Sheets...), dup)
	out.ActiveSheetID = dup.ID
	return out, nil
}

// SetActiveSheet re-targets the active sheet. An unknown id fails with
// ErrSheetNotFound rather than corrupting ActiveSheetID.
func (wb Workbook) SetActiveSheet(sheetID string) (Workbook, error) {
	if wb.SheetByID(sheetID) == nil {
		return wb, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetID)
	}
	out := wb
	out.ActiveSheetID = sheetID
	return out, nil
}

// ResizeSheet grows the identified sheet to at least rows×cols. This is
// the only path that changes a sheet's column count.
func (wb Workbook) ResizeSheet(sheetID string, rows, cols int) (Workbook, error) {
	if wb.SheetByID(sheetID) == nil {
		return wb, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetID)
	}
	out := wb
	out.Sheets = append([]Sheet(nil), wb.Sheets...)
	for i := range out.Sheets {
		if out.Sheets[i].ID != sheetID {
			continue
		}
		sheet := out.Sheets[i].clone()
		sheet.resize(rows, cols)
		sheet.UpdatedAt = time.Now()
		out.Sheets[i] = sheet
	}
	return out, nil
}
