package gridbook

import (
	"time"

	"github.com/google/uuid"
)

// Sheet is a named rectangular grid of cells. Every row holds the same
// number of cells; the column count changes only through an explicit
// resize, never implicitly per row. Headers are sheet metadata, not
// row 0 of the grid.
type Sheet struct {
	ID        string
	Name      string
	Headers   []string
	Rows      [][]Cell
	CreatedAt time.Time
	UpdatedAt time.Time
}

// newSheet creates a blank rows×cols sheet with derived cell ids.
func newSheet(name string, rows, cols int) Sheet {
	now := time.Now()
	s := Sheet{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Rows = blankGrid(s.ID, rows, cols)
	return s
}

func blankGrid(sheetID string, rows, cols int) [][]Cell {
	grid := make([][]Cell, rows)
	for r := range grid {
		grid[r] = make([]Cell, cols)
		for c := range grid[r] {
			id, _ := DeriveCellID(sheetID, r, c)
			grid[r][c] = Cell{ID: id}
		}
	}
	return grid
}

// RowCount returns the number of rows in the grid.
func (s *Sheet) RowCount() int { return len(s.Rows) }

// ColCount returns the number of columns in the grid.
func (s *Sheet) ColCount() int {
	if len(s.Rows) == 0 {
		return 0
	}
	return len(s.Rows[0])
}

// CellAt returns the cell at the coordinate and whether it exists.
func (s *Sheet) CellAt(ref CellRef) (Cell, bool) {
	if ref.Row < 0 || ref.Row >= s.RowCount() || ref.Col < 0 || ref.Col >= s.ColCount() {
		return Cell{}, false
	}
	return s.Rows[ref.Row][ref.Col], true
}

// clone deep-copies the sheet so mutations on the copy never alias the
// original's rows.
func (s Sheet) clone() Sheet {
	out := s
	out.Headers = append([]string(nil), s.Headers...)
	out.Rows = make([][]Cell, len(s.Rows))
	for r := range s.Rows {
		out.Rows[r] = append([]Cell(nil), s.Rows[r]...)
	}
	return out
}

// duplicate deep-copies the sheet under a fresh identity: new sheet id,
// new name, and cell ids re-derived for the new id so no identity is
// shared with the source.
func (s Sheet) duplicate(name string) Sheet {
	now := time.Now()
	out := s.clone()
	out.ID = uuid.NewString()
	out.Name = name
	out.CreatedAt = now
	out.UpdatedAt = now
	for r := range out.Rows {
		for c := range out.Rows[r] {
			id, _ := DeriveCellID(out.ID, r, c)
			out.Rows[r][c].ID = id
		}
	}
	return out
}

// resize grows (never shrinks) the grid to at least rows×cols, filling
// new slots with empty cells carrying derived ids.
func (s *Sheet) resize(rows, cols int) {
	width := s.ColCount()
	if cols > width {
		for r := range s.Rows {
			for c := width; c < cols; c++ {
				id, _ := DeriveCellID(s.ID, r, c)
				s.Rows[r] = append(s.Rows[r], Cell{ID: id})
			}
		}
		width = cols
	}
	for r := s.RowCount(); r < rows; r++ {
		row := make([]Cell, width)
		for c := range row {
			id, _ := DeriveCellID(s.ID, r, c)
			row[c] = Cell{ID: id}
		}
		s.Rows = append(s.Rows, row)
	}
}

// CSV serializes the sheet (headers first, then display values) with
// trailing all-empty rows and columns trimmed so padding does not leak
// into exports.
func (s *Sheet) CSV() string {
	rows, cols := s.trimmedBounds()
	out := make([][]string, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]string, cols)
		for c := 0; c < cols; c++ {
			out[r][c] = s.Rows[r][c].Value.String()
		}
	}
	headers := s.Headers
	if len(headers) > cols {
		headers = headers[:cols]
	}
	return WriteCSV(headers, out)
}

// trimmedBounds returns the smallest (rows, cols) rectangle containing
// every non-empty cell, with a floor wide enough for the headers.
func (s *Sheet) trimmedBounds() (rows, cols int) {
	cols = len(s.Headers)
	for r := range s.Rows {
		for c := range s.Rows[r] {
			cell := s.Rows[r][c]
			if cell.Value.IsEmpty() && cell.Formula == "" {
				continue
			}
			if r+1 > rows {
				rows = r + 1
			}
			if c+1 > cols {
				cols = c + 1
			}
		}
	}
	return rows, cols
}
