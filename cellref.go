package gridbook

import (
	"fmt"
	"strconv"
)

// CellRef is a zero-based (row, column) coordinate within a sheet.
type CellRef struct {
	Row int
	Col int
}

// NewCellRef creates a CellRef with explicit row and column.
func NewCellRef(row, col int) CellRef {
	return CellRef{Row: row, Col: col}
}

// Label returns the spreadsheet-style address for the coordinate,
// e.g. (0,0)→"A1", (4,1)→"B5". It panics on negative coordinates;
// use FormatLabel when the input is not known to be valid.
func (r CellRef) Label() string {
	label, err := FormatLabel(r.Row, r.Col)
	if err != nil {
		panic(err)
	}
	return label
}

// String returns the label for valid coordinates and a raw (row,col)
// form otherwise, so CellRef is always printable.
func (r CellRef) String() string {
	if r.Row < 0 || r.Col < 0 {
		return fmt.Sprintf("(%d,%d)", r.Row, r.Col)
	}
	return r.Label()
}

// FormatLabel converts a zero-based coordinate to its address label.
// Column letters are base-26 (A=0..Z=25, then AA, AB, ...), the row
// number is 1-based. Returns ErrInvalidCoordinate on negative input.
func FormatLabel(row, col int) (string, error) {
	if row < 0 || col < 0 {
		return "", fmt.Errorf("%w: (%d,%d)", ErrInvalidCoordinate, row, col)
	}
	return ColumnName(col) + strconv.Itoa(row+1), nil
}

// ParseLabel converts an address label back to a zero-based coordinate.
// Returns ErrInvalidAddress unless the label matches ^[A-Z]+[0-9]+$ with
// a row number of at least 1.
func ParseLabel(label string) (CellRef, error) {
	i := 0
	for i < len(label) && label[i] >= 'A' && label[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(label) {
		return CellRef{}, fmt.Errorf("%w: %q", ErrInvalidAddress, label)
	}

	col, err := ColumnIndex(label[:i])
	if err != nil {
		return CellRef{}, err
	}

	row := 0
	for _, ch := range label[i:] {
		if ch < '0' || ch > '9' {
			return CellRef{}, fmt.Errorf("%w: %q", ErrInvalidAddress, label)
		}
		row = row*10 + int(ch-'0')
	}
	if row < 1 {
		return CellRef{}, fmt.Errorf("%w: %q", ErrInvalidAddress, label)
	}

	return CellRef{Row: row - 1, Col: col}, nil
}

// ColumnName converts a zero-based column index to its letter name.
// 0→"A", 25→"Z", 26→"AA". Negative input yields the empty string.
func ColumnName(col int) string {
	name := ""
	col++ // 1-based for the base-26 walk
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}

// ColumnIndex converts a letter column name to its zero-based index.
// "A"→0, "Z"→25, "AA"→26. Lowercase letters are rejected: labels on the
// wire are uppercase only.
func ColumnIndex(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty column name", ErrInvalidAddress)
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("%w: column %q", ErrInvalidAddress, name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}
