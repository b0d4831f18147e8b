package gridbook

import (
	"strconv"
	"strings"
)

// ValueKind discriminates the closed set of cell value variants.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindText
	KindNumber
)

// String returns a human-readable name for the ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	default:
		return "Unknown"
	}
}

// Value is a cell's content: empty, text, or a number. The zero Value
// is empty.
type Value struct {
	kind   ValueKind
	text   string
	number float64
}

// TextValue creates a text Value.
func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

// NumberValue creates a numeric Value.
func NumberValue(f float64) Value {
	return Value{kind: KindNumber, number: f}
}

// EmptyValue creates an empty Value.
func EmptyValue() Value {
	return Value{}
}

// ParseValue classifies raw input: empty string → empty, numeric text →
// number, anything else → text. Date-like strings stay text; the display
// format, not the variant, decides how they render.
func ParseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Value{}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return NumberValue(f)
	}
	return TextValue(raw)
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsEmpty reports whether the value is the empty variant.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Float returns the numeric content and true for number values.
func (v Value) Float() (float64, bool) {
	return v.number, v.kind == KindNumber
}

// String returns the display form: the raw text, the shortest decimal
// form of a number, or "" when empty.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	default:
		return ""
	}
}

// Cell is the smallest addressable unit of a sheet. Its ID is derived
// from the owning sheet id and the cell's position, never assigned
// independently, so it can be recomputed from pure coordinates after
// reloads, edits, or render-pool reuse.
type Cell struct {
	ID      string
	Value   Value
	Formula string // opaque formula text, never evaluated
	Format  string // optional display format hint
}

// DeriveCellID computes the identity of the cell at (row, col) in the
// given sheet: "<sheetID>!<label>".
func DeriveCellID(sheetID string, row, col int) (string, error) {
	label, err := FormatLabel(row, col)
	if err != nil {
		return "", err
	}
	return sheetID + "!" + label, nil
}

// splitCellID resolves a cell id back to its sheet id and coordinate.
func splitCellID(id string) (sheetID string, ref CellRef, err error) {
	bang := strings.LastIndexByte(id, '!')
	if bang < 0 {
		return "", CellRef{}, ErrCellNotFound
	}
	ref, err = ParseLabel(id[bang+1:])
	if err != nil {
		return "", CellRef{}, err
	}
	return id[:bang], ref, nil
}
