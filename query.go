package gridbook

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Selector matches cells against predicate expressions written in the
// expr language, e.g. `number > 100`, `value == ""`, or
// `col == 1 && !empty`. Predicates see the cell's content and position;
// they never evaluate spreadsheet formulas.
//
// The environment exposed to a predicate:
//
//	value   string  display form of the cell value
//	number  float64 numeric content (0 for non-numeric cells)
//	empty   bool    whether the value is the empty variant
//	formula string  opaque formula text, "" when absent
//	row     int     zero-based row index
//	col     int     zero-based column index
//	address string  cell label such as "B5"
type Selector struct {
	cache sync.Map // predicate string → compiled *vm.Program
}

// NewSelector creates a Selector with an empty compile cache.
func NewSelector() *Selector {
	return &Selector{}
}

// Match evaluates the predicate for a single cell of the sheet.
func (s *Selector) Match(predicate string, sheet *Sheet, ref CellRef) (bool, error) {
	cell, ok := sheet.CellAt(ref)
	if !ok {
		return false, fmt.Errorf("%w: %s in sheet %q", ErrCellNotFound, ref, sheet.Name)
	}
	env := cellEnv(cell, ref)

	program, err := s.compile(predicate, env)
	if err != nil {
		return false, fmt.Errorf("compile predicate %q: %w", predicate, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate predicate %q at %s: %w", predicate, ref, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("predicate %q evaluated to %T, expected bool", predicate, result)
	}
	return b, nil
}

// FindCells returns the coordinates of every cell in the sheet matching
// the predicate, in row-major order.
func (s *Selector) FindCells(sheet *Sheet, predicate string) ([]CellRef, error) {
	var refs []CellRef
	for r := 0; r < sheet.RowCount(); r++ {
		for c := 0; c < sheet.ColCount(); c++ {
			ref := NewCellRef(r, c)
			ok, err := s.Match(predicate, sheet, ref)
			if err != nil {
				return nil, err
			}
			if ok {
				refs = append(refs, ref)
			}
		}
	}
	return refs, nil
}

func cellEnv(cell Cell, ref CellRef) map[string]any {
	number, _ := cell.Value.Float()
	return map[string]any{
		"value":   cell.Value.String(),
		"number":  number,
		"empty":   cell.Value.IsEmpty(),
		"formula": cell.Formula,
		"row":     ref.Row,
		"col":     ref.Col,
		"address": ref.Label(),
	}
}

func (s *Selector) compile(predicate string, env map[string]any) (*vm.Program, error) {
	if cached, ok := s.cache.Load(predicate); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(predicate, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, err
	}
	s.cache.Store(predicate, program)
	return program, nil
}
