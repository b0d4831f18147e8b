package gridbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func querySheet(t *testing.T) *Sheet {
	t.Helper()
	wb := NewWorkbookFromCSV("tx", "Date,Amount\n2024-01-01,100\n2024-01-02,250\nbad-date,-50")
	return wb.ActiveSheet()
}

func TestSelectorFindCells_Numbers(t *testing.T) {
	s := NewSelector()
	refs, err := s.FindCells(querySheet(t), "number > 100")
	require.NoError(t, err)
	assert.Equal(t, []CellRef{NewCellRef(1, 1)}, refs)
}

func TestSelectorFindCells_Position(t *testing.T) {
	s := NewSelector()
	refs, err := s.FindCells(querySheet(t), `col == 1 && !empty`)
	require.NoError(t, err)
	assert.Equal(t, []CellRef{NewCellRef(0, 1), NewCellRef(1, 1), NewCellRef(2, 1)}, refs)
}

func TestSelectorFindCells_Address(t *testing.T) {
	s := NewSelector()
	refs, err := s.FindCells(querySheet(t), `address == "A3"`)
	require.NoError(t, err)
	assert.Equal(t, []CellRef{NewCellRef(2, 0)}, refs)
}

func TestSelectorMatch(t *testing.T) {
	s := NewSelector()
	sheet := querySheet(t)

	ok, err := s.Match(`value == "bad-date"`, sheet, NewCellRef(2, 0))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Match("number < 0", sheet, NewCellRef(2, 1))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Match("number > 0", sheet, NewCellRef(99, 99))
	assert.ErrorIs(t, err, ErrCellNotFound)
}

func TestSelectorBadPredicate(t *testing.T) {
	s := NewSelector()
	_, err := s.Match("number >", querySheet(t), NewCellRef(0, 0))
	assert.Error(t, err)
}

func TestSelectorNonBoolPredicate(t *testing.T) {
	s := NewSelector()
	_, err := s.Match("number + 1", querySheet(t), NewCellRef(0, 0))
	assert.Error(t, err)
}

func TestSelectorCachesPrograms(t *testing.T) {
	s := NewSelector()
	sheet := querySheet(t)

	// Same predicate twice: second run hits the cache and must agree.
	first, err := s.FindCells(sheet, "empty")
	require.NoError(t, err)
	second, err := s.FindCells(sheet, "empty")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first, "padding cells are empty")
}
