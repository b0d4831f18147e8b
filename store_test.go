package gridbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSetCellEmitsCellPatch(t *testing.T) {
	store := NewStore(NewWorkbookFromCSV("ledger", "a,b\n1,2"))
	wb := store.Workbook()
	sheet := wb.ActiveSheet()
	id, _ := DeriveCellID(sheet.ID, 0, 1)

	var patches []Patch
	store.Subscribe(ObserverFunc(func(wb Workbook, p Patch) {
		patches = append(patches, p)
	}))

	require.NoError(t, store.SetCell(id, NumberValue(42)))

	require.Len(t, patches, 1)
	assert.Equal(t, PatchCell, patches[0].Scope)
	assert.Equal(t, sheet.ID, patches[0].SheetID)
	assert.Equal(t, NewCellRef(0, 1), patches[0].Ref)

	// The edit is visible synchronously, no remote round-trip involved.
	after := store.Workbook()
	cell, _ := after.ActiveSheet().CellAt(NewCellRef(0, 1))
	assert.Equal(t, "42", cell.Value.String())
}

func TestStoreSetCellErrorCommitsNothing(t *testing.T) {
	store := NewStore(NewWorkbookFromCSV("ledger", "a\n1"))
	before := store.Workbook()

	notified := false
	store.Subscribe(ObserverFunc(func(Workbook, Patch) { notified = true }))

	err := store.SetCell("bogus", NumberValue(1))
	assert.ErrorIs(t, err, ErrCellNotFound)
	assert.False(t, notified)
	assert.Equal(t, before.ActiveSheetID, store.Workbook().ActiveSheetID)
}

func TestStoreApply(t *testing.T) {
	store := NewStore(NewWorkbook("book"))

	var patch Patch
	store.Subscribe(ObserverFunc(func(wb Workbook, p Patch) { patch = p }))

	require.NoError(t, store.Apply(func(wb Workbook) (Workbook, error) {
		return wb.AddSheet("Second"), nil
	}))
	assert.Equal(t, PatchWorkbook, patch.Scope)
	assert.Len(t, store.Workbook().Sheets, 2)
}

func TestStoreUnsubscribe(t *testing.T) {
	store := NewStore(NewWorkbook("book"))

	calls := 0
	unsubscribe := store.Subscribe(ObserverFunc(func(Workbook, Patch) { calls++ }))

	store.Replace(NewWorkbook("other"))
	unsubscribe()
	store.Replace(NewWorkbook("third"))

	assert.Equal(t, 1, calls)
}

func TestStoreReplaceKeepsOldValueForHolders(t *testing.T) {
	store := NewStore(NewWorkbookFromCSV("ledger", "a\n1"))
	held := store.Workbook()

	store.Replace(NewWorkbook("fresh"))

	// The previously fetched value is unaffected by the swap.
	cell, ok := held.ActiveSheet().CellAt(NewCellRef(0, 0))
	require.True(t, ok)
	assert.Equal(t, "1", cell.Value.String())
	assert.Equal(t, "fresh", store.Workbook().Name)
}

func TestStorePatchWindowFiltering(t *testing.T) {
	store := NewStore(NewWorkbookFromCSV("ledger", "a,b\n1,2\n3,4"))
	wb := store.Workbook()
	sheet := wb.ActiveSheet()

	window := Window{StartRow: 0, EndRow: 1, StartCol: 0, EndCol: 2}

	inWindow := 0
	store.Subscribe(ObserverFunc(func(wb Workbook, p Patch) {
		if p.Scope == PatchCell && window.Contains(p.Ref) {
			inWindow++
		}
	}))

	idInside, _ := DeriveCellID(sheet.ID, 0, 0)
	idOutside, _ := DeriveCellID(sheet.ID, 1, 0)
	require.NoError(t, store.SetCell(idInside, TextValue("x")))
	require.NoError(t, store.SetCell(idOutside, TextValue("y")))

	assert.Equal(t, 1, inWindow, "renderer can skip cells outside its window")
}
