package gridbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryLayout(t *testing.T) {
	g := Geometry{CellWidth: 100, CellHeight: 30, Buffer: 2}

	l := g.Layout(0, 0, 800, 600)
	assert.Equal(t, 0, l.StartRow)
	assert.Equal(t, 0, l.StartCol)
	assert.Equal(t, 22, l.VisibleRows) // ceil(600/30)+2
	assert.Equal(t, 10, l.VisibleCols) // ceil(800/100)+2

	l = g.Layout(250, 95, 800, 600)
	assert.Equal(t, 3, l.StartRow) // floor(95/30)
	assert.Equal(t, 2, l.StartCol) // floor(250/100)

	// Partial cells round up.
	l = g.Layout(0, 0, 801, 601)
	assert.Equal(t, 23, l.VisibleRows)
	assert.Equal(t, 11, l.VisibleCols)
}

func TestPoolSizeIndependentOfSheetSize(t *testing.T) {
	g := Geometry{CellWidth: 100, CellHeight: 30, Buffer: 2}
	l := g.Layout(0, 0, 800, 600)

	small := NewCellPool(l)
	small.Reassign(l, "small", 50, 10)

	large := NewCellPool(l)
	large.Reassign(l, "large", 50000, 10)

	assert.Equal(t, l.VisibleRows*l.VisibleCols, small.Len())
	assert.Equal(t, small.Len(), large.Len(),
		"pool size depends only on viewport geometry")
}

func TestPoolReassignInPlace(t *testing.T) {
	g := Geometry{CellWidth: 10, CellHeight: 10, Buffer: 1}
	l := g.Layout(0, 0, 40, 40)

	pool := NewCellPool(l)
	pool.Reassign(l, "s1", 100, 100)
	first := pool.Slots()

	// Scrolling re-addresses the same backing slots.
	scrolled := g.Layout(30, 70, 40, 40)
	pool.Reassign(scrolled, "s1", 100, 100)
	after := pool.Slots()

	require.Equal(t, len(first), len(after))
	assert.Same(t, &first[0], &after[0], "slot storage reused, not reallocated")

	assert.Equal(t, 7, after[0].Row)
	assert.Equal(t, 3, after[0].Col)
	assert.Equal(t, "s1!D8", after[0].CellID)
}

func TestPoolSlotsOutOfBoundsSkipped(t *testing.T) {
	g := Geometry{CellWidth: 10, CellHeight: 10, Buffer: 0}
	l := g.Layout(0, 0, 50, 50) // 5×5 slots

	pool := NewCellPool(l)
	pool.Reassign(l, "s1", 3, 2) // sheet smaller than the viewport

	visible := 0
	for _, slot := range pool.Slots() {
		if slot.Visible {
			visible++
			assert.Less(t, slot.Row, 3)
			assert.Less(t, slot.Col, 2)
			assert.NotEmpty(t, slot.CellID)
		} else {
			assert.Empty(t, slot.CellID)
		}
	}
	assert.Equal(t, 6, visible)
	assert.Equal(t, 25, pool.Len(), "invisible slots stay pooled")
}

func TestLayoutClamp(t *testing.T) {
	g := Geometry{CellWidth: 10, CellHeight: 10, Buffer: 2}

	// Window never exceeds pool capacity, whatever the scroll position.
	for _, scroll := range []struct{ x, y int }{{0, 0}, {55, 123}, {990, 990}, {5000, 5000}} {
		l := g.Layout(scroll.x, scroll.y, 100, 100)
		w := l.Clamp(100, 100)
		assert.LessOrEqual(t, w.EndRow-w.StartRow, l.VisibleRows)
		assert.LessOrEqual(t, w.EndCol-w.StartCol, l.VisibleCols)
		assert.GreaterOrEqual(t, w.EndRow, w.StartRow)
		assert.GreaterOrEqual(t, w.EndCol, w.StartCol)
		assert.LessOrEqual(t, w.EndRow, 100)
		assert.LessOrEqual(t, w.EndCol, 100)
	}

	// Scrolled entirely past the sheet: an empty window, not an error.
	l := g.Layout(5000, 5000, 100, 100)
	w := l.Clamp(20, 20)
	assert.Equal(t, w.StartRow, w.EndRow)
	assert.Equal(t, w.StartCol, w.EndCol)
}

func TestWindowContains(t *testing.T) {
	w := Window{StartRow: 10, EndRow: 20, StartCol: 2, EndCol: 5}
	assert.True(t, w.Contains(NewCellRef(10, 2)))
	assert.True(t, w.Contains(NewCellRef(19, 4)))
	assert.False(t, w.Contains(NewCellRef(20, 2)))
	assert.False(t, w.Contains(NewCellRef(10, 5)))
	assert.False(t, w.Contains(NewCellRef(9, 2)))
}

func TestPoolResizeGrowsAndShrinks(t *testing.T) {
	g := Geometry{CellWidth: 10, CellHeight: 10, Buffer: 0}

	pool := NewCellPool(g.Layout(0, 0, 30, 30))
	assert.Equal(t, 9, pool.Len())

	pool.Resize(g.Layout(0, 0, 50, 50))
	assert.Equal(t, 25, pool.Len())

	pool.Resize(g.Layout(0, 0, 20, 20))
	assert.Equal(t, 4, pool.Len())

	// Reassign adopts a changed layout on its own.
	bigger := g.Layout(0, 0, 40, 40)
	pool.Reassign(bigger, "s1", 100, 100)
	assert.Equal(t, 16, pool.Len())
}
