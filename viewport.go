package gridbook

// Geometry describes the fixed cell dimensions and the scroll buffer of
// a grid view. Units are whatever the renderer scrolls in (pixels for a
// browser-style canvas, character cells for a terminal).
type Geometry struct {
	CellWidth  int
	CellHeight int
	Buffer     int // extra rows/cols materialized beyond the container
}

// Layout is the resolved viewport placement for one scroll position:
// where the materialized window starts and how many slots it spans.
type Layout struct {
	StartRow    int
	StartCol    int
	VisibleRows int
	VisibleCols int
}

// Window is the slice of the sheet currently in view, with half-open
// row/col ranges clamped to the sheet bounds. Consumers use it to decide
// which part of the model to touch or lazily fetch.
type Window struct {
	StartRow int
	EndRow   int // exclusive
	StartCol int
	EndCol   int // exclusive
}

// Layout computes the materialized window placement for a scroll offset
// and container size. The slot count depends only on the container and
// cell geometry, never on the sheet size.
func (g Geometry) Layout(scrollX, scrollY, containerWidth, containerHeight int) Layout {
	return Layout{
		StartRow:    scrollY / g.CellHeight,
		StartCol:    scrollX / g.CellWidth,
		VisibleRows: ceilDiv(containerHeight, g.CellHeight) + g.Buffer,
		VisibleCols: ceilDiv(containerWidth, g.CellWidth) + g.Buffer,
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Clamp resolves the layout against a sheet's bounds. The window never
// exceeds the pool capacity: EndRow-StartRow <= VisibleRows and likewise
// for columns.
func (l Layout) Clamp(rowCount, colCount int) Window {
	w := Window{
		StartRow: min(l.StartRow, rowCount),
		StartCol: min(l.StartCol, colCount),
	}
	w.EndRow = min(l.StartRow+l.VisibleRows, rowCount)
	w.EndCol = min(l.StartCol+l.VisibleCols, colCount)
	if w.EndRow < w.StartRow {
		w.EndRow = w.StartRow
	}
	if w.EndCol < w.StartCol {
		w.EndCol = w.StartCol
	}
	return w
}

// Contains reports whether the coordinate lies inside the window. A
// renderer uses this to ignore patches for cells it has not
// materialized.
func (w Window) Contains(ref CellRef) bool {
	return ref.Row >= w.StartRow && ref.Row < w.EndRow &&
		ref.Col >= w.StartCol && ref.Col < w.EndCol
}

// Slot is one reusable render position. On scroll it is re-addressed to
// a new coordinate; slots addressing coordinates beyond the sheet are
// marked not visible and render nothing.
type Slot struct {
	Row     int
	Col     int
	CellID  string
	Visible bool
}

// CellPool is a fixed-capacity set of render slots sized to the
// viewport. Scrolling re-addresses the existing slots in place instead
// of reallocating, so a sheet with 100 rows and one with 100,000 rows
// cost the same to render.
type CellPool struct {
	slots []Slot
	rows  int
	cols  int
}

// NewCellPool allocates a pool sized for the layout.
func NewCellPool(l Layout) *CellPool {
	p := &CellPool{}
	p.Resize(l)
	return p
}

// Resize adjusts pool capacity for a new container geometry. The slot
// backing array is reused when the capacity already suffices.
func (p *CellPool) Resize(l Layout) {
	n := l.VisibleRows * l.VisibleCols
	if cap(p.slots) < n {
		p.slots = make([]Slot, n)
	}
	p.slots = p.slots[:n]
	p.rows = l.VisibleRows
	p.cols = l.VisibleCols
}

// Reassign re-addresses every slot for the layout against a sheet's
// identity and bounds. Cell ids are re-derived from pure coordinates,
// so the pool never needs a model lookup to know what a slot shows.
func (p *CellPool) Reassign(l Layout, sheetID string, rowCount, colCount int) {
	if p.rows != l.VisibleRows || p.cols != l.VisibleCols {
		p.Resize(l)
	}
	for i := range p.slots {
		row := l.StartRow + i/p.cols
		col := l.StartCol + i%p.cols
		slot := &p.slots[i]
		slot.Row = row
		slot.Col = col
		if row < rowCount && col < colCount {
			slot.CellID, _ = DeriveCellID(sheetID, row, col)
			slot.Visible = true
		} else {
			slot.CellID = ""
			slot.Visible = false
		}
	}
}

// Slots exposes the pool's slots for rendering, in row-major order. The
// returned slice is owned by the pool and re-addressed on the next
// Reassign.
func (p *CellPool) Slots() []Slot { return p.slots }

// Len returns the pool capacity, VisibleRows × VisibleCols.
func (p *CellPool) Len() int { return len(p.slots) }

// Rows returns the pool's row capacity.
func (p *CellPool) Rows() int { return p.rows }

// Cols returns the pool's column capacity.
func (p *CellPool) Cols() int { return p.cols }
