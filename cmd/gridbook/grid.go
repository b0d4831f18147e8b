package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/javajack/gridbook"
)

const (
	colWidth    = 12
	rowLabelW   = 5
	chromeLines = 3 // formula bar + column header + status line
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	formulaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// gridModel is the interactive grid: a thin presentation layer over the
// store, the viewport engine, and the sync client. All grid math goes
// through gridbook.Geometry/CellPool; all mutation through the store.
type gridModel struct {
	store      *gridbook.Store
	client     *gridbook.Client
	workbookID string

	geo  gridbook.Geometry
	pool *gridbook.CellPool

	scrollRow int
	scrollCol int
	cursor    gridbook.CellRef

	width  int
	height int
	ready  bool

	editing bool
	input   textinput.Model

	status  string
	statErr bool
}

func newGridModel(store *gridbook.Store, client *gridbook.Client, workbookID string) *gridModel {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 256

	return &gridModel{
		store:      store,
		client:     client,
		workbookID: workbookID,
		geo:        gridbook.Geometry{CellWidth: colWidth, CellHeight: 1, Buffer: 1},
		input:      input,
	}
}

// persistedMsg reports the outcome of a remote cell write. A failure
// must not revert the optimistic local edit, only surface distinctly.
type persistedMsg struct {
	address string
	err     error
}

// refreshedMsg carries a re-fetched workbook. On failure the store
// keeps the last good value; only the status line changes.
type refreshedMsg struct {
	wb  gridbook.Workbook
	err error
}

func (m *gridModel) Init() tea.Cmd {
	return nil
}

func (m *gridModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.refreshPool()
		return m, nil

	case persistedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("edit at %s NOT saved remotely: %v", msg.address, msg.err)
			m.statErr = true
			slog.Warn("persist failed", "address", msg.address, "err", msg.err)
		} else {
			m.status = fmt.Sprintf("saved %s", msg.address)
			m.statErr = false
		}
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("refresh failed, showing last loaded state: %v", msg.err)
			m.statErr = true
			return m, nil
		}
		m.store.Replace(msg.wb)
		m.cursor = gridbook.NewCellRef(0, 0)
		m.scrollRow, m.scrollCol = 0, 0
		m.refreshPool()
		m.status = "refreshed"
		m.statErr = false
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateNavigation(msg)
	}
	return m, nil
}

func (m *gridModel) updateNavigation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	activeWb := m.store.Workbook()
	sheet := activeWb.ActiveSheet()
	if sheet == nil {
		return m, tea.Quit
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1, 0, sheet)
	case "down", "j":
		m.moveCursor(1, 0, sheet)
	case "left", "h":
		m.moveCursor(0, -1, sheet)
	case "right", "l":
		m.moveCursor(0, 1, sheet)
	case "pgup":
		m.moveCursor(-m.gridRows(), 0, sheet)
	case "pgdown":
		m.moveCursor(m.gridRows(), 0, sheet)
	case "home":
		m.cursor = gridbook.NewCellRef(0, 0)
		m.scrollRow, m.scrollCol = 0, 0
		m.refreshPool()
	case "]":
		m.cycleSheet(1)
	case "[":
		m.cycleSheet(-1)
	case "r":
		if m.client == nil {
			break
		}
		client, id := m.client, m.workbookID
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			wb, err := client.Refresh(ctx, id)
			return refreshedMsg{wb: wb, err: err}
		}
	case "enter", "i":
		cell, ok := sheet.CellAt(m.cursor)
		if !ok {
			break
		}
		raw := cell.Value.String()
		if cell.Formula != "" {
			raw = cell.Formula
		}
		m.input.SetValue(raw)
		m.input.CursorEnd()
		m.input.Focus()
		m.editing = true
		return m, textinput.Blink
	}
	return m, nil
}

func (m *gridModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.input.Blur()
		return m, m.commitEdit(m.input.Value())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// commitEdit applies the edit optimistically to the local workbook and,
// when a client is attached, persists it in the background. The local
// value is the source of truth for rendering either way.
func (m *gridModel) commitEdit(raw string) tea.Cmd {
	activeWb := m.store.Workbook()
	sheet := activeWb.ActiveSheet()
	if sheet == nil {
		return nil
	}
	id, err := gridbook.DeriveCellID(sheet.ID, m.cursor.Row, m.cursor.Col)
	if err != nil {
		m.status = err.Error()
		m.statErr = true
		return nil
	}
	if err := m.store.SetCellInput(id, raw); err != nil {
		m.status = err.Error()
		m.statErr = true
		return nil
	}
	m.status = ""

	if m.client == nil {
		return nil
	}

	address := m.cursor.Label()
	sheetName := sheet.Name
	edit := gridbook.CellEdit{Address: address}
	if strings.HasPrefix(raw, "=") {
		edit.Formula = raw
	} else {
		edit.Value = raw
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := m.client.PersistCell(ctx, m.workbookID, sheetName, edit)
		return persistedMsg{address: address, err: err}
	}
}

func (m *gridModel) moveCursor(dRow, dCol int, sheet *gridbook.Sheet) {
	row := m.cursor.Row + dRow
	col := m.cursor.Col + dCol
	if row < 0 {
		row = 0
	}
	if row >= sheet.RowCount() {
		row = sheet.RowCount() - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= sheet.ColCount() {
		col = sheet.ColCount() - 1
	}
	m.cursor = gridbook.NewCellRef(row, col)
	m.scrollToCursor()
	m.refreshPool()
}

// scrollToCursor keeps the cursor inside the materialized window.
func (m *gridModel) scrollToCursor() {
	rows, cols := m.gridRows(), m.gridCols()
	if m.cursor.Row < m.scrollRow {
		m.scrollRow = m.cursor.Row
	}
	if rows > 0 && m.cursor.Row >= m.scrollRow+rows {
		m.scrollRow = m.cursor.Row - rows + 1
	}
	if m.cursor.Col < m.scrollCol {
		m.scrollCol = m.cursor.Col
	}
	if cols > 0 && m.cursor.Col >= m.scrollCol+cols {
		m.scrollCol = m.cursor.Col - cols + 1
	}
}

func (m *gridModel) cycleSheet(dir int) {
	wb := m.store.Workbook()
	if len(wb.Sheets) < 2 {
		return
	}
	idx := 0
	for i := range wb.Sheets {
		if wb.Sheets[i].ID == wb.ActiveSheetID {
			idx = i
		}
	}
	next := wb.Sheets[(idx+dir+len(wb.Sheets))%len(wb.Sheets)].ID
	if err := m.store.Apply(func(wb gridbook.Workbook) (gridbook.Workbook, error) {
		return wb.SetActiveSheet(next)
	}); err != nil {
		m.status = err.Error()
		m.statErr = true
		return
	}
	m.cursor = gridbook.NewCellRef(0, 0)
	m.scrollRow, m.scrollCol = 0, 0
	m.refreshPool()
}

// gridRows and gridCols are the container size in cells, excluding the
// chrome lines and the row-label gutter.
func (m *gridModel) gridRows() int { return max(m.height-chromeLines, 1) }
func (m *gridModel) gridCols() int { return max((m.width-rowLabelW)/colWidth, 1) }

// refreshPool re-addresses the render pool for the current scroll
// position. The pool is sized by the terminal, never by the sheet.
func (m *gridModel) refreshPool() {
	if !m.ready {
		return
	}
	activeWb := m.store.Workbook()
	sheet := activeWb.ActiveSheet()
	if sheet == nil {
		return
	}
	layout := m.geo.Layout(
		m.scrollCol*colWidth, m.scrollRow,
		m.gridCols()*colWidth, m.gridRows(),
	)
	if m.pool == nil {
		m.pool = gridbook.NewCellPool(layout)
	}
	m.pool.Reassign(layout, sheet.ID, sheet.RowCount(), sheet.ColCount())
}

func (m *gridModel) View() string {
	if !m.ready {
		return "loading..."
	}
	wb := m.store.Workbook()
	sheet := wb.ActiveSheet()
	if sheet == nil || m.pool == nil {
		return "no sheet"
	}

	var b strings.Builder
	b.WriteString(m.formulaBar(sheet))
	b.WriteByte('\n')
	b.WriteString(m.columnHeader())
	b.WriteByte('\n')

	rows, cols := m.gridRows(), m.gridCols()
	for r := 0; r < rows; r++ {
		row := m.scrollRow + r
		b.WriteString(labelStyle.Render(pad(fmt.Sprintf("%d", row+1), rowLabelW)))
		for c := 0; c < cols; c++ {
			b.WriteString(m.renderSlot(sheet, m.slotAt(r, c)))
		}
		b.WriteByte('\n')
	}

	b.WriteString(m.statusLine(wb, sheet))
	return b.String()
}

// slotAt maps a screen position to its pool slot. Slots are row-major
// with the same origin as the screen; the pool just has buffer slots
// beyond the visible edge.
func (m *gridModel) slotAt(r, c int) gridbook.Slot {
	idx := r*m.pool.Cols() + c
	slots := m.pool.Slots()
	if idx < 0 || idx >= len(slots) {
		return gridbook.Slot{}
	}
	return slots[idx]
}

func (m *gridModel) renderSlot(sheet *gridbook.Sheet, slot gridbook.Slot) string {
	if !slot.Visible {
		return pad("", colWidth)
	}
	cell, ok := sheet.CellAt(gridbook.NewCellRef(slot.Row, slot.Col))
	if !ok {
		return pad("", colWidth)
	}
	text := pad(cell.Value.String(), colWidth)
	if slot.Row == m.cursor.Row && slot.Col == m.cursor.Col {
		return cursorStyle.Render(text)
	}
	if cell.Formula != "" {
		return formulaStyle.Render(text)
	}
	return text
}

func (m *gridModel) formulaBar(sheet *gridbook.Sheet) string {
	label := headerStyle.Render(pad(m.cursor.Label(), rowLabelW))
	if m.editing {
		return label + " " + m.input.View()
	}
	cell, _ := sheet.CellAt(m.cursor)
	content := cell.Value.String()
	if cell.Formula != "" {
		content = cell.Formula
	}
	return label + " " + content
}

func (m *gridModel) columnHeader() string {
	var b strings.Builder
	b.WriteString(pad("", rowLabelW))
	for c := 0; c < m.gridCols(); c++ {
		b.WriteString(headerStyle.Render(pad(gridbook.ColumnName(m.scrollCol+c), colWidth)))
	}
	return b.String()
}

func (m *gridModel) statusLine(wb gridbook.Workbook, sheet *gridbook.Sheet) string {
	if m.status != "" {
		if m.statErr {
			return errorStyle.Render(m.status)
		}
		return statusStyle.Render(m.status)
	}
	mode := "local"
	if m.client != nil {
		mode = "synced"
	}
	return statusStyle.Render(fmt.Sprintf(
		"%s · sheet %s (%d/%d) · %s · enter edit, [/] sheets, q quit",
		wb.Name, sheet.Name, sheetIndex(wb, sheet.ID)+1, len(wb.Sheets), mode,
	))
}

func sheetIndex(wb gridbook.Workbook, sheetID string) int {
	for i := range wb.Sheets {
		if wb.Sheets[i].ID == sheetID {
			return i
		}
	}
	return 0
}

// pad truncates or right-pads s to exactly width characters.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width-1]) + " "
	}
	return s + strings.Repeat(" ", width-len(runes))
}
