package gridbook

import "sync"

// PatchScope says how much of the workbook a change touched, so
// observers can skip work for changes outside their materialized window.
type PatchScope int

const (
	PatchWorkbook PatchScope = iota // structural change, re-read everything
	PatchSheet                      // one sheet changed beyond a single cell
	PatchCell                       // exactly one cell changed
)

// Patch describes a committed change. SheetID and the coordinate are
// populated according to Scope.
type Patch struct {
	Scope   PatchScope
	SheetID string
	Ref     CellRef
}

// Observer receives the new workbook value and a patch after every
// committed change.
type Observer interface {
	WorkbookChanged(wb Workbook, p Patch)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(wb Workbook, p Patch)

func (f ObserverFunc) WorkbookChanged(wb Workbook, p Patch) { f(wb, p) }

// Store owns the current Workbook value for one session. All mutation
// goes through the pure model operations; the store swaps the resulting
// value in under a lock and notifies observers, so a concurrently
// rendering view never sees a torn workbook.
type Store struct {
	mu        sync.Mutex
	wb        Workbook
	observers map[int]Observer
	nextObs   int
}

// NewStore creates a store owning the given workbook value.
func NewStore(wb Workbook) *Store {
	return &Store{wb: wb, observers: make(map[int]Observer)}
}

// Workbook returns the current value. The value semantics of Workbook
// operations mean the caller can hold it as long as it likes.
func (s *Store) Workbook() Workbook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wb
}

// Subscribe registers an observer and returns its unsubscribe function.
func (s *Store) Subscribe(o Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Apply runs a pure operation against the current value and commits the
// result with a workbook-scoped patch. On error nothing is committed.
func (s *Store) Apply(op func(Workbook) (Workbook, error)) error {
	s.mu.Lock()
	next, err := op(s.wb)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.commit(next, Patch{Scope: PatchWorkbook})
	return nil
}

// SetCell commits a single-cell value change and emits a cell-scoped
// patch carrying the exact coordinate, so viewports can ignore it when
// the cell is outside their window.
func (s *Store) SetCell(cellID string, v Value) error {
	return s.applyCell(cellID, func(wb Workbook) (Workbook, error) {
		return wb.SetCell(cellID, v)
	})
}

// SetCellInput commits raw user input for a cell (see
// Workbook.SetCellInput) with a cell-scoped patch.
func (s *Store) SetCellInput(cellID, raw string) error {
	return s.applyCell(cellID, func(wb Workbook) (Workbook, error) {
		return wb.SetCellInput(cellID, raw)
	})
}

func (s *Store) applyCell(cellID string, op func(Workbook) (Workbook, error)) error {
	s.mu.Lock()
	next, err := op(s.wb)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	sheetID, ref, _ := splitCellID(cellID)
	s.commit(next, Patch{Scope: PatchCell, SheetID: sheetID, Ref: ref})
	return nil
}

// Replace swaps in a whole new workbook value, e.g. after a remote
// refresh. The previous value stays untouched for anyone still holding
// it, which is what keeps a failed refresh from blanking a loaded view.
func (s *Store) Replace(wb Workbook) {
	s.mu.Lock()
	s.commit(wb, Patch{Scope: PatchWorkbook})
}

// commit swaps the value and notifies observers outside the lock.
// Callers must hold mu; commit releases it.
func (s *Store) commit(next Workbook, p Patch) {
	s.wb = next
	obs := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.mu.Unlock()
	for _, o := range obs {
		o.WorkbookChanged(next, p)
	}
}
