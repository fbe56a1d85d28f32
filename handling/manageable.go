package handling

import (
	"sync"

	"github.com/lifecycle-kit/kernel/state"
)

// Manageable is the contract an object must satisfy to live inside a
// Dispatcher.
//
// Dispatchers hold non-owning references: they drop a member when its death
// cell reads true and never deallocate anything. An object may belong to any
// number of dispatchers at once.
type Manageable interface {
	// DeadCell reports whether the object should be dropped by every
	// dispatcher holding it. Once true it must never read false again.
	DeadCell() state.Cell
	// HandlingCells maps category names to per-category enable cells.
	HandlingCells() *CellMap
}

// Member constrains dispatcher element types: any comparable Manageable
// implementation. Pointer types qualify.
type Member interface {
	comparable
	Manageable
}

// CellMap holds one "should be handled" cell per category name, answering a
// shared fallback cell for categories without a dedicated entry.
type CellMap struct {
	mu       sync.RWMutex
	cells    map[string]state.Cell
	fallback state.Cell
}

// NewCellMap creates a map answering fallback for unknown categories. A nil
// fallback defaults to an immutable enabled cell.
func NewCellMap(fallback state.Cell) *CellMap {
	if fallback == nil {
		fallback = state.NewFlag(true, false)
	}
	return &CellMap{cells: make(map[string]state.Cell), fallback: fallback}
}

// Cell returns the cell for category, or the fallback when none is set.
func (m *CellMap) Cell(category string) state.Cell {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.cells[category]; ok {
		return c
	}
	return m.fallback
}

// Set installs a dedicated cell for category. Nil cells are ignored.
func (m *CellMap) Set(category string, c state.Cell) {
	if c == nil {
		return
	}
	m.mu.Lock()
	m.cells[category] = c
	m.mu.Unlock()
}

// SetAll drives the fallback and every dedicated cell to v. Immutable cells
// silently keep their value.
func (m *CellMap) SetAll(v bool) {
	m.mu.RLock()
	cells := make([]state.Cell, 0, len(m.cells)+1)
	cells = append(cells, m.fallback)
	for _, c := range m.cells {
		cells = append(cells, c)
	}
	m.mu.RUnlock()

	for _, c := range cells {
		c.SetState(v)
	}
}

// Base is an embeddable default Manageable: a death latch plus a cell map
// whose fallback is mutable and starts enabled.
type Base struct {
	mu       sync.RWMutex
	dead     state.Cell
	handling *CellMap
}

// NewBase creates the default manageable capability. Remember to feed the
// owning object through a Registry or Dispatcher afterwards.
func NewBase() *Base {
	return &Base{
		dead:     state.NewLatch(false),
		handling: NewCellMap(state.NewFlag(true, true)),
	}
}

func (b *Base) DeadCell() state.Cell {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dead
}

func (b *Base) HandlingCells() *CellMap { return b.handling }

// Kill drives the death cell true, scheduling the owner for removal from
// every dispatcher that holds it.
func (b *Base) Kill() { b.DeadCell().SetState(true) }

// SetDeadCell replaces the death cell, rehoming the old cell's listeners
// onto the new one. Nil cells are ignored.
func (b *Base) SetDeadCell(c state.Cell) {
	if c == nil {
		return
	}
	b.mu.Lock()
	old := b.dead
	b.dead = c
	b.mu.Unlock()

	if mover, ok := c.(interface{ TransferListenersFrom(state.Cell) }); ok {
		mover.TransferListenersFrom(old)
	}
}
