package handling

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lifecycle-kit/kernel/internal/staged"
	"github.com/lifecycle-kit/kernel/observability"
	"github.com/lifecycle-kit/kernel/state"
)

// Action is the per-object work a dispatcher performs each cycle. Returning
// false raises the stop signal for the remainder of the pass: later members
// are still scanned for dead-object pruning, just not acted on.
type Action[T Member] func(m T) bool

// Slot is the category-agnostic view of a dispatcher held by a Registry.
type Slot interface {
	Manageable

	Category() Category
	Admit(m Manageable) error
	Remove(m Manageable)
	EnabledCell() state.Cell
	SetActive(enabled bool)
	Size() int
	IsEmpty() bool
	RunCycle(checkEnabled bool)
	Kill()
}

// Dispatcher owns a staged collection of members of one category and runs
// handle cycles over the live, enabled subset.
//
// Membership mutations are staged: Enqueue and Remove place requests in
// pending queues guarded by their own locks and take effect at the next
// commit point inside RunCycle, so producers are never blocked by a cycle in
// progress and a cycle never observes a half-applied mutation.
//
// A Dispatcher is itself Manageable and can be nested inside another
// dispatcher; SetActive toggles whether the outer one acts on it.
type Dispatcher[T Member] struct {
	id       string
	category Category
	action   Action[T]

	list *staged.List[T]

	dead            *deathCell[T]
	enabled         *state.Flag
	handling        *CellMap
	fallbackEnabled bool

	observer observability.Observer
	metrics  *Metrics
}

// New creates a dispatcher for category whose members are handled by action.
// A nil action makes RunCycle a pure prune pass.
func New[T Member](category Category, cfg Config, action Action[T]) *Dispatcher[T] {
	d := &Dispatcher[T]{
		id:       uuid.New().String(),
		category: category,
		action:   action,
		list:     staged.NewList[T](),
		observer: cfg.observer(),
		metrics:  NewMetrics(),
	}
	d.dead = newDeathCell(d)
	d.enabled = state.NewFlag(cfg.Enabled, cfg.EnabledMutable)
	d.handling = NewCellMap(d.enabled)
	d.fallbackEnabled = cfg.FallbackEnabled
	return d
}

// ID returns the dispatcher's unique identifier, carried in observer events.
func (d *Dispatcher[T]) ID() string { return d.id }

// Category returns the category this dispatcher serves.
func (d *Dispatcher[T]) Category() Category { return d.category }

// Metrics returns a snapshot of the dispatcher's counters.
func (d *Dispatcher[T]) Metrics() MetricsSnapshot { return d.metrics.Snapshot() }

// DeadCell is the dispatcher's own death cell. Driving it true kills every
// live member and clears all three membership lists.
func (d *Dispatcher[T]) DeadCell() state.Cell { return d.dead }

// HandlingCells exposes the dispatcher's own per-category enable cells.
func (d *Dispatcher[T]) HandlingCells() *CellMap { return d.handling }

// EnabledCell is the dispatcher's own "should be handled" cell. It doubles
// as the fallback of the dispatcher's cell map, so an outer dispatcher of any
// category consults it when this dispatcher is nested inside one.
func (d *Dispatcher[T]) EnabledCell() state.Cell { return d.enabled }

// SetActive toggles the dispatcher's own enabled cell. It affects whether an
// outer dispatcher acts on this one, not this dispatcher's members.
func (d *Dispatcher[T]) SetActive(enabled bool) {
	d.EnabledCell().SetState(enabled)
}

// Enqueue stages m for inclusion at the next commit point. Zero values, the
// dispatcher itself, and objects already present are silently ignored, as is
// every request arriving after the dispatcher died.
func (d *Dispatcher[T]) Enqueue(m T) {
	var zero T
	if m == zero || any(m) == any(d) {
		return
	}
	if d.dead.State() {
		return
	}
	if d.list.Enqueue(m) {
		d.metrics.RecordAdmitted(1)
		d.emit(EventAdmit, map[string]any{"size": d.list.Len()})
	}
}

// Admit adds m after checking it against the category's accepted type,
// returning ErrWrongType when the runtime type is not acceptable. The
// Registry routes objects through here.
func (d *Dispatcher[T]) Admit(m Manageable) error {
	if m == nil {
		return nil
	}
	v, ok := m.(T)
	if !ok || !d.category.Matches(m) {
		return fmt.Errorf("%w: %T in %q", ErrWrongType, m, d.category.Name)
	}
	d.Enqueue(v)
	return nil
}

// Remove stages removal of m: an active member leaves at the next commit
// point, a pending addition is cancelled outright. Unknown objects and
// objects of a foreign type are silently ignored.
func (d *Dispatcher[T]) Remove(m Manageable) {
	v, ok := m.(T)
	if !ok {
		return
	}
	if d.list.RequestRemove(v) {
		d.metrics.RecordEvicted(1)
	}
}

// RemoveAll stages removal of every active member and cancels every pending
// addition.
func (d *Dispatcher[T]) RemoveAll() {
	for _, v := range d.list.Items() {
		d.list.RequestRemove(v)
	}
}

// Size counts active plus pending-add members.
func (d *Dispatcher[T]) Size() int { return d.list.Len() }

// IsEmpty reports whether the dispatcher holds nothing, staged or active.
func (d *Dispatcher[T]) IsEmpty() bool { return d.Size() == 0 }

// Contains reports whether m is active or pending addition.
func (d *Dispatcher[T]) Contains(m Manageable) bool {
	v, ok := m.(T)
	return ok && d.list.Contains(v)
}

// TransferFrom moves every active and pending member of other into this
// dispatcher, removing them from other. No-op when other is nil or this
// dispatcher itself.
func (d *Dispatcher[T]) TransferFrom(other *Dispatcher[T]) {
	if other == nil || other == d {
		return
	}
	moved := other.list.Items()
	for _, v := range moved {
		d.Enqueue(v)
		other.list.RequestRemove(v)
	}
	if len(moved) > 0 {
		d.emit(EventTransfer, map[string]any{"from": other.id, "count": len(moved)})
	}
}

// Sort orders the active list with less, after committing staged changes so
// fresh members take part. The order stays visible to later cycles.
func (d *Dispatcher[T]) Sort(less func(a, b T) bool) {
	d.list.Sort(less)
}

// RunCycle runs one commit-iterate-commit pass: staged membership changes
// are committed, the active list is walked in order invoking the action on
// each live, enabled member, and removals discovered along the way are
// committed before RunCycle returns.
//
// An object enqueued during the pass is not acted on before the next call;
// an object found dead during the pass is pruned and never acted on past the
// point of discovery, regardless of checkEnabled or an earlier stop signal.
// When checkEnabled is set, members whose enable cell for this dispatcher's
// category reads false are skipped.
func (d *Dispatcher[T]) RunCycle(checkEnabled bool) {
	if d.dead.State() {
		return
	}

	var handled, pruned int
	stopped := false
	d.list.Cycle(func(m T) staged.Verdict {
		if dead := m.DeadCell(); dead != nil && dead.State() {
			pruned++
			return staged.Remove
		}
		if stopped {
			return staged.Keep
		}
		if checkEnabled {
			if cells := m.HandlingCells(); cells == nil {
				if !d.fallbackEnabled {
					return staged.Keep
				}
			} else if !cells.Cell(d.category.Name).State() {
				return staged.Keep
			}
		}
		if d.action != nil {
			handled++
			if !d.action(m) {
				stopped = true
			}
		}
		return staged.Keep
	})

	d.metrics.RecordCycle(1)
	d.metrics.RecordHandled(handled)
	d.metrics.RecordPruned(pruned)
	d.emit(EventCycle, map[string]any{
		"handled": handled,
		"pruned":  pruned,
		"size":    d.list.Len(),
	})
}

// Kill marks the dispatcher dead: every live member's death cell is driven
// true, all three membership lists are cleared, and later Enqueue and Remove
// calls become no-ops. Kill must not be called from inside the dispatcher's
// own action.
func (d *Dispatcher[T]) Kill() {
	cleared := d.Size()
	d.dead.SetState(true)
	d.emit(EventKill, map[string]any{"cleared": cleared})
}

// ForAny returns a cell reading true while at least one live member's picked
// cell reads true. When mutable, writes fan out to every live member's
// picked cell before the cell's own cached value updates.
func (d *Dispatcher[T]) ForAny(pick func(T) state.Cell, mutable bool) state.Cell {
	c := &forAnyCell[T]{memberCell: newMemberCell(d, pick, mutable)}
	c.SetBroadcastSource(c)
	return c
}

// ForAll returns a cell reading true while no live member's picked cell
// reads false; with no members it reads true. Write semantics match ForAny.
func (d *Dispatcher[T]) ForAll(pick func(T) state.Cell, mutable bool) state.Cell {
	c := &forAllCell[T]{memberCell: newMemberCell(d, pick, mutable)}
	c.SetBroadcastSource(c)
	return c
}

func (d *Dispatcher[T]) emit(eventType observability.EventType, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 2)
	}
	data["dispatcher_id"] = d.id
	data["category"] = d.category.Name
	observability.Emit(d.observer, eventType, observability.LevelVerbose, "dispatcher", data)
}
