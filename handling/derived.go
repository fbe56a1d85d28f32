package handling

import "github.com/lifecycle-kit/kernel/state"

// memberCell is a cell bound to a dispatcher's membership: writes fan out to
// a cell picked from every live member before the cell's own cached value
// commits. Dead members are skipped. Reads answer the cached value unless a
// wrapping type derives them from the members instead.
//
// Member scans go through the membership index rather than the active-list
// lock, so these cells stay readable from inside a running cycle.
type memberCell[T Member] struct {
	*state.Flag

	d    *Dispatcher[T]
	pick func(T) state.Cell
}

func newMemberCell[T Member](d *Dispatcher[T], pick func(T) state.Cell, mutable bool) *memberCell[T] {
	return &memberCell[T]{
		Flag: state.NewFlag(false, mutable),
		d:    d,
		pick: pick,
	}
}

// SetState drives every live member's picked cell to next, then commits next
// as the cell's own cached value. Immutable cells and same-value writes are
// no-ops, member fan-out included.
func (c *memberCell[T]) SetState(next bool) {
	if !c.Mutable() || c.Flag.State() == next {
		return
	}
	for _, m := range c.liveMembers() {
		if picked := c.pick(m); picked != nil {
			picked.SetState(next)
		}
	}
	c.Flag.SetState(next)
}

func (c *memberCell[T]) liveMembers() []T {
	members := c.d.list.Members()
	live := members[:0]
	for _, m := range members {
		if dead := m.DeadCell(); dead != nil && dead.State() {
			continue
		}
		live = append(live, m)
	}
	return live
}

// scan reports whether any live member's picked cell reads want.
func (c *memberCell[T]) scan(want bool) bool {
	for _, m := range c.liveMembers() {
		if picked := c.pick(m); picked != nil && picked.State() == want {
			return true
		}
	}
	return false
}

// forAnyCell reads true while at least one live member's picked cell does.
type forAnyCell[T Member] struct {
	*memberCell[T]
}

func (c *forAnyCell[T]) State() bool { return c.scan(true) }

// forAllCell reads true while no live member's picked cell reads false.
type forAllCell[T Member] struct {
	*memberCell[T]
}

func (c *forAllCell[T]) State() bool { return !c.scan(false) }

// deathCell is a dispatcher's own is-dead cell: a member cell over the
// members' death cells whose reads answer the dispatcher's own cached state,
// not the members'. Driving it true kills every live member, then clears the
// active, pending-add, and pending-remove lists, each under its own lock; a
// dead dispatcher discards every later membership request.
type deathCell[T Member] struct {
	*memberCell[T]
}

func newDeathCell[T Member](d *Dispatcher[T]) *deathCell[T] {
	c := &deathCell[T]{
		memberCell: newMemberCell(d, func(m T) state.Cell { return m.DeadCell() }, true),
	}
	c.SetBroadcastSource(c)
	return c
}

func (c *deathCell[T]) SetState(next bool) {
	c.memberCell.SetState(next)
	if next && c.Flag.State() {
		c.d.list.Clear()
	}
}
