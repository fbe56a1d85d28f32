package state

import (
	"sync"
	"sync/atomic"
)

// Listener receives cell transitions. The next value is delivered before the
// source commits it; reading source.State() inside the callback still yields
// the previous value.
type Listener interface {
	OnStateChange(source Cell, next bool)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(source Cell, next bool)

func (f ListenerFunc) OnStateChange(source Cell, next bool) { f(source, next) }

// Cell is the read/write surface shared by every state primitive.
type Cell interface {
	// State reports the current boolean value.
	State() bool
	// SetState requests a transition to next. Immutable cells and
	// same-value writes are silent no-ops.
	SetState(next bool)
	// Mutable reports whether SetState can currently change the value.
	Mutable() bool
	// Listeners returns the cell's broadcast hub, creating it on first use.
	Listeners() *Hub
}

// Flag is the root Cell: a plain boolean with construction-time mutability
// and a lazily created listener hub.
type Flag struct {
	value   atomic.Bool
	mutable atomic.Bool

	hubMu sync.Mutex
	hub   *Hub

	// source, when set, is reported to listeners instead of the flag
	// itself. Wrapping types install themselves here so listeners see the
	// wrapper.
	source Cell
}

// NewFlag creates a flag holding initial. When mutable is false the value is
// fixed for the flag's lifetime.
func NewFlag(initial, mutable bool) *Flag {
	f := &Flag{}
	f.value.Store(initial)
	f.mutable.Store(mutable)
	return f
}

// State reports the flag's current value.
func (f *Flag) State() bool { return f.value.Load() }

// Mutable reports whether SetState can currently change the value.
func (f *Flag) Mutable() bool { return f.mutable.Load() }

// SetState transitions the flag to next. Listeners are notified with the
// pending value before it is committed. Immutable flags and writes of the
// current value are no-ops.
func (f *Flag) SetState(next bool) {
	if !f.mutable.Load() {
		return
	}
	f.force(next)
}

// Listeners returns the flag's hub, creating it on first use.
func (f *Flag) Listeners() *Hub {
	f.hubMu.Lock()
	defer f.hubMu.Unlock()
	if f.hub == nil {
		f.hub = NewHub()
	}
	return f.hub
}

// SetBroadcastSource declares owner as the cell listeners should see as the
// origin of this flag's notifications. Types embedding *Flag call it once at
// construction.
func (f *Flag) SetBroadcastSource(owner Cell) { f.source = owner }

// TransferListenersFrom adopts every subscription of another cell's hub.
// Cells whose hub was never initialized are left untouched, and nothing is
// created on either side in that case.
func (f *Flag) TransferListenersFrom(other Cell) {
	if other == nil || other == Cell(f) || other == f.source {
		return
	}
	var hub *Hub
	if peeker, ok := other.(interface{ peekHub() *Hub }); ok {
		hub = peeker.peekHub()
	} else {
		hub = other.Listeners()
	}
	if hub == nil || hub.IsEmpty() {
		return
	}
	f.Listeners().TransferFrom(hub)
}

// force applies a transition regardless of the mutability flag. Dependent
// mirroring goes through here.
func (f *Flag) force(next bool) {
	if f.value.Load() == next {
		return
	}
	if hub := f.peekHub(); hub != nil {
		hub.Broadcast(f.broadcastSource(), next)
	}
	f.value.Store(next)
}

func (f *Flag) peekHub() *Hub {
	f.hubMu.Lock()
	defer f.hubMu.Unlock()
	return f.hub
}

func (f *Flag) broadcastSource() Cell {
	if f.source != nil {
		return f.source
	}
	return f
}

// setMutable changes the mutability flag. Reserved for same-package types
// layering extra transition rules on Flag.
func (f *Flag) setMutable(mutable bool) { f.mutable.Store(mutable) }

// Latch is a flag for one-way transitions: it starts mutable and locks
// itself after a successful transition to true. Death cells use it so a dead
// object can never come back to life.
type Latch struct {
	Flag
}

// NewLatch creates a latch holding initial. A latch created already true is
// immutable from the start.
func NewLatch(initial bool) *Latch {
	l := &Latch{}
	l.value.Store(initial)
	l.mutable.Store(!initial)
	l.SetBroadcastSource(l)
	return l
}

// SetState behaves like Flag.SetState, then locks the latch once it has
// committed a true value.
func (l *Latch) SetState(next bool) {
	l.Flag.SetState(next)
	if next && l.State() {
		l.setMutable(false)
	}
}
