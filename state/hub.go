package state

import (
	"github.com/google/uuid"

	"github.com/lifecycle-kit/kernel/internal/staged"
)

// deadAware is satisfied by listeners that expose their own liveness, for
// example anything implementing handling.Manageable. The hub prunes dead
// listeners instead of notifying them.
type deadAware interface {
	DeadCell() Cell
}

// Subscription is the token identifying one listener registration within a
// Hub. Holding the token is the only way to unsubscribe; the hub resolves it
// through its membership index rather than keeping any back-reference into
// the listener.
type Subscription struct {
	id       uuid.UUID
	listener Listener
}

// ID returns the registration's unique identifier.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Hub fans a state change out to subscribed listeners. Registrations use the
// same staged commit semantics as a dispatcher's membership: a listener
// subscribed during a broadcast is first notified on the following one, and
// an unsubscribe requested during a broadcast takes effect by its end.
//
// A Hub is itself a Listener, so hubs can be chained behind other cells.
// Listener graphs must be acyclic: a listener must never re-broadcast,
// directly or transitively, into a hub currently notifying it.
type Hub struct {
	list *staged.List[*Subscription]
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{list: staged.NewList[*Subscription]()}
}

// Subscribe registers l for future broadcasts and returns the token needed
// to unsubscribe it. A nil listener yields a nil token and no registration.
func (h *Hub) Subscribe(l Listener) *Subscription {
	if l == nil {
		return nil
	}
	sub := &Subscription{id: uuid.New(), listener: l}
	h.list.Enqueue(sub)
	return sub
}

// Unsubscribe cancels a previously returned registration. Nil and unknown
// tokens are ignored.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.list.RequestRemove(sub)
}

// Broadcast delivers next to every live listener, in subscription order and
// depth first: each listener's own re-broadcasts finish before the next
// listener is notified. Listeners whose dead cell reads true are pruned
// instead of notified.
func (h *Hub) Broadcast(source Cell, next bool) {
	h.list.Cycle(func(sub *Subscription) staged.Verdict {
		if aware, ok := sub.listener.(deadAware); ok {
			if dead := aware.DeadCell(); dead != nil && dead.State() {
				return staged.Remove
			}
		}
		sub.listener.OnStateChange(source, next)
		return staged.Keep
	})
}

// OnStateChange forwards a received change to this hub's own listeners,
// letting hubs act as listeners on other cells.
func (h *Hub) OnStateChange(source Cell, next bool) {
	h.Broadcast(source, next)
}

// Len counts current registrations, including ones not yet committed.
func (h *Hub) Len() int { return h.list.Len() }

// IsEmpty reports whether the hub has no registrations at all.
func (h *Hub) IsEmpty() bool { return h.Len() == 0 }

// TransferFrom moves every registration, committed and pending, out of other
// and into this hub. No-op when other is nil or the hub itself.
func (h *Hub) TransferFrom(other *Hub) {
	if other == nil || other == h {
		return
	}
	for _, sub := range other.list.Items() {
		other.list.RequestRemove(sub)
		h.list.Enqueue(sub)
	}
}
