package state

// Dependent mirrors the value of a parent cell. While attached, every parent
// notification overwrites the mirrored value synchronously, bypassing the
// cell's own mutability flag; the mirror is updated before the parent's
// SetState call returns.
type Dependent struct {
	Flag

	parent Cell
	sub    *Subscription
}

// NewDependent creates a mirror of parent: the parent's current value is
// copied immediately and a subscription keeps the mirror in step from then
// on. The cell stays externally mutable between parent changes. A nil parent
// yields a detached cell reading false.
func NewDependent(parent Cell) *Dependent {
	d := &Dependent{}
	d.SetBroadcastSource(d)
	d.mutable.Store(true)
	if parent != nil {
		d.value.Store(parent.State())
		d.parent = parent
		d.sub = parent.Listeners().Subscribe(d)
	}
	return d
}

// NewDetachedDependent creates a mirror in manual mode: it holds initial and
// only changes when fed through OnStateChange, typically by subscribing it
// to a hub by hand. External SetState calls are rejected.
func NewDetachedDependent(initial bool) *Dependent {
	d := &Dependent{}
	d.SetBroadcastSource(d)
	d.value.Store(initial)
	d.mutable.Store(false)
	return d
}

// OnStateChange overwrites the mirrored value regardless of mutability.
func (d *Dependent) OnStateChange(source Cell, next bool) {
	d.force(next)
}

// Detach tears down the subscription into the parent's hub. The cell keeps
// its last mirrored value. Required when the dependent is discarded before
// its parent, so the parent does not keep notifying a dangling mirror.
func (d *Dependent) Detach() {
	if d.parent != nil && d.sub != nil {
		d.parent.Listeners().Unsubscribe(d.sub)
		d.sub = nil
	}
}
