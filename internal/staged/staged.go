// Package staged provides the three-list membership container shared by the
// dispatcher and the state listener hub: an ordered active list plus
// pending-add and pending-remove queues, each guarded by its own mutex.
// Producers staging additions and removals are never blocked by an
// in-progress iteration; their changes become visible at the next commit
// point.
package staged

import (
	"sort"
	"sync"
)

// Verdict is a visit callback's decision about the current element.
type Verdict int

const (
	// Keep leaves the element in the active list.
	Keep Verdict = iota
	// Remove schedules the element for removal by the end of the cycle.
	Remove
)

type location int8

const (
	locPending location = iota
	locActive
	locRemoving
)

// List is a staged collection of comparable values. The zero value is not
// usable; create instances with NewList.
//
// Membership moves through three stages: Enqueue places a value in the
// pending-add queue, the commit inside Cycle promotes it to the active list,
// and RequestRemove schedules it back out. A membership index guarded by its
// own lock keeps Contains and Len cheap and non-blocking while a cycle holds
// the active-list lock.
type List[T comparable] struct {
	activeMu sync.Mutex
	active   []T

	addMu sync.Mutex
	adds  []T

	removeMu sync.Mutex
	removes  []T

	indexMu sync.RWMutex
	index   map[T]location
}

// NewList creates an empty staged list.
func NewList[T comparable]() *List[T] {
	return &List[T]{index: make(map[T]location)}
}

// Enqueue stages v for inclusion at the next commit point. It reports false
// when v is already present in any stage.
func (l *List[T]) Enqueue(v T) bool {
	l.indexMu.Lock()
	if _, ok := l.index[v]; ok {
		l.indexMu.Unlock()
		return false
	}
	l.index[v] = locPending
	l.indexMu.Unlock()

	l.addMu.Lock()
	l.adds = append(l.adds, v)
	l.addMu.Unlock()
	return true
}

// RequestRemove stages v for exclusion. An active value leaves at the next
// commit point; a pending-add value has its addition cancelled outright.
// Unknown values and repeated requests report false.
func (l *List[T]) RequestRemove(v T) bool {
	l.indexMu.Lock()
	loc, ok := l.index[v]
	if !ok || loc == locRemoving {
		l.indexMu.Unlock()
		return false
	}
	if loc == locPending {
		delete(l.index, v)
		l.indexMu.Unlock()

		l.addMu.Lock()
		for i, queued := range l.adds {
			if queued == v {
				l.adds = append(l.adds[:i], l.adds[i+1:]...)
				break
			}
		}
		l.addMu.Unlock()
		return true
	}

	l.index[v] = locRemoving
	l.indexMu.Unlock()

	l.removeMu.Lock()
	l.removes = append(l.removes, v)
	l.removeMu.Unlock()
	return true
}

// Contains reports whether v is active or pending addition. Values awaiting
// removal still count until the removal commits.
func (l *List[T]) Contains(v T) bool {
	l.indexMu.RLock()
	_, ok := l.index[v]
	l.indexMu.RUnlock()
	return ok
}

// Len counts the values that are active or pending addition.
func (l *List[T]) Len() int {
	l.indexMu.RLock()
	n := len(l.index)
	l.indexMu.RUnlock()
	return n
}

// Items returns a snapshot of the active list followed by the pending-add
// queue, in insertion order. It must not be called from inside a Cycle visit.
func (l *List[T]) Items() []T {
	l.activeMu.Lock()
	out := make([]T, len(l.active))
	copy(out, l.active)
	l.activeMu.Unlock()

	l.addMu.Lock()
	out = append(out, l.adds...)
	l.addMu.Unlock()
	return out
}

// Members returns the committed (active) values in no particular order.
// Unlike Items it reads only the membership index, so it is safe to call
// from inside a Cycle visit.
func (l *List[T]) Members() []T {
	l.indexMu.RLock()
	out := make([]T, 0, len(l.index))
	for v, loc := range l.index {
		if loc != locPending {
			out = append(out, v)
		}
	}
	l.indexMu.RUnlock()
	return out
}

// Cycle runs one commit-iterate-commit pass: staged changes are committed,
// visit is called for each active value in order, and removals requested by
// visit (or staged concurrently) are committed before Cycle returns. Values
// enqueued while the pass runs become visible no earlier than the next call.
//
// The active-list lock is held for the whole pass, so visit must not call
// Cycle, Items, Sort, or Clear on the same list.
func (l *List[T]) Cycle(visit func(T) Verdict) {
	l.activeMu.Lock()
	defer l.activeMu.Unlock()

	l.commit()
	for _, v := range l.active {
		if visit(v) == Remove {
			l.requestRemoveActive(v)
		}
	}
	l.commit()
}

// Sort orders the active list with less, committing staged changes first so
// freshly added values take part.
func (l *List[T]) Sort(less func(a, b T) bool) {
	l.activeMu.Lock()
	defer l.activeMu.Unlock()

	l.commit()
	sort.SliceStable(l.active, func(i, j int) bool {
		return less(l.active[i], l.active[j])
	})
}

// Clear empties every stage, taking each lock in turn.
func (l *List[T]) Clear() {
	l.activeMu.Lock()
	l.active = nil
	l.activeMu.Unlock()

	l.addMu.Lock()
	l.adds = nil
	l.addMu.Unlock()

	l.removeMu.Lock()
	l.removes = nil
	l.removeMu.Unlock()

	l.indexMu.Lock()
	l.index = make(map[T]location)
	l.indexMu.Unlock()
}

// requestRemoveActive marks an active value for the closing commit of the
// current cycle.
func (l *List[T]) requestRemoveActive(v T) {
	l.indexMu.Lock()
	if loc, ok := l.index[v]; !ok || loc != locActive {
		l.indexMu.Unlock()
		return
	}
	l.index[v] = locRemoving
	l.indexMu.Unlock()

	l.removeMu.Lock()
	l.removes = append(l.removes, v)
	l.removeMu.Unlock()
}

// commit promotes the pending-add queue into the active list and flushes the
// pending-remove queue out of it. The caller must hold activeMu; each staging
// queue is drained under its own lock so concurrent producers stay unblocked.
func (l *List[T]) commit() {
	l.addMu.Lock()
	moved := l.adds
	l.adds = nil
	l.addMu.Unlock()

	l.removeMu.Lock()
	dropped := l.removes
	l.removes = nil
	l.removeMu.Unlock()

	if len(moved) > 0 {
		l.indexMu.Lock()
		for _, v := range moved {
			if loc, ok := l.index[v]; ok && loc == locPending {
				l.index[v] = locActive
				l.active = append(l.active, v)
			}
		}
		l.indexMu.Unlock()
	}

	if len(dropped) > 0 {
		drop := make(map[T]struct{}, len(dropped))
		l.indexMu.Lock()
		for _, v := range dropped {
			if loc, ok := l.index[v]; ok && loc == locRemoving {
				delete(l.index, v)
				drop[v] = struct{}{}
			}
		}
		l.indexMu.Unlock()

		if len(drop) > 0 {
			kept := l.active[:0]
			for _, v := range l.active {
				if _, gone := drop[v]; !gone {
					kept = append(kept, v)
				}
			}
			l.active = kept
		}
	}
}
