package state

import "sync"

type logicalMode int

const (
	modeAnd logicalMode = iota
	modeOr
)

// Logical derives its value from a dynamic set of condition cells on every
// read. It stores no boolean of its own and rejects external writes.
//
// Condition graphs must be acyclic by construction: State re-walks the
// conditions recursively and performs no cycle detection, so a condition set
// that reaches back to the cell being read would never terminate.
type Logical struct {
	mode logicalMode

	mu         sync.RWMutex
	conditions []Cell

	hubMu sync.Mutex
	hub   *Hub
}

// NewAnd creates a cell that reads true while every condition reads true.
// With zero conditions it reads true (vacuous truth).
func NewAnd(conditions ...Cell) *Logical {
	return newLogical(modeAnd, conditions)
}

// NewOr creates a cell that reads true while at least one condition reads
// true. With zero conditions it reads false.
func NewOr(conditions ...Cell) *Logical {
	return newLogical(modeOr, conditions)
}

func newLogical(mode logicalMode, conditions []Cell) *Logical {
	l := &Logical{mode: mode}
	for _, c := range conditions {
		l.AddCondition(c)
	}
	return l
}

// State folds the condition set, short-circuiting on the first decisive
// condition.
func (l *Logical) State() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch l.mode {
	case modeOr:
		for _, c := range l.conditions {
			if c.State() {
				return true
			}
		}
		return false
	default:
		for _, c := range l.conditions {
			if !c.State() {
				return false
			}
		}
		return true
	}
}

// SetState is a no-op: a logical cell's value is fully derived.
func (l *Logical) SetState(bool) {}

// Mutable always reports false.
func (l *Logical) Mutable() bool { return false }

// Listeners returns the cell's hub, creating it on first use. The hub never
// fires on its own since the cell holds no value to transition; it exists so
// logical cells satisfy the full Cell contract.
func (l *Logical) Listeners() *Hub {
	l.hubMu.Lock()
	defer l.hubMu.Unlock()
	if l.hub == nil {
		l.hub = NewHub()
	}
	return l.hub
}

// AddCondition appends a cell to the condition set. Nil and duplicate cells
// are ignored.
func (l *Logical) AddCondition(c Cell) {
	if c == nil || c == Cell(l) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.conditions {
		if existing == c {
			return
		}
	}
	l.conditions = append(l.conditions, c)
}

// RemoveCondition drops a cell from the condition set, if present.
func (l *Logical) RemoveCondition(c Cell) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.conditions {
		if existing == c {
			l.conditions = append(l.conditions[:i], l.conditions[i+1:]...)
			return
		}
	}
}

// ConditionCount reports the current size of the condition set.
func (l *Logical) ConditionCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.conditions)
}

func (l *Logical) peekHub() *Hub {
	l.hubMu.Lock()
	defer l.hubMu.Unlock()
	return l.hub
}
