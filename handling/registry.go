package handling

import (
	"sort"
	"sync"

	"github.com/lifecycle-kit/kernel/observability"
)

// Registry multiplexes manageable objects across dispatchers by category:
// it holds at most one dispatcher per category name and routes each new
// object to every dispatcher whose category accepts it.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]Slot

	observer observability.Observer
}

// NewRegistry creates a registry holding the given dispatchers. Later
// dispatchers silently displace earlier ones of the same category without
// killing them.
func NewRegistry(slots ...Slot) *Registry {
	r := &Registry{
		slots:    make(map[string]Slot),
		observer: observability.NoOpObserver{},
	}
	for _, s := range slots {
		r.Register(s, false)
	}
	return r
}

// NewRegistryFrom creates a shallow copy of other: the new registry shares
// the same dispatcher instances, not copies of them.
func NewRegistryFrom(other *Registry) *Registry {
	r := NewRegistry()
	if other == nil {
		return r
	}
	other.mu.RLock()
	for name, s := range other.slots {
		r.slots[name] = s
	}
	other.mu.RUnlock()
	return r
}

// SetObserver routes the registry's events through obs. Nil restores the
// no-op observer.
func (r *Registry) SetObserver(obs observability.Observer) {
	if obs == nil {
		obs = observability.NoOpObserver{}
	}
	r.mu.Lock()
	r.observer = obs
	r.mu.Unlock()
}

// Register installs d under its category name. When killPrevious is set, an
// existing occupant of the category is killed before being displaced.
func (r *Registry) Register(d Slot, killPrevious bool) {
	if d == nil {
		return
	}
	name := d.Category().Name

	r.mu.Lock()
	prev := r.slots[name]
	r.slots[name] = d
	obs := r.observer
	r.mu.Unlock()

	if prev != nil && prev != d && killPrevious {
		prev.Kill()
	}
	observability.Emit(obs, EventRegister, observability.LevelVerbose, "registry", map[string]any{
		"category":      name,
		"kill_previous": killPrevious,
	})
}

// Replace swaps d in, killing the previous occupant of its category.
func (r *Registry) Replace(d Slot) {
	r.Register(d, true)
}

// Contains reports whether a dispatcher occupies the category.
func (r *Registry) Contains(category string) bool {
	r.mu.RLock()
	_, ok := r.slots[category]
	r.mu.RUnlock()
	return ok
}

// Get returns the dispatcher occupying the category, if any. Callers must
// check the second result before use.
func (r *Registry) Get(category string) (Slot, bool) {
	r.mu.RLock()
	s, ok := r.slots[category]
	r.mu.RUnlock()
	return s, ok
}

// Add routes each object to every dispatcher whose category accepts it and
// reports whether at least one dispatcher accepted at least one object.
// Objects nothing accepts are left untouched.
func (r *Registry) Add(objects ...Manageable) bool {
	added := false
	for _, m := range objects {
		if m == nil {
			continue
		}
		for _, s := range r.Dispatchers() {
			if !s.Category().Matches(m) {
				continue
			}
			if err := s.Admit(m); err != nil {
				continue
			}
			added = true
		}
	}

	r.mu.RLock()
	obs := r.observer
	r.mu.RUnlock()
	observability.Emit(obs, EventRoute, observability.LevelVerbose, "registry", map[string]any{
		"objects":  len(objects),
		"accepted": added,
	})
	return added
}

// Remove forwards a removal request to every dispatcher whose category
// accepts m.
func (r *Registry) Remove(m Manageable) {
	if m == nil {
		return
	}
	for _, s := range r.Dispatchers() {
		if s.Category().Matches(m) {
			s.Remove(m)
		}
	}
}

// SetEnabled toggles the enabled cell of the category's dispatcher. Unknown
// categories are ignored.
func (r *Registry) SetEnabled(category string, enabled bool) {
	if s, ok := r.Get(category); ok {
		s.SetActive(enabled)
	}
}

// SetAllEnabled toggles the enabled cell of every registered dispatcher.
func (r *Registry) SetAllEnabled(enabled bool) {
	for _, s := range r.Dispatchers() {
		s.SetActive(enabled)
	}
}

// Dispatchers returns a snapshot of the registered dispatchers ordered by
// category name. Changes to the slice do not affect the registry.
func (r *Registry) Dispatchers() []Slot {
	r.mu.RLock()
	names := make([]string, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Slot, 0, len(names))
	for _, name := range names {
		out = append(out, r.slots[name])
	}
	r.mu.RUnlock()
	return out
}
