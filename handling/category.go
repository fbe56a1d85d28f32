package handling

// Category pairs a name with a predicate for the objects a dispatcher of
// that category accepts. A Registry holds at most one dispatcher per
// category name; the predicate replaces open-ended runtime type
// introspection with a tag the category owns.
type Category struct {
	// Name is the category's identity within a Registry and a CellMap.
	Name string
	// Accepts reports whether the category's dispatchers can hold m.
	Accepts func(m Manageable) bool
}

// NewCategory builds a category named name accepting exactly the values
// assertable to T.
func NewCategory[T Manageable](name string) Category {
	return Category{
		Name: name,
		Accepts: func(m Manageable) bool {
			_, ok := m.(T)
			return ok
		},
	}
}

// Matches reports whether m is acceptable to this category.
func (c Category) Matches(m Manageable) bool {
	return m != nil && c.Accepts != nil && c.Accepts(m)
}
