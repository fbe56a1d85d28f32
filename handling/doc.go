// Package handling maintains staged collections of manageable objects and
// runs periodic handle cycles over them.
//
// A Manageable object exposes a death cell and a map of per-category enable
// cells. A Dispatcher owns one such collection for one category: additions
// and removals are staged in pending queues with their own locks and
// committed between cycles, so a pass in progress is never corrupted and
// producers on other goroutines are never blocked by it. Dead members are
// pruned automatically; no destructor call is needed.
//
// A Registry multiplexes dispatchers by category, at most one per category
// name, and routes each new object to every dispatcher whose category
// accepts it.
//
// # Basic usage
//
//	type Sprite struct {
//		*handling.Base
//		X, Y int
//	}
//
//	var drawables = handling.NewCategory[*Sprite]("drawables")
//
//	d := handling.New(drawables, handling.DefaultConfig(), func(s *Sprite) bool {
//		s.X++
//		return true
//	})
//
//	registry := handling.NewRegistry(d)
//	registry.Add(&Sprite{Base: handling.NewBase()})
//
//	for range ticker.C {
//		d.RunCycle(true)
//	}
//
// Dispatchers are themselves Manageable, so a dispatcher can be nested
// inside another and enabled or disabled as a unit through SetActive.
package handling
