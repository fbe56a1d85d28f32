// Package state implements boolean state cells with listener fan-out.
//
// The root primitive is Flag: a boolean whose mutability is fixed at
// construction and whose listeners, if any, are notified on every successful
// transition. The notification carries the pending value and runs before the
// cell commits it, so a listener that recomputes derived state mid-callback
// still sees the old value through State().
//
// On top of Flag the package builds:
//
//   - Latch: a one-way flag that refuses further writes once driven true,
//     used for "dead" semantics where death cannot be reversed.
//   - Logical: an AND or OR over a dynamic set of condition cells,
//     recomputed on every read and never cached.
//   - Dependent: a cell that mirrors a parent cell's value by subscribing
//     to its hub.
//   - Hub: the broadcaster behind Listeners(). Subscriptions use the same
//     staged commit semantics as handling.Dispatcher, so subscribing or
//     unsubscribing during a broadcast never corrupts the pass in progress.
//
// All cells are safe for use from multiple goroutines. Notification is
// synchronous and depth first: a listener's own re-broadcasts finish before
// control returns to the original setter.
package state
