package handling

import "sync/atomic"

// MetricsSnapshot is a point-in-time copy of a dispatcher's counters.
type MetricsSnapshot struct {
	Cycles   int64
	Handled  int64
	Pruned   int64
	Admitted int64
	Evicted  int64
}

// Metrics tracks per-dispatcher operational counters.
type Metrics struct {
	cycles   atomic.Int64
	handled  atomic.Int64
	pruned   atomic.Int64
	admitted atomic.Int64
	evicted  atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordCycle(delta int) {
	m.cycles.Add(int64(delta))
}

func (m *Metrics) RecordHandled(delta int) {
	m.handled.Add(int64(delta))
}

func (m *Metrics) RecordPruned(delta int) {
	m.pruned.Add(int64(delta))
}

func (m *Metrics) RecordAdmitted(delta int) {
	m.admitted.Add(int64(delta))
}

func (m *Metrics) RecordEvicted(delta int) {
	m.evicted.Add(int64(delta))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Cycles:   m.cycles.Load(),
		Handled:  m.handled.Load(),
		Pruned:   m.pruned.Load(),
		Admitted: m.admitted.Load(),
		Evicted:  m.evicted.Load(),
	}
}
