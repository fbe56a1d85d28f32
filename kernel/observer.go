package kernel

import "github.com/lifecycle-kit/kernel/observability"

// Runtime event types emitted during the cycle loop.
const (
	EventRunStart    observability.EventType = "kernel.run.start"
	EventRunComplete observability.EventType = "kernel.run.complete"
	EventCycle       observability.EventType = "kernel.cycle"
)
