package handling

import "github.com/lifecycle-kit/kernel/observability"

const (
	// Dispatcher lifecycle
	EventCycle    observability.EventType = "dispatcher.cycle"
	EventAdmit    observability.EventType = "dispatcher.admit"
	EventTransfer observability.EventType = "dispatcher.transfer"
	EventKill     observability.EventType = "dispatcher.kill"

	// Registry routing
	EventRegister observability.EventType = "registry.register"
	EventRoute    observability.EventType = "registry.route"
)
