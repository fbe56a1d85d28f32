// Package kernel implements the runtime loop that periodically drives every
// dispatcher registered with a handling.Registry: one Step commits staged
// membership changes and runs the handle action over each live, enabled
// member, dispatcher by dispatcher.
//
// The runtime initializes from configuration via New. Functional options
// allow test overrides of the registry and the observer.
//
//	rt, err := kernel.New(&cfg)
//	rt.Registry().Register(sprites, false)
//	err = rt.Run(ctx)
package kernel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lifecycle-kit/kernel/handling"
	"github.com/lifecycle-kit/kernel/observability"
)

// Option configures a Runtime after config-driven initialization.
// Applied by New after cold start, so overrides replace config-created
// defaults.
type Option func(*Runtime)

// WithRegistry overrides the config-created dispatcher registry.
func WithRegistry(r *handling.Registry) Option {
	return func(rt *Runtime) { rt.registry = r }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(rt *Runtime) { rt.observer = o }
}

// Runtime periodically runs handle cycles over a registry of dispatchers.
type Runtime struct {
	registry     *handling.Registry
	observer     observability.Observer
	interval     time.Duration
	maxCycles    int
	checkEnabled bool

	mu      sync.Mutex
	running bool
	cycles  int
}

// New creates a Runtime from configuration. A nil cfg uses the defaults.
func New(cfg *Config, opts ...Option) (*Runtime, error) {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = &defaults
	}

	observer, err := cfg.resolveObserver()
	if err != nil {
		observer = observability.NewSlogObserver(slog.Default())
	}

	rt := &Runtime{
		registry:     handling.NewRegistry(),
		observer:     observer,
		interval:     cfg.interval(),
		maxCycles:    cfg.MaxCycles,
		checkEnabled: cfg.CheckEnabled,
	}

	for _, opt := range opts {
		opt(rt)
	}

	rt.registry.SetObserver(rt.observer)
	return rt, nil
}

// Registry returns the runtime's dispatcher registry.
func (rt *Runtime) Registry() *handling.Registry { return rt.registry }

// Running reports whether a Run loop is currently active.
func (rt *Runtime) Running() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.running
}

// Cycles returns the number of completed Step passes.
func (rt *Runtime) Cycles() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.cycles
}

// Step runs one handle cycle over every live registered dispatcher and
// returns the number of dispatchers cycled. Dead dispatchers are skipped.
func (rt *Runtime) Step(ctx context.Context) int {
	cycled := 0
	for _, s := range rt.registry.Dispatchers() {
		if dead := s.DeadCell(); dead != nil && dead.State() {
			continue
		}
		s.RunCycle(rt.checkEnabled)
		cycled++
	}

	rt.mu.Lock()
	rt.cycles++
	total := rt.cycles
	rt.mu.Unlock()

	rt.observer.OnEvent(ctx, observability.Event{
		Type:      EventCycle,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "kernel.Step",
		Data: map[string]any{
			"cycle":       total,
			"dispatchers": cycled,
		},
	})
	return cycled
}

// Run drives Step on the configured interval until the context is cancelled
// or a non-zero cycle budget is spent. A bounded run that finishes its budget
// returns nil; cancellation returns the context's error. Only one Run may be
// active per Runtime at a time; concurrent calls return ErrAlreadyRunning.
func (rt *Runtime) Run(ctx context.Context) error {
	rt.mu.Lock()
	if rt.running {
		rt.mu.Unlock()
		return ErrAlreadyRunning
	}
	rt.running = true
	rt.mu.Unlock()

	defer func() {
		rt.mu.Lock()
		rt.running = false
		rt.mu.Unlock()
	}()

	rt.observer.OnEvent(ctx, observability.Event{
		Type:      EventRunStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "kernel.Run",
		Data: map[string]any{
			"interval_millis": rt.interval.Milliseconds(),
			"max_cycles":      rt.maxCycles,
			"dispatchers":     len(rt.registry.Dispatchers()),
		},
	})

	ticker := time.NewTicker(rt.interval)
	defer ticker.Stop()

	completed := 0
	for {
		select {
		case <-ctx.Done():
			rt.emitComplete(ctx, completed, ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			rt.Step(ctx)
			completed++
			if rt.maxCycles > 0 && completed >= rt.maxCycles {
				rt.emitComplete(ctx, completed, nil)
				return nil
			}
		}
	}
}

func (rt *Runtime) emitComplete(ctx context.Context, completed int, cause error) {
	data := map[string]any{"cycles": completed}
	if cause != nil {
		data["cause"] = cause.Error()
	}
	rt.observer.OnEvent(ctx, observability.Event{
		Type:      EventRunComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "kernel.Run",
		Data:      data,
	})
}
