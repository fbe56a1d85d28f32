// Command ticker is a small demonstration of the lifecycle kernel: a field of
// sprites drifts across a bounded plane while a janitor dispatcher retires
// the ones that wander off it. Dispatchers run behind a registry driven by
// the kernel runtime; everything observable goes through slog.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"

	"github.com/lifecycle-kit/kernel/handling"
	"github.com/lifecycle-kit/kernel/kernel"
	"github.com/lifecycle-kit/kernel/observability"
	"github.com/lifecycle-kit/kernel/state"
)

const fieldSize = 100.0

type sprite struct {
	*handling.Base
	name    string
	visible *state.Flag
	x, y    float64
	dx, dy  float64
}

func newSprite(name string) *sprite {
	return &sprite{
		Base:    handling.NewBase(),
		name:    name,
		visible: state.NewFlag(true, true),
		x:       rand.Float64() * fieldSize,
		y:       rand.Float64() * fieldSize,
		dx:      rand.Float64()*2 - 1,
		dy:      rand.Float64()*2 - 1,
	}
}

func (s *sprite) outOfBounds() bool {
	return s.x < 0 || s.x > fieldSize || s.y < 0 || s.y > fieldSize
}

var sprites = handling.NewCategory[*sprite]("sprites")

func main() {
	var (
		configFile = flag.String("config", "", "Path to runtime config JSON file (optional)")
		count      = flag.Int("count", 20, "Number of sprites to spawn")
		cycles     = flag.Int("cycles", 100, "Cycle budget; 0 runs until interrupted (overrides config)")
		interval   = flag.Int("interval", 50, "Milliseconds between cycles (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := kernel.DefaultConfig()
	if *configFile != "" {
		loaded, err := kernel.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	if *cycles >= 0 {
		cfg.MaxCycles = *cycles
	}
	if *interval > 0 {
		cfg.IntervalMillis = *interval
	}

	rt, err := kernel.New(&cfg, kernel.WithObserver(observability.NewSlogObserver(logger)))
	if err != nil {
		log.Fatalf("Failed to create runtime: %v", err)
	}

	movers := handling.New(sprites, handling.DefaultConfig(), func(s *sprite) bool {
		s.x += s.dx
		s.y += s.dy
		return true
	})
	janitor := handling.New(handling.Category{
		Name:    "janitor",
		Accepts: sprites.Accepts,
	}, handling.DefaultConfig(), func(s *sprite) bool {
		if s.outOfBounds() {
			logger.Debug("sprite left the field", "sprite", s.name, "x", s.x, "y", s.y)
			s.visible.SetState(false)
			s.Kill()
		}
		return true
	})

	rt.Registry().Register(movers, false)
	rt.Registry().Register(janitor, false)

	for i := 0; i < *count; i++ {
		rt.Registry().Add(newSprite(fmt.Sprintf("sprite-%02d", i)))
	}

	// Watch the population die down through a derived cell: true while at
	// least one live sprite is still visible.
	anyLeft := movers.ForAny(func(s *sprite) state.Cell { return s.visible }, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rt.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Runtime failed: %v", err)
	}

	m := movers.Metrics()
	fmt.Printf("Cycles: %d\n", rt.Cycles())
	fmt.Printf("Handled: %d, pruned: %d, remaining: %d\n", m.Handled, m.Pruned, movers.Size())
	fmt.Printf("Sprites still on the field: %v\n", anyLeft.State())
}
