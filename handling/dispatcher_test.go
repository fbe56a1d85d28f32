package handling_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/lifecycle-kit/kernel/handling"
	"github.com/lifecycle-kit/kernel/state"
)

// actor is the manageable test double used across the package tests.
type actor struct {
	*handling.Base
	name    string
	handled int
	ready   *state.Flag
}

func newActor(name string) *actor {
	return &actor{
		Base:  handling.NewBase(),
		name:  name,
		ready: state.NewFlag(false, true),
	}
}

var actors = handling.NewCategory[*actor]("actors")

func countingDispatcher() *handling.Dispatcher[*actor] {
	return handling.New(actors, handling.DefaultConfig(), func(a *actor) bool {
		a.handled++
		return true
	})
}

func TestDispatcher_EnqueueMembershipImmediate(t *testing.T) {
	d := countingDispatcher()
	a := newActor("a")

	d.Enqueue(a)

	assert.True(t, d.Contains(a), "membership is observable before the commit")
	assert.Equal(t, 1, d.Size())
	assert.Equal(t, 0, a.handled, "staging alone must not invoke the action")
}

func TestDispatcher_OpeningCommitMakesPendingEligible(t *testing.T) {
	d := countingDispatcher()
	a := newActor("a")

	d.Enqueue(a)
	d.RunCycle(true)

	assert.Equal(t, 1, a.handled, "the commit at the top of the cycle promotes pending members")

	d.RunCycle(true)
	assert.Equal(t, 2, a.handled)
}

func TestDispatcher_EnqueueDuringCycleDeferred(t *testing.T) {
	late := newActor("late")
	var d *handling.Dispatcher[*actor]
	d = handling.New(actors, handling.DefaultConfig(), func(a *actor) bool {
		a.handled++
		d.Enqueue(late)
		return true
	})

	d.Enqueue(newActor("first"))
	d.RunCycle(true)
	assert.Equal(t, 0, late.handled, "an object enqueued mid-cycle must wait for the next cycle")

	d.RunCycle(true)
	assert.Equal(t, 1, late.handled)
}

func TestDispatcher_EnqueueIdempotent(t *testing.T) {
	d := countingDispatcher()
	a := newActor("a")

	d.Enqueue(a)
	d.Enqueue(a)
	assert.Equal(t, 1, d.Size())

	d.RunCycle(true)
	d.Enqueue(a)
	assert.Equal(t, 1, d.Size())
	assert.Equal(t, 1, a.handled)
}

func TestDispatcher_EnqueueZeroIgnored(t *testing.T) {
	d := countingDispatcher()
	d.Enqueue(nil)
	assert.True(t, d.IsEmpty())
}

func TestDispatcher_CancelBeforeCommit(t *testing.T) {
	d := countingDispatcher()
	a := newActor("a")

	d.Enqueue(a)
	d.Remove(a)

	assert.False(t, d.Contains(a))
	assert.Equal(t, 0, d.Size())

	d.RunCycle(true)
	assert.Equal(t, 0, a.handled)
}

func TestDispatcher_RemoveActive(t *testing.T) {
	d := countingDispatcher()
	a := newActor("a")

	d.Enqueue(a)
	d.RunCycle(true)
	require.Equal(t, 1, a.handled)

	d.Remove(a)
	d.RunCycle(true)

	assert.Equal(t, 1, a.handled, "a removed member must not be acted on")
	assert.False(t, d.Contains(a))
}

func TestDispatcher_RemoveAll(t *testing.T) {
	d := countingDispatcher()
	a, b := newActor("a"), newActor("b")

	d.Enqueue(a)
	d.RunCycle(true)
	d.Enqueue(b) // still pending

	d.RemoveAll()
	d.RunCycle(true)

	assert.Equal(t, 0, d.Size())
	assert.Equal(t, 1, a.handled)
	assert.Equal(t, 0, b.handled, "pending additions are cancelled by RemoveAll")
}

func TestDispatcher_DeadMembersPruned(t *testing.T) {
	d := countingDispatcher()
	a, b := newActor("a"), newActor("b")

	d.Enqueue(a)
	d.Enqueue(b)
	d.RunCycle(true)

	a.Kill()
	d.RunCycle(true)

	assert.Equal(t, 1, a.handled, "a dead member must never be acted on again")
	assert.Equal(t, 2, b.handled)
	assert.False(t, d.Contains(a), "pruning takes effect by the end of the cycle that discovered it")
	assert.Equal(t, 1, d.Size())
}

func TestDispatcher_DeadPrunedEvenWhenDisabled(t *testing.T) {
	d := countingDispatcher()
	a := newActor("a")

	d.Enqueue(a)
	d.RunCycle(true)

	a.HandlingCells().Cell(actors.Name).SetState(false)
	a.Kill()
	d.RunCycle(true)

	assert.False(t, d.Contains(a), "pruning ignores the enabled flag")
}

func TestDispatcher_StopSignal(t *testing.T) {
	var order []string
	d := handling.New(actors, handling.DefaultConfig(), func(a *actor) bool {
		order = append(order, a.name)
		a.handled++
		return a.name != "b"
	})

	a, b, c := newActor("a"), newActor("b"), newActor("c")
	d.Enqueue(a)
	d.Enqueue(b)
	d.Enqueue(c)
	d.RunCycle(true)

	assert.Equal(t, []string{"a", "b"}, order, "the stop signal halts the action for the rest of the pass")
	assert.Equal(t, 0, c.handled)
	assert.True(t, d.Contains(c), "members past the stop point stay active")

	// The stop signal does not outlive the pass.
	d.RunCycle(true)
	assert.Equal(t, []string{"a", "b", "a", "b"}, order)
}

func TestDispatcher_StopSignalStillPrunes(t *testing.T) {
	d := handling.New(actors, handling.DefaultConfig(), func(a *actor) bool {
		a.handled++
		return false
	})

	a, b := newActor("a"), newActor("b")
	b.Kill()
	d.Enqueue(a)
	d.Enqueue(b)
	d.RunCycle(true)

	assert.Equal(t, 1, a.handled)
	assert.Equal(t, 0, b.handled)
	assert.False(t, d.Contains(b), "pruning continues after the stop signal")
}

func TestDispatcher_CheckEnabled(t *testing.T) {
	d := countingDispatcher()
	a := newActor("a")

	d.Enqueue(a)
	a.HandlingCells().Cell(actors.Name).SetState(false)

	d.RunCycle(true)
	assert.Equal(t, 0, a.handled, "disabled members are skipped when checkEnabled is set")

	d.RunCycle(false)
	assert.Equal(t, 1, a.handled, "checkEnabled=false acts on disabled members too")
}

func TestDispatcher_SetActive(t *testing.T) {
	d := countingDispatcher()

	assert.True(t, d.EnabledCell().State())
	d.SetActive(false)
	assert.False(t, d.EnabledCell().State())
	d.SetActive(true)
	assert.True(t, d.EnabledCell().State())
}

func TestDispatcher_SetActiveImmutableByConfig(t *testing.T) {
	cfg := handling.DefaultConfig()
	cfg.EnabledMutable = false

	d := handling.New(actors, cfg, func(a *actor) bool { return true })

	d.SetActive(false)
	assert.True(t, d.EnabledCell().State(), "config can pin the enabled cell")
}

func TestDispatcher_Nested(t *testing.T) {
	inner := countingDispatcher()
	a := newActor("a")
	inner.Enqueue(a)

	inners := handling.NewCategory[*handling.Dispatcher[*actor]]("actor-dispatchers")
	outer := handling.New(inners, handling.DefaultConfig(), func(d *handling.Dispatcher[*actor]) bool {
		d.RunCycle(true)
		return true
	})

	outer.Enqueue(inner)
	outer.RunCycle(true)
	assert.Equal(t, 1, a.handled)

	// Disabling the inner dispatcher stops the outer one from driving it.
	inner.SetActive(false)
	outer.RunCycle(true)
	assert.Equal(t, 1, a.handled)
}

func TestDispatcher_TransferFrom(t *testing.T) {
	src := countingDispatcher()
	dst := countingDispatcher()

	a, b := newActor("a"), newActor("b")
	src.Enqueue(a)
	src.RunCycle(true)
	src.Enqueue(b) // pending at transfer time

	dst.TransferFrom(src)

	assert.True(t, dst.Contains(a))
	assert.True(t, dst.Contains(b))

	src.RunCycle(true)
	dst.RunCycle(true)
	assert.False(t, src.Contains(a))
	assert.False(t, src.Contains(b))
	assert.Equal(t, 2, a.handled, "one cycle in src before transfer, one in dst after")
}

func TestDispatcher_TransferFromSelfAndNil(t *testing.T) {
	d := countingDispatcher()
	d.Enqueue(newActor("a"))

	d.TransferFrom(d)
	d.TransferFrom(nil)

	assert.Equal(t, 1, d.Size())
}

func TestDispatcher_Sort(t *testing.T) {
	var order []string
	d := handling.New(actors, handling.DefaultConfig(), func(a *actor) bool {
		order = append(order, a.name)
		return true
	})

	d.Enqueue(newActor("c"))
	d.Enqueue(newActor("a"))
	d.Enqueue(newActor("b"))

	d.Sort(func(x, y *actor) bool { return x.name < y.name })
	d.RunCycle(true)

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDispatcher_Kill(t *testing.T) {
	d := countingDispatcher()
	a, b := newActor("a"), newActor("b")

	d.Enqueue(a)
	d.RunCycle(true)
	d.Enqueue(b)

	d.Kill()

	assert.True(t, d.DeadCell().State())
	assert.Equal(t, 0, d.Size())
	assert.True(t, a.DeadCell().State(), "killing a dispatcher kills its live members")

	d.Enqueue(newActor("late"))
	assert.Equal(t, 0, d.Size(), "a dead dispatcher discards enqueue requests")

	d.RunCycle(true)
	assert.Equal(t, 1, a.handled)
}

func TestDispatcher_KillViaDeadCell(t *testing.T) {
	d := countingDispatcher()
	d.Enqueue(newActor("a"))
	d.RunCycle(true)

	d.DeadCell().SetState(true)

	assert.Equal(t, 0, d.Size())
}

func TestDispatcher_Admit(t *testing.T) {
	d := countingDispatcher()
	a := newActor("a")

	require.NoError(t, d.Admit(a))
	assert.True(t, d.Contains(a))

	err := d.Admit(newActor("dup")) // fine, right type
	require.NoError(t, err)

	err = d.Admit(stranger{})
	require.Error(t, err)
	assert.ErrorIs(t, err, handling.ErrWrongType)

	assert.NoError(t, d.Admit(nil))
}

// stranger is manageable but not an *actor.
type stranger struct{}

func (stranger) DeadCell() state.Cell             { return state.NewLatch(false) }
func (stranger) HandlingCells() *handling.CellMap { return handling.NewCellMap(nil) }

func TestDispatcher_Metrics(t *testing.T) {
	d := countingDispatcher()
	a, b := newActor("a"), newActor("b")

	d.Enqueue(a)
	d.Enqueue(b)
	d.RunCycle(true)
	a.Kill()
	d.RunCycle(true)

	m := d.Metrics()
	assert.Equal(t, int64(2), m.Cycles)
	assert.Equal(t, int64(3), m.Handled)
	assert.Equal(t, int64(1), m.Pruned)
	assert.Equal(t, int64(2), m.Admitted)
}

func TestDispatcher_ConcurrentProducers(t *testing.T) {
	const (
		producers = 8
		perWorker = 100
	)

	d := countingDispatcher()

	var g errgroup.Group
	for p := 0; p < producers; p++ {
		p := p
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				d.Enqueue(newActor(fmt.Sprintf("%d-%d", p, i)))
				if i%10 == 0 {
					d.RunCycle(true)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	d.RunCycle(true)
	assert.Equal(t, producers*perWorker, d.Size())
}
