package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecycle-kit/kernel/state"
)

func TestDependent_CopiesInitialValue(t *testing.T) {
	parent := state.NewFlag(true, true)
	d := state.NewDependent(parent)

	assert.True(t, d.State())
}

func TestDependent_MirrorsParent(t *testing.T) {
	parent := state.NewFlag(false, true)
	d := state.NewDependent(parent)

	parent.SetState(true)
	assert.True(t, d.State())

	parent.SetState(false)
	assert.False(t, d.State())
}

func TestDependent_MirroredBeforeSetStateReturns(t *testing.T) {
	parent := state.NewFlag(false, true)
	d := state.NewDependent(parent)

	var mirroredDuringNotify bool
	parent.Listeners().Subscribe(state.ListenerFunc(func(source state.Cell, next bool) {
		// The dependent subscribed first, so by the time this listener
		// runs the mirror has already been updated.
		mirroredDuringNotify = d.State()
	}))

	parent.SetState(true)

	assert.True(t, mirroredDuringNotify, "mirror must update before the parent's SetState returns")
}

func TestDependent_CascadesToOwnListeners(t *testing.T) {
	parent := state.NewFlag(false, true)
	d := state.NewDependent(parent)

	var got []bool
	var src state.Cell
	d.Listeners().Subscribe(state.ListenerFunc(func(source state.Cell, next bool) {
		got = append(got, next)
		src = source
	}))

	parent.SetState(true)

	require.Equal(t, []bool{true}, got)
	assert.Same(t, d, src, "cascade must name the dependent as its source")
}

func TestDependent_NilParent(t *testing.T) {
	d := state.NewDependent(nil)
	assert.False(t, d.State())
	assert.True(t, d.Mutable())
}

func TestDependent_Detach(t *testing.T) {
	parent := state.NewFlag(false, true)
	d := state.NewDependent(parent)

	d.Detach()

	parent.SetState(true)
	assert.False(t, d.State(), "detached mirror must keep its last value")
	assert.True(t, parent.Listeners().IsEmpty(), "detach must drop the subscription")
}

func TestDetachedDependent_ManualMode(t *testing.T) {
	d := state.NewDetachedDependent(true)

	assert.True(t, d.State())
	assert.False(t, d.Mutable())

	// External writes are rejected in manual mode.
	d.SetState(false)
	assert.True(t, d.State())

	// The only way in is a state-change notification.
	d.OnStateChange(nil, false)
	assert.False(t, d.State())
}

func TestDetachedDependent_WiredToHubByHand(t *testing.T) {
	parent := state.NewFlag(false, true)
	d := state.NewDetachedDependent(false)

	parent.Listeners().Subscribe(d)

	parent.SetState(true)
	assert.True(t, d.State())
}

func TestDependent_ChainedMirrors(t *testing.T) {
	root := state.NewFlag(false, true)
	mid := state.NewDependent(root)
	leaf := state.NewDependent(mid)

	root.SetState(true)

	assert.True(t, mid.State())
	assert.True(t, leaf.State(), "mirror chains must propagate depth first")
}
