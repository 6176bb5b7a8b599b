package scripthost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFireClientLoginInvokesRegisteredHooks(t *testing.T) {
	r := NewRegistry()
	var gotWorld interface{}
	var gotClient uint64
	r.OnClientLogin(func(g *Guard, clientStable uint64) {
		gotWorld = g.Value()
		gotClient = clientStable
	})

	world := "world-handle"
	r.FireClientLogin(world, 7)

	assert.Equal(t, world, gotWorld)
	assert.Equal(t, uint64(7), gotClient)
}

func TestGuardPanicsAfterInvocationFrame(t *testing.T) {
	r := NewRegistry()
	var captured *Guard
	r.OnTimerFired(func(g *Guard, timerID uint64) { captured = g })

	r.FireTimerFired("world", 1)
	require.NotNil(t, captured)

	assert.Panics(t, func() { captured.Value() })
}

func TestFireStructureImportRunsEveryHook(t *testing.T) {
	r := NewRegistry()
	var calls []uint64
	r.OnStructureImport(func(g *Guard, structureStable uint64) { calls = append(calls, structureStable) })
	r.OnStructureImport(func(g *Guard, structureStable uint64) { calls = append(calls, structureStable*10) })

	r.FireStructureImport("world", 3)

	assert.Equal(t, []uint64{3, 30}, calls)
}

func TestNilRegistryFiresNothing(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.FireClientLogin("world", 1)
		r.FireTimerFired("world", 1)
		r.FireStructureImport("world", 1)
		r.OnClientLogin(func(*Guard, uint64) {})
	})
}
