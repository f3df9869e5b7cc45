package battles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	registry := NewRegistry(SessionDeps{Gateway: seededGateway()}, time.Minute)

	first := registry.Open("0xB")
	second := registry.Open("0xB")
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, STAGE_DORMANT, first.Stage())
	assert.Equal(t, 2, registry.Len())

	got, err := registry.Get(first.ID())
	require.NoError(t, err)
	assert.Same(t, first, got)

	require.NoError(t, registry.Close(first.ID()))
	_, err = registry.Get(first.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, registry.Close(first.ID()), ErrSessionNotFound)
}

func TestRegistrySweep(t *testing.T) {
	registry := NewRegistry(SessionDeps{Gateway: seededGateway()}, time.Minute)
	session := registry.Open("0xB")

	assert.Equal(t, 0, registry.Sweep(time.Now()))
	assert.Equal(t, 1, registry.Sweep(time.Now().Add(2*time.Minute)))

	_, err := registry.Get(session.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistrySessionsDoNotShareDeps(t *testing.T) {
	registry := NewRegistry(SessionDeps{Gateway: seededGateway()}, time.Minute)
	first := registry.Open("0x1")
	second := registry.Open("0x2")

	assert.NotSame(t, first.deps, second.deps)
	assert.Equal(t, "0x1", first.BattleID())
	assert.Equal(t, "0x2", second.BattleID())
}
