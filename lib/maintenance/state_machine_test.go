package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineTransitions(t *testing.T) {
	state_machine := NewStateMachine()

	err := state_machine.To(MODE_OPERATIONAL, STATE_RUNNING, SUBSTATE_SAFE)
	assert.ErrorIs(t, err, ErrInvalidMSSTransition)

	require.NoError(t, state_machine.To(MODE_INIT, STATE_CONFIGURING, SUBSTATE_CONFIGURING_SERVICES))
	require.NoError(t, state_machine.To(MODE_OPERATIONAL, STATE_RUNNING, SUBSTATE_SAFE))
	require.NoError(t, state_machine.To(MODE_OPERATIONAL, STATE_RUNNING, SUBSTATE_DEGRADED))
	require.NoError(t, state_machine.To(MODE_OPERATIONAL, STATE_RUNNING, SUBSTATE_SAFE))

	require.NoError(t, state_machine.To(MODE_OPERATIONAL, STATE_FAILED, SUBSTATE_SAFE))
	mode, state, substate := state_machine.Get()
	assert.Equal(t, MODE_OPERATIONAL, mode)
	assert.Equal(t, STATE_FAILED, state)
	assert.Equal(t, SUBSTATE_FAILED, substate)
}

func TestStateMachineTrack(t *testing.T) {
	state_machine := NewStateMachine()
	state_machine.Track(false)
	_, _, substate := state_machine.Get()
	assert.Equal(t, SUBSTATE_CONFIGURING_SECRETS, substate)

	require.NoError(t, state_machine.To(MODE_INIT, STATE_CONFIGURING, SUBSTATE_CONFIGURING_SERVICES))
	require.NoError(t, state_machine.To(MODE_OPERATIONAL, STATE_RUNNING, SUBSTATE_SAFE))

	state_machine.Track(false)
	_, _, substate = state_machine.Get()
	assert.Equal(t, SUBSTATE_DEGRADED, substate)

	state_machine.Track(false)
	state_machine.Track(true)
	_, _, substate = state_machine.Get()
	assert.Equal(t, SUBSTATE_SAFE, substate)
}

func TestStateMachineWhen(t *testing.T) {
	state_machine := NewStateMachine()
	reached := make(chan struct{})
	state_machine.When(MODE_INIT, STATE_CONFIGURING, SUBSTATE_CONFIGURING_SERVICES, func() { close(reached) })

	require.NoError(t, state_machine.To(MODE_INIT, STATE_CONFIGURING, SUBSTATE_CONFIGURING_SERVICES))
	select {
	case <-reached:
	case <-time.After(time.Second):
		t.Fatal("callback not fired")
	}
}

func TestStartupManager(t *testing.T) {
	state_machine := NewStateMachine()
	running := make(chan struct{})
	state_machine.When(MODE_OPERATIONAL, STATE_RUNNING, SUBSTATE_DEGRADED, func() { close(running) })

	manager := NewStartupManager()
	manager.Start(state_machine)
	manager.ReportGateway(false)
	manager.ChanServices <- true
	manager.ChanSecrets <- true

	select {
	case <-running:
	case <-time.After(time.Second):
		t.Fatal("service never reached running")
	}
	mode, state, _ := state_machine.Get()
	assert.Equal(t, MODE_OPERATIONAL, mode)
	assert.Equal(t, STATE_RUNNING, state)
}
