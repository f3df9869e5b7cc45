package maintenance

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type Mode int
type State int
type SubState int

const (
	MODE_INIT Mode = iota
	MODE_OPERATIONAL
)

const (
	STATE_CONFIGURING State = iota
	STATE_RUNNING
	STATE_FAILED
)

const (
	SUBSTATE_CONFIGURING_SECRETS  SubState = iota // Vault or environment secrets
	SUBSTATE_CONFIGURING_SERVICES                 // Cache, database, ledger gateway, wallet connector
	SUBSTATE_SAFE                                 // Ledger gateway answering
	SUBSTATE_DEGRADED                             // Last battle refresh failed
	SUBSTATE_FAILED
)

var ErrInvalidMSSTransition = errors.New("invalid mode state substate transition")

type MSS struct {
	mode     Mode
	state    State
	substate SubState
}

type MSSTransition struct {
	From MSS
	To   MSS
}

var (
	mss_secrets  = MSS{MODE_INIT, STATE_CONFIGURING, SUBSTATE_CONFIGURING_SECRETS}
	mss_services = MSS{MODE_INIT, STATE_CONFIGURING, SUBSTATE_CONFIGURING_SERVICES}
	mss_safe     = MSS{MODE_OPERATIONAL, STATE_RUNNING, SUBSTATE_SAFE}
	mss_degraded = MSS{MODE_OPERATIONAL, STATE_RUNNING, SUBSTATE_DEGRADED}
)

var transitions = map[MSSTransition]struct{}{
	{mss_secrets, mss_services}:  {},
	{mss_services, mss_safe}:     {},
	{mss_services, mss_degraded}: {},
	{mss_safe, mss_degraded}:     {},
	{mss_degraded, mss_safe}:     {},
}

func (mode Mode) String() string {
	switch mode {
	case MODE_INIT:
		return "INIT"
	case MODE_OPERATIONAL:
		return "OPERATIONAL"
	}
	return "UNKNOWN"
}

func (state State) String() string {
	switch state {
	case STATE_CONFIGURING:
		return "CONFIGURING"
	case STATE_RUNNING:
		return "RUNNING"
	case STATE_FAILED:
		return "FAILED"
	}
	return "UNKNOWN"
}

func (substate SubState) String() string {
	switch substate {
	case SUBSTATE_CONFIGURING_SECRETS:
		return "CONFIGURING_SECRETS"
	case SUBSTATE_CONFIGURING_SERVICES:
		return "CONFIGURING_SERVICES"
	case SUBSTATE_SAFE:
		return "SAFE"
	case SUBSTATE_DEGRADED:
		return "DEGRADED"
	case SUBSTATE_FAILED:
		return "FAILED"
	}
	return "UNKNOWN"
}

// StateMachine tracks the service lifecycle. Callbacks registered with When run in
// their own goroutine once the matching triple is reached.
type StateMachine struct {
	mode     Mode
	state    State
	substate SubState

	signals map[MSS][]func()

	mutex sync.RWMutex
}

func NewStateMachine() *StateMachine {
	return &StateMachine{
		mode:     MODE_INIT,
		state:    STATE_CONFIGURING,
		substate: SUBSTATE_CONFIGURING_SECRETS,
		signals:  make(map[MSS][]func()),
	}
}

func (state_machine *StateMachine) Get() (Mode, State, SubState) {
	state_machine.mutex.RLock()
	defer state_machine.mutex.RUnlock()

	return state_machine.mode, state_machine.state, state_machine.substate
}

func (state_machine *StateMachine) To(mode Mode, state State, substate SubState) error {
	state_machine.mutex.Lock()
	defer state_machine.mutex.Unlock()

	current := MSS{state_machine.mode, state_machine.state, state_machine.substate}
	if _, ok := transitions[MSSTransition{current, MSS{mode, state, substate}}]; ok {
		state_machine.accept(mode, state, substate)
		return nil
	}
	if state == STATE_FAILED || substate == SUBSTATE_FAILED {
		state_machine.accept(mode, STATE_FAILED, SUBSTATE_FAILED)
		return nil
	}
	slog.Warn("MSS : Invalid mode state substate transition", "mode", mode.String(), "state", state.String(), "substate", substate.String())
	return fmt.Errorf("%w: %s/%s/%s", ErrInvalidMSSTransition, mode, state, substate)
}

// Track moves a running service between SAFE and DEGRADED following the ledger
// gateway health. It does nothing before the service is running.
func (state_machine *StateMachine) Track(healthy bool) {
	mode, state, substate := state_machine.Get()
	if mode != MODE_OPERATIONAL || state != STATE_RUNNING {
		return
	}
	if healthy && substate == SUBSTATE_DEGRADED {
		state_machine.To(MODE_OPERATIONAL, STATE_RUNNING, SUBSTATE_SAFE)
	} else if !healthy && substate == SUBSTATE_SAFE {
		state_machine.To(MODE_OPERATIONAL, STATE_RUNNING, SUBSTATE_DEGRADED)
	}
}

// accept must be called with the mutex held.
func (state_machine *StateMachine) accept(mode Mode, state State, substate SubState) {
	if signals, ok := state_machine.signals[MSS{mode: mode, state: state, substate: substate}]; ok {
		for _, signal := range signals {
			go signal()
		}
	}

	state_machine.mode = mode
	state_machine.state = state
	state_machine.substate = substate
	slog.Info("MSS : transition done", "mode", mode.String(), "state", state.String(), "substate", substate.String())
}

func (state_machine *StateMachine) When(mode Mode, state State, substate SubState, callback func()) {
	state_machine.mutex.Lock()
	defer state_machine.mutex.Unlock()

	key := MSS{mode: mode, state: state, substate: substate}
	state_machine.signals[key] = append(state_machine.signals[key], callback)
}
