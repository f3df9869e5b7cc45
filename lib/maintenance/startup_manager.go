package maintenance

import "log/slog"

// StartupManager collects readiness reports from the components wired at boot and
// walks the state machine up to RUNNING once all of them are in.
type StartupManager struct {
	secrets_ready  bool
	ChanSecrets    chan bool
	services_ready bool
	ChanServices   chan bool
	gateway_seen   bool
	gateway_health bool
	ChanGateway    chan bool
}

func NewStartupManager() *StartupManager {
	return &StartupManager{
		ChanSecrets:  make(chan bool, 1),
		ChanServices: make(chan bool, 1),
		ChanGateway:  make(chan bool, 1),
	}
}

// Start consumes readiness reports until the service is running. ChanGateway carries
// the health of the first battle refresh and decides between SAFE and DEGRADED.
func (manager *StartupManager) Start(state_machine *StateMachine) {
	go func() {
		for {
			select {
			case ok := <-manager.ChanSecrets:
				if !ok {
					state_machine.To(MODE_INIT, STATE_FAILED, SUBSTATE_FAILED)
					return
				}
				if !manager.secrets_ready {
					manager.secrets_ready = true
					if err := state_machine.To(MODE_INIT, STATE_CONFIGURING, SUBSTATE_CONFIGURING_SERVICES); err != nil {
						slog.Error("Startup : cannot leave secrets configuration", "error", err)
						return
					}
				}
			case ok := <-manager.ChanServices:
				if !ok {
					state_machine.To(MODE_INIT, STATE_FAILED, SUBSTATE_FAILED)
					return
				}
				manager.services_ready = true
			case healthy := <-manager.ChanGateway:
				manager.gateway_seen = true
				manager.gateway_health = healthy
			}

			if manager.secrets_ready && manager.services_ready && manager.gateway_seen {
				substate := SUBSTATE_SAFE
				if !manager.gateway_health {
					substate = SUBSTATE_DEGRADED
				}
				if err := state_machine.To(MODE_OPERATIONAL, STATE_RUNNING, substate); err != nil {
					slog.Error("Startup : cannot reach running state", "error", err)
				}
				return
			}
		}
	}()
}

// ReportGateway records a refresh outcome without blocking when one is already queued.
func (manager *StartupManager) ReportGateway(healthy bool) {
	select {
	case manager.ChanGateway <- healthy:
	default:
	}
}
