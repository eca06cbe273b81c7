package report

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration. The two resting states must stay
// equal to the Mode values.
const (
	StateFiltered      = "filtered"
	StateFull          = "full"
	StateTransitioning = "transitioning"
)

// Events accepted by the mode machine.
const (
	EventFetchFull      = "fetch_full"
	EventFetchSucceeded = "fetch_succeeded"
	EventFetchFailed    = "fetch_failed"
	EventUseCachedFull  = "use_cached_full"
	EventShowFiltered   = "show_filtered"
)

func init() {
	if StateFiltered != string(ModeFiltered) || StateFull != string(ModeFull) {
		panic(fmt.Sprintf("mode FSM states %q/%q out of sync with modes %q/%q",
			StateFiltered, StateFull, ModeFiltered, ModeFull))
	}
}

// ModeContext carries state data for the machine.
type ModeContext struct {
	Timestamp string
}

// ModeStateMachine tracks Filtered, Full and the in-flight Transitioning
// state. It is not safe for concurrent use; the controller serialises access.
type ModeStateMachine struct {
	interpreter *statekit.Interpreter[ModeContext]
}

// NewModeStateMachine starts a machine in the filtered state.
func NewModeStateMachine(timestamp string) (*ModeStateMachine, error) {
	builder := statekit.NewMachine[ModeContext]("dataset-mode").
		WithInitial(statekit.StateID(StateFiltered)).
		WithContext(ModeContext{Timestamp: timestamp})

	builder.State(StateFiltered).
		On(EventFetchFull).Target(StateTransitioning).
		On(EventUseCachedFull).Target(StateFull).
		Done()

	builder.State(StateTransitioning).
		On(EventFetchSucceeded).Target(StateFull).
		On(EventFetchFailed).Target(StateFiltered).
		Done()

	builder.State(StateFull).
		On(EventShowFiltered).Target(StateFiltered).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build mode machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &ModeStateMachine{interpreter: interpreter}, nil
}

// Fire sends an event and fails when the machine did not move.
func (sm *ModeStateMachine) Fire(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if sm.Current() != before {
		return nil
	}
	return fmt.Errorf("event %q is not allowed in the %q state", event, before)
}

// Current returns the current state id.
func (sm *ModeStateMachine) Current() string {
	return string(sm.interpreter.State().Value)
}

// Transitioning reports whether a fetch is in flight.
func (sm *ModeStateMachine) Transitioning() bool {
	return sm.Current() == StateTransitioning
}

// Mode returns the resting mode. While transitioning the source mode,
// filtered, is still the one on screen.
func (sm *ModeStateMachine) Mode() Mode {
	if sm.Current() == StateFull {
		return ModeFull
	}
	return ModeFiltered
}
