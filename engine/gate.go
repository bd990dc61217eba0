package engine

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// State is the execution gate state.
type State string

const (
	StateUncalculated State = "Uncalculated"
	StateScanning     State = "Scanning"
	StateCalculated   State = "Calculated"
	StateStale        State = "Stale"
	StateExecuting    State = "Executing"
	StateExecuted     State = "Executed"
	StateFailed       State = "Failed"
)

const (
	eventScan       = "scan"
	eventScanned    = "scanned"
	eventInvalidate = "invalidate"
	eventCalculate  = "calculate"
	eventExecute    = "execute"
	eventExecuted   = "executed"
	eventFail       = "fail"
	eventReset      = "reset"
)

func states(s ...State) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}

// newGate creates the state machine guarding plan execution. Only a plan in
// Calculated (or Failed, for a retry) may move to Executing.
func newGate() *fsm.FSM {
	return fsm.NewFSM(
		string(StateUncalculated),
		fsm.Events{
			{
				Name: eventScan,
				Src:  states(StateUncalculated, StateCalculated, StateStale, StateExecuted, StateFailed),
				Dst:  string(StateScanning),
			},
			{
				Name: eventScanned,
				Src:  states(StateScanning),
				Dst:  string(StateCalculated),
			},
			{
				Name: eventInvalidate,
				Src:  states(StateCalculated, StateFailed),
				Dst:  string(StateStale),
			},
			{
				Name: eventCalculate,
				Src:  states(StateStale, StateCalculated, StateFailed),
				Dst:  string(StateCalculated),
			},
			{
				Name: eventExecute,
				Src:  states(StateCalculated, StateFailed),
				Dst:  string(StateExecuting),
			},
			{
				Name: eventExecuted,
				Src:  states(StateExecuting),
				Dst:  string(StateExecuted),
			},
			{
				Name: eventFail,
				Src:  states(StateExecuting),
				Dst:  string(StateFailed),
			},
			{
				Name: eventReset,
				Src: states(StateUncalculated, StateScanning, StateCalculated, StateStale,
					StateExecuting, StateExecuted, StateFailed),
				Dst: string(StateUncalculated),
			},
		},
		fsm.Callbacks{},
	)
}

// fire triggers event. A transition to the current state is not an error.
func fire(gate *fsm.FSM, event string) error {
	err := gate.Event(context.Background(), event)
	var same fsm.NoTransitionError
	if errors.As(err, &same) {
		return nil
	}
	return err
}
