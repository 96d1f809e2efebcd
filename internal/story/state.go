package story

import (
	"fmt"

	"github.com/inkfable/storyloom/internal/types"
)

// State is the pair the progression machine transitions over: session phase
// plus traits-gate status. The gate can only be opened from arc_stepping, so
// combinations like an ending phase with an open gate cannot be produced
// through these transitions.
type State struct {
	Phase    types.Phase
	GateOpen bool
}

// StateOf derives the machine state from a session record.
func StateOf(s *types.Session) State {
	return State{Phase: s.Phase, GateOpen: s.PendingTraits != nil}
}

// SelectType records a story type choice. Re-selection before the first
// beat is allowed.
func (s State) SelectType() (State, error) {
	if s.GateOpen {
		return s, fmt.Errorf("%w: gate open in %s", ErrWrongPhase, s.Phase)
	}
	switch s.Phase {
	case types.PhaseWarmup, types.PhaseTypeSelected:
		return State{Phase: types.PhaseTypeSelected}, nil
	default:
		return s, fmt.Errorf("%w: cannot select story type in %s", ErrWrongPhase, s.Phase)
	}
}

// BeginStepping moves into the arc after the first beat narrates.
func (s State) BeginStepping() (State, error) {
	if s.Phase != types.PhaseTypeSelected || s.GateOpen {
		return s, fmt.Errorf("%w: cannot begin stepping in %s", ErrWrongPhase, s.Phase)
	}
	return State{Phase: types.PhaseArcStepping}, nil
}

// OpenGate suspends advancement pending a traits answer.
func (s State) OpenGate() (State, error) {
	if s.Phase != types.PhaseArcStepping {
		return s, fmt.Errorf("%w: cannot open gate in %s", ErrWrongPhase, s.Phase)
	}
	if s.GateOpen {
		return s, ErrTraitsGateOpen
	}
	return State{Phase: types.PhaseArcStepping, GateOpen: true}, nil
}

// CloseGate resumes advancement after a traits answer.
func (s State) CloseGate() (State, error) {
	if s.Phase != types.PhaseArcStepping || !s.GateOpen {
		return s, ErrNoTraitsGate
	}
	return State{Phase: types.PhaseArcStepping}, nil
}

// ReachEnding moves to the ending phase once the arc is exhausted.
func (s State) ReachEnding() (State, error) {
	if s.Phase != types.PhaseArcStepping || s.GateOpen {
		return s, fmt.Errorf("%w: cannot reach ending in %s", ErrWrongPhase, s.Phase)
	}
	return State{Phase: types.PhaseEnding}, nil
}

// Complete records the explicit finalize action. The engine never takes
// this transition on its own.
func (s State) Complete() (State, error) {
	if s.Phase != types.PhaseEnding || s.GateOpen {
		return s, fmt.Errorf("%w: cannot complete in %s", ErrWrongPhase, s.Phase)
	}
	return State{Phase: types.PhaseCompleted}, nil
}

// canNarrate reports whether a beat may run for this state.
func (s State) canNarrate() error {
	if s.GateOpen {
		return ErrTraitsGateOpen
	}
	switch s.Phase {
	case types.PhaseTypeSelected, types.PhaseArcStepping:
		return nil
	default:
		return fmt.Errorf("%w: cannot narrate in %s", ErrWrongPhase, s.Phase)
	}
}
