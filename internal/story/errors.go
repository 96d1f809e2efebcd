package story

import "errors"

var (
	// ErrWrongPhase rejects an operation the current phase does not allow.
	ErrWrongPhase = errors.New("operation not allowed in current phase")
	// ErrStoryTypeNotSelected rejects beats before a story type is chosen.
	ErrStoryTypeNotSelected = errors.New("story type not selected")
	// ErrTraitsGateOpen rejects advancement while a traits question is open.
	ErrTraitsGateOpen = errors.New("traits gate is open")
	// ErrNoTraitsGate rejects a traits answer when no question is open.
	ErrNoTraitsGate = errors.New("no traits gate is open")
	// ErrStaleOptions rejects an action on an options message that is no
	// longer the live one.
	ErrStaleOptions = errors.New("options message is no longer live")
	// ErrUnknownChoice rejects a choice id absent from the options message.
	ErrUnknownChoice = errors.New("choice not found on options message")
)
