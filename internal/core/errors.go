package core

import "errors"

// Sentinel errors for the session machine and response parser.  The
// HTTP boundary classifies them with errors.Is; every failure aborts
// the triggering transition and leaves session data untouched.
var (
	// ErrFormat marks model output that could not be parsed into the
	// expected shape.  It covers both the case-study split and the
	// evaluation JSON extraction.
	ErrFormat = errors.New("malformed model output")

	// ErrWrongState is returned when an operation is invoked in a state
	// that does not permit it.
	ErrWrongState = errors.New("operation not allowed in current session state")

	// ErrNoCases is returned when a case is selected before any have
	// been generated.
	ErrNoCases = errors.New("no case studies generated yet")

	// ErrBadCaseIndex is returned for a selection index outside the
	// generated list.
	ErrBadCaseIndex = errors.New("case study index out of range")

	// ErrNoSelection is returned when the chat is entered without a
	// selected case study.
	ErrNoSelection = errors.New("no case study selected")

	// ErrNoAssistantTurn guards evaluation: there must be at least one
	// senior-doctor reply to score.
	ErrNoAssistantTurn = errors.New("conversation has no senior doctor reply yet")
)
