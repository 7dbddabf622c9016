package server

import "errors"

var (
	// ErrPreconditionNotMet reports a state-machine guard failure. The
	// operation made no change and may be retried once the guard clears.
	ErrPreconditionNotMet = errors.New("precondition not met")

	// ErrNotFound reports a missing quiz, session, fobbit, answer or player.
	ErrNotFound = errors.New("not found")

	// ErrExhausted reports that no unused question remains for the session.
	ErrExhausted = errors.New("no more questions")
)
