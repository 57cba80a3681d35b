package session

import "errors"

// Control errors surfaced to the invoking command. Each maps to its own
// exit code so scripts can branch on the condition.
var (
	ErrAlreadyActive   = errors.New("a dictation session is already active")
	ErrNoActiveSession = errors.New("no active dictation session")
	ErrNotListening    = errors.New("session is not listening")
	ErrNotSuspended    = errors.New("session is not suspended")
)
