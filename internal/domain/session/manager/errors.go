package manager

import "errors"

var (
	// ErrConcurrencyLimitExceeded is returned by StartSession when the
	// user already has as many ACTIVE/PAUSED sessions as their tier allows.
	ErrConcurrencyLimitExceeded = errors.New("manager: concurrent stream limit exceeded")

	// ErrSessionNotFound is returned when an operation targets a session
	// id the store has no record of.
	ErrSessionNotFound = errors.New("manager: session not found")

	// ErrInvalidTransition is returned when a lifecycle operation would
	// move a session through a transition its current status forbids.
	ErrInvalidTransition = errors.New("manager: invalid session state transition")

	// ErrNotOwner is returned when a caller attempts to operate on a
	// session belonging to a different user.
	ErrNotOwner = errors.New("manager: session does not belong to caller")

	// ErrSessionExpired is returned when an operation targets a session
	// the janitor has already transitioned to EXPIRED.
	ErrSessionExpired = errors.New("manager: session already expired")
)
