package dialogue

import "errors"

var (
	// ErrLockedMode means the requested mode has not been unlocked for
	// this learner and scenario yet.
	ErrLockedMode = errors.New("dialogue mode not unlocked")

	// ErrSessionNotActive means the session is completed or otherwise
	// not accepting turns.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrTurnInFlight means another turn for the same session is still
	// being processed. The caller may retry.
	ErrTurnInFlight = errors.New("another turn for this session is in flight")

	// ErrNotOwner means the session belongs to a different learner.
	ErrNotOwner = errors.New("session belongs to another learner")

	// ErrEmptyMessage means the turn carried no learner text.
	ErrEmptyMessage = errors.New("message must not be empty")
)
