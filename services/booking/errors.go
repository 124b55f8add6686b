package booking

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id resolves to nothing,
// either because it never existed or because its TTL elapsed.
var ErrSessionNotFound = errors.New("booking session not found or expired")

// ErrIdentityRequired is returned by Confirm when no patient identity has
// been resolved yet. The session's data is stashed before this is returned.
var ErrIdentityRequired = errors.New("patient identity required to confirm")

// ConflictError reports that a slot was taken between selection and
// confirmation. Expected, not exceptional: the session returns to slot
// selection and the list is refreshed.
type ConflictError struct {
	SlotID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s was taken by another patient", e.SlotID)
}

// TransitionError reports a step transition the state machine refuses.
type TransitionError struct {
	From    string
	Attempt string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from step %s", e.Attempt, e.From)
}
