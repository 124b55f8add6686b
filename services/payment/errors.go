package payment

import "fmt"

// InvariantError reports a double-commit attempt against a slot already
// confirmed to a different patient. It means the slot store's own invariant
// was violated upstream; the booking attempt is fatal and never retried.
type InvariantError struct {
	SlotID   string
	Occupant string
	Patient  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("slot %s already confirmed to %s, refusing commit for %s", e.SlotID, e.Occupant, e.Patient)
}

// ValidationError reports a locally recoverable problem with an intent
// request (missing fee, missing identity). The session stays at its current
// step and the message is surfaced to the patient.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
