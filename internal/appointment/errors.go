package appointment

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the appointment does not exist or is not visible to
	// the caller.
	ErrNotFound = errors.New("appointment: not found")

	// ErrSlotInPast rejects bookings and reschedules at or before the current
	// wall-clock time.
	ErrSlotInPast = errors.New("appointment: slot in the past")

	// ErrSlotTaken rejects bookings and reschedules that collide with another
	// active appointment for the same provider, date and time.
	ErrSlotTaken = errors.New("appointment: slot already booked")
)

// ValidationError rejects malformed input before any state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("appointment: invalid %s: %s", e.Field, e.Reason)
}

// TransitionError rejects an illegal or unauthorized status change.
type TransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("appointment: transition %s -> %s not allowed: %s", e.From, e.To, e.Reason)
}
