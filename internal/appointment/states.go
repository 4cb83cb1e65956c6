package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who is requesting an operation.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleSystem   Role = "system"
)

// Actor is the already-authenticated principal behind a request. Verifying
// identity is the job of the upstream auth layer; this package only decides
// what an actor may do to a given appointment.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// transitions is the legal stored-status graph. Auto-completion of past
// scheduled/confirmed appointments is derived at read time by
// EffectiveStatus and never stored through this table.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusRejected},
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusCompleted, StatusNoShow},
	StatusInProgress: {StatusCompleted},
}

// CanTransition reports whether the stored-status graph permits from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AuthorizeTransition checks both the transition table and who may request
// the change:
//
//   - cancelled: only the owning customer
//   - confirmed, rejected, in-progress, no-show: only the assigned provider
//   - completed: the assigned provider or the system
//
// Cancellation additionally requires the appointment to still be in the
// future; past appointments resolve through EffectiveStatus instead.
func AuthorizeTransition(a *Appointment, to Status, actor Actor, now time.Time) error {
	if !CanTransition(a.Status, to) {
		reason := "illegal transition"
		if a.Status.Terminal() {
			reason = "appointment is in a terminal state"
		}
		return &TransitionError{From: a.Status, To: to, Reason: reason}
	}

	switch to {
	case StatusCancelled:
		if actor.Role != RoleCustomer || actor.ID != a.CustomerID {
			return &TransitionError{From: a.Status, To: to, Reason: "only the booking customer may cancel"}
		}
		if !a.StartsAt.After(now) {
			return &TransitionError{From: a.Status, To: to, Reason: "appointment time has already passed"}
		}
	case StatusConfirmed, StatusRejected, StatusInProgress, StatusNoShow:
		if actor.Role != RoleProvider || actor.ID != a.ProviderID {
			return &TransitionError{From: a.Status, To: to, Reason: "only the assigned provider may " + string(to)}
		}
	case StatusCompleted:
		providerOK := actor.Role == RoleProvider && actor.ID == a.ProviderID
		if !providerOK && actor.Role != RoleSystem {
			return &TransitionError{From: a.Status, To: to, Reason: "only the assigned provider or the system may complete"}
		}
	default:
		return &TransitionError{From: a.Status, To: to, Reason: "unknown target status"}
	}
	return nil
}

// AuthorizeReschedule checks that the actor may move the appointment at all.
// Slot validity for the new time is checked separately by ValidateSlot.
func AuthorizeReschedule(a *Appointment, actor Actor, now time.Time) error {
	owns := actor.Role == RoleCustomer && actor.ID == a.CustomerID
	assigned := actor.Role == RoleProvider && actor.ID == a.ProviderID
	if !owns && !assigned {
		return &TransitionError{From: a.Status, To: a.Status, Reason: "only the booking customer or assigned provider may reschedule"}
	}
	if a.Status.Terminal() {
		return &TransitionError{From: a.Status, To: a.Status, Reason: "appointment is in a terminal state"}
	}
	if !a.StartsAt.After(now) {
		return &TransitionError{From: a.Status, To: a.Status, Reason: "appointment time has already passed"}
	}
	return nil
}
