package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the lifecycle of an appointment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
	StatusNoShow     Status = "no-show"
)

// Terminal reports whether no further stored transition may leave the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether the appointment still counts toward the provider's
// calendar. Cancelled and rejected appointments free their slot.
func (s Status) Active() bool {
	return s != StatusCancelled && s != StatusRejected
}

// Remindable reports whether the status is eligible for reminder dispatch.
func (s Status) Remindable() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// Appointment is a time-boxed service booking between a customer and a provider.
//
// CustomerName/Email/Phone are a snapshot of the booking contact info taken at
// creation time. They are deliberately not live-linked to the customer profile:
// editing a profile later must not retroactively alter past bookings.
type Appointment struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	ServiceID  uuid.UUID `json:"service_id"`

	Date      time.Time `json:"date"`      // calendar day, midnight in the operating timezone
	TimeLabel string    `json:"time"`      // wall-clock label, e.g. "2:30 PM"
	StartsAt  time.Time `json:"starts_at"` // Date + parsed TimeLabel, denormalized for queries

	Status Status `json:"status"`

	Notes         string `json:"notes"`
	ProviderNotes string `json:"provider_notes"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	// RemindersSent holds the offset labels already dispatched. Append-only;
	// membership here is the authoritative duplicate-send guard.
	RemindersSent []string `json:"reminders_sent"`

	HasReviewed bool `json:"has_reviewed"`

	BookingRequestedAt time.Time `json:"booking_requested_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ReminderSent reports whether the given offset label was already dispatched.
func (a *Appointment) ReminderSent(label string) bool {
	for _, sent := range a.RemindersSent {
		if sent == label {
			return true
		}
	}
	return false
}

// EffectiveStatus is the status the appointment displays as right now.
//
// Scheduled and confirmed appointments whose start time has passed read as
// completed without the stored record being mutated. Every status-dependent
// read path must go through this one function rather than re-deriving the
// rule locally.
func (a *Appointment) EffectiveStatus(now time.Time) Status {
	if (a.Status == StatusScheduled || a.Status == StatusConfirmed) && !a.StartsAt.After(now) {
		return StatusCompleted
	}
	return a.Status
}

// View is the read-boundary shape of an appointment: the stored record plus
// its effective status at the time of the read.
type View struct {
	Appointment
	EffectiveStatus Status `json:"effective_status"`
}

// NewView shapes an appointment for a read response at the given instant.
func NewView(a *Appointment, now time.Time) View {
	return View{Appointment: *a, EffectiveStatus: a.EffectiveStatus(now)}
}
