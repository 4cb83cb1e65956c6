package appointment

import "time"

// Slot identifies when an appointment occurs: a calendar day plus a canonical
// wall-clock label.
type Slot struct {
	Date      time.Time
	TimeLabel string
}

// NewSlot canonicalizes the label and resolves the start instant.
func NewSlot(date time.Time, label string) (Slot, time.Time, error) {
	canonical, err := NormalizeTimeLabel(label)
	if err != nil {
		return Slot{}, time.Time{}, err
	}
	startsAt, err := CombineDateTime(date, canonical)
	if err != nil {
		return Slot{}, time.Time{}, err
	}
	return Slot{Date: date, TimeLabel: canonical}, startsAt, nil
}

// SameDay reports whether two dates fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ValidateSlot decides whether a candidate slot is bookable for a provider.
//
// The slot is invalid when its start instant is at or before now, or when any
// active (non-cancelled, non-rejected) appointment in existing already holds
// the same (date, time) pair. The check is pure: callers pass the provider's
// current appointments and the clock. The datastore-level uniqueness
// constraint is the real guarantor under concurrency; this check is the
// early exit that produces an actionable error.
func ValidateSlot(date time.Time, label string, existing []Appointment, now time.Time) error {
	slot, startsAt, err := NewSlot(date, label)
	if err != nil {
		return &ValidationError{Field: "time", Reason: err.Error()}
	}
	if !startsAt.After(now) {
		return ErrSlotInPast
	}
	for i := range existing {
		other := &existing[i]
		if !other.Status.Active() {
			continue
		}
		if SameDay(other.Date, slot.Date) && other.TimeLabel == slot.TimeLabel {
			return ErrSlotTaken
		}
	}
	return nil
}
