package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		status   Status
		startsAt time.Time
		want     Status
	}{
		{"scheduled in future stays scheduled", StatusScheduled, future, StatusScheduled},
		{"confirmed in future stays confirmed", StatusConfirmed, future, StatusConfirmed},
		{"scheduled past start reads completed", StatusScheduled, past, StatusCompleted},
		{"confirmed past start reads completed", StatusConfirmed, past, StatusCompleted},
		{"start exactly now reads completed", StatusScheduled, now, StatusCompleted},
		{"pending never auto-completes", StatusPending, past, StatusPending},
		{"in-progress never auto-completes", StatusInProgress, past, StatusInProgress},
		{"cancelled stays cancelled", StatusCancelled, past, StatusCancelled},
		{"no-show stays no-show", StatusNoShow, past, StatusNoShow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Appointment{Status: tt.status, StartsAt: tt.startsAt}
			assert.Equal(t, tt.want, a.EffectiveStatus(now))
			assert.Equal(t, tt.status, a.Status, "stored status must never be mutated by a read")
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusNoShow.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusInProgress.Terminal())

	assert.False(t, StatusCancelled.Active())
	assert.False(t, StatusRejected.Active())
	assert.True(t, StatusCompleted.Active())
	assert.True(t, StatusScheduled.Active())

	assert.True(t, StatusScheduled.Remindable())
	assert.True(t, StatusConfirmed.Remindable())
	assert.False(t, StatusPending.Remindable())
	assert.False(t, StatusInProgress.Remindable())
}

func TestReminderSent(t *testing.T) {
	a := &Appointment{RemindersSent: []string{"24h", "1h"}}
	assert.True(t, a.ReminderSent("24h"))
	assert.True(t, a.ReminderSent("1h"))
	assert.False(t, a.ReminderSent("30m"))

	empty := &Appointment{}
	assert.False(t, empty.ReminderSent("now"))
}

func TestNewView(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	a := &Appointment{Status: StatusConfirmed, StartsAt: now.Add(-time.Minute)}

	v := NewView(a, now)
	assert.Equal(t, StatusConfirmed, v.Status)
	assert.Equal(t, StatusCompleted, v.EffectiveStatus)
}
