package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusRejected},
		{StatusScheduled, StatusConfirmed},
		{StatusScheduled, StatusCancelled},
		{StatusScheduled, StatusCompleted},
		{StatusScheduled, StatusNoShow},
		{StatusConfirmed, StatusInProgress},
		{StatusConfirmed, StatusCancelled},
		{StatusConfirmed, StatusCompleted},
		{StatusConfirmed, StatusNoShow},
		{StatusInProgress, StatusCompleted},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusCancelled},
		{StatusPending, StatusInProgress},
		{StatusScheduled, StatusInProgress},
		{StatusScheduled, StatusRejected},
		{StatusInProgress, StatusCancelled},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusScheduled},
		{StatusRejected, StatusConfirmed},
		{StatusNoShow, StatusCompleted},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestAuthorizeTransition(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	customerID := uuid.New()
	providerID := uuid.New()

	appt := func(status Status, startsAt time.Time) *Appointment {
		return &Appointment{
			CustomerID: customerID,
			ProviderID: providerID,
			Status:     status,
			StartsAt:   startsAt,
		}
	}
	customer := Actor{ID: customerID, Role: RoleCustomer}
	provider := Actor{ID: providerID, Role: RoleProvider}
	system := Actor{Role: RoleSystem}
	stranger := Actor{ID: uuid.New(), Role: RoleCustomer}

	t.Run("customer cancels own future appointment", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusScheduled, now.Add(time.Hour)), StatusCancelled, customer, now)
		assert.NoError(t, err)
	})

	t.Run("other customer may not cancel", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusScheduled, now.Add(time.Hour)), StatusCancelled, stranger, now)
		var te *TransitionError
		require.ErrorAs(t, err, &te)
	})

	t.Run("provider may not cancel", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusScheduled, now.Add(time.Hour)), StatusCancelled, provider, now)
		assert.Error(t, err)
	})

	t.Run("cancel after start time", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusScheduled, now.Add(-time.Minute)), StatusCancelled, customer, now)
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Contains(t, te.Reason, "already passed")
	})

	t.Run("provider confirms pending booking", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusPending, now.Add(time.Hour)), StatusConfirmed, provider, now)
		assert.NoError(t, err)
	})

	t.Run("customer may not confirm", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusPending, now.Add(time.Hour)), StatusConfirmed, customer, now)
		assert.Error(t, err)
	})

	t.Run("provider rejects pending booking", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusPending, now.Add(time.Hour)), StatusRejected, provider, now)
		assert.NoError(t, err)
	})

	t.Run("provider starts confirmed appointment", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusConfirmed, now.Add(time.Minute)), StatusInProgress, provider, now)
		assert.NoError(t, err)
	})

	t.Run("provider completes", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusInProgress, now.Add(-time.Hour)), StatusCompleted, provider, now)
		assert.NoError(t, err)
	})

	t.Run("system completes", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusConfirmed, now.Add(-time.Hour)), StatusCompleted, system, now)
		assert.NoError(t, err)
	})

	t.Run("customer may not complete", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusConfirmed, now.Add(-time.Hour)), StatusCompleted, customer, now)
		assert.Error(t, err)
	})

	t.Run("terminal state reports a clear reason", func(t *testing.T) {
		err := AuthorizeTransition(appt(StatusCancelled, now.Add(time.Hour)), StatusConfirmed, provider, now)
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Contains(t, te.Reason, "terminal")
	})
}

func TestAuthorizeReschedule(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	customerID := uuid.New()
	providerID := uuid.New()
	a := &Appointment{
		CustomerID: customerID,
		ProviderID: providerID,
		Status:     StatusScheduled,
		StartsAt:   now.Add(2 * time.Hour),
	}

	assert.NoError(t, AuthorizeReschedule(a, Actor{ID: customerID, Role: RoleCustomer}, now))
	assert.NoError(t, AuthorizeReschedule(a, Actor{ID: providerID, Role: RoleProvider}, now))
	assert.Error(t, AuthorizeReschedule(a, Actor{ID: uuid.New(), Role: RoleCustomer}, now))
	assert.Error(t, AuthorizeReschedule(a, Actor{Role: RoleSystem}, now))

	done := *a
	done.Status = StatusCompleted
	assert.Error(t, AuthorizeReschedule(&done, Actor{ID: customerID, Role: RoleCustomer}, now))

	past := *a
	past.StartsAt = now.Add(-time.Minute)
	assert.Error(t, AuthorizeReschedule(&past, Actor{ID: customerID, Role: RoleCustomer}, now))
}
