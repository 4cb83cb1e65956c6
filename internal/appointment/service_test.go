package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwell/bookwell/internal/catalog"
	"github.com/bookwell/bookwell/internal/notify"
)

type fakeCatalog struct {
	services map[uuid.UUID]*catalog.Service
}

func (f *fakeCatalog) Get(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return svc, nil
}

func newServiceFixture(t *testing.T) (pgxmock.PgxPoolIface, *Service, *fakeCatalog, time.Time) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	cat := &fakeCatalog{services: map[uuid.UUID]*catalog.Service{}}
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(NewStore(mock), cat, notify.NewStubEmailSender(nil), nil).
		WithClock(func() time.Time { return now })
	return mock, svc, cat, now
}

func emptyAppointmentRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "customer_id", "provider_id", "service_id", "date", "time_label", "starts_at", "status",
		"notes", "provider_notes", "customer_name", "customer_email", "customer_phone",
		"reminders_sent", "has_reviewed", "booking_requested_at", "created_at", "updated_at",
	})
}

func TestServiceBook(t *testing.T) {
	mock, svc, cat, now := newServiceFixture(t)

	offering := &catalog.Service{ID: uuid.New(), ProviderID: uuid.New(), Name: "Deep Tissue Massage"}
	cat.services[offering.ID] = offering

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(offering.ProviderID, now).
		WillReturnRows(emptyAppointmentRows())
	mock.ExpectExec("INSERT INTO appointments").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	a, err := svc.Book(context.Background(), BookInput{
		CustomerID:    uuid.New(),
		ServiceID:     offering.ID,
		Date:          time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC),
		TimeLabel:     "02:30 pm",
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, a.Status)
	assert.Equal(t, "2:30 PM", a.TimeLabel, "label is stored canonically")
	assert.Equal(t, offering.ProviderID, a.ProviderID)
	assert.Equal(t, time.Date(2026, time.June, 2, 14, 30, 0, 0, time.UTC), a.StartsAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceBookPendingWhenConfirmationRequired(t *testing.T) {
	mock, svc, cat, now := newServiceFixture(t)

	offering := &catalog.Service{ID: uuid.New(), ProviderID: uuid.New(), RequiresConfirmation: true}
	cat.services[offering.ID] = offering

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(offering.ProviderID, now).
		WillReturnRows(emptyAppointmentRows())
	mock.ExpectExec("INSERT INTO appointments").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	a, err := svc.Book(context.Background(), BookInput{
		CustomerID:    uuid.New(),
		ServiceID:     offering.ID,
		Date:          time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC),
		TimeLabel:     "9:00 AM",
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, a.Status)
}

func TestServiceBookValidation(t *testing.T) {
	_, svc, cat, _ := newServiceFixture(t)

	offering := &catalog.Service{ID: uuid.New(), ProviderID: uuid.New()}
	cat.services[offering.ID] = offering

	base := BookInput{
		CustomerID:    uuid.New(),
		ServiceID:     offering.ID,
		Date:          time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC),
		TimeLabel:     "2:30 PM",
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
	}

	tests := []struct {
		name   string
		mutate func(*BookInput)
	}{
		{"missing customer", func(in *BookInput) { in.CustomerID = uuid.Nil }},
		{"missing service", func(in *BookInput) { in.ServiceID = uuid.Nil }},
		{"missing date", func(in *BookInput) { in.Date = time.Time{} }},
		{"missing time", func(in *BookInput) { in.TimeLabel = "  " }},
		{"missing name", func(in *BookInput) { in.CustomerName = "" }},
		{"bad email", func(in *BookInput) { in.CustomerEmail = "not-an-email" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := svc.Book(context.Background(), in)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestServiceBookPastSlot(t *testing.T) {
	mock, svc, cat, now := newServiceFixture(t)

	offering := &catalog.Service{ID: uuid.New(), ProviderID: uuid.New()}
	cat.services[offering.ID] = offering

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(offering.ProviderID, now).
		WillReturnRows(emptyAppointmentRows())

	_, err := svc.Book(context.Background(), BookInput{
		CustomerID:    uuid.New(),
		ServiceID:     offering.ID,
		Date:          time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		TimeLabel:     "9:00 AM", // clock is at 10:00 AM
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
	})
	assert.ErrorIs(t, err, ErrSlotInPast)
}

func TestServiceBookSlotTaken(t *testing.T) {
	mock, svc, cat, now := newServiceFixture(t)

	offering := &catalog.Service{ID: uuid.New(), ProviderID: uuid.New()}
	cat.services[offering.ID] = offering

	held := sampleAppointment()
	held.ProviderID = offering.ProviderID

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(offering.ProviderID, now).
		WillReturnRows(appointmentRows(held))

	_, err := svc.Book(context.Background(), BookInput{
		CustomerID:    uuid.New(),
		ServiceID:     offering.ID,
		Date:          held.Date,
		TimeLabel:     held.TimeLabel,
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestServiceBookUnknownService(t *testing.T) {
	_, svc, _, _ := newServiceFixture(t)

	_, err := svc.Book(context.Background(), BookInput{
		CustomerID:    uuid.New(),
		ServiceID:     uuid.New(),
		Date:          time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC),
		TimeLabel:     "2:30 PM",
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
	})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestServiceCancel(t *testing.T) {
	mock, svc, _, now := newServiceFixture(t)

	a := sampleAppointment()
	a.StartsAt = now.Add(4 * time.Hour)
	customer := Actor{ID: a.CustomerID, Role: RoleCustomer}

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(a.ID).
		WillReturnRows(appointmentRows(a))
	mock.ExpectExec("UPDATE appointments").
		WithArgs("cancelled", "", pgxmock.AnyArg(), a.ID, []string{"scheduled"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	got, err := svc.Cancel(context.Background(), a.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestServiceCancelHiddenFromStrangers(t *testing.T) {
	mock, svc, _, now := newServiceFixture(t)

	a := sampleAppointment()
	a.StartsAt = now.Add(4 * time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(a.ID).
		WillReturnRows(appointmentRows(a))

	// Visibility failures read as not-found, not forbidden.
	_, err := svc.Cancel(context.Background(), a.ID, Actor{ID: uuid.New(), Role: RoleCustomer})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceConfirm(t *testing.T) {
	mock, svc, _, now := newServiceFixture(t)

	a := sampleAppointment()
	a.Status = StatusPending
	a.StartsAt = now.Add(4 * time.Hour)
	provider := Actor{ID: a.ProviderID, Role: RoleProvider}

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(a.ID).
		WillReturnRows(appointmentRows(a))
	mock.ExpectExec("UPDATE appointments").
		WithArgs("confirmed", "see you then", pgxmock.AnyArg(), a.ID, []string{"pending"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	got, err := svc.Confirm(context.Background(), a.ID, provider, "see you then")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, "see you then", got.ProviderNotes)
}

func TestServiceTransitionIllegal(t *testing.T) {
	mock, svc, _, now := newServiceFixture(t)

	a := sampleAppointment()
	a.Status = StatusCancelled
	a.StartsAt = now.Add(4 * time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(a.ID).
		WillReturnRows(appointmentRows(a))

	_, err := svc.Confirm(context.Background(), a.ID, Actor{ID: a.ProviderID, Role: RoleProvider}, "")
	var te *TransitionError
	assert.ErrorAs(t, err, &te)
}

func TestServiceReschedule(t *testing.T) {
	mock, svc, _, now := newServiceFixture(t)

	a := sampleAppointment()
	a.StartsAt = now.Add(4 * time.Hour)
	a.RemindersSent = []string{"24h"}
	customer := Actor{ID: a.CustomerID, Role: RoleCustomer}

	newDate := time.Date(2026, time.June, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(a.ID).
		WillReturnRows(appointmentRows(a))
	// The appointment's own slot is in the provider's list and must not block.
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(a.ProviderID, now).
		WillReturnRows(appointmentRows(a))
	mock.ExpectExec("UPDATE appointments").
		WithArgs(newDate, "9:00 AM", time.Date(2026, time.June, 3, 9, 0, 0, 0, time.UTC), pgxmock.AnyArg(), a.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	got, err := svc.Reschedule(context.Background(), a.ID, customer, newDate, "09:00 am")
	require.NoError(t, err)
	assert.Equal(t, "9:00 AM", got.TimeLabel)
	assert.Empty(t, got.RemindersSent, "delivery set resets so reminders re-dispatch for the new time")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRescheduleIntoHeldSlot(t *testing.T) {
	mock, svc, _, now := newServiceFixture(t)

	a := sampleAppointment()
	a.StartsAt = now.Add(4 * time.Hour)
	other := sampleAppointment()
	other.ProviderID = a.ProviderID
	other.Date = time.Date(2026, time.June, 3, 0, 0, 0, 0, time.UTC)
	other.TimeLabel = "9:00 AM"
	other.StartsAt = time.Date(2026, time.June, 3, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(a.ID).
		WillReturnRows(appointmentRows(a))

	rows := appointmentRows(a)
	rows.AddRow(
		other.ID, other.CustomerID, other.ProviderID, other.ServiceID, other.Date, other.TimeLabel, other.StartsAt, string(other.Status),
		other.Notes, other.ProviderNotes, other.CustomerName, other.CustomerEmail, other.CustomerPhone,
		other.RemindersSent, other.HasReviewed, other.BookingRequestedAt, other.CreatedAt, other.UpdatedAt,
	)
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(a.ProviderID, now).
		WillReturnRows(rows)

	_, err := svc.Reschedule(context.Background(), a.ID, Actor{ID: a.CustomerID, Role: RoleCustomer}, other.Date, "9:00 AM")
	assert.ErrorIs(t, err, ErrSlotTaken)
}
