package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const appointmentColumns = `id, customer_id, provider_id, service_id, date, time_label, starts_at, status,
		notes, provider_notes, customer_name, customer_email, customer_phone,
		reminders_sent, has_reviewed, booking_requested_at, created_at, updated_at`

// Store provides persistence for appointments.
type Store struct {
	db DB
}

// NewStore creates an appointment store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Create inserts a new appointment. A collision on the provider-slot
// uniqueness index surfaces as ErrSlotTaken; the index, not the application
// pre-check, is what makes check-then-insert safe under concurrency.
func (s *Store) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.RemindersSent == nil {
		a.RemindersSent = []string{}
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO appointments (id, customer_id, provider_id, service_id, date, time_label, starts_at, status,
			notes, provider_notes, customer_name, customer_email, customer_phone,
			reminders_sent, has_reviewed, booking_requested_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		a.ID, a.CustomerID, a.ProviderID, a.ServiceID, a.Date, a.TimeLabel, a.StartsAt, string(a.Status),
		a.Notes, a.ProviderNotes, a.CustomerName, a.CustomerEmail, a.CustomerPhone,
		a.RemindersSent, a.HasReviewed, a.BookingRequestedAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isSlotConflict(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointment: create: %w", err)
	}
	return nil
}

// Get loads an appointment by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointment: get: %w", err)
	}
	return a, nil
}

// ListActiveForProviderFrom returns the provider's non-cancelled,
// non-rejected appointments starting at or after the given instant. Used for
// the slot-conflict early exit before inserts and reschedules.
func (s *Store) ListActiveForProviderFrom(ctx context.Context, providerID uuid.UUID, from time.Time) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1 AND starts_at >= $2 AND status NOT IN ('cancelled', 'rejected')
		ORDER BY starts_at ASC`, providerID, from)
	if err != nil {
		return nil, fmt.Errorf("appointment: list active for provider: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListForCustomer returns a customer's appointments, soonest first.
func (s *Store) ListForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE customer_id = $1
		ORDER BY starts_at ASC LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("appointment: list for customer: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListForProvider returns a provider's appointments, soonest first.
func (s *Store) ListForProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
		ORDER BY starts_at ASC LIMIT $2`, providerID, limit)
	if err != nil {
		return nil, fmt.Errorf("appointment: list for provider: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListRemindableInWindow returns scheduled/confirmed appointments whose start
// time falls inside [from, to], soonest first. The sweep window.
func (s *Store) ListRemindableInWindow(ctx context.Context, from, to time.Time, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('scheduled', 'confirmed') AND starts_at >= $1 AND starts_at <= $2
		ORDER BY starts_at ASC LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("appointment: list remindable: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// UpdateStatus moves an appointment from one of the expected statuses to the
// target status. The WHERE guard makes the transition a compare-and-swap: a
// zero row count means the record moved underneath the caller.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, expect []Status, to Status, providerNotes string) error {
	expected := make([]string, len(expect))
	for i, st := range expect {
		expected[i] = string(st)
	}
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET status = $1,
		    provider_notes = CASE WHEN $2 <> '' THEN $2 ELSE provider_notes END,
		    updated_at = $3
		WHERE id = $4 AND status = ANY($5)`,
		string(to), providerNotes, now, id, expected)
	if err != nil {
		return fmt.Errorf("appointment: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reschedule replaces the slot and resets the reminder delivery set, so the
// reminder countdown restarts against the new time. Only non-terminal
// appointments can move.
func (s *Store) Reschedule(ctx context.Context, id uuid.UUID, date time.Time, timeLabel string, startsAt time.Time) error {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET date = $1, time_label = $2, starts_at = $3, reminders_sent = '{}', updated_at = $4
		WHERE id = $5 AND status IN ('pending', 'scheduled', 'confirmed')`,
		date, timeLabel, startsAt, now, id)
	if err != nil {
		if isSlotConflict(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointment: reschedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkReminderSent appends an offset label to the delivery set if and only if
// it is absent and the appointment is still remindable. The single UPDATE is
// the atomic add-if-absent the duplicate-send guarantee rests on; it returns
// false when another sweep already owns the label or the appointment left the
// remindable states.
func (s *Store) MarkReminderSent(ctx context.Context, id uuid.UUID, label string) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET reminders_sent = array_append(reminders_sent, $1), updated_at = $2
		WHERE id = $3
		  AND NOT ($1 = ANY(reminders_sent))
		  AND status IN ('scheduled', 'confirmed')`,
		label, now, id)
	if err != nil {
		return false, fmt.Errorf("appointment: mark reminder sent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "appointments_provider_slot_key"
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	err := row.Scan(
		&a.ID, &a.CustomerID, &a.ProviderID, &a.ServiceID, &a.Date, &a.TimeLabel, &a.StartsAt, &status,
		&a.Notes, &a.ProviderNotes, &a.CustomerName, &a.CustomerEmail, &a.CustomerPhone,
		&a.RemindersSent, &a.HasReviewed, &a.BookingRequestedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointment: scan: %w", err)
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}
