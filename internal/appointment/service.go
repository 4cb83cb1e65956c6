package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookwell/bookwell/internal/catalog"
	"github.com/bookwell/bookwell/internal/notify"
	"github.com/bookwell/bookwell/pkg/logging"
)

// ServiceCatalog looks up the bookable offering behind an appointment.
type ServiceCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
}

// Clock returns the current time. Swappable in tests.
type Clock func() time.Time

// Service implements booking, status transitions and rescheduling.
type Service struct {
	store   *Store
	catalog ServiceCatalog
	mailer  notify.EmailSender
	logger  *logging.Logger
	now     Clock
}

// NewService constructs the appointment service. mailer may be nil; courtesy
// notifications are then skipped.
func NewService(store *Store, cat ServiceCatalog, mailer notify.EmailSender, logger *logging.Logger) *Service {
	if store == nil {
		panic("appointment: store required")
	}
	if cat == nil {
		panic("appointment: service catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, catalog: cat, mailer: mailer, logger: logger, now: func() time.Time { return time.Now() }}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now Clock) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// BookInput carries a booking request.
type BookInput struct {
	CustomerID    uuid.UUID
	ServiceID     uuid.UUID
	Date          time.Time
	TimeLabel     string
	Notes         string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// Book validates the requested slot and creates the appointment. The initial
// status is scheduled, or pending when the service requires provider
// confirmation. Contact fields are snapshotted onto the record.
func (s *Service) Book(ctx context.Context, in BookInput) (*Appointment, error) {
	if err := validateBookInput(in); err != nil {
		return nil, err
	}

	svc, err := s.catalog.Get(ctx, in.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("appointment: book: %w", err)
	}

	now := s.now()
	slot, startsAt, err := NewSlot(in.Date, in.TimeLabel)
	if err != nil {
		return nil, &ValidationError{Field: "time", Reason: err.Error()}
	}

	existing, err := s.store.ListActiveForProviderFrom(ctx, svc.ProviderID, now)
	if err != nil {
		return nil, fmt.Errorf("appointment: book: %w", err)
	}
	if err := ValidateSlot(in.Date, in.TimeLabel, existing, now); err != nil {
		return nil, err
	}

	status := StatusScheduled
	if svc.RequiresConfirmation {
		status = StatusPending
	}

	a := &Appointment{
		CustomerID:         in.CustomerID,
		ProviderID:         svc.ProviderID,
		ServiceID:          svc.ID,
		Date:               slot.Date,
		TimeLabel:          slot.TimeLabel,
		StartsAt:           startsAt,
		Status:             status,
		Notes:              in.Notes,
		CustomerName:       in.CustomerName,
		CustomerEmail:      in.CustomerEmail,
		CustomerPhone:      in.CustomerPhone,
		RemindersSent:      []string{},
		BookingRequestedAt: now,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", a.ID,
		"provider_id", a.ProviderID,
		"service_id", a.ServiceID,
		"slot", slot.TimeLabel,
		"status", string(a.Status),
	)
	return a, nil
}

// Get returns the appointment shaped with its effective status, visible only
// to the booking customer, the assigned provider, or the system.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor Actor) (*View, error) {
	a, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	view := NewView(a, s.now())
	return &view, nil
}

// ListForCustomer returns the customer's appointments with effective status.
func (s *Service) ListForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]View, error) {
	items, err := s.store.ListForCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, err
	}
	return s.shape(items), nil
}

// ListForProvider returns the provider's appointments with effective status.
func (s *Service) ListForProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]View, error) {
	items, err := s.store.ListForProvider(ctx, providerID, limit)
	if err != nil {
		return nil, err
	}
	return s.shape(items), nil
}

// Cancel moves a future appointment to cancelled on behalf of its customer
// and sends a best-effort courtesy email.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	return s.transition(ctx, id, StatusCancelled, actor, "")
}

// Confirm moves a pending or scheduled appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, actor Actor, providerNotes string) (*Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed, actor, providerNotes)
}

// Reject declines a pending appointment and sends a courtesy email.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor Actor, providerNotes string) (*Appointment, error) {
	return s.transition(ctx, id, StatusRejected, actor, providerNotes)
}

// Start moves a confirmed appointment to in-progress.
func (s *Service) Start(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	return s.transition(ctx, id, StatusInProgress, actor, "")
}

// Complete marks the appointment done.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actor Actor, providerNotes string) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted, actor, providerNotes)
}

// NoShow records that the customer did not appear.
func (s *Service) NoShow(ctx context.Context, id uuid.UUID, actor Actor, providerNotes string) (*Appointment, error) {
	return s.transition(ctx, id, StatusNoShow, actor, providerNotes)
}

// Reschedule moves a future appointment to a new, strictly-future, free slot.
// The reminder delivery set is reset so the countdown restarts against the
// new time.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, actor Actor, date time.Time, label string) (*Appointment, error) {
	a, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := AuthorizeReschedule(a, actor, now); err != nil {
		return nil, err
	}

	slot, startsAt, err := NewSlot(date, label)
	if err != nil {
		return nil, &ValidationError{Field: "time", Reason: err.Error()}
	}

	existing, err := s.store.ListActiveForProviderFrom(ctx, a.ProviderID, now)
	if err != nil {
		return nil, fmt.Errorf("appointment: reschedule: %w", err)
	}
	// The appointment's own current slot must not block its move.
	others := existing[:0:0]
	for _, other := range existing {
		if other.ID != a.ID {
			others = append(others, other)
		}
	}
	if err := ValidateSlot(date, label, others, now); err != nil {
		return nil, err
	}

	if err := s.store.Reschedule(ctx, a.ID, slot.Date, slot.TimeLabel, startsAt); err != nil {
		return nil, err
	}

	s.logger.Info("appointment rescheduled",
		"appointment_id", a.ID,
		"from", a.StartsAt,
		"to", startsAt,
	)
	a.Date = slot.Date
	a.TimeLabel = slot.TimeLabel
	a.StartsAt = startsAt
	a.RemindersSent = []string{}
	return a, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, actor Actor, providerNotes string) (*Appointment, error) {
	a, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if err := AuthorizeTransition(a, to, actor, s.now()); err != nil {
		return nil, err
	}

	if err := s.store.UpdateStatus(ctx, a.ID, []Status{a.Status}, to, providerNotes); err != nil {
		return nil, err
	}

	s.logger.Info("appointment transition",
		"appointment_id", a.ID,
		"from", string(a.Status),
		"to", string(to),
		"actor_role", string(actor.Role),
	)

	prior := a.Status
	a.Status = to
	if providerNotes != "" {
		a.ProviderNotes = providerNotes
	}

	if to == StatusCancelled || to == StatusRejected {
		s.notifyDropped(a, prior)
	}
	return a, nil
}

// load fetches the appointment and hides it from actors who are neither the
// booking customer, the assigned provider, nor the system.
func (s *Service) load(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case RoleSystem:
	case RoleCustomer:
		if actor.ID != a.CustomerID {
			return nil, ErrNotFound
		}
	case RoleProvider:
		if actor.ID != a.ProviderID {
			return nil, ErrNotFound
		}
	default:
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *Service) shape(items []Appointment) []View {
	now := s.now()
	views := make([]View, len(items))
	for i := range items {
		views[i] = NewView(&items[i], now)
	}
	return views
}

// notifyDropped sends a one-shot courtesy email after a cancellation or
// rejection. Best-effort: failures are logged and never surface to the
// transition caller.
func (s *Service) notifyDropped(a *Appointment, prior Status) {
	if s.mailer == nil || a.CustomerEmail == "" {
		return
	}
	verb := "cancelled"
	if a.Status == StatusRejected {
		verb = "declined by the provider"
	}
	msg := notify.EmailMessage{
		To:      a.CustomerEmail,
		ToName:  a.CustomerName,
		Subject: fmt.Sprintf("Your appointment on %s was %s", a.Date.Format("Jan 2"), verb),
		Body: fmt.Sprintf("Hi %s,\n\nYour appointment at %s on %s has been %s.\n\n— Bookwell",
			firstName(a.CustomerName), a.TimeLabel, a.Date.Format("Monday, January 2"), verb),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Warn("courtesy email failed", "appointment_id", a.ID, "error", err, "prior_status", string(prior))
		}
	}()
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if full == "" {
		return "there"
	}
	if idx := strings.IndexByte(full, ' '); idx > 0 {
		return full[:idx]
	}
	return full
}

func validateBookInput(in BookInput) error {
	if in.CustomerID == uuid.Nil {
		return &ValidationError{Field: "customer_id", Reason: "required"}
	}
	if in.ServiceID == uuid.Nil {
		return &ValidationError{Field: "service_id", Reason: "required"}
	}
	if in.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if strings.TrimSpace(in.TimeLabel) == "" {
		return &ValidationError{Field: "time", Reason: "required"}
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return &ValidationError{Field: "customer_name", Reason: "required"}
	}
	if !strings.Contains(in.CustomerEmail, "@") {
		return &ValidationError{Field: "customer_email", Reason: "must be an email address"}
	}
	return nil
}
