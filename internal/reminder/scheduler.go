package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookwell/bookwell/internal/appointment"
	"github.com/bookwell/bookwell/internal/catalog"
	"github.com/bookwell/bookwell/internal/notify"
	"github.com/bookwell/bookwell/internal/observability/metrics"
	"github.com/bookwell/bookwell/pkg/logging"
)

// AppointmentStore is the slice of appointment persistence the sweep needs.
type AppointmentStore interface {
	ListRemindableInWindow(ctx context.Context, from, to time.Time, limit int) ([]appointment.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, label string) (bool, error)
}

// ServiceCatalog resolves the service name for message rendering.
type ServiceCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
}

// Config tunes the sweep.
type Config struct {
	// PollInterval is the sweep cadence.
	PollInterval time.Duration
	// Lookahead bounds the sweep window; must be at least MaxLead.
	Lookahead time.Duration
	// Slop is how far past an offset a reminder still counts as due. Must
	// exceed PollInterval so one missed tick cannot silently drop an offset.
	Slop time.Duration
	// Workers sizes the dispatch pool; dispatch is I/O-bound, so one slow
	// send must not delay the rest of the sweep.
	Workers int
	// BatchSize caps appointments per sweep.
	BatchSize int
	// DispatchTimeout bounds a single gateway send.
	DispatchTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Minute
	}
	if c.Lookahead < MaxLead {
		c.Lookahead = MaxLead + time.Hour
	}
	if c.Slop <= c.PollInterval {
		c.Slop = c.PollInterval + 15*time.Minute
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 200
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = 15 * time.Second
	}
	return c
}

// Scheduler periodically sweeps upcoming appointments and dispatches each
// reminder offset at most once.
type Scheduler struct {
	store   AppointmentStore
	mailer  notify.EmailSender
	cat     ServiceCatalog
	claims  *ClaimGuard
	metrics *metrics.ReminderMetrics
	logger  *logging.Logger
	cfg     Config
	now     func() time.Time
}

// NewScheduler constructs the reminder scheduler. claims and m may be nil.
func NewScheduler(store AppointmentStore, mailer notify.EmailSender, cat ServiceCatalog, claims *ClaimGuard, m *metrics.ReminderMetrics, cfg Config, logger *logging.Logger) *Scheduler {
	if store == nil {
		panic("reminder: appointment store required")
	}
	if mailer == nil {
		panic("reminder: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		store:   store,
		mailer:  mailer,
		cat:     cat,
		claims:  claims,
		metrics: m,
		logger:  logger,
		cfg:     cfg.withDefaults(),
		now:     func() time.Time { return time.Now() },
	}
}

// WithClock overrides the scheduler clock. Tests only.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	if now != nil {
		s.now = now
	}
	return s
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	s.sweepAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Scheduler) sweepAndLog(ctx context.Context) {
	start := time.Now()
	dispatched, err := s.Sweep(ctx)
	s.metrics.ObserveSweep(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("reminder sweep failed", "error", err)
		return
	}
	if dispatched > 0 {
		s.logger.Info("reminder sweep complete", "dispatched", dispatched, "duration_ms", time.Since(start).Milliseconds())
	}
}

// Sweep runs one pass over the lookahead window and returns how many
// reminders were dispatched. A dispatch failure for one appointment never
// aborts the rest of the sweep.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	// The lower bound reaches back by slop so the "now" offset of an
	// appointment that just started is still caught.
	appts, err := s.store.ListRemindableInWindow(ctx, now.Add(-s.cfg.Slop), now.Add(s.cfg.Lookahead), s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(appts) == 0 {
		return 0, nil
	}

	jobs := make(chan appointment.Appointment)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range jobs {
				n := s.processAppointment(ctx, a.ID)
				if n > 0 {
					mu.Lock()
					total += n
					mu.Unlock()
				}
			}
		}()
	}
feed:
	for i := range appts {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- appts[i]:
		}
	}
	close(jobs)
	wg.Wait()
	return total, nil
}

// processAppointment dispatches every currently-due offset for one
// appointment, largest lead first, persisting each delivery marker before
// touching the next offset.
func (s *Scheduler) processAppointment(ctx context.Context, id uuid.UUID) int {
	// Re-read the record right before dispatching: the status and delivery
	// set from the window query may be stale by now, and a reminder must
	// never fire for an appointment that has since cancelled or completed.
	a, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Error("reminder: reload appointment failed", "appointment_id", id, "error", err)
		return 0
	}
	now := s.now()
	if !a.Status.Remindable() {
		s.metrics.ObserveSkipped("not_remindable")
		return 0
	}
	if a.CustomerEmail == "" {
		s.metrics.ObserveSkipped("no_recipient")
		return 0
	}

	due := Due(a.StartsAt.Sub(now), a.ReminderSent, s.cfg.Slop)
	if len(due) == 0 {
		return 0
	}

	serviceName := s.serviceName(ctx, a.ServiceID)

	dispatched := 0
	for _, offset := range due {
		if !s.claims.TryClaim(ctx, a.ID, offset.Label) {
			s.metrics.ObserveSkipped("claimed_elsewhere")
			continue
		}
		if err := s.dispatch(ctx, a, serviceName, offset); err != nil {
			// Leave the delivery marker unset so the next sweep retries;
			// release the short-lived claim so that retry is not blocked.
			s.claims.Release(ctx, a.ID, offset.Label)
			s.metrics.ObserveFailed(offset.Label)
			s.logger.Error("reminder dispatch failed",
				"appointment_id", a.ID, "offset", offset.Label, "error", err)
			break
		}
		marked, err := s.store.MarkReminderSent(ctx, a.ID, offset.Label)
		if err != nil {
			s.logger.Error("reminder: persist delivery marker failed",
				"appointment_id", a.ID, "offset", offset.Label, "error", err)
			break
		}
		if !marked {
			// Another sweep owned this label or the appointment left the
			// remindable states mid-flight; either way stop here.
			s.metrics.ObserveSkipped("marker_race")
			break
		}
		s.metrics.ObserveDispatched(offset.Label)
		dispatched++
	}
	return dispatched
}

func (s *Scheduler) dispatch(ctx context.Context, a *appointment.Appointment, serviceName string, offset Offset) error {
	subject, body := MessageTemplate(a, serviceName, offset)
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.DispatchTimeout)
	defer cancel()
	return s.mailer.Send(sendCtx, notify.EmailMessage{
		To:      a.CustomerEmail,
		ToName:  a.CustomerName,
		Subject: subject,
		Body:    body,
	})
}

func (s *Scheduler) serviceName(ctx context.Context, serviceID uuid.UUID) string {
	if s.cat == nil {
		return ""
	}
	svc, err := s.cat.Get(ctx, serviceID)
	if err != nil {
		s.logger.Warn("reminder: service lookup failed", "service_id", serviceID, "error", err)
		return ""
	}
	return svc.Name
}
