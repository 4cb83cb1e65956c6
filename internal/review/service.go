package review

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookwell/bookwell/pkg/logging"
)

// committer is the transactional commit the aggregator drives. Satisfied by
// *Store; swappable in tests.
type committer interface {
	Commit(ctx context.Context, rev *Review, now time.Time) error
}

// Aggregator validates review submissions and drives the atomic commit that
// keeps a service's avg_rating/total_reviews consistent with its reviews.
type Aggregator struct {
	store  committer
	logger *logging.Logger
	now    func() time.Time
}

// NewAggregator constructs a rating aggregator.
func NewAggregator(store committer, logger *logging.Logger) *Aggregator {
	if store == nil {
		panic("review: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Aggregator{store: store, logger: logger, now: func() time.Time { return time.Now() }}
}

// WithClock overrides the aggregator clock. Tests only.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	if now != nil {
		a.now = now
	}
	return a
}

// SubmitInput carries a review submission.
type SubmitInput struct {
	CustomerID    uuid.UUID
	AppointmentID uuid.UUID
	Rating        int
	Comment       string
}

// Submit validates the input and commits the review atomically. Validation
// failures reject before any state change; commit failures roll back fully
// and surface as a retryable error.
func (a *Aggregator) Submit(ctx context.Context, in SubmitInput) (*Review, error) {
	if in.Rating < 1 || in.Rating > 5 || len(strings.TrimSpace(in.Comment)) < MinCommentLength {
		return nil, ErrInvalidRating
	}
	if in.CustomerID == uuid.Nil || in.AppointmentID == uuid.Nil {
		return nil, ErrNotFound
	}

	rev := &Review{
		AppointmentID: in.AppointmentID,
		CustomerID:    in.CustomerID,
		Rating:        in.Rating,
		Comment:       strings.TrimSpace(in.Comment),
	}
	if err := a.store.Commit(ctx, rev, a.now()); err != nil {
		return nil, err
	}

	a.logger.Info("review committed",
		"review_id", rev.ID,
		"appointment_id", rev.AppointmentID,
		"service_id", rev.ServiceID,
		"rating", rev.Rating,
	)
	return rev, nil
}
