package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bookwell/bookwell/internal/appointment"
)

// DB is the slice of the pgx pool interface the store needs. *pgxpool.Pool
// satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store commits reviews transactionally.
type Store struct {
	db DB
}

// NewStore creates a review store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Commit runs the whole review submission as one atomic unit:
//
//  1. lock and verify the appointment (owned by the customer, effectively
//     completed, not yet reviewed)
//  2. insert the review
//  3. flip has_reviewed on the appointment
//  4. fold the new rating into the service's running average and count
//
// Either all four commit or none do. Row locks on the appointment and the
// service serialize concurrent reviews touching the same service, so two
// concurrent commits cannot lose an update.
func (s *Store) Commit(ctx context.Context, rev *Review, now time.Time) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("review: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var (
		ownerID     uuid.UUID
		serviceID   uuid.UUID
		status      string
		startsAt    time.Time
		hasReviewed bool
	)
	row := tx.QueryRow(ctx, `
		SELECT customer_id, service_id, status, starts_at, has_reviewed
		FROM appointments WHERE id = $1
		FOR UPDATE`, rev.AppointmentID)
	if err = row.Scan(&ownerID, &serviceID, &status, &startsAt, &hasReviewed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("review: lock appointment: %w", err)
	}
	if ownerID != rev.CustomerID {
		return ErrNotFound
	}

	appt := appointment.Appointment{Status: appointment.Status(status), StartsAt: startsAt}
	if appt.EffectiveStatus(now) != appointment.StatusCompleted {
		return ErrInvalidState
	}
	if hasReviewed {
		return ErrAlreadyReviewed
	}

	var (
		avgRating    float64
		totalReviews int
	)
	row = tx.QueryRow(ctx, `
		SELECT avg_rating, total_reviews FROM services WHERE id = $1
		FOR UPDATE`, serviceID)
	if err = row.Scan(&avgRating, &totalReviews); err != nil {
		return fmt.Errorf("review: lock service: %w", err)
	}

	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	rev.ServiceID = serviceID
	rev.CreatedAt = now.UTC()
	if _, err = tx.Exec(ctx, `
		INSERT INTO reviews (id, appointment_id, service_id, customer_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rev.ID, rev.AppointmentID, rev.ServiceID, rev.CustomerID, rev.Rating, rev.Comment, rev.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyReviewed
		}
		return fmt.Errorf("review: insert: %w", err)
	}

	var tag pgconn.CommandTag
	tag, err = tx.Exec(ctx, `
		UPDATE appointments SET has_reviewed = TRUE, updated_at = $1
		WHERE id = $2 AND has_reviewed = FALSE`, now.UTC(), rev.AppointmentID)
	if err != nil {
		return fmt.Errorf("review: mark reviewed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReviewed
	}

	newAvg := (avgRating*float64(totalReviews) + float64(rev.Rating)) / float64(totalReviews+1)
	if _, err = tx.Exec(ctx, `
		UPDATE services SET avg_rating = $1, total_reviews = $2, updated_at = $3
		WHERE id = $4`, newAvg, totalReviews+1, now.UTC(), serviceID,
	); err != nil {
		return fmt.Errorf("review: update rating aggregate: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return nil
}

// ListForService returns a service's reviews, newest first.
func (s *Store) ListForService(ctx context.Context, serviceID uuid.UUID, limit int) ([]Review, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, appointment_id, service_id, customer_id, rating, comment, created_at
		FROM reviews WHERE service_id = $1
		ORDER BY created_at DESC LIMIT $2`, serviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("review: list for service: %w", err)
	}
	defer rows.Close()

	var result []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.AppointmentID, &r.ServiceID, &r.CustomerID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("review: scan: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
