package review

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MinCommentLength is the shortest accepted review comment.
const MinCommentLength = 5

var (
	// ErrNotFound means the appointment is missing or not owned by the caller.
	ErrNotFound = errors.New("review: appointment not found")

	// ErrInvalidState means the appointment has not completed yet.
	ErrInvalidState = errors.New("review: appointment is not completed")

	// ErrAlreadyReviewed means the appointment already carries a review.
	ErrAlreadyReviewed = errors.New("review: appointment already reviewed")

	// ErrInvalidRating rejects ratings outside [1,5] or comments below the
	// minimum length.
	ErrInvalidRating = errors.New("review: rating must be 1-5 and comment at least 5 characters")

	// ErrConflict is a retryable transaction-commit failure. Nothing was
	// written.
	ErrConflict = errors.New("review: commit conflict, retry")
)

// Review is a customer's rating of a completed appointment. At most one
// review exists per appointment, enforced by a uniqueness constraint on
// (customer_id, appointment_id).
type Review struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	ServiceID     uuid.UUID `json:"service_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Rating        int       `json:"rating"` // 1..5
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}
