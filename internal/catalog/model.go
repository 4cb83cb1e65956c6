package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Service is a bookable offering published by a provider.
//
// AvgRating and TotalReviews are maintained as a running aggregate: AvgRating
// is always the arithmetic mean of the service's review ratings and
// TotalReviews their count. The pair is only ever mutated together, inside
// the review-commit transaction.
type Service struct {
	ID              uuid.UUID `json:"id"`
	ProviderID      uuid.UUID `json:"provider_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int       `json:"price_cents"`

	// RequiresConfirmation makes new bookings start as pending and wait for
	// an explicit provider confirm/reject instead of going straight to
	// scheduled.
	RequiresConfirmation bool `json:"requires_confirmation"`

	AvgRating    float64 `json:"avg_rating"`
	TotalReviews int     `json:"total_reviews"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
