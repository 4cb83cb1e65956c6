package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound means the service does not exist.
var ErrNotFound = errors.New("catalog: service not found")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const serviceColumns = `id, provider_id, name, description, duration_minutes, price_cents,
		requires_confirmation, avg_rating, total_reviews, created_at, updated_at`

// Store provides persistence for the service catalog.
type Store struct {
	db DB
}

// NewStore creates a catalog store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Create inserts a service.
func (s *Store) Create(ctx context.Context, svc *Service) error {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	now := time.Now().UTC()
	svc.CreatedAt = now
	svc.UpdatedAt = now

	_, err := s.db.Exec(ctx, `
		INSERT INTO services (id, provider_id, name, description, duration_minutes, price_cents,
			requires_confirmation, avg_rating, total_reviews, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		svc.ID, svc.ProviderID, svc.Name, svc.Description, svc.DurationMinutes, svc.PriceCents,
		svc.RequiresConfirmation, svc.AvgRating, svc.TotalReviews, svc.CreatedAt, svc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("catalog: create service: %w", err)
	}
	return nil
}

// Get loads a service by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services WHERE id = $1`, id)
	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: get service: %w", err)
	}
	return svc, nil
}

// ListForProvider returns a provider's services.
func (s *Store) ListForProvider(ctx context.Context, providerID uuid.UUID) ([]Service, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services WHERE provider_id = $1
		ORDER BY name ASC`, providerID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list for provider: %w", err)
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		result = append(result, *svc)
	}
	return result, rows.Err()
}

func scanService(row pgx.Row) (*Service, error) {
	var svc Service
	err := row.Scan(
		&svc.ID, &svc.ProviderID, &svc.Name, &svc.Description, &svc.DurationMinutes, &svc.PriceCents,
		&svc.RequiresConfirmation, &svc.AvgRating, &svc.TotalReviews, &svc.CreatedAt, &svc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &svc, nil
}
