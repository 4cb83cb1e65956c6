package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bookwell/bookwell/pkg/logging"
)

// ClaimGuard is a short-lived redis SETNX in front of the durable delivery
// marker. It cheaply short-circuits overlapping sweeps racing on the same
// (appointment, offset); the database marker remains the authoritative
// dedup, so a lost or expired claim can never cause a duplicate send on its
// own.
type ClaimGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewClaimGuard creates a claim guard. client may be nil, in which case every
// claim succeeds and the database marker does all the work.
func NewClaimGuard(client *redis.Client, ttl time.Duration, logger *logging.Logger) *ClaimGuard {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ClaimGuard{client: client, ttl: ttl, logger: logger}
}

// TryClaim attempts to claim an (appointment, offset) pair for this sweep.
// Redis errors degrade to an allowed claim: availability over strictness.
func (g *ClaimGuard) TryClaim(ctx context.Context, appointmentID uuid.UUID, label string) bool {
	if g == nil || g.client == nil {
		return true
	}
	ok, err := g.client.SetNX(ctx, claimKey(appointmentID, label), 1, g.ttl).Result()
	if err != nil {
		g.logger.Warn("reminder claim check failed, proceeding", "appointment_id", appointmentID, "offset", label, "error", err)
		return true
	}
	return ok
}

// Release frees a claim after a failed dispatch so the next sweep may retry
// without waiting for the TTL.
func (g *ClaimGuard) Release(ctx context.Context, appointmentID uuid.UUID, label string) {
	if g == nil || g.client == nil {
		return
	}
	if err := g.client.Del(ctx, claimKey(appointmentID, label)).Err(); err != nil {
		g.logger.Warn("reminder claim release failed", "appointment_id", appointmentID, "offset", label, "error", err)
	}
}

func claimKey(appointmentID uuid.UUID, label string) string {
	return fmt.Sprintf("reminder:claim:%s:%s", appointmentID, label)
}
