package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PunchRecord is one audit row per recorded punch.
type PunchRecord struct {
	ID          uuid.UUID
	PunchcardID uuid.UUID
	BusinessID  uuid.UUID
	UserID      uuid.UUID
	CreatedAt   time.Time
}

// RedemptionRecord is one audit row per consumed reward.
type RedemptionRecord struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	BusinessID     uuid.UUID
	PunchcardID    uuid.UUID
	RewardRedeemed string
	RedeemedAt     time.Time
}

// BusinessStats aggregates per-business activity counters.
type BusinessStats struct {
	TotalPunches     int64
	TotalRedemptions int64
	TotalCustomers   int64
}

// Repository defines persistence operations for the audit collections.
// Appends are best-effort from the caller's point of view; they never gate
// the ledger writes they describe.
type Repository interface {
	SavePunch(ctx context.Context, rec *PunchRecord) error
	SaveRedemption(ctx context.Context, rec *RedemptionRecord) error
	StatsByBusiness(ctx context.Context, businessID uuid.UUID) (*BusinessStats, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
