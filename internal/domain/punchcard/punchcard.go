package punchcard

import (
	"time"

	"github.com/google/uuid"

	"github.com/punchly/service-loyalty/internal/platform/domain"
)

// Punchcard is the per-(customer, business) loyalty ledger entry.
type Punchcard struct {
	id               uuid.UUID
	userID           uuid.UUID
	businessID       uuid.UUID
	punches          int
	isFavorite       bool
	lastPunchAt      *time.Time
	lastRedemptionAt *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// New creates an empty punchcard for a customer at a business.
func New(userID, businessID uuid.UUID) (*Punchcard, error) {
	if userID == uuid.Nil || businessID == uuid.Nil {
		return nil, domain.NewValidationError("punchcard requires user and business references")
	}

	now := time.Now().UTC()
	return &Punchcard{
		id:         uuid.New(),
		userID:     userID,
		businessID: businessID,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a Punchcard from persistence.
func Reconstruct(id, userID, businessID uuid.UUID, punches int, isFavorite bool, lastPunchAt, lastRedemptionAt *time.Time, createdAt, updatedAt time.Time) *Punchcard {
	return &Punchcard{
		id: id, userID: userID, businessID: businessID,
		punches: punches, isFavorite: isFavorite,
		lastPunchAt: lastPunchAt, lastRedemptionAt: lastRedemptionAt,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// AddPunch increments the punch count and stamps the visit time.
func (p *Punchcard) AddPunch() {
	now := time.Now().UTC()
	p.punches++
	p.lastPunchAt = &now
	p.updatedAt = now
}

// CanRedeem reports whether the current balance meets the threshold.
func (p *Punchcard) CanRedeem(punchesRequired int) bool {
	return p.punches >= punchesRequired
}

// Redeem consumes punchesRequired punches, flooring the balance at zero.
// Surplus above the threshold is forfeited (threshold-reset model).
func (p *Punchcard) Redeem(punchesRequired int) error {
	if punchesRequired <= 0 {
		return domain.NewValidationError("punches required must be positive")
	}
	if p.punches < punchesRequired {
		return domain.NewValidationError("customer doesn't have enough punches for redemption")
	}

	now := time.Now().UTC()
	p.punches -= punchesRequired
	if p.punches < 0 {
		p.punches = 0
	}
	p.lastRedemptionAt = &now
	p.updatedAt = now
	return nil
}

// Getters.
func (p *Punchcard) ID() uuid.UUID                { return p.id }
func (p *Punchcard) UserID() uuid.UUID            { return p.userID }
func (p *Punchcard) BusinessID() uuid.UUID        { return p.businessID }
func (p *Punchcard) Punches() int                 { return p.punches }
func (p *Punchcard) IsFavorite() bool             { return p.isFavorite }
func (p *Punchcard) LastPunchAt() *time.Time      { return p.lastPunchAt }
func (p *Punchcard) LastRedemptionAt() *time.Time { return p.lastRedemptionAt }
func (p *Punchcard) CreatedAt() time.Time         { return p.createdAt }
func (p *Punchcard) UpdatedAt() time.Time         { return p.updatedAt }
