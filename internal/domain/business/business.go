package business

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/punchly/service-loyalty/internal/platform/domain"
)

// Business is the aggregate root for a participating merchant and its
// loyalty program settings.
type Business struct {
	id              uuid.UUID
	name            string
	businessType    string
	reward          string
	punchesRequired int
	primaryColor    string
	createdAt       time.Time
	updatedAt       time.Time
}

// New registers a business with its loyalty program.
func New(name, businessType, reward string, punchesRequired int) (*Business, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("business name is required")
	}
	if strings.TrimSpace(reward) == "" {
		return nil, domain.NewValidationError("reward description is required")
	}
	if punchesRequired < 1 {
		return nil, domain.NewValidationError("punches required must be at least 1")
	}

	now := time.Now().UTC()
	return &Business{
		id:              uuid.New(),
		name:            name,
		businessType:    businessType,
		reward:          reward,
		punchesRequired: punchesRequired,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Reconstruct rebuilds a Business from persistence.
func Reconstruct(id uuid.UUID, name, businessType, reward string, punchesRequired int, primaryColor string, createdAt, updatedAt time.Time) *Business {
	return &Business{
		id: id, name: name, businessType: businessType,
		reward: reward, punchesRequired: punchesRequired,
		primaryColor: primaryColor,
		createdAt:    createdAt, updatedAt: updatedAt,
	}
}

// UpdateProgram changes the reward threshold settings.
func (b *Business) UpdateProgram(reward string, punchesRequired int) error {
	if strings.TrimSpace(reward) == "" {
		return domain.NewValidationError("reward description is required")
	}
	if punchesRequired < 1 {
		return domain.NewValidationError("punches required must be at least 1")
	}
	b.reward = reward
	b.punchesRequired = punchesRequired
	b.updatedAt = time.Now().UTC()
	return nil
}

// Getters.
func (b *Business) ID() uuid.UUID        { return b.id }
func (b *Business) Name() string         { return b.name }
func (b *Business) BusinessType() string { return b.businessType }
func (b *Business) Reward() string       { return b.reward }
func (b *Business) PunchesRequired() int { return b.punchesRequired }
func (b *Business) PrimaryColor() string { return b.primaryColor }
func (b *Business) CreatedAt() time.Time { return b.createdAt }
func (b *Business) UpdatedAt() time.Time { return b.updatedAt }
