package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/punchly/service-loyalty/internal/platform/domain"
)

// RedemptionToken is the aggregate root for single-use reward credentials.
// A token is scoped to exactly one (user, business, punchcard) tuple and
// captures the reward text at issuance time.
type RedemptionToken struct {
	id          uuid.UUID
	value       string
	userID      uuid.UUID
	businessID  uuid.UUID
	punchcardID uuid.UUID
	reward      string
	issuedAt    time.Time
	expiresAt   time.Time
	isUsed      bool
	usedAt      *time.Time
}

// New issues a fresh token valid for the given window.
func New(userID, businessID, punchcardID uuid.UUID, reward string, validity time.Duration) (*RedemptionToken, error) {
	if userID == uuid.Nil || businessID == uuid.Nil || punchcardID == uuid.Nil {
		return nil, domain.NewValidationError("token requires user, business and punchcard references")
	}
	if reward == "" {
		return nil, domain.NewValidationError("token requires a reward description")
	}
	if validity <= 0 {
		return nil, domain.NewValidationError("token validity window must be positive")
	}

	value, err := generateValue()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &RedemptionToken{
		id:          uuid.New(),
		value:       value,
		userID:      userID,
		businessID:  businessID,
		punchcardID: punchcardID,
		reward:      reward,
		issuedAt:    now,
		expiresAt:   now.Add(validity),
	}, nil
}

// generateValue builds a timestamp-prefixed opaque token string. The random
// suffix comes from crypto/rand so the value is unguessable within its
// validity window.
func generateValue() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token value: %w", err)
	}
	return fmt.Sprintf("rt_%d_%s", time.Now().UTC().UnixMilli(), hex.EncodeToString(buf)), nil
}

// Reconstruct rebuilds a RedemptionToken from persistence.
func Reconstruct(id uuid.UUID, value string, userID, businessID, punchcardID uuid.UUID, reward string, issuedAt, expiresAt time.Time, isUsed bool, usedAt *time.Time) *RedemptionToken {
	return &RedemptionToken{
		id: id, value: value,
		userID: userID, businessID: businessID, punchcardID: punchcardID,
		reward: reward, issuedAt: issuedAt, expiresAt: expiresAt,
		isUsed: isUsed, usedAt: usedAt,
	}
}

// MarkUsed transitions the token to its terminal used state. The transition
// is legal exactly once.
func (t *RedemptionToken) MarkUsed(at time.Time) error {
	if t.isUsed {
		return domain.NewInvalidStateError("used", "used")
	}
	at = at.UTC()
	t.isUsed = true
	t.usedAt = &at
	return nil
}

// IsExpired reports whether the token's validity window has passed at the
// given instant.
func (t *RedemptionToken) IsExpired(at time.Time) bool {
	return !at.Before(t.expiresAt)
}

// BelongsTo reports whether the token was issued for the given business.
func (t *RedemptionToken) BelongsTo(businessID uuid.UUID) bool {
	return t.businessID == businessID
}

// Getters.
func (t *RedemptionToken) ID() uuid.UUID          { return t.id }
func (t *RedemptionToken) Value() string          { return t.value }
func (t *RedemptionToken) UserID() uuid.UUID      { return t.userID }
func (t *RedemptionToken) BusinessID() uuid.UUID  { return t.businessID }
func (t *RedemptionToken) PunchcardID() uuid.UUID { return t.punchcardID }
func (t *RedemptionToken) Reward() string         { return t.reward }
func (t *RedemptionToken) IssuedAt() time.Time    { return t.issuedAt }
func (t *RedemptionToken) ExpiresAt() time.Time   { return t.expiresAt }
func (t *RedemptionToken) IsUsed() bool           { return t.isUsed }
func (t *RedemptionToken) UsedAt() *time.Time     { return t.usedAt }
