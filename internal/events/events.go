package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/punchly/service-loyalty/internal/platform/kafka"
)

// Topics.
const (
	TopicLoyaltyEvents = "loyalty.events"
	TopicAccountEvents = "account.events"
)

// Event types.
const (
	LoyaltyPunchRecorded  = "loyalty.punch.recorded"
	LoyaltyRewardRedeemed = "loyalty.reward.redeemed"
	AccountUserDeleted    = "account.user.deleted"
)

// Publisher is the outbound event port. *kafka.Producer satisfies it.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// PunchRecordedEvent is published after a punch is applied to a ledger.
type PunchRecordedEvent struct {
	PunchcardID uuid.UUID `json:"punchcard_id"`
	UserID      uuid.UUID `json:"user_id"`
	BusinessID  uuid.UUID `json:"business_id"`
	Punches     int       `json:"punches"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// RewardRedeemedEvent is published after a redemption consumes punches.
type RewardRedeemedEvent struct {
	UserID           uuid.UUID `json:"user_id"`
	BusinessID       uuid.UUID `json:"business_id"`
	PunchcardID      uuid.UUID `json:"punchcard_id"`
	Reward           string    `json:"reward"`
	PunchesUsed      int       `json:"punches_used"`
	RemainingPunches int       `json:"remaining_punches"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// UserDeletedEvent arrives from the account service when a customer deletes
// their account; the loyalty service cascades its own collections.
type UserDeletedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
