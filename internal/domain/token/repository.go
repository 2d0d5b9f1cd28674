package token

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for redemption tokens.
type Repository interface {
	// Save persists a newly issued token.
	Save(ctx context.Context, t *RedemptionToken) error

	// FindByValue retrieves a token by its opaque value string.
	FindByValue(ctx context.Context, value string) (*RedemptionToken, error)

	// MarkUsed flips is_used from false to true as a single conditional
	// update. It returns false when no row was affected, meaning a
	// concurrent redemption already consumed the token.
	MarkUsed(ctx context.Context, value string, usedAt time.Time) (bool, error)

	// DeleteByUser removes all tokens belonging to a user (account
	// deletion cascade). Used and expired tokens are otherwise retained
	// for audit.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
