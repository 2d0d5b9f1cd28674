package business

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for businesses.
type Repository interface {
	Save(ctx context.Context, b *Business) error
	Update(ctx context.Context, b *Business) error
	FindByID(ctx context.Context, id uuid.UUID) (*Business, error)
}
