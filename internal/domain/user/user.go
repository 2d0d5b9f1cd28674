package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a loyalty program customer. Only the fields the loyalty flows
// display are modeled here; account management lives elsewhere.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}

// DisplayName returns the name to show on scan results, falling back to the
// email address.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Repository defines persistence operations for users.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Save(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}
