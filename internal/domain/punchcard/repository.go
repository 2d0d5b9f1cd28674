package punchcard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for punchcard ledger entries.
// The mutating operations are conditional single-statement updates so that
// concurrent scans cannot double-apply.
type Repository interface {
	// Save persists a new punchcard.
	Save(ctx context.Context, p *Punchcard) error

	// FindByID retrieves a punchcard by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Punchcard, error)

	// FindByUserAndBusiness retrieves the ledger entry for a customer at
	// a business.
	FindByUserAndBusiness(ctx context.Context, userID, businessID uuid.UUID) (*Punchcard, error)

	// ListByUser retrieves all punchcards for a customer, most recently
	// updated first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Punchcard, error)

	// AddPunch atomically increments the punch count and stamps the visit
	// time, returning the updated entry.
	AddPunch(ctx context.Context, id uuid.UUID, at time.Time) (*Punchcard, error)

	// ApplyRedemption decrements the balance by punchesRequired, floored
	// at zero, only if the balance still meets the threshold. It returns
	// the updated entry and true on success, or false when the
	// precondition no longer held.
	ApplyRedemption(ctx context.Context, id uuid.UUID, punchesRequired int, at time.Time) (*Punchcard, bool, error)

	// DeleteByUser removes all punchcards for a user (account deletion
	// cascade).
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
