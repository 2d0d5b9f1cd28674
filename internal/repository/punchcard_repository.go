package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	punchcardDomain "github.com/punchly/service-loyalty/internal/domain/punchcard"
	"github.com/punchly/service-loyalty/internal/platform/domain"
)

// PunchcardModel is the GORM model for the punchcards table.
type PunchcardModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_punchcards_user_business,unique"`
	BusinessID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_punchcards_user_business,unique"`
	Punches          int        `gorm:"not null;default:0"`
	IsFavorite       bool       `gorm:"not null;default:false"`
	LastPunchAt      *time.Time `gorm:"type:timestamptz"`
	LastRedemptionAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt        time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt        time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (PunchcardModel) TableName() string { return "punchcards" }

// GormPunchcardRepository implements punchcard.Repository using GORM.
type GormPunchcardRepository struct {
	db *gorm.DB
}

// NewGormPunchcardRepository creates a new GormPunchcardRepository.
func NewGormPunchcardRepository(db *gorm.DB) *GormPunchcardRepository {
	return &GormPunchcardRepository{db: db}
}

// Save persists a new punchcard.
func (r *GormPunchcardRepository) Save(ctx context.Context, p *punchcardDomain.Punchcard) error {
	model := toPunchcardModel(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID retrieves a punchcard by ID.
func (r *GormPunchcardRepository) FindByID(ctx context.Context, id uuid.UUID) (*punchcardDomain.Punchcard, error) {
	var model PunchcardModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Punchcard", id.String())
		}
		return nil, err
	}
	return toPunchcardDomain(&model), nil
}

// FindByUserAndBusiness retrieves the ledger entry for a customer at a business.
func (r *GormPunchcardRepository) FindByUserAndBusiness(ctx context.Context, userID, businessID uuid.UUID) (*punchcardDomain.Punchcard, error) {
	var model PunchcardModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Punchcard", userID.String())
		}
		return nil, err
	}
	return toPunchcardDomain(&model), nil
}

// ListByUser retrieves all punchcards for a customer.
func (r *GormPunchcardRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*punchcardDomain.Punchcard, error) {
	var models []PunchcardModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	cards := make([]*punchcardDomain.Punchcard, len(models))
	for i := range models {
		cards[i] = toPunchcardDomain(&models[i])
	}
	return cards, nil
}

// AddPunch atomically increments the punch count in one statement, then
// reloads the entry.
func (r *GormPunchcardRepository) AddPunch(ctx context.Context, id uuid.UUID, at time.Time) (*punchcardDomain.Punchcard, error) {
	at = at.UTC()
	result := r.db.WithContext(ctx).
		Model(&PunchcardModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"punches":       gorm.Expr("punches + 1"),
			"last_punch_at": at,
			"updated_at":    at,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.NewNotFoundError("Punchcard", id.String())
	}
	return r.FindByID(ctx, id)
}

// ApplyRedemption decrements the balance by punchesRequired in a single
// conditional update. The punches >= required filter re-checks the threshold
// at write time, so a balance that moved since validation cannot go negative
// or double-fund a reward.
func (r *GormPunchcardRepository) ApplyRedemption(ctx context.Context, id uuid.UUID, punchesRequired int, at time.Time) (*punchcardDomain.Punchcard, bool, error) {
	at = at.UTC()
	result := r.db.WithContext(ctx).
		Model(&PunchcardModel{}).
		Where("id = ? AND punches >= ?", id, punchesRequired).
		Updates(map[string]interface{}{
			"punches":            gorm.Expr("GREATEST(punches - ?, 0)", punchesRequired),
			"last_redemption_at": at,
			"updated_at":         at,
		})
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, false, nil
	}

	updated, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// DeleteByUser removes all punchcards for a user.
func (r *GormPunchcardRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&PunchcardModel{}).Error
}

func toPunchcardModel(p *punchcardDomain.Punchcard) PunchcardModel {
	return PunchcardModel{
		ID:               p.ID(),
		UserID:           p.UserID(),
		BusinessID:       p.BusinessID(),
		Punches:          p.Punches(),
		IsFavorite:       p.IsFavorite(),
		LastPunchAt:      p.LastPunchAt(),
		LastRedemptionAt: p.LastRedemptionAt(),
		CreatedAt:        p.CreatedAt(),
		UpdatedAt:        p.UpdatedAt(),
	}
}

func toPunchcardDomain(m *PunchcardModel) *punchcardDomain.Punchcard {
	return punchcardDomain.Reconstruct(
		m.ID, m.UserID, m.BusinessID,
		m.Punches, m.IsFavorite,
		m.LastPunchAt, m.LastRedemptionAt,
		m.CreatedAt, m.UpdatedAt,
	)
}
