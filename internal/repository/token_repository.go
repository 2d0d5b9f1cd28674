package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	tokenDomain "github.com/punchly/service-loyalty/internal/domain/token"
	"github.com/punchly/service-loyalty/internal/platform/domain"
)

// RedemptionTokenModel is the GORM model for the redemption_tokens table.
type RedemptionTokenModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Token       string     `gorm:"type:varchar(64);uniqueIndex;not null"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	BusinessID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	PunchcardID uuid.UUID  `gorm:"type:uuid;not null"`
	Reward      string     `gorm:"type:text;not null"`
	IssuedAt    time.Time  `gorm:"type:timestamptz;not null"`
	ExpiresAt   time.Time  `gorm:"type:timestamptz;not null"`
	IsUsed      bool       `gorm:"not null;default:false"`
	UsedAt      *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName sets the table name.
func (RedemptionTokenModel) TableName() string { return "redemption_tokens" }

// GormTokenRepository implements token.Repository using GORM.
type GormTokenRepository struct {
	db *gorm.DB
}

// NewGormTokenRepository creates a new GormTokenRepository.
func NewGormTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

// Save persists a newly issued token.
func (r *GormTokenRepository) Save(ctx context.Context, t *tokenDomain.RedemptionToken) error {
	model := toTokenModel(t)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByValue retrieves a token by its opaque value string.
func (r *GormTokenRepository) FindByValue(ctx context.Context, value string) (*tokenDomain.RedemptionToken, error) {
	var model RedemptionTokenModel
	if err := r.db.WithContext(ctx).Where("token = ?", value).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("RedemptionToken", value)
		}
		return nil, err
	}
	return toTokenDomain(&model), nil
}

// MarkUsed flips is_used in a single conditional update. The is_used=false
// filter is the race arbiter: of any number of concurrent redemptions of the
// same token, exactly one affects a row.
func (r *GormTokenRepository) MarkUsed(ctx context.Context, value string, usedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&RedemptionTokenModel{}).
		Where("token = ? AND is_used = ?", value, false).
		Updates(map[string]interface{}{
			"is_used": true,
			"used_at": usedAt.UTC(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByUser removes all tokens belonging to a user.
func (r *GormTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&RedemptionTokenModel{}).Error
}

func toTokenModel(t *tokenDomain.RedemptionToken) RedemptionTokenModel {
	return RedemptionTokenModel{
		ID:          t.ID(),
		Token:       t.Value(),
		UserID:      t.UserID(),
		BusinessID:  t.BusinessID(),
		PunchcardID: t.PunchcardID(),
		Reward:      t.Reward(),
		IssuedAt:    t.IssuedAt(),
		ExpiresAt:   t.ExpiresAt(),
		IsUsed:      t.IsUsed(),
		UsedAt:      t.UsedAt(),
	}
}

func toTokenDomain(m *RedemptionTokenModel) *tokenDomain.RedemptionToken {
	return tokenDomain.Reconstruct(
		m.ID, m.Token,
		m.UserID, m.BusinessID, m.PunchcardID,
		m.Reward, m.IssuedAt, m.ExpiresAt,
		m.IsUsed, m.UsedAt,
	)
}
