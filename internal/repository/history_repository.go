package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	historyDomain "github.com/punchly/service-loyalty/internal/domain/history"
)

// PunchHistoryModel is the GORM model for the punch_history table.
type PunchHistoryModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PunchcardID uuid.UUID `gorm:"type:uuid;not null;index"`
	BusinessID  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (PunchHistoryModel) TableName() string { return "punch_history" }

// RedemptionHistoryModel is the GORM model for the redemption_history table.
type RedemptionHistoryModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index"`
	BusinessID     uuid.UUID `gorm:"type:uuid;not null;index"`
	PunchcardID    uuid.UUID `gorm:"type:uuid;not null"`
	RewardRedeemed string    `gorm:"type:text;not null"`
	RedeemedAt     time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (RedemptionHistoryModel) TableName() string { return "redemption_history" }

// GormHistoryRepository implements history.Repository using GORM.
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository.
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// SavePunch appends a punch audit record.
func (r *GormHistoryRepository) SavePunch(ctx context.Context, rec *historyDomain.PunchRecord) error {
	model := PunchHistoryModel{
		ID:          rec.ID,
		PunchcardID: rec.PunchcardID,
		BusinessID:  rec.BusinessID,
		UserID:      rec.UserID,
		CreatedAt:   rec.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// SaveRedemption appends a redemption audit record.
func (r *GormHistoryRepository) SaveRedemption(ctx context.Context, rec *historyDomain.RedemptionRecord) error {
	model := RedemptionHistoryModel{
		ID:             rec.ID,
		UserID:         rec.UserID,
		BusinessID:     rec.BusinessID,
		PunchcardID:    rec.PunchcardID,
		RewardRedeemed: rec.RewardRedeemed,
		RedeemedAt:     rec.RedeemedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// StatsByBusiness aggregates activity counters for one business.
func (r *GormHistoryRepository) StatsByBusiness(ctx context.Context, businessID uuid.UUID) (*historyDomain.BusinessStats, error) {
	var stats historyDomain.BusinessStats

	if err := r.db.WithContext(ctx).
		Model(&PunchHistoryModel{}).
		Where("business_id = ?", businessID).
		Count(&stats.TotalPunches).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Model(&RedemptionHistoryModel{}).
		Where("business_id = ?", businessID).
		Count(&stats.TotalRedemptions).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Model(&PunchHistoryModel{}).
		Where("business_id = ?", businessID).
		Distinct("user_id").
		Count(&stats.TotalCustomers).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

// DeleteByUser removes all audit rows for a user.
func (r *GormHistoryRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&PunchHistoryModel{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&RedemptionHistoryModel{}).Error
}
