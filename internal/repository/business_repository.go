package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	businessDomain "github.com/punchly/service-loyalty/internal/domain/business"
	"github.com/punchly/service-loyalty/internal/platform/domain"
)

// BusinessModel is the GORM model for the businesses table.
type BusinessModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"type:varchar(255);not null"`
	BusinessType    string    `gorm:"type:varchar(100)"`
	Reward          string    `gorm:"type:text;not null"`
	PunchesRequired int       `gorm:"not null;default:10"`
	PrimaryColor    string    `gorm:"type:varchar(20)"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt       time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (BusinessModel) TableName() string { return "businesses" }

// GormBusinessRepository implements business.Repository using GORM.
type GormBusinessRepository struct {
	db *gorm.DB
}

// NewGormBusinessRepository creates a new GormBusinessRepository.
func NewGormBusinessRepository(db *gorm.DB) *GormBusinessRepository {
	return &GormBusinessRepository{db: db}
}

// Save persists a new business.
func (r *GormBusinessRepository) Save(ctx context.Context, b *businessDomain.Business) error {
	model := toBusinessModel(b)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists changes to an existing business.
func (r *GormBusinessRepository) Update(ctx context.Context, b *businessDomain.Business) error {
	model := toBusinessModel(b)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID retrieves a business by ID.
func (r *GormBusinessRepository) FindByID(ctx context.Context, id uuid.UUID) (*businessDomain.Business, error) {
	var model BusinessModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Business", id.String())
		}
		return nil, err
	}
	return toBusinessDomain(&model), nil
}

func toBusinessModel(b *businessDomain.Business) BusinessModel {
	return BusinessModel{
		ID:              b.ID(),
		Name:            b.Name(),
		BusinessType:    b.BusinessType(),
		Reward:          b.Reward(),
		PunchesRequired: b.PunchesRequired(),
		PrimaryColor:    b.PrimaryColor(),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}
}

func toBusinessDomain(m *BusinessModel) *businessDomain.Business {
	return businessDomain.Reconstruct(
		m.ID, m.Name, m.BusinessType,
		m.Reward, m.PunchesRequired, m.PrimaryColor,
		m.CreatedAt, m.UpdatedAt,
	)
}
