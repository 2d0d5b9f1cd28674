package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	businessDomain "github.com/punchly/service-loyalty/internal/domain/business"
	historyDomain "github.com/punchly/service-loyalty/internal/domain/history"
)

// BusinessDTO is the API representation of a business and its loyalty program.
type BusinessDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	BusinessType    string    `json:"business_type"`
	Reward          string    `json:"reward"`
	PunchesRequired int       `json:"punches_required"`
	PrimaryColor    string    `json:"primary_color,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// UpdateProgramRequest holds data to change a business's reward settings.
type UpdateProgramRequest struct {
	Reward          string `json:"reward" binding:"required"`
	PunchesRequired int    `json:"punches_required" binding:"required,min=1"`
}

// BusinessStatsDTO aggregates activity counters for the admin dashboard.
type BusinessStatsDTO struct {
	BusinessID       uuid.UUID `json:"business_id"`
	TotalPunches     int64     `json:"total_punches"`
	TotalRedemptions int64     `json:"total_redemptions"`
	TotalCustomers   int64     `json:"total_customers"`
}

// BusinessService manages loyalty program settings and activity stats.
type BusinessService struct {
	businesses businessDomain.Repository
	history    historyDomain.Repository
	logger     *zap.Logger
}

// NewBusinessService creates a new BusinessService.
func NewBusinessService(
	businesses businessDomain.Repository,
	history historyDomain.Repository,
	logger *zap.Logger,
) *BusinessService {
	return &BusinessService{
		businesses: businesses,
		history:    history,
		logger:     logger,
	}
}

// GetBusiness returns a business profile with its program settings.
func (s *BusinessService) GetBusiness(ctx context.Context, businessID uuid.UUID) (*BusinessDTO, error) {
	biz, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return toBusinessDTO(biz), nil
}

// UpdateProgram changes the reward and threshold for the calling business.
func (s *BusinessService) UpdateProgram(ctx context.Context, businessID uuid.UUID, req UpdateProgramRequest) (*BusinessDTO, error) {
	biz, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if err := biz.UpdateProgram(req.Reward, req.PunchesRequired); err != nil {
		return nil, err
	}
	if err := s.businesses.Update(ctx, biz); err != nil {
		return nil, err
	}

	s.logger.Info("loyalty program updated",
		zap.String("business_id", businessID.String()),
		zap.Int("punches_required", req.PunchesRequired),
	)
	return toBusinessDTO(biz), nil
}

// GetStats aggregates punch and redemption counters for a business.
func (s *BusinessService) GetStats(ctx context.Context, businessID uuid.UUID) (*BusinessStatsDTO, error) {
	stats, err := s.history.StatsByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return &BusinessStatsDTO{
		BusinessID:       businessID,
		TotalPunches:     stats.TotalPunches,
		TotalRedemptions: stats.TotalRedemptions,
		TotalCustomers:   stats.TotalCustomers,
	}, nil
}

func toBusinessDTO(biz *businessDomain.Business) *BusinessDTO {
	return &BusinessDTO{
		ID:              biz.ID(),
		Name:            biz.Name(),
		BusinessType:    biz.BusinessType(),
		Reward:          biz.Reward(),
		PunchesRequired: biz.PunchesRequired(),
		PrimaryColor:    biz.PrimaryColor(),
		CreatedAt:       biz.CreatedAt(),
	}
}
