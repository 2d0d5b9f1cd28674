package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	businessDomain "github.com/punchly/service-loyalty/internal/domain/business"
	historyDomain "github.com/punchly/service-loyalty/internal/domain/history"
	punchcardDomain "github.com/punchly/service-loyalty/internal/domain/punchcard"
	userDomain "github.com/punchly/service-loyalty/internal/domain/user"
	"github.com/punchly/service-loyalty/internal/events"
	"github.com/punchly/service-loyalty/internal/platform/domain"
	platformkafka "github.com/punchly/service-loyalty/internal/platform/kafka"
)

// PunchResultDTO is returned to the scanning business after a punch.
type PunchResultDTO struct {
	CustomerName string `json:"customer_name"`
	Punches      int    `json:"punches"`
	RewardReady  bool   `json:"reward_ready"`
}

// PunchcardDTO is the customer-facing view of one loyalty card.
type PunchcardDTO struct {
	ID               uuid.UUID  `json:"id"`
	BusinessID       uuid.UUID  `json:"business_id"`
	BusinessName     string     `json:"business_name"`
	Reward           string     `json:"reward"`
	Punches          int        `json:"punches"`
	PunchesRequired  int        `json:"punches_required"`
	RewardReady      bool       `json:"reward_ready"`
	LastPunchAt      *time.Time `json:"last_punch_at,omitempty"`
	LastRedemptionAt *time.Time `json:"last_redemption_at,omitempty"`
}

// PunchService handles the customer-identity scan path: finding or creating
// the punchcard and incrementing its balance.
type PunchService struct {
	punchcards punchcardDomain.Repository
	businesses businessDomain.Repository
	users      userDomain.Repository
	history    historyDomain.Repository
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewPunchService creates a new PunchService.
func NewPunchService(
	punchcards punchcardDomain.Repository,
	businesses businessDomain.Repository,
	users userDomain.Repository,
	history historyDomain.Repository,
	publisher events.Publisher,
	logger *zap.Logger,
) *PunchService {
	return &PunchService{
		punchcards: punchcards,
		businesses: businesses,
		users:      users,
		history:    history,
		publisher:  publisher,
		logger:     logger,
	}
}

// RecordPunch adds one punch for the scanned customer at the scanning
// business, creating the punchcard on first visit.
func (s *PunchService) RecordPunch(ctx context.Context, scanningBusinessID, customerID uuid.UUID) (*PunchResultDTO, error) {
	u, err := s.users.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	biz, err := s.businesses.FindByID(ctx, scanningBusinessID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	card, err := s.punchcards.FindByUserAndBusiness(ctx, customerID, scanningBusinessID)
	switch {
	case err == nil:
		card, err = s.punchcards.AddPunch(ctx, card.ID(), now)
		if err != nil {
			return nil, err
		}

	case isNotFound(err):
		card, err = punchcardDomain.New(customerID, scanningBusinessID)
		if err != nil {
			return nil, err
		}
		card.AddPunch()
		if err := s.punchcards.Save(ctx, card); err != nil {
			return nil, err
		}

	default:
		return nil, err
	}

	rec := &historyDomain.PunchRecord{
		ID:          uuid.New(),
		PunchcardID: card.ID(),
		BusinessID:  scanningBusinessID,
		UserID:      customerID,
		CreatedAt:   now,
	}
	if err := s.history.SavePunch(ctx, rec); err != nil {
		s.logger.Error("failed to append punch history",
			zap.String("punchcard_id", card.ID().String()),
			zap.Error(err),
		)
	}

	s.publishPunchRecorded(ctx, card, now)

	s.logger.Info("punch recorded",
		zap.String("business_id", scanningBusinessID.String()),
		zap.String("punchcard_id", card.ID().String()),
		zap.Int("punches", card.Punches()),
	)

	return &PunchResultDTO{
		CustomerName: u.DisplayName(),
		Punches:      card.Punches(),
		RewardReady:  card.CanRedeem(biz.PunchesRequired()),
	}, nil
}

// ListPunchcards returns the customer's loyalty cards joined with their
// business program settings.
func (s *PunchService) ListPunchcards(ctx context.Context, userID uuid.UUID) ([]PunchcardDTO, error) {
	cards, err := s.punchcards.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]PunchcardDTO, 0, len(cards))
	for _, card := range cards {
		biz, err := s.businesses.FindByID(ctx, card.BusinessID())
		if err != nil {
			s.logger.Warn("punchcard references missing business",
				zap.String("punchcard_id", card.ID().String()),
				zap.String("business_id", card.BusinessID().String()),
			)
			continue
		}
		dtos = append(dtos, PunchcardDTO{
			ID:               card.ID(),
			BusinessID:       card.BusinessID(),
			BusinessName:     biz.Name(),
			Reward:           biz.Reward(),
			Punches:          card.Punches(),
			PunchesRequired:  biz.PunchesRequired(),
			RewardReady:      card.CanRedeem(biz.PunchesRequired()),
			LastPunchAt:      card.LastPunchAt(),
			LastRedemptionAt: card.LastRedemptionAt(),
		})
	}
	return dtos, nil
}

func (s *PunchService) publishPunchRecorded(ctx context.Context, card *punchcardDomain.Punchcard, at time.Time) {
	event := events.PunchRecordedEvent{
		PunchcardID: card.ID(),
		UserID:      card.UserID(),
		BusinessID:  card.BusinessID(),
		Punches:     card.Punches(),
		OccurredAt:  at,
	}

	ce, err := platformkafka.NewCloudEvent("service-loyalty", events.LoyaltyPunchRecorded, event)
	if err != nil {
		s.logger.Error("failed to create punch recorded event", zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, events.TopicLoyaltyEvents, ce); err != nil {
		s.logger.Error("failed to publish punch recorded event", zap.Error(err))
	}
}

func isNotFound(err error) bool {
	var domErr *domain.DomainError
	return errors.As(err, &domErr) && errors.Is(domErr.Err, domain.ErrNotFound)
}
