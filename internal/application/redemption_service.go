package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	businessDomain "github.com/punchly/service-loyalty/internal/domain/business"
	historyDomain "github.com/punchly/service-loyalty/internal/domain/history"
	punchcardDomain "github.com/punchly/service-loyalty/internal/domain/punchcard"
	tokenDomain "github.com/punchly/service-loyalty/internal/domain/token"
	userDomain "github.com/punchly/service-loyalty/internal/domain/user"
	"github.com/punchly/service-loyalty/internal/events"
	"github.com/punchly/service-loyalty/internal/platform/domain"
	platformkafka "github.com/punchly/service-loyalty/internal/platform/kafka"
	"github.com/punchly/service-loyalty/internal/qr"
)

// Redemption outcome errors. Each maps to a distinct user-facing message;
// all are terminal for the attempt and require a fresh token.
var (
	ErrMissingToken        = domain.NewValidationError("Invalid redemption code: missing token")
	ErrTokenNotFound       = domain.NewNotFoundError("redemption code", "scanned")
	ErrWrongBusiness       = domain.NewUnauthorizedError("This redemption is not valid for your business")
	ErrTokenAlreadyUsed    = domain.NewConflictError("This redemption code has already been used")
	ErrTokenExpired        = &domain.DomainError{Err: domain.ErrInvalidState, Message: "This redemption code has expired"}
	ErrInsufficientPunches = domain.NewValidationError("Customer doesn't have enough punches for redemption")
	ErrProcessing          = domain.NewConflictError("Error processing redemption")
)

// IssueTokenRequest holds data to issue a redemption token.
type IssueTokenRequest struct {
	BusinessID  uuid.UUID `json:"business_id" binding:"required"`
	PunchcardID uuid.UUID `json:"punchcard_id" binding:"required"`
}

// TokenDTO is the API response representation of an issued token.
type TokenDTO struct {
	Token     string    `json:"token"`
	Reward    string    `json:"reward"`
	QRPayload string    `json:"qr_payload"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedemptionResultDTO is returned to the scanning business on success.
type RedemptionResultDTO struct {
	CustomerName     string `json:"customer_name"`
	BusinessName     string `json:"business_name"`
	Reward           string `json:"reward"`
	PunchesUsed      int    `json:"punches_used"`
	RemainingPunches int    `json:"remaining_punches"`
}

// RedemptionService issues, encodes and atomically redeems single-use reward
// tokens.
type RedemptionService struct {
	tokens     tokenDomain.Repository
	punchcards punchcardDomain.Repository
	businesses businessDomain.Repository
	users      userDomain.Repository
	history    historyDomain.Repository
	publisher  events.Publisher
	validity   time.Duration
	logger     *zap.Logger
}

// NewRedemptionService creates a new RedemptionService.
func NewRedemptionService(
	tokens tokenDomain.Repository,
	punchcards punchcardDomain.Repository,
	businesses businessDomain.Repository,
	users userDomain.Repository,
	history historyDomain.Repository,
	publisher events.Publisher,
	validity time.Duration,
	logger *zap.Logger,
) *RedemptionService {
	return &RedemptionService{
		tokens:     tokens,
		punchcards: punchcards,
		businesses: businesses,
		users:      users,
		history:    history,
		publisher:  publisher,
		validity:   validity,
		logger:     logger,
	}
}

// Issue creates and persists a fresh redemption token for a reward-ready
// punchcard, then returns it with its encoded QR payload. The balance check
// here is informational; Redeem re-validates against live state.
func (s *RedemptionService) Issue(ctx context.Context, userID uuid.UUID, req IssueTokenRequest) (*TokenDTO, error) {
	card, err := s.punchcards.FindByID(ctx, req.PunchcardID)
	if err != nil {
		return nil, err
	}
	if card.UserID() != userID || card.BusinessID() != req.BusinessID {
		return nil, domain.NewUnauthorizedError("punchcard does not belong to this customer and business")
	}

	biz, err := s.businesses.FindByID(ctx, req.BusinessID)
	if err != nil {
		return nil, err
	}
	if !card.CanRedeem(biz.PunchesRequired()) {
		return nil, ErrInsufficientPunches
	}

	t, err := tokenDomain.New(userID, req.BusinessID, req.PunchcardID, biz.Reward(), s.validity)
	if err != nil {
		return nil, err
	}

	// A token that was not durably stored must never be rendered;
	// scanning it would always fail validation.
	if err := s.tokens.Save(ctx, t); err != nil {
		s.logger.Error("failed to persist redemption token", zap.Error(err))
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	payload, err := qr.EncodeRedemption(t, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("redemption token issued",
		zap.String("punchcard_id", req.PunchcardID.String()),
		zap.String("business_id", req.BusinessID.String()),
		zap.Time("expires_at", t.ExpiresAt()),
	)

	return &TokenDTO{
		Token:     t.Value(),
		Reward:    t.Reward(),
		QRPayload: payload,
		IssuedAt:  t.IssuedAt(),
		ExpiresAt: t.ExpiresAt(),
	}, nil
}

// EncodePayload rebuilds the QR payload string for a previously issued token,
// for image rendering.
func (s *RedemptionService) EncodePayload(ctx context.Context, userID uuid.UUID, value string) (string, error) {
	t, err := s.tokens.FindByValue(ctx, value)
	if err != nil {
		return "", err
	}
	if t.UserID() != userID {
		return "", domain.NewUnauthorizedError("token does not belong to this customer")
	}
	return qr.EncodeRedemption(t, time.Now().UTC())
}

// Redeem validates and atomically consumes a scanned redemption payload on
// behalf of scanningBusinessID. Checks run in a fixed order and the first
// failure wins. The conditional mark-used write is the race arbiter: only
// the caller whose update affects a row proceeds to the ledger decrement,
// so no token can fund more than one decrement.
func (s *RedemptionService) Redeem(ctx context.Context, payload qr.RedemptionPayload, scanningBusinessID uuid.UUID) (*RedemptionResultDTO, error) {
	if payload.Token == "" {
		return nil, ErrMissingToken
	}

	t, err := s.tokens.FindByValue(ctx, payload.Token)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if !t.BelongsTo(scanningBusinessID) {
		return nil, ErrWrongBusiness
	}
	if t.IsUsed() {
		return nil, ErrTokenAlreadyUsed
	}

	now := time.Now().UTC()
	if t.IsExpired(now) {
		return nil, ErrTokenExpired
	}

	biz, err := s.businesses.FindByID(ctx, t.BusinessID())
	if err != nil {
		return nil, err
	}
	card, err := s.punchcards.FindByID(ctx, t.PunchcardID())
	if err != nil {
		return nil, err
	}
	// Re-check the live balance; punches may have moved since issuance.
	if !card.CanRedeem(biz.PunchesRequired()) {
		return nil, ErrInsufficientPunches
	}

	// Consume the token before touching the ledger. A concurrent attempt
	// that loses this conditional update observes zero affected rows and
	// aborts without a second decrement.
	marked, err := s.tokens.MarkUsed(ctx, t.Value(), now)
	if err != nil {
		s.logger.Error("failed to mark token used, ledger untouched",
			zap.String("token_id", t.ID().String()),
			zap.Error(err),
		)
		return nil, ErrProcessing
	}
	if !marked {
		return nil, ErrTokenAlreadyUsed
	}

	updated, applied, err := s.punchcards.ApplyRedemption(ctx, card.ID(), biz.PunchesRequired(), now)
	if err != nil {
		s.logger.Error("ledger decrement failed after token was consumed",
			zap.String("token_id", t.ID().String()),
			zap.String("punchcard_id", card.ID().String()),
			zap.Error(err),
		)
		return nil, ErrProcessing
	}
	if !applied {
		// Balance dropped below the threshold between validation and
		// the decrement. The token stays consumed; the customer issues
		// a fresh one once the balance qualifies again.
		s.logger.Warn("punch balance moved below threshold before decrement",
			zap.String("token_id", t.ID().String()),
			zap.String("punchcard_id", card.ID().String()),
		)
		return nil, ErrInsufficientPunches
	}

	// History is best-effort audit; the redemption is already applied and
	// rolling it back would be worse than a missing row.
	rec := &historyDomain.RedemptionRecord{
		ID:             uuid.New(),
		UserID:         t.UserID(),
		BusinessID:     t.BusinessID(),
		PunchcardID:    t.PunchcardID(),
		RewardRedeemed: t.Reward(),
		RedeemedAt:     now,
	}
	if err := s.history.SaveRedemption(ctx, rec); err != nil {
		s.logger.Error("failed to append redemption history",
			zap.String("token_id", t.ID().String()),
			zap.Error(err),
		)
	}

	customerName := ""
	if u, err := s.users.FindByID(ctx, t.UserID()); err == nil {
		customerName = u.DisplayName()
	}

	s.publishRedeemed(ctx, t, biz.PunchesRequired(), updated.Punches(), now)

	s.logger.Info("reward redeemed",
		zap.String("business_id", t.BusinessID().String()),
		zap.String("punchcard_id", t.PunchcardID().String()),
		zap.Int("punches_used", biz.PunchesRequired()),
		zap.Int("remaining_punches", updated.Punches()),
	)

	return &RedemptionResultDTO{
		CustomerName:     customerName,
		BusinessName:     biz.Name(),
		Reward:           t.Reward(),
		PunchesUsed:      biz.PunchesRequired(),
		RemainingPunches: updated.Punches(),
	}, nil
}

func (s *RedemptionService) publishRedeemed(ctx context.Context, t *tokenDomain.RedemptionToken, punchesUsed, remaining int, at time.Time) {
	event := events.RewardRedeemedEvent{
		UserID:           t.UserID(),
		BusinessID:       t.BusinessID(),
		PunchcardID:      t.PunchcardID(),
		Reward:           t.Reward(),
		PunchesUsed:      punchesUsed,
		RemainingPunches: remaining,
		OccurredAt:       at,
	}

	ce, err := platformkafka.NewCloudEvent("service-loyalty", events.LoyaltyRewardRedeemed, event)
	if err != nil {
		s.logger.Error("failed to create reward redeemed event", zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, events.TopicLoyaltyEvents, ce); err != nil {
		s.logger.Error("failed to publish reward redeemed event", zap.Error(err))
	}
}
