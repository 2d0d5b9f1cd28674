package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	historyDomain "github.com/punchly/service-loyalty/internal/domain/history"
	punchcardDomain "github.com/punchly/service-loyalty/internal/domain/punchcard"
	tokenDomain "github.com/punchly/service-loyalty/internal/domain/token"
	userDomain "github.com/punchly/service-loyalty/internal/domain/user"
)

// AccountService handles the loyalty-side cascade when a customer account is
// deleted upstream.
type AccountService struct {
	tokens     tokenDomain.Repository
	punchcards punchcardDomain.Repository
	history    historyDomain.Repository
	users      userDomain.Repository
	logger     *zap.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	tokens tokenDomain.Repository,
	punchcards punchcardDomain.Repository,
	history historyDomain.Repository,
	users userDomain.Repository,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		tokens:     tokens,
		punchcards: punchcards,
		history:    history,
		users:      users,
		logger:     logger,
	}
}

// DeleteUserData removes everything the loyalty service holds for a user.
// Dependent collections go first so a partial failure leaves no orphaned
// references to a deleted user.
func (s *AccountService) DeleteUserData(ctx context.Context, userID uuid.UUID) error {
	s.logger.Info("deleting user loyalty data", zap.String("user_id", userID.String()))

	if err := s.tokens.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.history.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.punchcards.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("user loyalty data deleted", zap.String("user_id", userID.String()))
	return nil
}
