package ledger

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
)

// Service implements the Credit Ledger: the user's spendable balance as a
// concurrently guarded projection of the append-only transaction stream
type Service struct {
	uow          persistence.UnitOfWork
	policies     entity.PolicyTable
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	maxRetries   int
}

// NewService creates a new ledger service
func NewService(
	uow persistence.UnitOfWork,
	policies entity.PolicyTable,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	maxRetries int,
) *Service {
	return &Service{
		uow:          uow,
		policies:     policies,
		timeProvider: timeProvider,
		logger:       logger,
		maxRetries:   maxRetries,
	}
}

// GetBalance returns the user's current balance and tier cap
func (s *Service) GetBalance(ctx context.Context, userID uint64) (*usecase.BalanceResult, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}

	user, err := s.uow.GetUserRepository(ctx).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	policy, err := s.policies.PolicyFor(user.Tier)
	if err != nil {
		return nil, err
	}

	return &usecase.BalanceResult{
		UserID:  user.ID,
		Tier:    user.Tier,
		Credits: user.Credits(),
		Cap:     policy.Cap,
	}, nil
}

// GetCreditHistory returns the user's audit entries, newest first
func (s *Service) GetCreditHistory(ctx context.Context, userID uint64, limit int) ([]*entity.CreditTransaction, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}

	// Resolve the user first so an unknown ID surfaces as not-found rather
	// than an empty history
	if _, err := s.uow.GetUserRepository(ctx).GetByID(ctx, userID); err != nil {
		return nil, err
	}

	return s.uow.GetCreditTransactionRepository(ctx).ListByUser(ctx, userID, limit)
}
