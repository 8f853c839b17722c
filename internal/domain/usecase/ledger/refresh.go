package ledger

import (
	"context"
	"fmt"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
)

// RefreshCreditsIfDue grants the tier's monthly credits when no refresh has
// happened in the current calendar month. The grant is capped at the tier
// cap; a fully discarded grant still claims the month so a second call
// grants nothing. Called lazily at session start, not by a timer.
func (s *Service) RefreshCreditsIfDue(ctx context.Context, userID uint64) (int, error) {
	if userID == 0 {
		return 0, errs.ErrInvalidUserID
	}

	granted := 0
	err := persistence.WithTransactionRetry(ctx, s.uow, s.maxRetries, func(txCtx context.Context) error {
		granted = 0
		userRepo := s.uow.GetUserRepository(txCtx)

		user, err := userRepo.GetByIDForUpdate(txCtx, userID)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		if !user.RefreshDue(now) {
			return nil
		}

		policy, err := s.policies.PolicyFor(user.Tier)
		if err != nil {
			return err
		}

		granted = user.ApplyGrant(policy.MonthlyGrant, policy.Cap, s.timeProvider)
		user.MarkRefreshed(s.timeProvider)

		if err := userRepo.Update(txCtx, user); err != nil {
			return err
		}

		// No audit row for a grant fully discarded at cap; the claimed month
		// alone keeps the operation idempotent
		if granted == 0 {
			return nil
		}

		txn, err := entity.NewCreditTransaction(
			userID,
			granted,
			entity.KindMonthlyRefresh,
			fmt.Sprintf("Monthly credit refresh for tier %s", user.Tier),
			nil,
			s.timeProvider,
		)
		if err != nil {
			return err
		}

		return s.uow.GetCreditTransactionRepository(txCtx).Append(txCtx, txn)
	})
	if err != nil {
		s.logger.Error("Monthly credit refresh failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return 0, err
	}

	if granted > 0 {
		s.logger.Info("Monthly credits granted", map[string]any{
			"user_id": userID,
			"granted": granted,
		})
	}
	return granted, nil
}
