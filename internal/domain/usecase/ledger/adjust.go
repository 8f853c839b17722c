package ledger

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
)

// AdminAdjust applies a signed credit delta on behalf of an admin. The
// resulting balance is clamped to [0, tier cap]; the audit entry records the
// delta actually applied.
func (s *Service) AdminAdjust(ctx context.Context, actorID, userID uint64, delta int, reason string) (*entity.User, error) {
	if actorID == 0 || userID == 0 {
		return nil, errs.ErrInvalidUserID
	}
	if delta == 0 {
		return nil, errs.ErrInvalidAmount
	}

	var user *entity.User
	err := persistence.WithTransactionRetry(ctx, s.uow, s.maxRetries, func(txCtx context.Context) error {
		userRepo := s.uow.GetUserRepository(txCtx)

		actor, err := userRepo.GetByID(txCtx, actorID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			return errs.ErrNotAdmin
		}

		user, err = userRepo.GetByIDForUpdate(txCtx, userID)
		if err != nil {
			return err
		}

		policy, err := s.policies.PolicyFor(user.Tier)
		if err != nil {
			return err
		}

		applied := user.ApplyAdjustment(delta, policy.Cap, s.timeProvider)
		if applied == 0 {
			// Fully clamped away; nothing to persist or audit
			return nil
		}

		if err := userRepo.Update(txCtx, user); err != nil {
			return err
		}

		txn, err := entity.NewCreditTransaction(
			userID,
			applied,
			entity.KindAdminAdjustment,
			reason,
			nil,
			s.timeProvider,
		)
		if err != nil {
			return err
		}
		return s.uow.GetCreditTransactionRepository(txCtx).Append(txCtx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Admin credit adjustment applied", map[string]any{
		"actor_id": actorID,
		"user_id":  userID,
		"delta":    delta,
		"balance":  user.Credits(),
		"reason":   reason,
	})
	return user, nil
}
