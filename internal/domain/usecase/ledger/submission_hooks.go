package ledger

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
)

// DebitForSubmission spends credits for a submission and appends a
// submission_cost entry. It operates on the repositories bound to ctx, so
// when called from inside a unit-of-work transaction the debit commits or
// rolls back together with the registry change that triggered it.
func (s *Service) DebitForSubmission(ctx context.Context, userID uint64, amount int, submissionID uint64, description string) error {
	if amount <= 0 {
		return errs.ErrInvalidAmount
	}

	userRepo := s.uow.GetUserRepository(ctx)
	user, err := userRepo.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.ApplySpend(amount, s.timeProvider); err != nil {
		if errs.IsInsufficientCreditsError(err) {
			return errs.NewInsufficientCreditsError(userID, amount, user.Credits())
		}
		return err
	}

	if err := userRepo.Update(ctx, user); err != nil {
		return err
	}

	txn, err := entity.NewCreditTransaction(
		userID,
		-amount,
		entity.KindSubmissionCost,
		description,
		&submissionID,
		s.timeProvider,
	)
	if err != nil {
		return err
	}
	if err := s.uow.GetCreditTransactionRepository(ctx).Append(ctx, txn); err != nil {
		return err
	}

	s.logger.Debug("Credits debited for submission", map[string]any{
		"user_id":       userID,
		"amount":        amount,
		"submission_id": submissionID,
		"balance":       user.Credits(),
	})
	return nil
}

// RefundForSubmission credits back a submission's cost, capped at the tier
// cap, and appends a refund entry for the amount actually returned. Same
// transactional contract as DebitForSubmission.
func (s *Service) RefundForSubmission(ctx context.Context, userID uint64, amount int, submissionID uint64, description string) error {
	if amount <= 0 {
		return errs.ErrInvalidAmount
	}

	userRepo := s.uow.GetUserRepository(ctx)
	user, err := userRepo.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	policy, err := s.policies.PolicyFor(user.Tier)
	if err != nil {
		return err
	}

	granted := user.ApplyGrant(amount, policy.Cap, s.timeProvider)
	if granted == 0 {
		// Balance already at cap; nothing credited, nothing audited
		return nil
	}

	if err := userRepo.Update(ctx, user); err != nil {
		return err
	}

	txn, err := entity.NewCreditTransaction(
		userID,
		granted,
		entity.KindRefund,
		description,
		&submissionID,
		s.timeProvider,
	)
	if err != nil {
		return err
	}
	if err := s.uow.GetCreditTransactionRepository(ctx).Append(ctx, txn); err != nil {
		return err
	}

	s.logger.Debug("Credits refunded for submission", map[string]any{
		"user_id":       userID,
		"amount":        granted,
		"submission_id": submissionID,
		"balance":       user.Credits(),
	})
	return nil
}
