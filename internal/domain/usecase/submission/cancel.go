package submission

import (
	"context"
	"fmt"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
)

// Cancel cancels a pending submission owned by the caller, refunds its
// credit cost and renumbers the vacated queue, all in one transaction
func (s *Service) Cancel(ctx context.Context, ownerID, submissionID uint64, reason string) (*usecase.CancelResult, error) {
	if ownerID == 0 {
		return nil, errs.ErrInvalidUserID
	}

	queueType, err := s.queueTypeOf(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	unlock := s.scheduler.LockQueue(queueType)
	defer unlock()

	var (
		sub      *entity.Submission
		refunded int
	)
	err = persistence.WithTransactionRetry(ctx, s.uow, s.maxRetries, func(txCtx context.Context) error {
		subRepo := s.uow.GetSubmissionRepository(txCtx)

		sub, err = subRepo.GetByIDForUpdate(txCtx, submissionID)
		if err != nil {
			return err
		}
		if sub.OwnerID != ownerID {
			return errs.ErrNotOwner
		}

		if err := sub.Cancel(s.timeProvider); err != nil {
			return err
		}
		if err := subRepo.Update(txCtx, sub); err != nil {
			return err
		}

		refunded = sub.CreditCost
		description := fmt.Sprintf("Refund from cancelled submission #%d", submissionID)
		if reason != "" {
			description = fmt.Sprintf("%s: %s", description, reason)
		}
		if err := s.ledger.RefundForSubmission(txCtx, ownerID, refunded, submissionID, description); err != nil {
			return err
		}

		return s.scheduler.Renumber(txCtx, sub.QueueType)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Submission cancelled", map[string]any{
		"submission_id": submissionID,
		"owner_id":      ownerID,
		"refunded":      refunded,
	})
	return &usecase.CancelResult{Submission: sub, Refunded: refunded}, nil
}
