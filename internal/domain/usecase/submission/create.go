package submission

import (
	"context"
	"fmt"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
)

// Create validates the request against the owner's tier, debits the credit
// cost and appends the submission to the tail of its queue. Insert, debit
// and position assignment are one transaction: a failed debit leaves no
// submission row and no position behind.
func (s *Service) Create(ctx context.Context, req usecase.CreateSubmissionRequest) (*entity.Submission, error) {
	if req.OwnerID == 0 {
		return nil, errs.ErrInvalidUserID
	}

	// Resolve the queue type before locking; tier is immutable from the
	// core's perspective so the pre-transaction read cannot go stale
	owner, err := s.uow.GetUserRepository(ctx).GetByID(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	policy, err := s.policies.PolicyFor(owner.Tier)
	if err != nil {
		return nil, err
	}
	if err := validateModifiers(policy, req.Modifiers); err != nil {
		return nil, err
	}

	unlock := s.scheduler.LockQueue(policy.Queue)
	defer unlock()

	var sub *entity.Submission
	err = persistence.WithTransactionRetry(ctx, s.uow, s.maxRetries, func(txCtx context.Context) error {
		subRepo := s.uow.GetSubmissionRepository(txCtx)

		user, err := s.uow.GetUserRepository(txCtx).GetByIDForUpdate(txCtx, req.OwnerID)
		if err != nil {
			return err
		}

		if err := checkPendingLimit(txCtx, subRepo, user); err != nil {
			return err
		}

		sub, err = entity.NewSubmission(
			req.OwnerID,
			req.CharacterName,
			req.Series,
			req.Description,
			req.IsPublic,
			req.Modifiers,
			policy.Queue,
			s.timeProvider,
		)
		if err != nil {
			return err
		}

		if err := subRepo.Create(txCtx, sub); err != nil {
			return err
		}

		description := fmt.Sprintf("Submission: %s from %s", sub.CharacterName, sub.Series)
		if err := s.ledger.DebitForSubmission(txCtx, req.OwnerID, sub.CreditCost, sub.ID, description); err != nil {
			return err
		}

		return s.scheduler.AssignPosition(txCtx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Submission created", map[string]any{
		"submission_id": sub.ID,
		"owner_id":      req.OwnerID,
		"queue_type":    sub.QueueType,
		"position":      *sub.QueuePosition,
		"credit_cost":   sub.CreditCost,
	})
	return sub, nil
}
