package submission

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
)

// requireAdmin resolves the acting user and rejects non-admins
func (s *Service) requireAdmin(ctx context.Context, actorID uint64) error {
	if actorID == 0 {
		return errs.ErrInvalidUserID
	}
	actor, err := s.uow.GetUserRepository(ctx).GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return errs.ErrNotAdmin
	}
	return nil
}

// AdminStart moves a pending submission to in_progress. The submission
// leaves the ranked queue once work begins, so the vacated queue is
// renumbered in the same transaction.
func (s *Service) AdminStart(ctx context.Context, actorID, submissionID uint64) (*entity.Submission, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	queueType, err := s.queueTypeOf(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	unlock := s.scheduler.LockQueue(queueType)
	defer unlock()

	var sub *entity.Submission
	err = persistence.WithTransactionRetry(ctx, s.uow, s.maxRetries, func(txCtx context.Context) error {
		subRepo := s.uow.GetSubmissionRepository(txCtx)

		sub, err = subRepo.GetByIDForUpdate(txCtx, submissionID)
		if err != nil {
			return err
		}
		if err := sub.Start(s.timeProvider); err != nil {
			return err
		}
		if err := subRepo.Update(txCtx, sub); err != nil {
			return err
		}
		return s.scheduler.Renumber(txCtx, sub.QueueType)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Submission started", map[string]any{
		"submission_id": submissionID,
		"actor_id":      actorID,
	})
	return sub, nil
}

// AdminComplete moves an in_progress submission to completed and records
// the delivered-post reference. The submission already left the queue when
// work started, so no renumbering is needed.
func (s *Service) AdminComplete(ctx context.Context, actorID, submissionID uint64, completionRef, creatorNotes string) (*entity.Submission, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	var sub *entity.Submission
	err := persistence.WithTransactionRetry(ctx, s.uow, s.maxRetries, func(txCtx context.Context) error {
		subRepo := s.uow.GetSubmissionRepository(txCtx)

		var err error
		sub, err = subRepo.GetByIDForUpdate(txCtx, submissionID)
		if err != nil {
			return err
		}
		if err := sub.Complete(completionRef, creatorNotes, s.timeProvider); err != nil {
			return err
		}
		return subRepo.Update(txCtx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Submission completed", map[string]any{
		"submission_id":  submissionID,
		"actor_id":       actorID,
		"completion_ref": completionRef,
	})
	return sub, nil
}
