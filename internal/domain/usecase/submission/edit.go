package submission

import (
	"context"
	"fmt"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
)

// Edit updates a pending submission owned by the caller. A modifier change
// settles the cost delta through the ledger inside the same transaction; an
// increase the owner cannot fund rejects the edit as a whole, leaving every
// field untouched. Editing never moves the submission within its queue, so
// no queue lock is taken.
func (s *Service) Edit(ctx context.Context, req usecase.EditSubmissionRequest) (*entity.Submission, error) {
	if req.OwnerID == 0 {
		return nil, errs.ErrInvalidUserID
	}

	var sub *entity.Submission
	err := persistence.WithTransactionRetry(ctx, s.uow, s.maxRetries, func(txCtx context.Context) error {
		subRepo := s.uow.GetSubmissionRepository(txCtx)

		var err error
		sub, err = subRepo.GetByIDForUpdate(txCtx, req.SubmissionID)
		if err != nil {
			return err
		}
		if sub.OwnerID != req.OwnerID {
			return errs.ErrNotOwner
		}
		if !sub.CanEdit() {
			return errs.NewStateTransitionError(sub.ID, string(sub.Status), string(entity.StatusPending))
		}

		if req.ModifierPatch != nil {
			mods := req.ModifierPatch.Apply(sub.Modifiers)
			if mods != sub.Modifiers {
				user, err := s.uow.GetUserRepository(txCtx).GetByIDForUpdate(txCtx, req.OwnerID)
				if err != nil {
					return err
				}
				policy, err := s.policies.PolicyFor(user.Tier)
				if err != nil {
					return err
				}
				if err := validateModifiers(policy, mods); err != nil {
					return err
				}

				newCost := entity.Cost(mods)
				delta := newCost - sub.CreditCost
				switch {
				case delta > 0:
					description := fmt.Sprintf("Additional credits for submission #%d", sub.ID)
					if err := s.ledger.DebitForSubmission(txCtx, req.OwnerID, delta, sub.ID, description); err != nil {
						return err
					}
				case delta < 0:
					description := fmt.Sprintf("Refund from submission #%d modification", sub.ID)
					if err := s.ledger.RefundForSubmission(txCtx, req.OwnerID, -delta, sub.ID, description); err != nil {
						return err
					}
				}

				sub.Modifiers = mods
				sub.CreditCost = newCost
			}
		}

		if req.CharacterName != nil {
			sub.CharacterName = *req.CharacterName
		}
		if req.Series != nil {
			sub.Series = *req.Series
		}
		if req.Description != nil {
			sub.Description = *req.Description
		}
		if req.IsPublic != nil {
			sub.IsPublic = *req.IsPublic
		}
		sub.UpdatedAt = s.timeProvider.Now()

		return subRepo.Update(txCtx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Submission edited", map[string]any{
		"submission_id": sub.ID,
		"owner_id":      req.OwnerID,
		"credit_cost":   sub.CreditCost,
	})
	return sub, nil
}
