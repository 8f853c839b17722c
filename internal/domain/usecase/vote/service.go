package vote

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
)

// Service implements the Vote Allowance Tracker: the per-user monthly vote
// budget and the votes cast against free-queue submissions
type Service struct {
	uow          persistence.UnitOfWork
	scheduler    usecase.Scheduler
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	monthlyVotes int
	maxRetries   int
}

// NewService creates a new vote service
func NewService(
	uow persistence.UnitOfWork,
	scheduler usecase.Scheduler,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	monthlyVotes int,
	maxRetries int,
) *Service {
	return &Service{
		uow:          uow,
		scheduler:    scheduler,
		timeProvider: timeProvider,
		logger:       logger,
		monthlyVotes: monthlyVotes,
		maxRetries:   maxRetries,
	}
}

// CastVote spends one vote from the voter's monthly allowance on a pending
// free-queue submission and re-ranks the free queue. Vote uniqueness is the
// store's unique constraint, not a check-then-insert.
func (s *Service) CastVote(ctx context.Context, voterID, submissionID uint64) error {
	if voterID == 0 {
		return errs.ErrInvalidUserID
	}

	unlock := s.scheduler.LockQueue(entity.QueueFree)
	defer unlock()

	err := persistence.WithTransactionRetry(ctx, s.uow, s.maxRetries, func(txCtx context.Context) error {
		if _, err := s.uow.GetUserRepository(txCtx).GetByID(txCtx, voterID); err != nil {
			return err
		}

		subRepo := s.uow.GetSubmissionRepository(txCtx)
		sub, err := subRepo.GetByIDForUpdate(txCtx, submissionID)
		if err != nil {
			return err
		}
		if sub.QueueType != entity.QueueFree || !sub.IsPending() {
			return errs.ErrVoteNotAllowed
		}
		if sub.OwnerID == voterID {
			return errs.ErrVoteOnOwnSubmission
		}

		voteRepo := s.uow.GetVoteRepository(txCtx)

		// Report a duplicate before touching the allowance, so an exhausted
		// voter re-voting the same submission hears "already voted" rather
		// than "no votes remaining". The unique constraint in CreateVote
		// still backstops a concurrent duplicate.
		voted, err := voteRepo.HasVote(txCtx, voterID, submissionID)
		if err != nil {
			return err
		}
		if voted {
			return errs.ErrAlreadyVoted
		}

		allowance, err := voteRepo.GetOrCreateAllowance(
			txCtx, voterID, entity.PeriodOf(s.timeProvider.Now()), s.monthlyVotes)
		if err != nil {
			return err
		}
		if err := allowance.Consume(); err != nil {
			return err
		}

		vote, err := entity.NewVote(voterID, submissionID, s.timeProvider)
		if err != nil {
			return err
		}
		if err := voteRepo.CreateVote(txCtx, vote); err != nil {
			return err
		}
		if err := voteRepo.UpdateAllowance(txCtx, allowance); err != nil {
			return err
		}

		sub.VoteCount++
		sub.UpdatedAt = s.timeProvider.Now()
		if err := subRepo.Update(txCtx, sub); err != nil {
			return err
		}

		return s.scheduler.Renumber(txCtx, entity.QueueFree)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Vote cast", map[string]any{
		"voter_id":      voterID,
		"submission_id": submissionID,
	})
	return nil
}

// RemoveVote takes back a previously cast vote, returning it to the
// voter's allowance, and re-ranks the free queue
func (s *Service) RemoveVote(ctx context.Context, voterID, submissionID uint64) error {
	if voterID == 0 {
		return errs.ErrInvalidUserID
	}

	unlock := s.scheduler.LockQueue(entity.QueueFree)
	defer unlock()

	err := persistence.WithTransactionRetry(ctx, s.uow, s.maxRetries, func(txCtx context.Context) error {
		voteRepo := s.uow.GetVoteRepository(txCtx)
		if err := voteRepo.DeleteVote(txCtx, voterID, submissionID); err != nil {
			return err
		}

		allowance, err := voteRepo.GetOrCreateAllowance(
			txCtx, voterID, entity.PeriodOf(s.timeProvider.Now()), s.monthlyVotes)
		if err != nil {
			return err
		}
		allowance.Release()
		if err := voteRepo.UpdateAllowance(txCtx, allowance); err != nil {
			return err
		}

		subRepo := s.uow.GetSubmissionRepository(txCtx)
		sub, err := subRepo.GetByIDForUpdate(txCtx, submissionID)
		if err != nil {
			return err
		}
		if sub.VoteCount > 0 {
			sub.VoteCount--
		}
		sub.UpdatedAt = s.timeProvider.Now()
		if err := subRepo.Update(txCtx, sub); err != nil {
			return err
		}

		if sub.QueueType == entity.QueueFree && sub.IsPending() {
			return s.scheduler.Renumber(txCtx, entity.QueueFree)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Vote removed", map[string]any{
		"voter_id":      voterID,
		"submission_id": submissionID,
	})
	return nil
}

// GetVoteAllowance returns the voter's budget for the current month,
// initializing it on first use
func (s *Service) GetVoteAllowance(ctx context.Context, userID uint64) (*usecase.AllowanceResult, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}

	var result *usecase.AllowanceResult
	err := persistence.WithTransaction(ctx, s.uow, func(txCtx context.Context) error {
		if _, err := s.uow.GetUserRepository(txCtx).GetByID(txCtx, userID); err != nil {
			return err
		}

		allowance, err := s.uow.GetVoteRepository(txCtx).GetOrCreateAllowance(
			txCtx, userID, entity.PeriodOf(s.timeProvider.Now()), s.monthlyVotes)
		if err != nil {
			return err
		}
		result = &usecase.AllowanceResult{
			Available: allowance.VotesAvailable,
			Used:      allowance.VotesUsed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
