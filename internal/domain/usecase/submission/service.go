package submission

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
)

// Service implements the submission lifecycle state machine. It owns the
// pending -> in_progress -> completed / pending -> cancelled transitions and
// coordinates the ledger and the scheduler so debits, registry changes and
// position updates commit atomically.
type Service struct {
	uow          persistence.UnitOfWork
	ledger       usecase.LedgerUseCase
	scheduler    usecase.Scheduler
	policies     entity.PolicyTable
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	maxRetries   int
}

// NewService creates a new submission service
func NewService(
	uow persistence.UnitOfWork,
	ledger usecase.LedgerUseCase,
	scheduler usecase.Scheduler,
	policies entity.PolicyTable,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	maxRetries int,
) *Service {
	return &Service{
		uow:          uow,
		ledger:       ledger,
		scheduler:    scheduler,
		policies:     policies,
		timeProvider: timeProvider,
		logger:       logger,
		maxRetries:   maxRetries,
	}
}

// ListOwn returns the caller's submissions, newest first
func (s *Service) ListOwn(ctx context.Context, ownerID uint64) ([]*entity.Submission, error) {
	if ownerID == 0 {
		return nil, errs.ErrInvalidUserID
	}
	return s.uow.GetSubmissionRepository(ctx).ListByOwner(ctx, ownerID)
}

// queueTypeOf resolves a submission's queue type outside the transaction so
// the right queue lock can be taken before the transaction begins. The type
// is derived once at creation and never changes afterwards.
func (s *Service) queueTypeOf(ctx context.Context, submissionID uint64) (entity.QueueType, error) {
	sub, err := s.uow.GetSubmissionRepository(ctx).GetByID(ctx, submissionID)
	if err != nil {
		return "", err
	}
	return sub.QueueType, nil
}
