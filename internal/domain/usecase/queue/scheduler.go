package queue

import (
	"context"
	"sync"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
)

// Scheduler maintains the 1..N ordinal positions of the paid (FIFO) and free
// (vote-ranked) queues. Every mutator that changes queue membership or
// ranking goes through it, so per-queue serialization is a single lock.
type Scheduler struct {
	uow               persistence.UnitOfWork
	timeProvider      coreport.TimeProvider
	logger            coreport.Logger
	avgCompletionDays int

	// Per-queue mutexes serializing AssignPosition/Renumber for a queue type
	queueLocks sync.Map // map[entity.QueueType]*sync.Mutex
}

// NewScheduler creates a new dual queue scheduler
func NewScheduler(
	uow persistence.UnitOfWork,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	avgCompletionDays int,
) *Scheduler {
	return &Scheduler{
		uow:               uow,
		timeProvider:      timeProvider,
		logger:            logger,
		avgCompletionDays: avgCompletionDays,
	}
}

// LockQueue serializes scheduler mutations for one queue type. Callers hold
// the lock around the whole transaction that changes membership or ranking,
// so a concurrent reader never observes the contiguous-position invariant
// broken mid-write.
func (s *Scheduler) LockQueue(queue entity.QueueType) func() {
	muIface, _ := s.queueLocks.LoadOrStore(queue, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// AssignPosition appends the submission to the tail of its queue. New
// submissions always start with zero votes, so the tail is the correct rank
// under both ordering rules and no sibling needs renumbering. Must run
// inside the transaction that created the submission, under LockQueue.
func (s *Scheduler) AssignPosition(ctx context.Context, submission *entity.Submission) error {
	repo := s.uow.GetSubmissionRepository(ctx)

	pending, err := repo.ListPending(ctx, submission.QueueType)
	if err != nil {
		return err
	}

	// The submission row is already inserted; count the siblings that hold a
	// position rather than the whole list
	tail := 1
	for _, sibling := range pending {
		if sibling.ID != submission.ID && sibling.QueuePosition != nil {
			tail++
		}
	}

	submission.SetPosition(tail, s.timeProvider)
	s.setEstimate(submission, tail)

	if err := repo.Update(ctx, submission); err != nil {
		return err
	}

	s.logger.Debug("Queue position assigned", map[string]any{
		"submission_id": submission.ID,
		"queue_type":    submission.QueueType,
		"position":      tail,
	})
	return nil
}

// Renumber recomputes the full ordering of the queue's pending submissions
// and reassigns positions 1..N contiguously. A full recompute rather than an
// incremental shift: the queue is small and correctness wins over update
// micro-optimization. Must run inside a transaction, under LockQueue.
func (s *Scheduler) Renumber(ctx context.Context, queue entity.QueueType) error {
	repo := s.uow.GetSubmissionRepository(ctx)

	pending, err := repo.ListPendingForUpdate(ctx, queue)
	if err != nil {
		return err
	}

	// A duplicate position among pending rows means a previous write tore;
	// abort the enclosing transaction instead of repairing silently
	seen := make(map[int]uint64, len(pending))
	for _, sub := range pending {
		if sub.QueuePosition == nil {
			continue
		}
		if otherID, dup := seen[*sub.QueuePosition]; dup {
			s.logger.Error("Corrupt queue position sequence", map[string]any{
				"queue_type":    queue,
				"position":      *sub.QueuePosition,
				"submission_id": sub.ID,
				"conflicts":     otherID,
			})
			return errs.ErrCorruptQueue
		}
		seen[*sub.QueuePosition] = sub.ID
	}

	// The repository returns rows in rank order for this queue type
	for idx, sub := range pending {
		rank := idx + 1
		if sub.QueuePosition != nil && *sub.QueuePosition == rank {
			continue
		}
		sub.SetPosition(rank, s.timeProvider)
		s.setEstimate(sub, rank)
		if err := repo.Update(ctx, sub); err != nil {
			return err
		}
	}

	s.logger.Debug("Queue renumbered", map[string]any{
		"queue_type": queue,
		"size":       len(pending),
	})
	return nil
}

// ListQueue returns the queue's pending submissions in rank order. Read-only;
// runs at snapshot isolation since stale-by-one reads are fine for display.
func (s *Scheduler) ListQueue(ctx context.Context, queue entity.QueueType) ([]*entity.Submission, error) {
	return s.uow.GetSubmissionRepository(ctx).ListPending(ctx, queue)
}

// setEstimate projects a completion date from the position and the
// configured average days per commission
func (s *Scheduler) setEstimate(submission *entity.Submission, position int) {
	if s.avgCompletionDays <= 0 {
		submission.EstimatedAt = nil
		return
	}
	estimate := s.timeProvider.Now().AddDate(0, 0, position*s.avgCompletionDays)
	submission.EstimatedAt = &estimate
}
