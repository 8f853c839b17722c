package usecase

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
)

// Scheduler maintains the ordinal positions of the two pending queues.
// It is the single entry point for every mutation of queue membership or
// ranking, which makes the per-queue serialization boundary one lock.
type Scheduler interface {
	// LockQueue serializes scheduler mutations for one queue type. The
	// returned function releases the lock. Callers hold the lock around the
	// whole transaction that changes queue membership or ranking.
	LockQueue(queue entity.QueueType) (unlock func())

	// AssignPosition sets the submission's position to the tail of its queue.
	// Must run inside the transaction that creates the submission.
	AssignPosition(ctx context.Context, submission *entity.Submission) error

	// Renumber recomputes the full ordering of the queue's pending
	// submissions and reassigns positions 1..N contiguously
	Renumber(ctx context.Context, queue entity.QueueType) error

	// ListQueue returns the queue's pending submissions in rank order
	// (read-only, snapshot isolation is acceptable)
	ListQueue(ctx context.Context, queue entity.QueueType) ([]*entity.Submission, error)
}
