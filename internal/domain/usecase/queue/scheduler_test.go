package queue

import (
	"context"
	"testing"
	"time"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/logger"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTime struct {
	now time.Time
}

func (s *stubTime) Now() time.Time {
	return s.now
}

func (s *stubTime) Since(t time.Time) time.Duration {
	return s.now.Sub(t)
}

func (s *stubTime) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func newTestScheduler(avgCompletionDays int) (*Scheduler, *memory.Store, *stubTime) {
	store := memory.NewStore()
	tp := &stubTime{now: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)}
	sched := NewScheduler(store, tp, logger.NewNoopLogger(), avgCompletionDays)
	return sched, store, tp
}

func seedOwner(t *testing.T, store *memory.Store, tp *stubTime, id uint64) {
	t.Helper()
	user, err := entity.NewUser(id, entity.TierStandard, entity.RolePatron, tp)
	require.NoError(t, err)
	store.SeedUser(user)
}

// enqueue inserts a pending submission and assigns its position the way the
// submission service does: one transaction under the queue lock
func enqueue(t *testing.T, store *memory.Store, sched *Scheduler, tp *stubTime, ownerID uint64, queue entity.QueueType) *entity.Submission {
	t.Helper()

	sub, err := entity.NewSubmission(ownerID, "Rin", "Fate", "", true, entity.Modifiers{}, queue, tp)
	require.NoError(t, err)

	unlock := sched.LockQueue(queue)
	defer unlock()

	require.NoError(t, persistence.WithTransaction(context.Background(), store, func(txCtx context.Context) error {
		if err := store.GetSubmissionRepository(txCtx).Create(txCtx, sub); err != nil {
			return err
		}
		return sched.AssignPosition(txCtx, sub)
	}))
	return sub
}

func updateSubmission(t *testing.T, store *memory.Store, sub *entity.Submission) {
	t.Helper()
	require.NoError(t, persistence.WithTransaction(context.Background(), store, func(txCtx context.Context) error {
		return store.GetSubmissionRepository(txCtx).Update(txCtx, sub)
	}))
}

func TestAssignPosition(t *testing.T) {
	t.Run("should append each submission to the tail", func(t *testing.T) {
		sched, store, tp := newTestScheduler(7)
		seedOwner(t, store, tp, 1)

		first := enqueue(t, store, sched, tp, 1, entity.QueuePaid)
		tp.now = tp.now.Add(time.Minute)
		second := enqueue(t, store, sched, tp, 1, entity.QueuePaid)
		tp.now = tp.now.Add(time.Minute)
		third := enqueue(t, store, sched, tp, 1, entity.QueuePaid)

		require.NotNil(t, first.QueuePosition)
		require.NotNil(t, second.QueuePosition)
		require.NotNil(t, third.QueuePosition)
		assert.Equal(t, 1, *first.QueuePosition)
		assert.Equal(t, 2, *second.QueuePosition)
		assert.Equal(t, 3, *third.QueuePosition)
	})

	t.Run("should keep the two queues independent", func(t *testing.T) {
		sched, store, tp := newTestScheduler(7)
		seedOwner(t, store, tp, 1)

		paid := enqueue(t, store, sched, tp, 1, entity.QueuePaid)
		free := enqueue(t, store, sched, tp, 1, entity.QueueFree)

		assert.Equal(t, 1, *paid.QueuePosition)
		assert.Equal(t, 1, *free.QueuePosition)
	})

	t.Run("should project the completion estimate from the position", func(t *testing.T) {
		sched, store, tp := newTestScheduler(7)
		seedOwner(t, store, tp, 1)

		first := enqueue(t, store, sched, tp, 1, entity.QueuePaid)
		second := enqueue(t, store, sched, tp, 1, entity.QueuePaid)

		require.NotNil(t, first.EstimatedAt)
		require.NotNil(t, second.EstimatedAt)
		assert.Equal(t, tp.now.AddDate(0, 0, 7), *first.EstimatedAt)
		assert.Equal(t, tp.now.AddDate(0, 0, 14), *second.EstimatedAt)
	})

	t.Run("should skip the estimate when no average is configured", func(t *testing.T) {
		sched, store, tp := newTestScheduler(0)
		seedOwner(t, store, tp, 1)

		sub := enqueue(t, store, sched, tp, 1, entity.QueuePaid)

		assert.Nil(t, sub.EstimatedAt)
	})
}

func TestRenumber(t *testing.T) {
	ctx := context.Background()

	t.Run("should close the gap left by a departed submission", func(t *testing.T) {
		sched, store, tp := newTestScheduler(7)
		seedOwner(t, store, tp, 1)

		first := enqueue(t, store, sched, tp, 1, entity.QueuePaid)
		tp.now = tp.now.Add(time.Minute)
		second := enqueue(t, store, sched, tp, 1, entity.QueuePaid)
		tp.now = tp.now.Add(time.Minute)
		third := enqueue(t, store, sched, tp, 1, entity.QueuePaid)

		require.NoError(t, first.Cancel(tp))
		updateSubmission(t, store, first)

		unlock := sched.LockQueue(entity.QueuePaid)
		defer unlock()
		require.NoError(t, persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			return sched.Renumber(txCtx, entity.QueuePaid)
		}))

		pending, err := sched.ListQueue(ctx, entity.QueuePaid)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, second.ID, pending[0].ID)
		assert.Equal(t, 1, *pending[0].QueuePosition)
		assert.Equal(t, third.ID, pending[1].ID)
		assert.Equal(t, 2, *pending[1].QueuePosition)
	})

	t.Run("should rank the free queue by votes before submission time", func(t *testing.T) {
		sched, store, tp := newTestScheduler(7)
		seedOwner(t, store, tp, 1)

		first := enqueue(t, store, sched, tp, 1, entity.QueueFree)
		tp.now = tp.now.Add(time.Minute)
		second := enqueue(t, store, sched, tp, 1, entity.QueueFree)
		tp.now = tp.now.Add(time.Minute)
		third := enqueue(t, store, sched, tp, 1, entity.QueueFree)

		third.VoteCount = 2
		updateSubmission(t, store, third)
		second.VoteCount = 1
		updateSubmission(t, store, second)

		unlock := sched.LockQueue(entity.QueueFree)
		defer unlock()
		require.NoError(t, persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			return sched.Renumber(txCtx, entity.QueueFree)
		}))

		pending, err := sched.ListQueue(ctx, entity.QueueFree)
		require.NoError(t, err)
		require.Len(t, pending, 3)
		assert.Equal(t, third.ID, pending[0].ID)
		assert.Equal(t, second.ID, pending[1].ID)
		assert.Equal(t, first.ID, pending[2].ID)
		for idx, sub := range pending {
			require.NotNil(t, sub.QueuePosition)
			assert.Equal(t, idx+1, *sub.QueuePosition)
		}
	})

	t.Run("should break vote ties by submission time", func(t *testing.T) {
		sched, store, tp := newTestScheduler(7)
		seedOwner(t, store, tp, 1)

		first := enqueue(t, store, sched, tp, 1, entity.QueueFree)
		tp.now = tp.now.Add(time.Minute)
		second := enqueue(t, store, sched, tp, 1, entity.QueueFree)

		first.VoteCount = 1
		updateSubmission(t, store, first)
		second.VoteCount = 1
		updateSubmission(t, store, second)

		unlock := sched.LockQueue(entity.QueueFree)
		defer unlock()
		require.NoError(t, persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			return sched.Renumber(txCtx, entity.QueueFree)
		}))

		pending, _ := sched.ListQueue(ctx, entity.QueueFree)
		require.Len(t, pending, 2)
		assert.Equal(t, first.ID, pending[0].ID)
		assert.Equal(t, second.ID, pending[1].ID)
	})

	t.Run("should abort on a duplicate position", func(t *testing.T) {
		sched, store, tp := newTestScheduler(7)
		seedOwner(t, store, tp, 1)

		first := enqueue(t, store, sched, tp, 1, entity.QueuePaid)
		tp.now = tp.now.Add(time.Minute)
		second := enqueue(t, store, sched, tp, 1, entity.QueuePaid)

		second.SetPosition(*first.QueuePosition, tp)
		updateSubmission(t, store, second)

		unlock := sched.LockQueue(entity.QueuePaid)
		defer unlock()
		err := persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			return sched.Renumber(txCtx, entity.QueuePaid)
		})

		assert.ErrorIs(t, err, errs.ErrCorruptQueue)
	})
}
