package submission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
	"github.com/atelier-ko/commission-core/internal/domain/usecase/ledger"
	"github.com/atelier-ko/commission-core/internal/domain/usecase/queue"
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

type testEnv struct {
	svc    *Service
	ledger *ledger.Service
	sched  *queue.Scheduler
	store  *memory.Store
	tp     *stubTime
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	tp := &stubTime{now: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)}
	log := logger.NewNoopLogger()
	policies := entity.DefaultPolicyTable()

	ledgerSvc := ledger.NewService(store, policies, tp, log, 3)
	sched := queue.NewScheduler(store, tp, log, 7)
	svc := NewService(store, ledgerSvc, sched, policies, tp, log, 3)

	return &testEnv{svc: svc, ledger: ledgerSvc, sched: sched, store: store, tp: tp}
}

func (e *testEnv) seedUser(t *testing.T, id uint64, tier entity.Tier, role string, credits int) {
	t.Helper()
	user, err := entity.NewUser(id, tier, role, e.tp)
	require.NoError(t, err)
	user.SetCredits(credits, e.tp)
	e.store.SeedUser(user)
}

func createRequest(ownerID uint64) usecase.CreateSubmissionRequest {
	return usecase.CreateSubmissionRequest{
		OwnerID:       ownerID,
		CharacterName: "Rin",
		Series:        "Fate",
		Description:   "casual outfit",
		IsPublic:      true,
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a paid submission, debit its cost and assign the tail position", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 3)

		sub, err := env.svc.Create(ctx, createRequest(1))

		assert.NoError(t, err)
		assert.Equal(t, entity.QueuePaid, sub.QueueType)
		assert.Equal(t, entity.StatusPending, sub.Status)
		assert.Equal(t, 1, sub.CreditCost)
		require.NotNil(t, sub.QueuePosition)
		assert.Equal(t, 1, *sub.QueuePosition)

		balance, _ := env.ledger.GetBalance(ctx, 1)
		assert.Equal(t, 2, balance.Credits)

		history, _ := env.ledger.GetCreditHistory(ctx, 1, 0)
		require.Len(t, history, 1)
		assert.Equal(t, entity.KindSubmissionCost, history[0].Kind)
		assert.Equal(t, -1, history[0].Amount)
	})

	t.Run("should charge one extra credit per modifier", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierPremium, entity.RolePatron, 5)

		req := createRequest(1)
		req.Modifiers = entity.Modifiers{LargeImageSet: true, DoubleCharacter: true}
		sub, err := env.svc.Create(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, 3, sub.CreditCost)

		balance, _ := env.ledger.GetBalance(ctx, 1)
		assert.Equal(t, 2, balance.Credits)
	})

	t.Run("should append successive submissions to the queue tail", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 4)

		first, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)
		env.tp.now = env.tp.now.Add(time.Minute)
		second, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		assert.Equal(t, 1, *first.QueuePosition)
		assert.Equal(t, 2, *second.QueuePosition)
	})

	t.Run("should route a free-tier submission to the free queue", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierFree, entity.RolePatron, 1)

		sub, err := env.svc.Create(ctx, createRequest(1))

		assert.NoError(t, err)
		assert.Equal(t, entity.QueueFree, sub.QueueType)
	})

	t.Run("should reject modifiers for the free tier", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierFree, entity.RolePatron, 1)

		req := createRequest(1)
		req.Modifiers = entity.Modifiers{LargeImageSet: true}
		_, err := env.svc.Create(ctx, req)

		assert.ErrorIs(t, err, errs.ErrInvalidTierModifier)
	})

	t.Run("should allow only one pending submission for the free tier", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierFree, entity.RolePatron, 1)

		_, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		// even a refilled balance does not lift the limit
		env.seedUser(t, 2, entity.TierPremium, entity.RoleAdmin, 0)
		_, err = env.ledger.AdminAdjust(ctx, 2, 1, 1, "refill")
		require.NoError(t, err)

		_, err = env.svc.Create(ctx, createRequest(1))
		assert.ErrorIs(t, err, errs.ErrPendingLimitReached)
	})

	t.Run("should leave no submission behind when the debit fails", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierBasic, entity.RolePatron, 0)

		_, err := env.svc.Create(ctx, createRequest(1))

		assert.ErrorIs(t, err, errs.ErrInsufficientCredits)

		owned, _ := env.svc.ListOwn(ctx, 1)
		assert.Empty(t, owned)

		pending, _ := env.sched.ListQueue(ctx, entity.QueuePaid)
		assert.Empty(t, pending)

		history, _ := env.ledger.GetCreditHistory(ctx, 1, 0)
		assert.Empty(t, history)
	})

	t.Run("should reject an unknown owner", func(t *testing.T) {
		env := newTestEnv()

		_, err := env.svc.Create(ctx, createRequest(42))

		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})
}

func TestListOwn(t *testing.T) {
	ctx := context.Background()

	t.Run("should list the caller's submissions newest first", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 4)

		first, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)
		env.tp.now = env.tp.now.Add(time.Minute)
		second, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		owned, err := env.svc.ListOwn(ctx, 1)

		assert.NoError(t, err)
		require.Len(t, owned, 2)
		assert.Equal(t, second.ID, owned[0].ID)
		assert.Equal(t, first.ID, owned[1].ID)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("should cancel, refund the cost and close the queue gap", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 4)

		first, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)
		env.tp.now = env.tp.now.Add(time.Minute)
		second, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		result, err := env.svc.Cancel(ctx, 1, first.ID, "changed my mind")

		assert.NoError(t, err)
		assert.Equal(t, entity.StatusCancelled, result.Submission.Status)
		assert.Equal(t, 1, result.Refunded)
		assert.Nil(t, result.Submission.QueuePosition)

		balance, _ := env.ledger.GetBalance(ctx, 1)
		assert.Equal(t, 3, balance.Credits)

		history, _ := env.ledger.GetCreditHistory(ctx, 1, 0)
		require.NotEmpty(t, history)
		assert.Equal(t, entity.KindRefund, history[0].Kind)
		assert.Contains(t, history[0].Description, "changed my mind")

		pending, _ := env.sched.ListQueue(ctx, entity.QueuePaid)
		require.Len(t, pending, 1)
		assert.Equal(t, second.ID, pending[0].ID)
		assert.Equal(t, 1, *pending[0].QueuePosition)
	})

	t.Run("should reject a caller who does not own the submission", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)
		env.seedUser(t, 2, entity.TierStandard, entity.RolePatron, 2)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		_, err = env.svc.Cancel(ctx, 2, sub.ID, "")

		assert.ErrorIs(t, err, errs.ErrNotOwner)
	})

	t.Run("should reject cancelling once work has started", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)
		env.seedUser(t, 9, entity.TierPremium, entity.RoleAdmin, 0)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)
		_, err = env.svc.AdminStart(ctx, 9, sub.ID)
		require.NoError(t, err)

		_, err = env.svc.Cancel(ctx, 1, sub.ID, "")

		assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
	})

	t.Run("should reject an unknown submission", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)

		_, err := env.svc.Cancel(ctx, 1, 42, "")

		assert.ErrorIs(t, err, errs.ErrSubmissionNotFound)
	})
}

func TestEdit(t *testing.T) {
	ctx := context.Background()

	boolPtr := func(b bool) *bool { return &b }
	strPtr := func(s string) *string { return &s }

	t.Run("should update text fields without touching the ledger", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		edited, err := env.svc.Edit(ctx, usecase.EditSubmissionRequest{
			OwnerID:      1,
			SubmissionID: sub.ID,
			Description:  strPtr("school uniform instead"),
		})

		assert.NoError(t, err)
		assert.Equal(t, "school uniform instead", edited.Description)
		assert.Equal(t, 1, edited.CreditCost)

		balance, _ := env.ledger.GetBalance(ctx, 1)
		assert.Equal(t, 1, balance.Credits)
	})

	t.Run("should debit the delta when a modifier is added", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 3)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		edited, err := env.svc.Edit(ctx, usecase.EditSubmissionRequest{
			OwnerID:       1,
			SubmissionID:  sub.ID,
			ModifierPatch: &usecase.ModifierPatch{LargeImageSet: boolPtr(true)},
		})

		assert.NoError(t, err)
		assert.True(t, edited.Modifiers.LargeImageSet)
		assert.Equal(t, 2, edited.CreditCost)

		balance, _ := env.ledger.GetBalance(ctx, 1)
		assert.Equal(t, 1, balance.Credits)

		history, _ := env.ledger.GetCreditHistory(ctx, 1, 0)
		require.NotEmpty(t, history)
		assert.Equal(t, entity.KindSubmissionCost, history[0].Kind)
		assert.Equal(t, -1, history[0].Amount)
	})

	t.Run("should refund the delta when a modifier is removed", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 3)

		req := createRequest(1)
		req.Modifiers = entity.Modifiers{DoubleCharacter: true}
		sub, err := env.svc.Create(ctx, req)
		require.NoError(t, err)

		edited, err := env.svc.Edit(ctx, usecase.EditSubmissionRequest{
			OwnerID:       1,
			SubmissionID:  sub.ID,
			ModifierPatch: &usecase.ModifierPatch{DoubleCharacter: boolPtr(false)},
		})

		assert.NoError(t, err)
		assert.False(t, edited.Modifiers.DoubleCharacter)
		assert.Equal(t, 1, edited.CreditCost)

		balance, _ := env.ledger.GetBalance(ctx, 1)
		assert.Equal(t, 2, balance.Credits)

		history, _ := env.ledger.GetCreditHistory(ctx, 1, 0)
		require.NotEmpty(t, history)
		assert.Equal(t, entity.KindRefund, history[0].Kind)
	})

	t.Run("should keep an unmentioned modifier in place", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierPremium, entity.RolePatron, 5)

		req := createRequest(1)
		req.Modifiers = entity.Modifiers{LargeImageSet: true}
		sub, err := env.svc.Create(ctx, req)
		require.NoError(t, err)

		edited, err := env.svc.Edit(ctx, usecase.EditSubmissionRequest{
			OwnerID:       1,
			SubmissionID:  sub.ID,
			ModifierPatch: &usecase.ModifierPatch{DoubleCharacter: boolPtr(true)},
		})

		assert.NoError(t, err)
		assert.True(t, edited.Modifiers.LargeImageSet)
		assert.True(t, edited.Modifiers.DoubleCharacter)
		assert.Equal(t, 3, edited.CreditCost)
	})

	t.Run("should reject the whole edit when the delta cannot be funded", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierBasic, entity.RolePatron, 1)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		_, err = env.svc.Edit(ctx, usecase.EditSubmissionRequest{
			OwnerID:       1,
			SubmissionID:  sub.ID,
			CharacterName: strPtr("Saber"),
			ModifierPatch: &usecase.ModifierPatch{LargeImageSet: boolPtr(true)},
		})

		assert.ErrorIs(t, err, errs.ErrInsufficientCredits)

		// nothing changed, not even the text field
		owned, _ := env.svc.ListOwn(ctx, 1)
		require.Len(t, owned, 1)
		assert.Equal(t, "Rin", owned[0].CharacterName)
		assert.False(t, owned[0].Modifiers.LargeImageSet)
		assert.Equal(t, 1, owned[0].CreditCost)
	})

	t.Run("should reject a caller who does not own the submission", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)
		env.seedUser(t, 2, entity.TierStandard, entity.RolePatron, 2)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		_, err = env.svc.Edit(ctx, usecase.EditSubmissionRequest{
			OwnerID:      2,
			SubmissionID: sub.ID,
			Description:  strPtr("mine now"),
		})

		assert.ErrorIs(t, err, errs.ErrNotOwner)
	})

	t.Run("should reject editing once work has started", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)
		env.seedUser(t, 9, entity.TierPremium, entity.RoleAdmin, 0)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)
		_, err = env.svc.AdminStart(ctx, 9, sub.ID)
		require.NoError(t, err)

		_, err = env.svc.Edit(ctx, usecase.EditSubmissionRequest{
			OwnerID:      1,
			SubmissionID: sub.ID,
			Description:  strPtr("too late"),
		})

		assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
	})
}

func TestAdminStart(t *testing.T) {
	ctx := context.Background()

	t.Run("should move the submission to in_progress and renumber the queue", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 4)
		env.seedUser(t, 9, entity.TierPremium, entity.RoleAdmin, 0)

		first, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)
		env.tp.now = env.tp.now.Add(time.Minute)
		second, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		started, err := env.svc.AdminStart(ctx, 9, first.ID)

		assert.NoError(t, err)
		assert.Equal(t, entity.StatusInProgress, started.Status)
		assert.Nil(t, started.QueuePosition)
		assert.NotNil(t, started.StartedAt)

		pending, _ := env.sched.ListQueue(ctx, entity.QueuePaid)
		require.Len(t, pending, 1)
		assert.Equal(t, second.ID, pending[0].ID)
		assert.Equal(t, 1, *pending[0].QueuePosition)
	})

	t.Run("should reject a non-admin actor", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		_, err = env.svc.AdminStart(ctx, 1, sub.ID)

		assert.ErrorIs(t, err, errs.ErrNotAdmin)
	})

	t.Run("should reject starting twice", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)
		env.seedUser(t, 9, entity.TierPremium, entity.RoleAdmin, 0)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)
		_, err = env.svc.AdminStart(ctx, 9, sub.ID)
		require.NoError(t, err)

		_, err = env.svc.AdminStart(ctx, 9, sub.ID)

		assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
	})
}

func TestAdminComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("should record the delivered post reference", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)
		env.seedUser(t, 9, entity.TierPremium, entity.RoleAdmin, 0)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)
		_, err = env.svc.AdminStart(ctx, 9, sub.ID)
		require.NoError(t, err)

		completed, err := env.svc.AdminComplete(ctx, 9, sub.ID, "https://example.com/post/42", "enjoyed this one")

		assert.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, completed.Status)
		assert.Equal(t, "https://example.com/post/42", completed.CompletionRef)
		assert.Equal(t, "enjoyed this one", completed.CreatorNotes)
		assert.NotNil(t, completed.CompletedAt)
	})

	t.Run("should reject completing a submission that was never started", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)
		env.seedUser(t, 9, entity.TierPremium, entity.RoleAdmin, 0)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		_, err = env.svc.AdminComplete(ctx, 9, sub.ID, "https://example.com/post/42", "")

		assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
	})

	t.Run("should reject a non-admin actor", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)

		sub, err := env.svc.Create(ctx, createRequest(1))
		require.NoError(t, err)

		_, err = env.svc.AdminComplete(ctx, 1, sub.ID, "ref", "")

		assert.ErrorIs(t, err, errs.ErrNotAdmin)
	})
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()

	t.Run("should never overdraw the balance or tear the queue", func(t *testing.T) {
		env := newTestEnv()
		env.seedUser(t, 1, entity.TierStandard, entity.RolePatron, 2)

		const attempts = 4
		results := make(chan error, attempts)

		// Readers hammer the non-transactional paths while writers commit
		stop := make(chan struct{})
		var readers sync.WaitGroup
		for i := 0; i < 4; i++ {
			readers.Add(1)
			go func() {
				defer readers.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					_, _ = env.sched.ListQueue(ctx, entity.QueuePaid)
					_, _ = env.svc.ListOwn(ctx, 1)
					_, _ = env.ledger.GetBalance(ctx, 1)
				}
			}()
		}

		var writers sync.WaitGroup
		for i := 0; i < attempts; i++ {
			writers.Add(1)
			go func() {
				defer writers.Done()
				_, err := env.svc.Create(ctx, createRequest(1))
				results <- err
			}()
		}
		writers.Wait()
		close(stop)
		readers.Wait()
		close(results)

		// The balance covers only two of the four creates
		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, errs.ErrInsufficientCredits)
		}
		assert.Equal(t, 2, succeeded)

		balance, err := env.ledger.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, balance.Credits)

		pending, err := env.sched.ListQueue(ctx, entity.QueuePaid)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		for idx, sub := range pending {
			require.NotNil(t, sub.QueuePosition)
			assert.Equal(t, idx+1, *sub.QueuePosition)
		}
	})
}
