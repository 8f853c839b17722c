package ledger

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

func newTestService() (*Service, *memory.Store, *stubTime) {
	store := memory.NewStore()
	tp := &stubTime{now: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(store, entity.DefaultPolicyTable(), tp, logger.NewNoopLogger(), 3)
	return svc, store, tp
}

func seedUser(t *testing.T, store *memory.Store, tp *stubTime, id uint64, tier entity.Tier, role string, credits int) {
	t.Helper()
	user, err := entity.NewUser(id, tier, role, tp)
	require.NoError(t, err)
	user.SetCredits(credits, tp)
	store.SeedUser(user)
}

func TestRefreshCreditsIfDue(t *testing.T) {
	ctx := context.Background()

	t.Run("should grant the monthly amount on first refresh", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierStandard, entity.RolePatron, 0)

		granted, err := svc.RefreshCreditsIfDue(ctx, 1)

		assert.NoError(t, err)
		assert.Equal(t, 2, granted)

		balance, err := svc.GetBalance(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, 2, balance.Credits)

		history, err := svc.GetCreditHistory(ctx, 1, 0)
		assert.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, entity.KindMonthlyRefresh, history[0].Kind)
		assert.Equal(t, 2, history[0].Amount)
	})

	t.Run("should grant nothing twice in the same calendar month", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierStandard, entity.RolePatron, 0)

		_, err := svc.RefreshCreditsIfDue(ctx, 1)
		require.NoError(t, err)

		tp.now = tp.now.Add(20 * 24 * time.Hour) // still January
		granted, err := svc.RefreshCreditsIfDue(ctx, 1)

		assert.NoError(t, err)
		assert.Equal(t, 0, granted)

		history, _ := svc.GetCreditHistory(ctx, 1, 0)
		assert.Len(t, history, 1)
	})

	t.Run("should grant again in the next calendar month", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierBasic, entity.RolePatron, 0)

		_, err := svc.RefreshCreditsIfDue(ctx, 1)
		require.NoError(t, err)

		tp.now = time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
		granted, err := svc.RefreshCreditsIfDue(ctx, 1)

		assert.NoError(t, err)
		assert.Equal(t, 1, granted)

		balance, _ := svc.GetBalance(ctx, 1)
		assert.Equal(t, 2, balance.Credits)
	})

	t.Run("should clamp the grant at the tier cap", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierPremium, entity.RolePatron, 7)

		granted, err := svc.RefreshCreditsIfDue(ctx, 1)

		assert.NoError(t, err)
		assert.Equal(t, 1, granted)

		balance, _ := svc.GetBalance(ctx, 1)
		assert.Equal(t, 8, balance.Credits)

		history, _ := svc.GetCreditHistory(ctx, 1, 0)
		require.Len(t, history, 1)
		assert.Equal(t, 1, history[0].Amount)
	})

	t.Run("should claim the month even when the grant is fully discarded", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierStandard, entity.RolePatron, 4)

		granted, err := svc.RefreshCreditsIfDue(ctx, 1)

		assert.NoError(t, err)
		assert.Equal(t, 0, granted)

		history, _ := svc.GetCreditHistory(ctx, 1, 0)
		assert.Empty(t, history)

		// A second attempt in the same month still grants nothing even if
		// the balance has since dropped below the cap
		require.NoError(t, persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			return svc.DebitForSubmission(txCtx, 1, 2, 99, "Submission: Rin from Fate")
		}))

		granted, err = svc.RefreshCreditsIfDue(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, 0, granted)
	})

	t.Run("should grant nothing for the free tier", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierFree, entity.RolePatron, 0)

		granted, err := svc.RefreshCreditsIfDue(ctx, 1)

		assert.NoError(t, err)
		assert.Equal(t, 0, granted)
	})

	t.Run("should reject an unknown user", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.RefreshCreditsIfDue(ctx, 42)

		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})
}

func TestGetBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the balance and tier cap", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierPremium, entity.RolePatron, 5)

		balance, err := svc.GetBalance(ctx, 1)

		assert.NoError(t, err)
		assert.Equal(t, uint64(1), balance.UserID)
		assert.Equal(t, entity.TierPremium, balance.Tier)
		assert.Equal(t, 5, balance.Credits)
		assert.Equal(t, 8, balance.Cap)
	})

	t.Run("should reject an unknown user", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.GetBalance(ctx, 42)

		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})
}

func TestGetCreditHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("should list entries newest first and honor the limit", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierPremium, entity.RolePatron, 8)

		require.NoError(t, persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			if err := svc.DebitForSubmission(txCtx, 1, 1, 10, "Submission: Rin from Fate"); err != nil {
				return err
			}
			tp.now = tp.now.Add(time.Minute)
			return svc.DebitForSubmission(txCtx, 1, 2, 11, "Submission: Saber from Fate")
		}))

		history, err := svc.GetCreditHistory(ctx, 1, 0)
		assert.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, -2, history[0].Amount)
		assert.Equal(t, -1, history[1].Amount)

		limited, err := svc.GetCreditHistory(ctx, 1, 1)
		assert.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, -2, limited[0].Amount)
	})

	t.Run("should reject an unknown user instead of returning empty", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.GetCreditHistory(ctx, 42, 0)

		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})
}

func TestAdminAdjust(t *testing.T) {
	ctx := context.Background()

	t.Run("should apply a positive delta and audit it", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierPremium, entity.RoleAdmin, 0)
		seedUser(t, store, tp, 2, entity.TierStandard, entity.RolePatron, 1)

		user, err := svc.AdminAdjust(ctx, 1, 2, 2, "compensation for delayed delivery")

		assert.NoError(t, err)
		assert.Equal(t, 3, user.Credits())

		history, _ := svc.GetCreditHistory(ctx, 2, 0)
		require.Len(t, history, 1)
		assert.Equal(t, entity.KindAdminAdjustment, history[0].Kind)
		assert.Equal(t, 2, history[0].Amount)
		assert.Equal(t, "compensation for delayed delivery", history[0].Description)
	})

	t.Run("should clamp the delta at the tier cap and audit the applied part", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierPremium, entity.RoleAdmin, 0)
		seedUser(t, store, tp, 2, entity.TierStandard, entity.RolePatron, 3)

		user, err := svc.AdminAdjust(ctx, 1, 2, 5, "goodwill")

		assert.NoError(t, err)
		assert.Equal(t, 4, user.Credits())

		history, _ := svc.GetCreditHistory(ctx, 2, 0)
		require.Len(t, history, 1)
		assert.Equal(t, 1, history[0].Amount)
	})

	t.Run("should clamp a negative delta at zero", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierPremium, entity.RoleAdmin, 0)
		seedUser(t, store, tp, 2, entity.TierBasic, entity.RolePatron, 1)

		user, err := svc.AdminAdjust(ctx, 1, 2, -5, "chargeback")

		assert.NoError(t, err)
		assert.Equal(t, 0, user.Credits())

		history, _ := svc.GetCreditHistory(ctx, 2, 0)
		require.Len(t, history, 1)
		assert.Equal(t, -1, history[0].Amount)
	})

	t.Run("should write no audit entry when the clamp cancels the delta", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierPremium, entity.RoleAdmin, 0)
		seedUser(t, store, tp, 2, entity.TierStandard, entity.RolePatron, 4)

		user, err := svc.AdminAdjust(ctx, 1, 2, 3, "goodwill")

		assert.NoError(t, err)
		assert.Equal(t, 4, user.Credits())

		history, _ := svc.GetCreditHistory(ctx, 2, 0)
		assert.Empty(t, history)
	})

	t.Run("should reject a non-admin actor", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierPremium, entity.RolePatron, 0)
		seedUser(t, store, tp, 2, entity.TierBasic, entity.RolePatron, 1)

		_, err := svc.AdminAdjust(ctx, 1, 2, 1, "nice try")

		assert.ErrorIs(t, err, errs.ErrNotAdmin)

		balance, _ := svc.GetBalance(ctx, 2)
		assert.Equal(t, 1, balance.Credits)
	})

	t.Run("should reject a zero delta", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierPremium, entity.RoleAdmin, 0)
		seedUser(t, store, tp, 2, entity.TierBasic, entity.RolePatron, 1)

		_, err := svc.AdminAdjust(ctx, 1, 2, 0, "noop")

		assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	})
}

func TestDebitForSubmission(t *testing.T) {
	ctx := context.Background()

	t.Run("should spend credits and append a cost entry", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierStandard, entity.RolePatron, 3)

		err := persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			return svc.DebitForSubmission(txCtx, 1, 2, 7, "Submission: Rin from Fate")
		})

		assert.NoError(t, err)

		balance, _ := svc.GetBalance(ctx, 1)
		assert.Equal(t, 1, balance.Credits)

		history, _ := svc.GetCreditHistory(ctx, 1, 0)
		require.Len(t, history, 1)
		assert.Equal(t, entity.KindSubmissionCost, history[0].Kind)
		assert.Equal(t, -2, history[0].Amount)
		require.NotNil(t, history[0].SubmissionID)
		assert.Equal(t, uint64(7), *history[0].SubmissionID)
	})

	t.Run("should leave the balance untouched when it cannot cover the spend", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierBasic, entity.RolePatron, 1)

		err := persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			return svc.DebitForSubmission(txCtx, 1, 2, 7, "Submission: Rin from Fate")
		})

		assert.ErrorIs(t, err, errs.ErrInsufficientCredits)

		balance, _ := svc.GetBalance(ctx, 1)
		assert.Equal(t, 1, balance.Credits)

		history, _ := svc.GetCreditHistory(ctx, 1, 0)
		assert.Empty(t, history)
	})
}

func TestRefundForSubmission(t *testing.T) {
	ctx := context.Background()

	t.Run("should credit back and append a refund entry", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierStandard, entity.RolePatron, 1)

		err := persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			return svc.RefundForSubmission(txCtx, 1, 2, 7, "Refund from cancelled submission #7")
		})

		assert.NoError(t, err)

		balance, _ := svc.GetBalance(ctx, 1)
		assert.Equal(t, 3, balance.Credits)

		history, _ := svc.GetCreditHistory(ctx, 1, 0)
		require.Len(t, history, 1)
		assert.Equal(t, entity.KindRefund, history[0].Kind)
		assert.Equal(t, 2, history[0].Amount)
	})

	t.Run("should cap the refund at the tier cap", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierBasic, entity.RolePatron, 1)

		err := persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			return svc.RefundForSubmission(txCtx, 1, 3, 7, "Refund from cancelled submission #7")
		})

		assert.NoError(t, err)

		balance, _ := svc.GetBalance(ctx, 1)
		assert.Equal(t, 2, balance.Credits)

		history, _ := svc.GetCreditHistory(ctx, 1, 0)
		require.Len(t, history, 1)
		assert.Equal(t, 1, history[0].Amount)
	})

	t.Run("should write no entry when the balance is already at cap", func(t *testing.T) {
		svc, store, tp := newTestService()
		seedUser(t, store, tp, 1, entity.TierBasic, entity.RolePatron, 2)

		err := persistence.WithTransaction(ctx, store, func(txCtx context.Context) error {
			return svc.RefundForSubmission(txCtx, 1, 1, 7, "Refund from cancelled submission #7")
		})

		assert.NoError(t, err)

		history, _ := svc.GetCreditHistory(ctx, 1, 0)
		assert.Empty(t, history)
	})
}
