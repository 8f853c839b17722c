package submission

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
)

// validateModifiers rejects paid-only modifiers for tiers whose policy does
// not allow them
func validateModifiers(policy entity.TierPolicy, mods entity.Modifiers) error {
	if mods.Any() && !policy.AllowsModifiers {
		return errs.ErrInvalidTierModifier
	}
	return nil
}

// checkPendingLimit enforces the free-tier rule of at most one pending
// submission per user
func checkPendingLimit(ctx context.Context, repo persistence.SubmissionRepository, user *entity.User) error {
	if user.Tier != entity.TierFree {
		return nil
	}
	count, err := repo.CountPendingByOwner(ctx, user.ID)
	if err != nil {
		return err
	}
	if count >= 1 {
		return errs.ErrPendingLimitReached
	}
	return nil
}
