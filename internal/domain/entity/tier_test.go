package entity

import (
	"testing"

	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	t.Run("should accept all known tiers", func(t *testing.T) {
		for _, raw := range []int{1, 2, 3, 4} {
			tier, err := ParseTier(raw)
			assert.NoError(t, err)
			assert.Equal(t, Tier(raw), tier)
		}
	})

	t.Run("should reject unknown tiers", func(t *testing.T) {
		for _, raw := range []int{0, 5, -1, 100} {
			_, err := ParseTier(raw)
			assert.ErrorIs(t, err, errs.ErrInvalidTier)
		}
	})
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "free", TierFree.String())
	assert.Equal(t, "basic", TierBasic.String())
	assert.Equal(t, "standard", TierStandard.String())
	assert.Equal(t, "premium", TierPremium.String())
	assert.Equal(t, "unknown", Tier(9).String())
}

func TestTierIsPaid(t *testing.T) {
	assert.False(t, TierFree.IsPaid())
	assert.True(t, TierBasic.IsPaid())
	assert.True(t, TierStandard.IsPaid())
	assert.True(t, TierPremium.IsPaid())
}

func TestDefaultPolicyTable(t *testing.T) {
	policies := DefaultPolicyTable()

	t.Run("should route free tier to the free queue without modifiers", func(t *testing.T) {
		policy, err := policies.PolicyFor(TierFree)
		assert.NoError(t, err)
		assert.Equal(t, QueueFree, policy.Queue)
		assert.False(t, policy.AllowsModifiers)
		assert.Equal(t, 0, policy.MonthlyGrant)
	})

	t.Run("should route paid tiers to the paid queue with modifiers", func(t *testing.T) {
		for _, tier := range []Tier{TierBasic, TierStandard, TierPremium} {
			policy, err := policies.PolicyFor(tier)
			assert.NoError(t, err)
			assert.Equal(t, QueuePaid, policy.Queue)
			assert.True(t, policy.AllowsModifiers)
			assert.Greater(t, policy.MonthlyGrant, 0)
		}
	})

	t.Run("should cap each tier at twice its monthly grant", func(t *testing.T) {
		for _, tier := range []Tier{TierBasic, TierStandard, TierPremium} {
			policy, err := policies.PolicyFor(tier)
			assert.NoError(t, err)
			assert.Equal(t, policy.MonthlyGrant*2, policy.Cap)
		}
	})

	t.Run("should reject a tier missing from the table", func(t *testing.T) {
		_, err := policies.PolicyFor(Tier(9))
		assert.ErrorIs(t, err, errs.ErrInvalidTier)
	})
}
