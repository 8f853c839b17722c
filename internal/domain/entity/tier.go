package entity

import (
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
)

// Tier represents a subscription level. Tier 1 is the free tier; tiers 2-4
// are paid tiers with monthly credit grants.
type Tier int

// Subscription tiers
const (
	TierFree     Tier = 1
	TierBasic    Tier = 2
	TierStandard Tier = 3
	TierPremium  Tier = 4
)

// ParseTier converts a raw tier number into a Tier
func ParseTier(raw int) (Tier, error) {
	switch Tier(raw) {
	case TierFree, TierBasic, TierStandard, TierPremium:
		return Tier(raw), nil
	default:
		return 0, errs.ErrInvalidTier
	}
}

// String returns the display name of the tier
func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierBasic:
		return "basic"
	case TierStandard:
		return "standard"
	case TierPremium:
		return "premium"
	default:
		return "unknown"
	}
}

// IsPaid reports whether the tier receives monthly credits and joins the paid queue
func (t Tier) IsPaid() bool {
	return t > TierFree
}

// TierPolicy describes the per-tier behavior: credit cap, monthly grant,
// modifier eligibility and queue assignment
type TierPolicy struct {
	Cap             int       // maximum credits a user of this tier can hold
	MonthlyGrant    int       // credits granted per calendar month
	AllowsModifiers bool      // whether paid-only modifiers may be selected
	Queue           QueueType // queue new submissions are assigned to
}

// PolicyTable maps each tier to its policy. It is built once from
// configuration and injected into the use cases.
type PolicyTable map[Tier]TierPolicy

// DefaultPolicyTable returns the built-in tier table
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		TierFree:     {Cap: 1, MonthlyGrant: 0, AllowsModifiers: false, Queue: QueueFree},
		TierBasic:    {Cap: 2, MonthlyGrant: 1, AllowsModifiers: true, Queue: QueuePaid},
		TierStandard: {Cap: 4, MonthlyGrant: 2, AllowsModifiers: true, Queue: QueuePaid},
		TierPremium:  {Cap: 8, MonthlyGrant: 4, AllowsModifiers: true, Queue: QueuePaid},
	}
}

// PolicyFor returns the policy for the given tier
func (p PolicyTable) PolicyFor(tier Tier) (TierPolicy, error) {
	policy, ok := p[tier]
	if !ok {
		return TierPolicy{}, errs.ErrInvalidTier
	}
	return policy, nil
}
