package entity

import (
	"time"

	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
)

// Role values as provided by the external identity collaborator
const (
	RolePatron = "patron"
	RoleAdmin  = "admin"
)

// User represents a community member with a spendable credit balance.
// Identity fields (tier, role) are owned by the external identity
// collaborator; the core mutates only credits and last_credit_refresh.
type User struct {
	ID                uint64
	Tier              Tier
	Role              string
	credits           int // spendable balance, guarded by entity methods (private)
	LastCreditRefresh *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewUser creates a new user with a zero credit balance
func NewUser(id uint64, tier Tier, role string, timeProvider coreport.TimeProvider) (*User, error) {
	if id == 0 {
		return nil, errs.ErrInvalidUserID
	}
	if _, err := ParseTier(int(tier)); err != nil {
		return nil, err
	}

	now := timeProvider.Now()
	return &User{
		ID:        id,
		Tier:      tier,
		Role:      role,
		credits:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Credits returns the current spendable balance
func (u *User) Credits() int {
	return u.credits
}

// SetCredits updates the balance directly (for internal use, like repositories)
func (u *User) SetCredits(credits int, timeProvider coreport.TimeProvider) {
	u.credits = credits
	u.UpdatedAt = timeProvider.Now()
}

// IsAdmin reports whether the user may invoke admin operations
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanSpend checks if the user has enough credits for a spend
func (u *User) CanSpend(amount int) bool {
	return u.credits >= amount
}

// ApplyGrant adds credits up to the tier cap and returns the amount actually
// granted. Excess over the cap is discarded, never carried.
func (u *User) ApplyGrant(amount int, cap int, timeProvider coreport.TimeProvider) int {
	if amount <= 0 {
		return 0
	}
	granted := amount
	if u.credits+granted > cap {
		granted = cap - u.credits
	}
	if granted <= 0 {
		return 0
	}
	u.credits += granted
	u.UpdatedAt = timeProvider.Now()
	return granted
}

// ApplySpend subtracts the amount from the balance.
// Returns error if the balance cannot cover it.
func (u *User) ApplySpend(amount int, timeProvider coreport.TimeProvider) error {
	if amount <= 0 {
		return errs.ErrInvalidAmount
	}
	if u.credits < amount {
		return errs.ErrInsufficientCredits
	}
	u.credits -= amount
	u.UpdatedAt = timeProvider.Now()
	return nil
}

// ApplyAdjustment applies a signed admin delta, clamped to [0, cap], and
// returns the delta actually applied.
func (u *User) ApplyAdjustment(delta int, cap int, timeProvider coreport.TimeProvider) int {
	next := u.credits + delta
	if next < 0 {
		next = 0
	}
	if next > cap {
		next = cap
	}
	applied := next - u.credits
	if applied == 0 {
		return 0
	}
	u.credits = next
	u.UpdatedAt = timeProvider.Now()
	return applied
}

// RefreshDue reports whether a monthly grant is due: true when no refresh
// has ever happened or the last one was in an earlier calendar month (UTC).
func (u *User) RefreshDue(now time.Time) bool {
	if u.LastCreditRefresh == nil {
		return true
	}
	return PeriodOf(*u.LastCreditRefresh) != PeriodOf(now)
}

// MarkRefreshed claims the current month so a second refresh grants nothing
func (u *User) MarkRefreshed(timeProvider coreport.TimeProvider) {
	now := timeProvider.Now()
	u.LastCreditRefresh = &now
	u.UpdatedAt = now
}
