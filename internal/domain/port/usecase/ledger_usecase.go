package usecase

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
)

// BalanceResult is the ledger's answer to a balance query
type BalanceResult struct {
	UserID  uint64
	Tier    entity.Tier
	Credits int
	Cap     int
}

// LedgerUseCase defines the Credit Ledger operations.
//
// DebitForSubmission and RefundForSubmission must be called inside an
// existing unit-of-work transaction (the context returned by Begin); they
// are the hooks the submission lifecycle uses to keep the debit atomic with
// registry changes.
type LedgerUseCase interface {
	// RefreshCreditsIfDue grants the tier's monthly credits if no refresh has
	// happened in the current calendar month. Returns the amount granted
	// (zero when already refreshed or at cap). Idempotent per month.
	RefreshCreditsIfDue(ctx context.Context, userID uint64) (int, error)

	// AdminAdjust applies a signed credit delta on behalf of an admin,
	// clamped to [0, tier cap], and records an admin_adjustment entry
	AdminAdjust(ctx context.Context, actorID, userID uint64, delta int, reason string) (*entity.User, error)

	// GetBalance returns the user's current balance and tier cap
	GetBalance(ctx context.Context, userID uint64) (*BalanceResult, error)

	// GetCreditHistory returns the user's audit entries, newest first
	GetCreditHistory(ctx context.Context, userID uint64, limit int) ([]*entity.CreditTransaction, error)

	// DebitForSubmission atomically spends credits for a submission and
	// appends a submission_cost entry. Fails with ErrInsufficientCredits.
	DebitForSubmission(ctx context.Context, userID uint64, amount int, submissionID uint64, description string) error

	// RefundForSubmission credits back a cancelled or reduced submission's
	// cost (capped at the tier cap) and appends a refund entry
	RefundForSubmission(ctx context.Context, userID uint64, amount int, submissionID uint64, description string) error
}
