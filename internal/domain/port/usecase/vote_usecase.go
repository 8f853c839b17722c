package usecase

import (
	"context"
)

// AllowanceResult reports a user's vote budget for the current month
type AllowanceResult struct {
	Available int
	Used      int
}

// VoteUseCase defines the Vote Allowance Tracker operations
type VoteUseCase interface {
	// CastVote spends one vote from the voter's monthly allowance on a
	// pending free-queue submission and re-ranks the free queue
	CastVote(ctx context.Context, voterID, submissionID uint64) error

	// RemoveVote takes back a previously cast vote, returning it to the
	// allowance, and re-ranks the free queue
	RemoveVote(ctx context.Context, voterID, submissionID uint64) error

	// GetVoteAllowance returns the voter's budget for the current month,
	// initializing it on first use
	GetVoteAllowance(ctx context.Context, userID uint64) (*AllowanceResult, error)
}
