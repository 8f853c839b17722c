package persistence

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
)

// VoteRepository manages votes and monthly vote allowances
type VoteRepository interface {
	// CreateVote inserts a vote. Uniqueness of the (user, submission) pair is
	// enforced by the store, not by a prior existence check.
	//
	// Possible errors:
	// - ErrAlreadyVoted: If a vote for the pair already exists
	// - ErrDatabaseConnection: If database connection fails
	CreateVote(ctx context.Context, vote *entity.Vote) error

	// DeleteVote removes the vote for the pair
	//
	// Possible errors:
	// - ErrVoteNotFound: If no such vote exists
	// - ErrDatabaseConnection: If database connection fails
	DeleteVote(ctx context.Context, userID, submissionID uint64) error

	// HasVote reports whether the pair has a vote
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	HasVote(ctx context.Context, userID, submissionID uint64) (bool, error)

	// GetOrCreateAllowance returns the user's allowance for the period,
	// creating one with the given budget when absent. The returned row is
	// locked for the enclosing transaction.
	//
	// Possible errors:
	// - ErrSerializationConflict: If the lock cannot be acquired
	// - ErrDatabaseConnection: If database connection fails
	GetOrCreateAllowance(ctx context.Context, userID uint64, period string, votesAvailable int) (*entity.VoteAllowance, error)

	// UpdateAllowance persists the allowance's used counter
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	UpdateAllowance(ctx context.Context, allowance *entity.VoteAllowance) error
}
