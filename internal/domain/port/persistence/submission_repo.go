package persistence

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
)

// SubmissionRepository defines essential methods to interact with submission data
type SubmissionRepository interface {
	// GetByID retrieves a submission by ID
	//
	// Possible errors:
	// - ErrSubmissionNotFound: If no submission with the given ID exists
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id uint64) (*entity.Submission, error)

	// GetByIDForUpdate retrieves a submission and locks the row for the
	// enclosing transaction
	//
	// Possible errors:
	// - ErrSubmissionNotFound: If no submission with the given ID exists
	// - ErrSerializationConflict: If the lock cannot be acquired
	// - ErrDatabaseConnection: If database connection fails
	GetByIDForUpdate(ctx context.Context, id uint64) (*entity.Submission, error)

	// Create inserts a new submission and fills in its generated ID
	//
	// Possible errors:
	// - ErrUserNotFound: If the owner does not exist
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, submission *entity.Submission) error

	// Update persists the submission's mutable fields
	//
	// Possible errors:
	// - ErrSubmissionNotFound: If the submission doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, submission *entity.Submission) error

	// ListPending returns all pending submissions of the queue ordered by the
	// queue's ranking rule: paid is submitted_at ascending, free is vote_count
	// descending then submitted_at ascending, both tie-broken by id ascending
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListPending(ctx context.Context, queue entity.QueueType) ([]*entity.Submission, error)

	// ListPendingForUpdate is ListPending with the rows locked for the
	// enclosing transaction; used by queue renumbering
	//
	// Possible errors:
	// - ErrSerializationConflict: If the locks cannot be acquired
	// - ErrDatabaseConnection: If database connection fails
	ListPendingForUpdate(ctx context.Context, queue entity.QueueType) ([]*entity.Submission, error)

	// CountPendingByOwner returns how many pending submissions the owner holds
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	CountPendingByOwner(ctx context.Context, ownerID uint64) (int, error)

	// ListByOwner returns all of the owner's submissions, newest first
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListByOwner(ctx context.Context, ownerID uint64) ([]*entity.Submission, error)
}
