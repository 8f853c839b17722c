package persistence

import (
	"context"

	errs "github.com/atelier-ko/commission-core/internal/domain/error"
)

// UnitOfWork defines an interface for coordinating operations across
// multiple repositories inside one atomic transaction
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// GetUserRepository returns a user repository bound to the current transaction
	GetUserRepository(ctx context.Context) UserRepository

	// GetCreditTransactionRepository returns an audit trail repository bound
	// to the current transaction
	GetCreditTransactionRepository(ctx context.Context) CreditTransactionRepository

	// GetSubmissionRepository returns a submission repository bound to the
	// current transaction
	GetSubmissionRepository(ctx context.Context) SubmissionRepository

	// GetVoteRepository returns a vote repository bound to the current transaction
	GetVoteRepository(ctx context.Context) VoteRepository
}

// WithTransaction runs fn inside a transaction started on uow, committing on
// success and rolling back on error or panic
func WithTransaction(ctx context.Context, uow UnitOfWork, fn func(txCtx context.Context) error) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = uow.Rollback(txCtx)
			panic(r)
		}
	}()

	if err := fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}

	return uow.Commit(txCtx)
}

// WithTransactionRetry runs fn as WithTransaction does, retrying the whole
// transaction up to attempts times on serialization conflicts. When retries
// exhaust it returns ErrRetryLater so the caller can retry the operation.
func WithTransactionRetry(ctx context.Context, uow UnitOfWork, attempts int, fn func(txCtx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = WithTransaction(ctx, uow, fn)
		if err == nil || !errs.IsRetryable(err) {
			return err
		}
	}

	return errs.ErrRetryLater
}
