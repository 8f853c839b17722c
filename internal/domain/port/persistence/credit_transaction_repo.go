package persistence

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
)

// CreditTransactionRepository manages the append-only credit audit trail.
// Entries are never updated or deleted.
type CreditTransactionRepository interface {
	// Append stores a new audit entry
	//
	// Possible errors:
	// - ErrUserNotFound: If the referenced user does not exist
	// - ErrDatabaseConnection: If database connection fails
	Append(ctx context.Context, transaction *entity.CreditTransaction) error

	// ListByUser returns the user's audit entries, newest first.
	// A limit of 0 means no limit.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListByUser(ctx context.Context, userID uint64, limit int) ([]*entity.CreditTransaction, error)
}
