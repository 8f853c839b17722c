package repository

import (
	"context"
	"fmt"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// CreditTransactionRepository implements the append-only audit trail port
// using GORM. Rows are only ever inserted.
type CreditTransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewCreditTransactionRepository creates a new CreditTransactionRepository instance
func NewCreditTransactionRepository(db *gorm.DB, logger coreport.Logger) *CreditTransactionRepository {
	return &CreditTransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *CreditTransactionRepository) modelToEntity(txModel *model.CreditTransaction) *entity.CreditTransaction {
	return &entity.CreditTransaction{
		ID:           txModel.ID,
		UserID:       txModel.UserID,
		Amount:       txModel.Amount,
		Kind:         entity.TransactionKind(txModel.Kind),
		Description:  txModel.Description,
		SubmissionID: txModel.SubmissionID,
		CreatedAt:    txModel.CreatedAt,
	}
}

// Append stores a new audit entry
func (r *CreditTransactionRepository) Append(ctx context.Context, transaction *entity.CreditTransaction) error {
	txModel := model.CreditTransaction{
		UserID:       transaction.UserID,
		Amount:       transaction.Amount,
		Kind:         string(transaction.Kind),
		Description:  transaction.Description,
		SubmissionID: transaction.SubmissionID,
		CreatedAt:    transaction.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&txModel)
	if result.Error != nil {
		r.logger.Error("Failed to append credit transaction", map[string]any{
			"user_id": transaction.UserID,
			"kind":    string(transaction.Kind),
			"error":   result.Error.Error(),
		})
		if r.errorClassifier.IsConstraintError(result.Error) {
			return errs.ErrUserNotFound
		}
		if r.errorClassifier.IsSerializationError(result.Error) {
			return errs.ErrSerializationConflict
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	transaction.ID = txModel.ID

	r.logger.Debug("Credit transaction appended", map[string]any{
		"transaction_id": txModel.ID,
		"user_id":        transaction.UserID,
		"amount":         transaction.Amount,
		"kind":           string(transaction.Kind),
	})
	return nil
}

// ListByUser returns the user's audit entries, newest first.
// A limit of 0 means no limit.
func (r *CreditTransactionRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]*entity.CreditTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var txModels []model.CreditTransaction
	if err := query.Find(&txModels).Error; err != nil {
		r.logger.Error("Failed to list credit transactions", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	transactions := make([]*entity.CreditTransaction, 0, len(txModels))
	for i := range txModels {
		transactions = append(transactions, r.modelToEntity(&txModels[i]))
	}

	return transactions, nil
}
