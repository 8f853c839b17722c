package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// VoteRepository implements the VoteRepository port using GORM. Vote
// uniqueness rides on the store's composite unique index rather than a
// check-then-insert, so racing casts cannot both succeed.
type VoteRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewVoteRepository creates a new VoteRepository instance
func NewVoteRepository(db *gorm.DB, logger coreport.Logger) *VoteRepository {
	return &VoteRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// CreateVote inserts a vote for the (user, submission) pair
func (r *VoteRepository) CreateVote(ctx context.Context, vote *entity.Vote) error {
	voteModel := model.Vote{
		UserID:       vote.UserID,
		SubmissionID: vote.SubmissionID,
		CreatedAt:    vote.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&voteModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Vote already exists for pair", map[string]any{
				"user_id":       vote.UserID,
				"submission_id": vote.SubmissionID,
			})
			return errs.ErrAlreadyVoted
		}
		r.logger.Error("Failed to create vote", map[string]any{
			"user_id":       vote.UserID,
			"submission_id": vote.SubmissionID,
			"error":         result.Error.Error(),
		})
		if r.errorClassifier.IsSerializationError(result.Error) {
			return errs.ErrSerializationConflict
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	vote.ID = voteModel.ID

	r.logger.Debug("Vote created", map[string]any{
		"vote_id":       voteModel.ID,
		"user_id":       vote.UserID,
		"submission_id": vote.SubmissionID,
	})
	return nil
}

// DeleteVote removes the vote for the pair
func (r *VoteRepository) DeleteVote(ctx context.Context, userID, submissionID uint64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND submission_id = ?", userID, submissionID).
		Delete(&model.Vote{})

	if result.Error != nil {
		r.logger.Error("Failed to delete vote", map[string]any{
			"user_id":       userID,
			"submission_id": submissionID,
			"error":         result.Error.Error(),
		})
		if r.errorClassifier.IsSerializationError(result.Error) {
			return errs.ErrSerializationConflict
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	if result.RowsAffected == 0 {
		r.logger.Warn("Vote not found during delete", map[string]any{
			"user_id":       userID,
			"submission_id": submissionID,
		})
		return errs.ErrVoteNotFound
	}

	return nil
}

// HasVote reports whether the pair has a vote
func (r *VoteRepository) HasVote(ctx context.Context, userID, submissionID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Where("user_id = ? AND submission_id = ?", userID, submissionID).
		Count(&count).Error

	if err != nil {
		r.logger.Error("Failed to check vote existence", map[string]any{
			"user_id":       userID,
			"submission_id": submissionID,
			"error":         err.Error(),
		})
		return false, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	return count > 0, nil
}

// GetOrCreateAllowance returns the user's allowance for the period, creating
// one with the given budget when absent. The row comes back locked so the
// consume-then-update sequence is safe against concurrent casts.
func (r *VoteRepository) GetOrCreateAllowance(ctx context.Context, userID uint64, period string, votesAvailable int) (*entity.VoteAllowance, error) {
	var allowanceModel model.VoteAllowance
	result := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("user_id = ? AND period = ?", userID, period).
		First(&allowanceModel)

	if result.Error == nil {
		return r.allowanceToEntity(&allowanceModel), nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.Error("Failed to load vote allowance", map[string]any{
			"user_id": userID,
			"period":  period,
			"error":   result.Error.Error(),
		})
		if r.errorClassifier.IsSerializationError(result.Error) {
			return nil, errs.ErrSerializationConflict
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	allowanceModel = model.VoteAllowance{
		UserID:         userID,
		Period:         period,
		VotesAvailable: votesAvailable,
		VotesUsed:      0,
	}

	createResult := r.db.WithContext(ctx).Create(&allowanceModel)
	if createResult.Error != nil {
		// A concurrent transaction may have created the row first; re-read
		// under lock instead of failing.
		if r.errorClassifier.IsDuplicateKeyError(createResult.Error) {
			result = r.db.WithContext(ctx).
				Set("gorm:query_option", "FOR UPDATE").
				Where("user_id = ? AND period = ?", userID, period).
				First(&allowanceModel)
			if result.Error != nil {
				return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
			}
			return r.allowanceToEntity(&allowanceModel), nil
		}
		r.logger.Error("Failed to create vote allowance", map[string]any{
			"user_id": userID,
			"period":  period,
			"error":   createResult.Error.Error(),
		})
		if r.errorClassifier.IsSerializationError(createResult.Error) {
			return nil, errs.ErrSerializationConflict
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, createResult.Error.Error())
	}

	r.logger.Info("Vote allowance opened for period", map[string]any{
		"user_id":         userID,
		"period":          period,
		"votes_available": votesAvailable,
	})

	return r.allowanceToEntity(&allowanceModel), nil
}

// UpdateAllowance persists the allowance's used counter
func (r *VoteRepository) UpdateAllowance(ctx context.Context, allowance *entity.VoteAllowance) error {
	result := r.db.WithContext(ctx).Model(&model.VoteAllowance{}).
		Where("id = ?", allowance.ID).
		Updates(map[string]interface{}{
			"votes_available": allowance.VotesAvailable,
			"votes_used":      allowance.VotesUsed,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update vote allowance", map[string]any{
			"allowance_id": allowance.ID,
			"user_id":      allowance.UserID,
			"error":        result.Error.Error(),
		})
		if r.errorClassifier.IsSerializationError(result.Error) {
			return errs.ErrSerializationConflict
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return nil
}

func (r *VoteRepository) allowanceToEntity(allowanceModel *model.VoteAllowance) *entity.VoteAllowance {
	return &entity.VoteAllowance{
		ID:             allowanceModel.ID,
		UserID:         allowanceModel.UserID,
		Period:         allowanceModel.Period,
		VotesAvailable: allowanceModel.VotesAvailable,
		VotesUsed:      allowanceModel.VotesUsed,
	}
}
