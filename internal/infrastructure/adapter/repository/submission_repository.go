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

// SubmissionRepository implements the SubmissionRepository port using GORM
type SubmissionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewSubmissionRepository creates a new SubmissionRepository instance
func NewSubmissionRepository(db *gorm.DB, logger coreport.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *SubmissionRepository) modelToEntity(subModel *model.Submission) *entity.Submission {
	return &entity.Submission{
		ID:            subModel.ID,
		OwnerID:       subModel.OwnerID,
		CharacterName: subModel.CharacterName,
		Series:        subModel.Series,
		Description:   subModel.Description,
		IsPublic:      subModel.IsPublic,
		Modifiers: entity.Modifiers{
			LargeImageSet:   subModel.LargeImageSet,
			DoubleCharacter: subModel.DoubleCharacter,
		},
		Status:        entity.Status(subModel.Status),
		QueueType:     entity.QueueType(subModel.QueueType),
		QueuePosition: subModel.QueuePosition,
		VoteCount:     subModel.VoteCount,
		CreditCost:    subModel.CreditCost,
		SubmittedAt:   subModel.SubmittedAt,
		StartedAt:     subModel.StartedAt,
		CompletedAt:   subModel.CompletedAt,
		CompletionRef: subModel.CompletionRef,
		CreatorNotes:  subModel.CreatorNotes,
		EstimatedAt:   subModel.EstimatedAt,
		UpdatedAt:     subModel.UpdatedAt,
	}
}

func (r *SubmissionRepository) entityToModel(sub *entity.Submission) model.Submission {
	return model.Submission{
		ID:              sub.ID,
		OwnerID:         sub.OwnerID,
		CharacterName:   sub.CharacterName,
		Series:          sub.Series,
		Description:     sub.Description,
		IsPublic:        sub.IsPublic,
		LargeImageSet:   sub.Modifiers.LargeImageSet,
		DoubleCharacter: sub.Modifiers.DoubleCharacter,
		Status:          string(sub.Status),
		QueueType:       string(sub.QueueType),
		QueuePosition:   sub.QueuePosition,
		VoteCount:       sub.VoteCount,
		CreditCost:      sub.CreditCost,
		SubmittedAt:     sub.SubmittedAt,
		StartedAt:       sub.StartedAt,
		CompletedAt:     sub.CompletedAt,
		CompletionRef:   sub.CompletionRef,
		CreatorNotes:    sub.CreatorNotes,
		EstimatedAt:     sub.EstimatedAt,
		UpdatedAt:       sub.UpdatedAt,
	}
}

// handleDatabaseError standardizes database error handling
func (r *SubmissionRepository) handleDatabaseError(operation string, err error, submissionID uint64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.Warn("Submission not found", map[string]any{
			"submission_id": submissionID,
		})
		return errs.ErrSubmissionNotFound
	}

	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"submission_id": submissionID,
		"error":         err.Error(),
	})

	if r.errorClassifier.IsSerializationError(err) {
		return errs.ErrSerializationConflict
	}

	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// rankOrder applies the queue's ranking rule: paid is submission order,
// free is vote count first. Both tie-break by id so the order is total.
func rankOrder(query *gorm.DB, queue entity.QueueType) *gorm.DB {
	if queue == entity.QueueFree {
		query = query.Order("vote_count DESC")
	}
	return query.Order("submitted_at ASC").Order("id ASC")
}

// GetByID retrieves a submission by ID
func (r *SubmissionRepository) GetByID(ctx context.Context, id uint64) (*entity.Submission, error) {
	var subModel model.Submission
	result := r.db.WithContext(ctx).First(&subModel, id)

	if result.Error != nil {
		return nil, r.handleDatabaseError("getting submission", result.Error, id)
	}

	return r.modelToEntity(&subModel), nil
}

// GetByIDForUpdate retrieves a submission and takes an exclusive row lock
func (r *SubmissionRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*entity.Submission, error) {
	var subModel model.Submission
	result := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		First(&subModel, id)

	if result.Error != nil {
		return nil, r.handleDatabaseError("locking submission", result.Error, id)
	}

	return r.modelToEntity(&subModel), nil
}

// Create inserts a new submission and fills in its generated ID
func (r *SubmissionRepository) Create(ctx context.Context, submission *entity.Submission) error {
	subModel := r.entityToModel(submission)

	result := r.db.WithContext(ctx).Create(&subModel)
	if result.Error != nil {
		r.logger.Error("Failed to create submission", map[string]any{
			"owner_id": submission.OwnerID,
			"error":    result.Error.Error(),
		})
		if r.errorClassifier.IsConstraintError(result.Error) {
			return errs.ErrUserNotFound
		}
		if r.errorClassifier.IsSerializationError(result.Error) {
			return errs.ErrSerializationConflict
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	submission.ID = subModel.ID

	r.logger.Info("Submission created", map[string]any{
		"submission_id": subModel.ID,
		"owner_id":      submission.OwnerID,
		"queue_type":    string(submission.QueueType),
		"credit_cost":   submission.CreditCost,
	})
	return nil
}

// Update persists the submission's mutable fields
func (r *SubmissionRepository) Update(ctx context.Context, submission *entity.Submission) error {
	result := r.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", submission.ID).
		Updates(map[string]interface{}{
			"character_name":   submission.CharacterName,
			"series":           submission.Series,
			"description":      submission.Description,
			"is_public":        submission.IsPublic,
			"large_image_set":  submission.Modifiers.LargeImageSet,
			"double_character": submission.Modifiers.DoubleCharacter,
			"status":           string(submission.Status),
			"queue_position":   submission.QueuePosition,
			"vote_count":       submission.VoteCount,
			"credit_cost":      submission.CreditCost,
			"started_at":       submission.StartedAt,
			"completed_at":     submission.CompletedAt,
			"completion_ref":   submission.CompletionRef,
			"creator_notes":    submission.CreatorNotes,
			"estimated_at":     submission.EstimatedAt,
			"updated_at":       submission.UpdatedAt,
		})

	if result.Error != nil {
		return r.handleDatabaseError("updating submission", result.Error, submission.ID)
	}

	if result.RowsAffected == 0 {
		r.logger.Warn("Submission not found during update", map[string]any{
			"submission_id": submission.ID,
		})
		return errs.ErrSubmissionNotFound
	}

	return nil
}

// ListPending returns all pending submissions of the queue in rank order
func (r *SubmissionRepository) ListPending(ctx context.Context, queue entity.QueueType) ([]*entity.Submission, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND queue_type = ?", string(entity.StatusPending), string(queue))

	return r.listOrdered(rankOrder(query, queue), queue)
}

// ListPendingForUpdate is ListPending with the rows locked for the enclosing
// transaction; used by queue renumbering
func (r *SubmissionRepository) ListPendingForUpdate(ctx context.Context, queue entity.QueueType) ([]*entity.Submission, error) {
	query := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("status = ? AND queue_type = ?", string(entity.StatusPending), string(queue))

	return r.listOrdered(rankOrder(query, queue), queue)
}

func (r *SubmissionRepository) listOrdered(query *gorm.DB, queue entity.QueueType) ([]*entity.Submission, error) {
	var subModels []model.Submission
	if err := query.Find(&subModels).Error; err != nil {
		r.logger.Error("Failed to list pending submissions", map[string]any{
			"queue_type": string(queue),
			"error":      err.Error(),
		})
		if r.errorClassifier.IsSerializationError(err) {
			return nil, errs.ErrSerializationConflict
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	submissions := make([]*entity.Submission, 0, len(subModels))
	for i := range subModels {
		submissions = append(submissions, r.modelToEntity(&subModels[i]))
	}

	return submissions, nil
}

// CountPendingByOwner returns how many pending submissions the owner holds
func (r *SubmissionRepository) CountPendingByOwner(ctx context.Context, ownerID uint64) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Submission{}).
		Where("owner_id = ? AND status = ?", ownerID, string(entity.StatusPending)).
		Count(&count).Error

	if err != nil {
		r.logger.Error("Failed to count pending submissions", map[string]any{
			"owner_id": ownerID,
			"error":    err.Error(),
		})
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	return int(count), nil
}

// ListByOwner returns all of the owner's submissions, newest first
func (r *SubmissionRepository) ListByOwner(ctx context.Context, ownerID uint64) ([]*entity.Submission, error) {
	var subModels []model.Submission
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&subModels).Error

	if err != nil {
		r.logger.Error("Failed to list submissions by owner", map[string]any{
			"owner_id": ownerID,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	submissions := make([]*entity.Submission, 0, len(subModels))
	for i := range subModels {
		submissions = append(submissions, r.modelToEntity(&subModels[i]))
	}

	return submissions, nil
}
