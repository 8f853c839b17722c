package usecase

import (
	"context"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
)

// CreateSubmissionRequest carries the caller's input for a new submission
type CreateSubmissionRequest struct {
	OwnerID       uint64
	CharacterName string
	Series        string
	Description   string
	IsPublic      bool
	Modifiers     entity.Modifiers
}

// ModifierPatch is a partial change of the modifier set; nil flags keep
// their current value
type ModifierPatch struct {
	LargeImageSet   *bool
	DoubleCharacter *bool
}

// Apply resolves the patch against the current modifier set
func (p ModifierPatch) Apply(current entity.Modifiers) entity.Modifiers {
	next := current
	if p.LargeImageSet != nil {
		next.LargeImageSet = *p.LargeImageSet
	}
	if p.DoubleCharacter != nil {
		next.DoubleCharacter = *p.DoubleCharacter
	}
	return next
}

// EditSubmissionRequest carries a partial update of a pending submission.
// Nil fields are left unchanged. Changing modifiers settles the cost delta
// through the ledger; an unfundable increase rejects the whole edit.
type EditSubmissionRequest struct {
	OwnerID       uint64
	SubmissionID  uint64
	CharacterName *string
	Series        *string
	Description   *string
	IsPublic      *bool
	ModifierPatch *ModifierPatch
}

// CancelResult reports the outcome of a cancellation
type CancelResult struct {
	Submission *entity.Submission
	Refunded   int
}

// SubmissionUseCase defines the submission lifecycle operations
type SubmissionUseCase interface {
	// Create validates modifiers against the owner's tier, debits the cost and
	// appends the submission to the tail of its queue, all in one transaction
	Create(ctx context.Context, req CreateSubmissionRequest) (*entity.Submission, error)

	// Edit updates a pending submission owned by the caller
	Edit(ctx context.Context, req EditSubmissionRequest) (*entity.Submission, error)

	// Cancel cancels a pending submission owned by the caller, refunds its
	// cost and renumbers the vacated queue
	Cancel(ctx context.Context, ownerID, submissionID uint64, reason string) (*CancelResult, error)

	// ListOwn returns the caller's submissions, newest first
	ListOwn(ctx context.Context, ownerID uint64) ([]*entity.Submission, error)

	// AdminStart moves a pending submission to in_progress and renumbers the
	// vacated queue. Admin only.
	AdminStart(ctx context.Context, actorID, submissionID uint64) (*entity.Submission, error)

	// AdminComplete moves an in_progress submission to completed, recording
	// the delivered-post reference. Admin only.
	AdminComplete(ctx context.Context, actorID, submissionID uint64, completionRef, creatorNotes string) (*entity.Submission, error)
}
