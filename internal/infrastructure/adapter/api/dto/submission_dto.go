package dto

import (
	"time"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
)

// CreateSubmissionRequest is the payload for a new submission
type CreateSubmissionRequest struct {
	CharacterName   string `json:"characterName" binding:"required"`
	Series          string `json:"series" binding:"required"`
	Description     string `json:"description"`
	IsPublic        bool   `json:"isPublic"`
	LargeImageSet   bool   `json:"largeImageSet"`
	DoubleCharacter bool   `json:"doubleCharacter"`
}

// EditSubmissionRequest is a partial update; absent fields stay unchanged
type EditSubmissionRequest struct {
	CharacterName   *string `json:"characterName"`
	Series          *string `json:"series"`
	Description     *string `json:"description"`
	IsPublic        *bool   `json:"isPublic"`
	LargeImageSet   *bool   `json:"largeImageSet"`
	DoubleCharacter *bool   `json:"doubleCharacter"`
}

// CancelSubmissionRequest optionally carries the cancellation reason
type CancelSubmissionRequest struct {
	Reason string `json:"reason"`
}

// CompleteSubmissionRequest records the delivered work
type CompleteSubmissionRequest struct {
	CompletionRef string `json:"completionRef" binding:"required"`
	CreatorNotes  string `json:"creatorNotes"`
}

// SubmissionResponse is the API shape of a submission
type SubmissionResponse struct {
	ID              uint64     `json:"id"`
	OwnerID         uint64     `json:"ownerId"`
	CharacterName   string     `json:"characterName"`
	Series          string     `json:"series"`
	Description     string     `json:"description,omitempty"`
	IsPublic        bool       `json:"isPublic"`
	LargeImageSet   bool       `json:"largeImageSet"`
	DoubleCharacter bool       `json:"doubleCharacter"`
	Status          string     `json:"status"`
	QueueType       string     `json:"queueType"`
	QueuePosition   *int       `json:"queuePosition,omitempty"`
	VoteCount       int        `json:"voteCount"`
	CreditCost      int        `json:"creditCost"`
	SubmittedAt     time.Time  `json:"submittedAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CompletionRef   string     `json:"completionRef,omitempty"`
	CreatorNotes    string     `json:"creatorNotes,omitempty"`
	EstimatedAt     *time.Time `json:"estimatedAt,omitempty"`
}

// CancelResponse reports the cancellation and the credits returned
type CancelResponse struct {
	Submission SubmissionResponse `json:"submission"`
	Refunded   int                `json:"refunded"`
}

// QueueResponse is one queue's pending submissions in rank order
type QueueResponse struct {
	QueueType   string               `json:"queueType"`
	Submissions []SubmissionResponse `json:"submissions"`
}

// NewSubmissionResponse converts a submission entity to its API shape
func NewSubmissionResponse(sub *entity.Submission) SubmissionResponse {
	return SubmissionResponse{
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
	}
}

// NewSubmissionResponses converts a slice of submissions
func NewSubmissionResponses(subs []*entity.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		responses = append(responses, NewSubmissionResponse(sub))
	}
	return responses
}
