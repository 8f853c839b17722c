package entity

import (
	"time"

	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
)

// Status represents the lifecycle state of a submission
type Status string

// Submission lifecycle states. Legal transitions are
// pending -> in_progress -> completed and pending -> cancelled.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// QueueType identifies which of the two orderings a submission belongs to
type QueueType string

// Queue types. Paid submissions are FIFO; free submissions are vote-ranked.
const (
	QueuePaid QueueType = "paid"
	QueueFree QueueType = "free"
)

// ParseQueueType converts a raw queue name into a QueueType
func ParseQueueType(raw string) (QueueType, error) {
	switch QueueType(raw) {
	case QueuePaid, QueueFree:
		return QueueType(raw), nil
	default:
		return "", errs.ErrInvalidRequest
	}
}

// Modifiers are the optional submission attributes that add to credit cost.
// Only paid tiers may select them.
type Modifiers struct {
	LargeImageSet   bool
	DoubleCharacter bool
}

// Cost computes the credit cost of a submission with the given modifiers:
// one base credit plus one per selected modifier. Pure, no side effects.
func Cost(mods Modifiers) int {
	cost := 1
	if mods.LargeImageSet {
		cost++
	}
	if mods.DoubleCharacter {
		cost++
	}
	return cost
}

// Any reports whether at least one modifier is selected
func (m Modifiers) Any() bool {
	return m.LargeImageSet || m.DoubleCharacter
}

// Submission represents a commissioned artwork request
type Submission struct {
	ID            uint64
	OwnerID       uint64
	CharacterName string
	Series        string
	Description   string
	IsPublic      bool
	Modifiers     Modifiers
	Status        Status
	QueueType     QueueType
	QueuePosition *int // 1-based rank among pending submissions; nil once not pending
	VoteCount     int
	CreditCost    int
	SubmittedAt   time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CompletionRef string // link to the delivered post
	CreatorNotes  string
	EstimatedAt   *time.Time // estimated completion, derived from queue position
	UpdatedAt     time.Time
}

// NewSubmission creates a pending submission for the given owner. The queue
// type is derived from the owner's tier policy; the cost from the modifiers.
func NewSubmission(
	ownerID uint64,
	characterName, series, description string,
	isPublic bool,
	mods Modifiers,
	queue QueueType,
	timeProvider coreport.TimeProvider,
) (*Submission, error) {
	if ownerID == 0 {
		return nil, errs.ErrInvalidUserID
	}
	if characterName == "" || series == "" {
		return nil, errs.ErrInvalidRequest
	}

	now := timeProvider.Now()
	return &Submission{
		OwnerID:       ownerID,
		CharacterName: characterName,
		Series:        series,
		Description:   description,
		IsPublic:      isPublic,
		Modifiers:     mods,
		Status:        StatusPending,
		QueueType:     queue,
		CreditCost:    Cost(mods),
		SubmittedAt:   now,
		UpdatedAt:     now,
	}, nil
}

// IsPending reports whether the submission still occupies a queue slot
func (s *Submission) IsPending() bool {
	return s.Status == StatusPending
}

// CanEdit reports whether the submission may still be edited by its owner
func (s *Submission) CanEdit() bool {
	return s.Status == StatusPending
}

// Start moves the submission from pending to in_progress and vacates its
// queue slot. Only legal from pending.
func (s *Submission) Start(timeProvider coreport.TimeProvider) error {
	if s.Status != StatusPending {
		return errs.NewStateTransitionError(s.ID, string(s.Status), string(StatusInProgress))
	}
	now := timeProvider.Now()
	s.Status = StatusInProgress
	s.StartedAt = &now
	s.QueuePosition = nil
	s.EstimatedAt = nil
	s.UpdatedAt = now
	return nil
}

// Complete moves the submission from in_progress to completed and records
// the delivered-post reference. Only legal from in_progress.
func (s *Submission) Complete(completionRef, creatorNotes string, timeProvider coreport.TimeProvider) error {
	if s.Status != StatusInProgress {
		return errs.NewStateTransitionError(s.ID, string(s.Status), string(StatusCompleted))
	}
	now := timeProvider.Now()
	s.Status = StatusCompleted
	s.CompletedAt = &now
	s.CompletionRef = completionRef
	if creatorNotes != "" {
		s.CreatorNotes = creatorNotes
	}
	s.UpdatedAt = now
	return nil
}

// Cancel moves the submission from pending to cancelled and vacates its
// queue slot. Only legal from pending; the caller refunds the credit cost.
func (s *Submission) Cancel(timeProvider coreport.TimeProvider) error {
	if s.Status != StatusPending {
		return errs.NewStateTransitionError(s.ID, string(s.Status), string(StatusCancelled))
	}
	s.Status = StatusCancelled
	s.QueuePosition = nil
	s.EstimatedAt = nil
	s.UpdatedAt = timeProvider.Now()
	return nil
}

// SetPosition assigns the 1-based queue position (scheduler only)
func (s *Submission) SetPosition(position int, timeProvider coreport.TimeProvider) {
	s.QueuePosition = &position
	s.UpdatedAt = timeProvider.Now()
}
