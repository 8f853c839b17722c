package entity

import (
	"time"

	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
)

// PeriodOf returns the calendar-month identifier (YYYY-MM, UTC) used to
// scope vote allowances and monthly credit refreshes.
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Vote records that a user voted for a free-queue submission. At most one
// vote may exist per (user, submission) pair.
type Vote struct {
	ID           uint64
	UserID       uint64
	SubmissionID uint64
	CreatedAt    time.Time
}

// NewVote creates a vote for the given pair
func NewVote(userID, submissionID uint64, timeProvider coreport.TimeProvider) (*Vote, error) {
	if userID == 0 || submissionID == 0 {
		return nil, errs.ErrInvalidRequest
	}
	return &Vote{
		UserID:       userID,
		SubmissionID: submissionID,
		CreatedAt:    timeProvider.Now(),
	}, nil
}

// VoteAllowance tracks a user's vote budget for one calendar month.
// Allowances do not carry over between months.
type VoteAllowance struct {
	ID             uint64
	UserID         uint64
	Period         string // YYYY-MM
	VotesAvailable int
	VotesUsed      int
}

// NewVoteAllowance creates a fresh allowance for the period
func NewVoteAllowance(userID uint64, period string, votesAvailable int) *VoteAllowance {
	return &VoteAllowance{
		UserID:         userID,
		Period:         period,
		VotesAvailable: votesAvailable,
		VotesUsed:      0,
	}
}

// Remaining returns the number of votes still usable this month
func (a *VoteAllowance) Remaining() int {
	remaining := a.VotesAvailable - a.VotesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Consume uses one vote from the allowance.
// Returns ErrNoVotesRemaining when the budget is exhausted.
func (a *VoteAllowance) Consume() error {
	if a.VotesUsed >= a.VotesAvailable {
		return errs.ErrNoVotesRemaining
	}
	a.VotesUsed++
	return nil
}

// Release returns one vote to the allowance, never dropping used below zero
func (a *VoteAllowance) Release() {
	if a.VotesUsed > 0 {
		a.VotesUsed--
	}
}
