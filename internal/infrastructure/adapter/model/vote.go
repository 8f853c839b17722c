package model

import (
	"time"
)

// Vote represents the database model for votes. The composite unique index
// enforces the at-most-one-vote-per-pair invariant at the store level.
type Vote struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	UserID       uint64    `gorm:"not null;uniqueIndex:idx_votes_user_submission"`
	SubmissionID uint64    `gorm:"not null;uniqueIndex:idx_votes_user_submission;index"`
	CreatedAt    time.Time `gorm:"not null"`

	User       User       `gorm:"foreignKey:UserID;references:ID"`
	Submission Submission `gorm:"foreignKey:SubmissionID;references:ID"`
}

// TableName specifies the table name for Vote
func (Vote) TableName() string {
	return "votes"
}

// VoteAllowance represents the database model for monthly vote budgets
type VoteAllowance struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	UserID         uint64 `gorm:"not null;uniqueIndex:idx_allowance_user_period"`
	Period         string `gorm:"not null;size:7;uniqueIndex:idx_allowance_user_period"`
	VotesAvailable int    `gorm:"not null;default:0"`
	VotesUsed      int    `gorm:"not null;default:0"`

	User User `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for VoteAllowance
func (VoteAllowance) TableName() string {
	return "vote_allowances"
}
