package model

import (
	"time"
)

// Submission represents the database model for submissions
type Submission struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement"`
	OwnerID         uint64     `gorm:"not null;index"`
	CharacterName   string     `gorm:"not null;size:255;index"`
	Series          string     `gorm:"not null;size:255;index"`
	Description     string     `gorm:"type:text"`
	IsPublic        bool       `gorm:"not null;default:false"`
	LargeImageSet   bool       `gorm:"not null;default:false"`
	DoubleCharacter bool       `gorm:"not null;default:false"`
	Status          string     `gorm:"not null;size:50;index"`
	QueueType       string     `gorm:"not null;size:50;index"`
	QueuePosition   *int       `gorm:"index"`
	VoteCount       int        `gorm:"not null;default:0"`
	CreditCost      int        `gorm:"not null;default:1"`
	SubmittedAt     time.Time  `gorm:"not null"`
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CompletionRef   string     `gorm:"size:500"`
	CreatorNotes    string     `gorm:"type:text"`
	EstimatedAt     *time.Time
	UpdatedAt       time.Time  `gorm:"not null"`

	Owner User `gorm:"foreignKey:OwnerID;references:ID"`
}

// TableName specifies the table name for Submission
func (Submission) TableName() string {
	return "submissions"
}
