package model

import (
	"time"
)

// CreditTransaction represents the database model for the append-only
// credit audit trail. Rows are only ever inserted.
type CreditTransaction struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	UserID       uint64    `gorm:"not null;index"`
	Amount       int       `gorm:"not null"`
	Kind         string    `gorm:"not null;size:50"`
	Description  string    `gorm:"type:text"`
	SubmissionID *uint64   `gorm:"index"`
	CreatedAt    time.Time `gorm:"not null;index"`

	User User `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for CreditTransaction
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
