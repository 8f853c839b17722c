package model

import (
	"time"
)

// User represents the database model for users
type User struct {
	ID                uint64     `gorm:"primaryKey"`
	Tier              int        `gorm:"not null;default:1;index"`
	Role              string     `gorm:"not null;default:'patron';size:50"`
	Credits           int        `gorm:"not null;default:0"`
	LastCreditRefresh *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
