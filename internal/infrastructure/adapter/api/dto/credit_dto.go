package dto

import "time"

// CreditBalance represents a user's credit standing
type CreditBalance struct {
	UserID  uint64 `json:"userId"`
	Tier    string `json:"tier"`
	Credits int    `json:"credits"`
	Cap     int    `json:"cap"`
}

// CreditEntry is one audit trail entry
type CreditEntry struct {
	ID           uint64    `json:"id"`
	Amount       int       `json:"amount"`
	Kind         string    `json:"kind"`
	Description  string    `json:"description,omitempty"`
	SubmissionID *uint64   `json:"submissionId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreditsResponse is the balance plus the recent audit trail
type CreditsResponse struct {
	Balance CreditBalance `json:"balance"`
	History []CreditEntry `json:"history"`
}

// RefreshResponse reports the outcome of a monthly refresh
type RefreshResponse struct {
	UserID  uint64 `json:"userId"`
	Granted int    `json:"granted"`
	Credits int    `json:"credits"`
}

// AdjustCreditsRequest is an admin's signed credit delta
type AdjustCreditsRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

// AllowanceResponse reports a user's vote budget for the current month
type AllowanceResponse struct {
	UserID    uint64 `json:"userId"`
	Available int    `json:"available"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
}
