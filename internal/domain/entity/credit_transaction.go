package entity

import (
	"time"

	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
)

// TransactionKind classifies a credit transaction in the audit trail
type TransactionKind string

// Transaction kinds
const (
	KindMonthlyRefresh  TransactionKind = "monthly_refresh"
	KindSubmissionCost  TransactionKind = "submission_cost"
	KindRefund          TransactionKind = "refund"
	KindAdminAdjustment TransactionKind = "admin_adjustment"
)

// CreditTransaction is one entry of the append-only credit audit trail.
// Positive amounts are grants, negative amounts are spends. Entries are
// never mutated or deleted; the user's balance is the materialized
// projection of this stream.
type CreditTransaction struct {
	ID           uint64
	UserID       uint64
	Amount       int // signed: positive = grant, negative = spend
	Kind         TransactionKind
	Description  string
	SubmissionID *uint64
	CreatedAt    time.Time
}

// NewCreditTransaction creates a new audit entry with basic validation
func NewCreditTransaction(
	userID uint64,
	amount int,
	kind TransactionKind,
	description string,
	submissionID *uint64,
	timeProvider coreport.TimeProvider,
) (*CreditTransaction, error) {
	if userID == 0 {
		return nil, errs.ErrInvalidUserID
	}
	if amount == 0 {
		return nil, errs.ErrInvalidAmount
	}
	if !isValidKind(kind) {
		return nil, errs.ErrInvalidRequest
	}

	return &CreditTransaction{
		UserID:       userID,
		Amount:       amount,
		Kind:         kind,
		Description:  description,
		SubmissionID: submissionID,
		CreatedAt:    timeProvider.Now(),
	}, nil
}

func isValidKind(kind TransactionKind) bool {
	switch kind {
	case KindMonthlyRefresh, KindSubmissionCost, KindRefund, KindAdminAdjustment:
		return true
	default:
		return false
	}
}
