package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInsufficientCredits    = 4001
	CodeInvalidTierModifier    = 4002
	CodeInvalidStateTransition = 4003
	CodeNotOwner               = 4031
	CodeNotAdmin               = 4032
	CodeAlreadyVoted           = 4004
	CodeVoteOnOwnSubmission    = 4005
	CodeNoVotesRemaining       = 4006
	CodeVoteNotAllowed         = 4007
	CodePendingLimitReached    = 4008
	CodeInvalidTier            = 4009
	CodeUserNotFound           = 4040
	CodeSubmissionNotFound     = 4041
	CodeVoteNotFound           = 4042
	CodeRetryLater             = 4290

	// 5xxx - Server errors
	CodeInternalServer = 5000
)

// Base error types
var (
	// ErrInsufficientCredits is returned when a spend exceeds the user's balance
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidTierModifier is returned when a free-tier user selects a paid-only modifier
	ErrInvalidTierModifier = errors.New("modifiers are not available on this tier")

	// ErrInvalidStateTransition is returned when a lifecycle transition is not legal
	// from the submission's current status
	ErrInvalidStateTransition = errors.New("invalid submission state transition")

	// ErrNotOwner is returned when a caller acts on a submission they do not own
	ErrNotOwner = errors.New("caller does not own this submission")

	// ErrNotAdmin is returned when a non-admin caller invokes an admin operation
	ErrNotAdmin = errors.New("caller is not an admin")

	// ErrAlreadyVoted is returned when a user votes twice for the same submission
	ErrAlreadyVoted = errors.New("already voted for this submission")

	// ErrVoteOnOwnSubmission is returned when a user votes for their own submission
	ErrVoteOnOwnSubmission = errors.New("cannot vote for your own submission")

	// ErrNoVotesRemaining is returned when the monthly vote allowance is exhausted
	ErrNoVotesRemaining = errors.New("no votes remaining this month")

	// ErrVoteNotAllowed is returned when the vote target is not a pending
	// free-queue submission
	ErrVoteNotAllowed = errors.New("submission is not open for voting")

	// ErrPendingLimitReached is returned when a free-tier user already has a
	// pending submission
	ErrPendingLimitReached = errors.New("pending submission limit reached")

	// ErrInvalidTier is returned when a tier number is outside the known range
	ErrInvalidTier = errors.New("invalid subscription tier")

	// ErrUserNotFound is returned when the requested user doesn't exist
	ErrUserNotFound = errors.New("user not found")

	// ErrSubmissionNotFound is returned when the requested submission doesn't exist
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrVoteNotFound is returned when removing a vote that was never cast
	ErrVoteNotFound = errors.New("vote not found")

	// ErrRetryLater is returned when internal retries of a conflicting
	// transaction are exhausted; the caller may retry the whole operation
	ErrRetryLater = errors.New("operation conflicted, retry later")

	// ErrSerializationConflict marks a transient transaction conflict detected
	// by the persistence layer; use cases retry on it and never surface it
	ErrSerializationConflict = errors.New("transaction serialization conflict")

	// ErrCorruptQueue is returned when a position sequence read back during
	// renumbering is inconsistent; the enclosing transaction must abort
	ErrCorruptQueue = errors.New("corrupt queue position sequence")

	// ErrInvalidAmount is returned when a credit amount is zero or negative
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidUserID is returned when the user ID is not a positive integer
	ErrInvalidUserID = errors.New("user ID must be positive")

	// ErrInvalidRequest is returned when the request format is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")

	// ErrDatabaseConnection is returned when there's a problem connecting to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrDuplicateUser is returned when trying to create a user that already exists
	ErrDuplicateUser = errors.New("user already exists")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		return CodeInsufficientCredits
	case errors.Is(err, ErrInvalidTierModifier):
		return CodeInvalidTierModifier
	case errors.Is(err, ErrInvalidStateTransition):
		return CodeInvalidStateTransition
	case errors.Is(err, ErrNotOwner):
		return CodeNotOwner
	case errors.Is(err, ErrNotAdmin):
		return CodeNotAdmin
	case errors.Is(err, ErrAlreadyVoted):
		return CodeAlreadyVoted
	case errors.Is(err, ErrVoteOnOwnSubmission):
		return CodeVoteOnOwnSubmission
	case errors.Is(err, ErrNoVotesRemaining):
		return CodeNoVotesRemaining
	case errors.Is(err, ErrVoteNotAllowed):
		return CodeVoteNotAllowed
	case errors.Is(err, ErrPendingLimitReached):
		return CodePendingLimitReached
	case errors.Is(err, ErrInvalidTier):
		return CodeInvalidTier
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrSubmissionNotFound):
		return CodeSubmissionNotFound
	case errors.Is(err, ErrVoteNotFound):
		return CodeVoteNotFound
	case errors.Is(err, ErrRetryLater):
		return CodeRetryLater
	default:
		return CodeInternalServer
	}
}

// InsufficientCreditsError provides detailed error information for failed spends
type InsufficientCreditsError struct {
	UserID   uint64
	Required int
	Balance  int
}

// Error implements the error interface
func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits for user %d: required %d, available %d",
		e.UserID, e.Required, e.Balance)
}

// Is checks if the target error is an ErrInsufficientCredits
func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientCreditsError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "insufficient_credits",
		"user_id":    e.UserID,
		"required":   e.Required,
		"balance":    e.Balance,
		"error_code": CodeInsufficientCredits,
	}
}

// NewInsufficientCreditsError creates a new detailed insufficient credits error
func NewInsufficientCreditsError(userID uint64, required, balance int) error {
	return &InsufficientCreditsError{
		UserID:   userID,
		Required: required,
		Balance:  balance,
	}
}

// StateTransitionError describes an illegal submission lifecycle transition
type StateTransitionError struct {
	SubmissionID uint64
	From         string
	To           string
}

// Error implements the error interface
func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("submission %d cannot transition from %s to %s",
		e.SubmissionID, e.From, e.To)
}

// Is checks if the target error is an ErrInvalidStateTransition
func (e *StateTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

// LogFields returns a map of fields for structured logging
func (e *StateTransitionError) LogFields() map[string]any {
	return map[string]any{
		"error_type":    "invalid_state_transition",
		"submission_id": e.SubmissionID,
		"from":          e.From,
		"to":            e.To,
		"error_code":    CodeInvalidStateTransition,
	}
}

// NewStateTransitionError creates a detailed state transition error
func NewStateTransitionError(submissionID uint64, from, to string) error {
	return &StateTransitionError{SubmissionID: submissionID, From: from, To: to}
}

// IsInsufficientCreditsError checks if the error is related to insufficient credits
func IsInsufficientCreditsError(err error) bool {
	return errors.Is(err, ErrInsufficientCredits)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		errors.Is(err, ErrVoteNotFound)
}

// IsRetryable checks if the error marks a transient conflict worth retrying
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSerializationConflict)
}
