package handler

import (
	"errors"
	"net/http"
	"strconv"

	domainerr "github.com/atelier-ko/commission-core/internal/domain/error"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// CallerHeader carries the authenticated user's ID, set by the identity
// layer in front of this service
const CallerHeader = "X-User-ID"

// callerID extracts the authenticated caller from the request headers
func callerID(c *gin.Context) (uint64, bool) {
	raw := c.GetHeader(CallerHeader)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "Missing or invalid " + CallerHeader + " header",
		})
		return 0, false
	}
	return id, true
}

// pathID parses a uint64 path parameter
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid " + name + " path parameter",
		})
		return 0, false
	}
	return id, true
}

// respondError maps domain errors to HTTP status codes and writes the
// standardized error body
func respondError(c *gin.Context, logger coreport.Logger, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, domainerr.ErrUserNotFound):
		status, message = http.StatusNotFound, "User not found"
	case errors.Is(err, domainerr.ErrSubmissionNotFound):
		status, message = http.StatusNotFound, "Submission not found"
	case errors.Is(err, domainerr.ErrVoteNotFound):
		status, message = http.StatusNotFound, "Vote not found"
	case errors.Is(err, domainerr.ErrNotOwner):
		status, message = http.StatusForbidden, "Not the submission owner"
	case errors.Is(err, domainerr.ErrNotAdmin):
		status, message = http.StatusForbidden, "Admin role required"
	case errors.Is(err, domainerr.ErrVoteOnOwnSubmission):
		status, message = http.StatusForbidden, "Voting for your own submission is not allowed"
	case errors.Is(err, domainerr.ErrInsufficientCredits):
		status, message = http.StatusUnprocessableEntity, "Insufficient credits"
	case errors.Is(err, domainerr.ErrNoVotesRemaining):
		status, message = http.StatusUnprocessableEntity, "No votes remaining this month"
	case errors.Is(err, domainerr.ErrInvalidTierModifier):
		status, message = http.StatusUnprocessableEntity, "Tier does not allow submission modifiers"
	case errors.Is(err, domainerr.ErrPendingLimitReached):
		status, message = http.StatusConflict, "Pending submission limit reached"
	case errors.Is(err, domainerr.ErrAlreadyVoted):
		status, message = http.StatusConflict, "Vote already cast for this submission"
	case errors.Is(err, domainerr.ErrInvalidStateTransition):
		status, message = http.StatusConflict, "Submission state does not allow this operation"
	case errors.Is(err, domainerr.ErrVoteNotAllowed):
		status, message = http.StatusConflict, "Submission is not open for voting"
	case errors.Is(err, domainerr.ErrRetryLater):
		status, message = http.StatusTooManyRequests, "Operation conflicted, retry later"
	case errors.Is(err, domainerr.ErrInvalidRequest),
		errors.Is(err, domainerr.ErrInvalidAmount),
		errors.Is(err, domainerr.ErrInvalidUserID),
		errors.Is(err, domainerr.ErrInvalidTier):
		status, message = http.StatusBadRequest, "Invalid request"
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", map[string]any{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"error":  err.Error(),
		})
	}

	c.JSON(status, dto.ErrorResponse{
		Code:    domainerr.ErrorCode(err),
		Message: message,
	})
}
