package handler

import (
	"net/http"

	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// VoteHandler handles vote HTTP requests
type VoteHandler struct {
	votes  usecase.VoteUseCase
	logger coreport.Logger
}

// NewVoteHandler creates a new vote handler instance
func NewVoteHandler(votes usecase.VoteUseCase, logger coreport.Logger) *VoteHandler {
	return &VoteHandler{
		votes:  votes,
		logger: logger,
	}
}

// CastVote handles POST /submissions/:id/vote
func (h *VoteHandler) CastVote(c *gin.Context) {
	voterID, ok := callerID(c)
	if !ok {
		return
	}
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.votes.CastVote(c.Request.Context(), voterID, submissionID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveVote handles DELETE /submissions/:id/vote
func (h *VoteHandler) RemoveVote(c *gin.Context) {
	voterID, ok := callerID(c)
	if !ok {
		return
	}
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.votes.RemoveVote(c.Request.Context(), voterID, submissionID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAllowance handles GET /users/:userId/votes
func (h *VoteHandler) GetAllowance(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	allowance, err := h.votes.GetVoteAllowance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	remaining := allowance.Available - allowance.Used
	if remaining < 0 {
		remaining = 0
	}

	c.JSON(http.StatusOK, dto.AllowanceResponse{
		UserID:    userID,
		Available: allowance.Available,
		Used:      allowance.Used,
		Remaining: remaining,
	})
}
