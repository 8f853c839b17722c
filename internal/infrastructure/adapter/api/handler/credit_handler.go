package handler

import (
	"net/http"
	"strconv"

	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// CreditHandler handles credit ledger HTTP requests
type CreditHandler struct {
	ledger usecase.LedgerUseCase
	logger coreport.Logger
}

// NewCreditHandler creates a new credit handler instance
func NewCreditHandler(ledger usecase.LedgerUseCase, logger coreport.Logger) *CreditHandler {
	return &CreditHandler{
		ledger: ledger,
		logger: logger,
	}
}

// GetCredits handles GET /users/:userId/credits
func (h *CreditHandler) GetCredits(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	history, err := h.ledger.GetCreditHistory(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	entries := make([]dto.CreditEntry, 0, len(history))
	for _, entry := range history {
		entries = append(entries, dto.CreditEntry{
			ID:           entry.ID,
			Amount:       entry.Amount,
			Kind:         string(entry.Kind),
			Description:  entry.Description,
			SubmissionID: entry.SubmissionID,
			CreatedAt:    entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, dto.CreditsResponse{
		Balance: dto.CreditBalance{
			UserID:  balance.UserID,
			Tier:    balance.Tier.String(),
			Credits: balance.Credits,
			Cap:     balance.Cap,
		},
		History: entries,
	})
}

// RefreshCredits handles POST /users/:userId/credits/refresh
func (h *CreditHandler) RefreshCredits(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	granted, err := h.ledger.RefreshCreditsIfDue(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{
		UserID:  userID,
		Granted: granted,
		Credits: balance.Credits,
	})
}

// AdjustCredits handles POST /users/:userId/credits/adjust
func (h *CreditHandler) AdjustCredits(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req dto.AdjustCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	user, err := h.ledger.AdminAdjust(c.Request.Context(), actorID, userID, req.Delta, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreditBalance{
		UserID:  balance.UserID,
		Tier:    balance.Tier.String(),
		Credits: balance.Credits,
		Cap:     balance.Cap,
	})
}
