package handler

import (
	"net/http"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// SubmissionHandler handles submission lifecycle HTTP requests
type SubmissionHandler struct {
	submissions usecase.SubmissionUseCase
	logger      coreport.Logger
}

// NewSubmissionHandler creates a new submission handler instance
func NewSubmissionHandler(submissions usecase.SubmissionUseCase, logger coreport.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		logger:      logger,
	}
}

// Create handles POST /submissions
func (h *SubmissionHandler) Create(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	sub, err := h.submissions.Create(c.Request.Context(), usecase.CreateSubmissionRequest{
		OwnerID:       ownerID,
		CharacterName: req.CharacterName,
		Series:        req.Series,
		Description:   req.Description,
		IsPublic:      req.IsPublic,
		Modifiers: entity.Modifiers{
			LargeImageSet:   req.LargeImageSet,
			DoubleCharacter: req.DoubleCharacter,
		},
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSubmissionResponse(sub))
}

// ListOwn handles GET /submissions
func (h *SubmissionHandler) ListOwn(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	subs, err := h.submissions.ListOwn(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubmissionResponses(subs))
}

// Edit handles PATCH /submissions/:id
func (h *SubmissionHandler) Edit(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.EditSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	editReq := usecase.EditSubmissionRequest{
		OwnerID:       ownerID,
		SubmissionID:  submissionID,
		CharacterName: req.CharacterName,
		Series:        req.Series,
		Description:   req.Description,
		IsPublic:      req.IsPublic,
	}

	// Either modifier flag present means the modifier set is being changed;
	// the absent one keeps its current value, resolved by the use case.
	if req.LargeImageSet != nil || req.DoubleCharacter != nil {
		editReq.ModifierPatch = &usecase.ModifierPatch{
			LargeImageSet:   req.LargeImageSet,
			DoubleCharacter: req.DoubleCharacter,
		}
	}

	sub, err := h.submissions.Edit(c.Request.Context(), editReq)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubmissionResponse(sub))
}

// Cancel handles DELETE /submissions/:id
func (h *SubmissionHandler) Cancel(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CancelSubmissionRequest
	// Body is optional for cancellation
	_ = c.ShouldBindJSON(&req)

	result, err := h.submissions.Cancel(c.Request.Context(), ownerID, submissionID, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.CancelResponse{
		Submission: dto.NewSubmissionResponse(result.Submission),
		Refunded:   result.Refunded,
	})
}

// AdminStart handles POST /admin/submissions/:id/start
func (h *SubmissionHandler) AdminStart(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sub, err := h.submissions.AdminStart(c.Request.Context(), actorID, submissionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubmissionResponse(sub))
}

// AdminComplete handles POST /admin/submissions/:id/complete
func (h *SubmissionHandler) AdminComplete(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CompleteSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	sub, err := h.submissions.AdminComplete(c.Request.Context(), actorID, submissionID, req.CompletionRef, req.CreatorNotes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubmissionResponse(sub))
}
