package handler

import (
	"net/http"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/domain/port/usecase"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// QueueHandler handles queue listing HTTP requests
type QueueHandler struct {
	scheduler usecase.Scheduler
	logger    coreport.Logger
}

// NewQueueHandler creates a new queue handler instance
func NewQueueHandler(scheduler usecase.Scheduler, logger coreport.Logger) *QueueHandler {
	return &QueueHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// ListQueue handles GET /queue/:queueType
func (h *QueueHandler) ListQueue(c *gin.Context) {
	queue, err := entity.ParseQueueType(c.Param("queueType"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	subs, err := h.scheduler.ListQueue(c.Request.Context(), queue)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.QueueResponse{
		QueueType:   string(queue),
		Submissions: dto.NewSubmissionResponses(subs),
	})
}
