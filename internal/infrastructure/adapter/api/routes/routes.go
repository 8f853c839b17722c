package routes

import (
	coreport "github.com/atelier-ko/commission-core/internal/domain/port/core"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/api/handler"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(
	router *gin.Engine,
	submissionHandler *handler.SubmissionHandler,
	voteHandler *handler.VoteHandler,
	queueHandler *handler.QueueHandler,
	creditHandler *handler.CreditHandler,
) {
	// Submission routes
	submissionRoutes := router.Group("/submissions")
	{
		submissionRoutes.POST("", submissionHandler.Create)
		submissionRoutes.GET("", submissionHandler.ListOwn)
		submissionRoutes.PATCH("/:id", submissionHandler.Edit)
		submissionRoutes.DELETE("/:id", submissionHandler.Cancel)

		submissionRoutes.POST("/:id/vote", voteHandler.CastVote)
		submissionRoutes.DELETE("/:id/vote", voteHandler.RemoveVote)
	}

	// Queue routes
	router.GET("/queue/:queueType", queueHandler.ListQueue)

	// User credit and vote routes
	userRoutes := router.Group("/users")
	{
		userRoutes.GET("/:userId/credits", creditHandler.GetCredits)
		userRoutes.POST("/:userId/credits/refresh", creditHandler.RefreshCredits)
		userRoutes.POST("/:userId/credits/adjust", creditHandler.AdjustCredits)
		userRoutes.GET("/:userId/votes", voteHandler.GetAllowance)
	}

	// Admin routes
	adminRoutes := router.Group("/admin")
	{
		adminRoutes.POST("/submissions/:id/start", submissionHandler.AdminStart)
		adminRoutes.POST("/submissions/:id/complete", submissionHandler.AdminComplete)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
}
