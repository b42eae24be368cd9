package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"towdispatch/internal/handler"
	"towdispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	JobHandler       *handler.JobHandler
	EvidenceHandler  *handler.EvidenceHandler
	RejectionHandler *handler.RejectionHandler
	PriceHandler     *handler.PriceHandler
	RedisClient      *redis.Client
	NewRelicApp      *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.GET("/:id", deps.JobHandler.GetJob)
			jobs.GET("/:id/history", deps.JobHandler.GetHistory)
			jobs.POST("/:id/advance", deps.JobHandler.AdvanceStage)
			jobs.POST("/:id/evidence", deps.EvidenceHandler.SubmitBatch)
			jobs.GET("/:id/evidence", deps.EvidenceHandler.List)
		}

		evidence := v1.Group("/evidence")
		{
			evidence.DELETE("/:id", deps.EvidenceHandler.Delete)
		}

		rejections := v1.Group("/rejections")
		{
			rejections.POST("", deps.RejectionHandler.Create)
			rejections.POST("/:id/approve", deps.RejectionHandler.Approve)
			rejections.POST("/:id/deny", deps.RejectionHandler.Deny)
		}

		price := v1.Group("/price")
		{
			price.POST("/quote", deps.PriceHandler.Quote)
		}
	}

	return router
}
