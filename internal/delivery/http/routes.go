package http

import (
	"github.com/flyerkit/backend/config"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router.
// storageDir is served at /storage when files are kept on local disk; pass "" otherwise.
func SetupRouter(cfg *config.Config, handler *Handler, storageDir string) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = MaxUploadSize

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	if storageDir != "" {
		router.Static("/storage", storageDir)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP, cfg.RateLimit.Burst)))
	{
		v1.POST("/offers/parse", handler.ParseOffers)

		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("/drafts", handler.CreateDraft)
			campaigns.GET("/drafts/:id", handler.GetDraft)
			campaigns.POST("", handler.CreateCampaign)
			campaigns.GET("", handler.ListCampaigns)
			campaigns.GET("/:id", handler.GetCampaign)
			campaigns.DELETE("/:id", handler.DeleteCampaign)
			campaigns.POST("/:id/duplicate", handler.DuplicateCampaign)
			campaigns.POST("/:id/render", handler.RenderCampaign)
			campaigns.GET("/:id/items.csv", handler.ExportCampaignItems)
		}

		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.POST("", handler.CreateProduct)
			products.GET("/:id", handler.GetProduct)
			products.PUT("/:id", handler.UpdateProduct)
			products.DELETE("/:id", handler.DeleteProduct)
		}

		templates := v1.Group("/templates")
		{
			templates.GET("", handler.ListTemplates)
			templates.POST("", handler.CreateTemplate)
			templates.GET("/:id", handler.GetTemplate)
			templates.PUT("/:id", handler.UpdateTemplate)
			templates.DELETE("/:id", handler.DeleteTemplate)
		}

		v1.POST("/uploads", handler.Upload)
	}

	return router
}
