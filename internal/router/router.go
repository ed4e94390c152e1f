package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"matterdesk/internal/config"
	"matterdesk/internal/handler"
	"matterdesk/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	documentH *handler.DocumentHandler,
	timeEntryH *handler.TimeEntryHandler,
	reportH *handler.ReportHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// API docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Document processing
	documents := v1.Group("/documents")
	documents.POST("", documentH.Submit)
	documents.GET("/:id", documentH.Get)
	documents.GET("/:id/status", documentH.Status)
	documents.GET("/:id/observe", documentH.Observe)
	documents.GET("/:id/download", documentH.Download)

	// Time entry capture
	timeEntries := v1.Group("/time-entries")
	timeEntries.POST("/capture", timeEntryH.Capture)

	// Report export
	reports := v1.Group("/reports")
	reports.GET("/time-entries.csv", reportH.ExportCSV)
	reports.GET("/time-entries.xlsx", reportH.ExportXLSX)

	return r
}
