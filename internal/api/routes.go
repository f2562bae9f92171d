package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/brlegal/captura-partes/internal/cache"
	"github.com/brlegal/captura-partes/internal/config"
	"github.com/brlegal/captura-partes/internal/jobs"
	"github.com/brlegal/captura-partes/internal/rawlog"
	"github.com/brlegal/captura-partes/pkg/logger"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, runner *jobs.Runner, rawLogs *rawlog.Writer, partyCache *cache.PartyCache, log *logger.Logger, cfg *config.Config) {
	h := NewHandlers(db, runner, rawLogs, partyCache, log, cfg)

	api := router.Group("/api")
	{
		// Health check
		api.GET("/health", h.HealthCheck)

		// Capture job endpoints
		api.POST("/captures", h.StartCapture)
		api.GET("/captures", h.ListJobs)
		api.GET("/captures/:id", h.GetJob)
		api.GET("/captures/:id/rawlogs", h.GetJobRawLogs)
		api.GET("/captures/:id/rawlogs/stats", h.GetJobRawLogStats)

		// Cache stats
		api.GET("/cache/stats", h.CacheStats)
	}
}
