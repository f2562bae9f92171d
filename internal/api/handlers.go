package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/brlegal/captura-partes/internal/cache"
	"github.com/brlegal/captura-partes/internal/config"
	"github.com/brlegal/captura-partes/internal/database"
	"github.com/brlegal/captura-partes/internal/jobs"
	"github.com/brlegal/captura-partes/internal/rawlog"
	"github.com/brlegal/captura-partes/pkg/logger"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	db      *gorm.DB
	runner  *jobs.Runner
	rawLogs *rawlog.Writer
	cache   *cache.PartyCache
	logger  *logger.Logger
	cfg     *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *gorm.DB, runner *jobs.Runner, rawLogs *rawlog.Writer, partyCache *cache.PartyCache, log *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		db:      db,
		runner:  runner,
		rawLogs: rawLogs,
		cache:   partyCache,
		logger:  log,
		cfg:     cfg,
	}
}

// StartCapture accepts a capture job request and runs it in the background
func (h *Handlers) StartCapture(c *gin.Context) {
	var req jobs.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	job, err := h.runner.Start(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"job_id":  job.ID,
		"status":  job.Status,
	})
}

// GetJob returns one capture job with its parsed result summary
func (h *Handlers) GetJob(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid job ID",
		})
		return
	}

	var job database.CapturaJob
	if err := h.db.First(&job, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Job not found",
		})
		return
	}

	var summary json.RawMessage
	if job.Resultado != "" {
		summary = json.RawMessage(job.Resultado)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    job,
		"summary": summary,
	})
}

// ListJobs returns capture jobs, newest first
func (h *Handlers) ListJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset := (page - 1) * limit

	var total int64
	h.db.Model(&database.CapturaJob{}).Count(&total)

	var list []database.CapturaJob
	h.db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&list)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    list,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetJobRawLogs returns the raw capture log entries of a job, newest first
func (h *Handlers) GetJobRawLogs(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid job ID",
		})
		return
	}

	entries, err := h.rawLogs.FindByJobID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// GetJobRawLogStats compares the document store's per-status counts with
// the job summary's document id list and flags drift
func (h *Handlers) GetJobRawLogStats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid job ID",
		})
		return
	}

	counts, err := h.rawLogs.CountByStatus(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	var total int64
	for _, count := range counts {
		total += count
	}

	var job database.CapturaJob
	if err := h.db.First(&job, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Job not found",
		})
		return
	}

	var summary jobs.Summary
	if job.Resultado != "" {
		if err := json.Unmarshal([]byte(job.Resultado), &summary); err != nil {
			h.logger.Warn("Failed to parse job summary", "job_id", job.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"counts":      counts,
		"total":       total,
		"mongodb_ids": len(summary.MongoIDs),
		"drift":       total != int64(len(summary.MongoIDs)),
	})
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	var count int64
	dbHealthy := h.db.Model(&database.CapturaJob{}).Count(&count).Error == nil

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbHealthy,
		"cache":    h.cache.Stats(),
		"time":     time.Now().Unix(),
	})
}

// CacheStats returns cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	stats := h.cache.Stats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}
