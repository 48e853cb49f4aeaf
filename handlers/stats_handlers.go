package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"instantanalytics/api/models"
	"instantanalytics/api/store"
	"instantanalytics/api/utils"
)

// HitReports are the ledger queries behind the stats endpoints.
type HitReports interface {
	GetHitCountsOverTime(ctx context.Context, interval string, start, end time.Time, hitType string) ([]store.HitCountByTime, error)
	GetTopNPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error)
}

type StatsHandlers struct {
	Reports HitReports
	log     *zap.Logger
}

// NewStatsHandlers accepts nil reports when the ledger is disabled; the
// endpoints then answer 503.
func NewStatsHandlers(reports HitReports, log *zap.Logger) *StatsHandlers {
	return &StatsHandlers{Reports: reports, log: log}
}

func (h *StatsHandlers) GetHitCountsOverTime(c *gin.Context) {
	if !h.available(c) {
		return
	}
	interval := c.Query("interval")
	if interval == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (e.g., 'Day', 'Hour')"})
		return
	}
	if !utils.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'interval'. Use Minute, Hour, Day, Week, Month, Quarter or Year"})
		return
	}
	start, end, ok := timeRange(c)
	if !ok {
		return
	}

	results, err := h.Reports.GetHitCountsOverTime(c.Request.Context(), interval, start, end, c.Query("hitType"))
	if err != nil {
		h.log.Error("failed to get hit counts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve hit statistics"})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *StatsHandlers) GetTopNPagePaths(c *gin.Context) {
	if !h.available(c) {
		return
	}
	start, end, ok := timeRange(c)
	if !ok {
		return
	}

	var limit uint64 = 10
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.ParseUint(limitParam, 10, 64)
		if err != nil || parsed == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsed
	}

	results, err := h.Reports.GetTopNPagePaths(c.Request.Context(), start, end, limit)
	if err != nil {
		h.log.Error("failed to get top page paths", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve top page paths"})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *StatsHandlers) available(c *gin.Context) bool {
	if h.Reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Hit ledger is not configured"})
		return false
	}
	return true
}

func timeRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, end, err := utils.ParseTimeRange(c.Query("start"), c.Query("end"), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
