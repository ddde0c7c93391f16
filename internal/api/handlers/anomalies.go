package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnslens/internal/api/models"
	"github.com/jroosing/dnslens/internal/database"
)

const (
	defaultAnomalyLimit = 100
	maxAnomalyLimit     = 1000
)

// parseTimeParam interprets a query parameter as either a duration relative
// to now ("15m", "24h") or an absolute RFC 3339 timestamp.
func parseTimeParam(raw string) (time.Time, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return time.Now().Add(-d), nil
	}
	return time.Parse(time.RFC3339, raw)
}

// ListAnomalies godoc
// @Summary List recorded anomalies
// @Description Returns recorded header anomalies, newest first
// @Tags observations
// @Produce json
// @Param kind query string false "Filter by anomaly kind (truncated, unknown_opcode, unknown_rcode, reserved_bits, oversize)"
// @Param since query string false "Window start: duration before now (24h) or RFC 3339 timestamp"
// @Param limit query int false "Maximum rows to return (default 100, max 1000)"
// @Success 200 {object} models.AnomalyListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /anomalies [get]
func (h *Handler) ListAnomalies(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "database unavailable"})
		return
	}

	f := database.AnomalyFilter{
		Kind:  c.Query("kind"),
		Limit: defaultAnomalyLimit,
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid limit"})
			return
		}
		f.Limit = min(n, maxAnomalyLimit)
	}
	if raw := c.Query("since"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid since"})
			return
		}
		f.Since = t
	}

	rows, err := h.db.ListAnomalies(c.Request.Context(), f)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("anomaly list failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "query failed"})
		return
	}

	c.JSON(http.StatusOK, models.AnomalyListResponse{Anomalies: rows, Count: len(rows)})
}

// AnomalySummary godoc
// @Summary Summarize anomalies by kind
// @Description Returns anomaly counts grouped by kind for a time window (default 24h)
// @Tags observations
// @Produce json
// @Param since query string false "Window start: duration before now (24h) or RFC 3339 timestamp"
// @Success 200 {object} models.AnomalySummaryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /anomalies/summary [get]
func (h *Handler) AnomalySummary(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "database unavailable"})
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if raw := c.Query("since"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid since"})
			return
		}
		since = t
	}

	byKind, err := h.db.SummarizeAnomalies(c.Request.Context(), since)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("anomaly summary failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "query failed"})
		return
	}

	var total int64
	for _, n := range byKind {
		total += n
	}

	c.JSON(http.StatusOK, models.AnomalySummaryResponse{
		Since:  since,
		Total:  total,
		ByKind: byKind,
	})
}

// Traffic godoc
// @Summary Traffic buckets
// @Description Returns per-minute traffic buckets for a time window (default last hour)
// @Tags observations
// @Produce json
// @Param since query string false "Window start: duration before now (1h) or RFC 3339 timestamp"
// @Param until query string false "Window end: duration before now or RFC 3339 timestamp"
// @Success 200 {object} models.TrafficResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /traffic [get]
func (h *Handler) Traffic(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "database unavailable"})
		return
	}

	since := time.Now().Add(-time.Hour)
	if raw := c.Query("since"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid since"})
			return
		}
		since = t
	}

	var until time.Time
	if raw := c.Query("until"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid until"})
			return
		}
		until = t
	}

	points, err := h.db.ListTraffic(c.Request.Context(), since, until)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("traffic query failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "query failed"})
		return
	}

	c.JSON(http.StatusOK, models.TrafficResponse{Points: points, Count: len(points)})
}
