package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnslens/internal/api/models"
)

// GetConfig godoc
// @Summary Get current configuration
// @Description Returns the current server configuration (sensitive fields redacted)
// @Tags config
// @Produce json
// @Success 200 {object} models.ConfigResponse
// @Failure 500 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /config [get]
func (h *Handler) GetConfig(c *gin.Context) {
	if h.cfg == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "config unavailable"})
		return
	}

	resp := models.ConfigResponse{
		Capture: models.CaptureConfigResponse{
			Host:           h.cfg.Capture.Host,
			Port:           h.cfg.Capture.Port,
			Workers:        h.cfg.Capture.Workers.String(),
			MaxConcurrency: h.cfg.Capture.MaxConcurrency,
			EnableTCP:      h.cfg.Capture.EnableTCP,
			Respond:        h.cfg.Capture.Respond,
		},
		Correlate: h.cfg.Correlate,
		Retention: h.cfg.Retention,
		Database:  h.cfg.Database,
		Logging:   h.cfg.Logging,
		RateLimit: h.cfg.RateLimit,
		API: models.APIConfigResponse{
			Enabled:    h.cfg.API.Enabled,
			Host:       h.cfg.API.Host,
			Port:       h.cfg.API.Port,
			EnableCORS: h.cfg.API.EnableCORS,
		},
	}

	c.JSON(http.StatusOK, resp)
}
