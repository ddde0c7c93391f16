package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnslens/internal/api/handlers"
	"github.com/jroosing/dnslens/internal/api/live"
	"github.com/jroosing/dnslens/internal/api/middleware"
	"github.com/jroosing/dnslens/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jroosing/dnslens/internal/api/docs" // swagger docs
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config, hub *live.Hub) {
	// Swagger UI at /swagger/*
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus scrape endpoint. Kept outside the keyed group because
	// scrapers do not send custom headers.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// Health stays reachable without a key so load balancers and
	// container probes can use it.
	api.GET("/health", h.Health)

	// Optional API key protection for everything else.
	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/stats", h.Stats)
	api.GET("/config", h.GetConfig)

	api.GET("/anomalies", h.ListAnomalies)
	api.GET("/anomalies/summary", h.AnomalySummary)
	api.GET("/traffic", h.Traffic)

	if hub != nil {
		api.GET("/live", hub.ServeWS)
	}
}
