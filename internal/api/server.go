// Package api provides the REST management API for dnslens.
// It exposes endpoints for health checks, statistics, configuration,
// recorded anomalies, traffic history, and a live WebSocket event feed
// via a Gin-based HTTP server.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnslens/internal/api/handlers"
	"github.com/jroosing/dnslens/internal/api/live"
	"github.com/jroosing/dnslens/internal/api/middleware"
	"github.com/jroosing/dnslens/internal/config"
	"github.com/jroosing/dnslens/internal/database"
	"github.com/jroosing/dnslens/internal/inspect"
)

// Options carries the dependencies the API server exposes. Config is
// required; the rest degrade gracefully when absent (endpoints backed
// by a missing component report service unavailable or omit sections).
type Options struct {
	Config    *config.Config
	DB        *database.DB
	Logger    *slog.Logger
	Inspector *inspect.Inspector
	Hub       *live.Hub
}

// Server is the management REST API server.
//
// Security note: do not expose the API to untrusted networks without
// an API key configured.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

func New(opts Options) *Server {
	if opts.Config == nil {
		panic("api.New: Config is nil")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))

	if cfg.API.EnableCORS {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-API-Key")
		engine.Use(cors.New(corsCfg))
	}

	h := handlers.New(cfg, opts.DB, logger)
	if opts.Inspector != nil {
		h.SetInspector(opts.Inspector)
	}
	RegisterRoutes(engine, h, cfg, opts.Hub)
	MountSPA(engine, logger)

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{cfg: cfg, logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
