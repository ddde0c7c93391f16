package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jroosing/dnslens/internal/api"
	"github.com/jroosing/dnslens/internal/api/live"
	"github.com/jroosing/dnslens/internal/config"
	"github.com/jroosing/dnslens/internal/correlate"
	"github.com/jroosing/dnslens/internal/database"
	"github.com/jroosing/dnslens/internal/inspect"
	"github.com/jroosing/dnslens/internal/logging"
	"github.com/jroosing/dnslens/internal/metrics"
	"github.com/jroosing/dnslens/internal/server"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		host         = flag.String("host", "", "Bind host for the capture listeners (default 0.0.0.0)")
		port         = flag.Int("port", 5353, "Bind port for the capture listeners")
		workers      = flag.String("workers", "auto", "Clamp GOMAXPROCS (a number, or auto)")
		maxConc      = flag.Int("max-concurrency", 0, "Maximum in-flight UDP handlers (0 = derive from CPU count)")
		noTCP        = flag.Bool("no-tcp", false, "Disable the TCP listener")
		respond      = flag.Bool("respond", false, "Answer with header-only error replies instead of observing silently")
		correlateTTL = flag.String("correlate-ttl", "", "How long an unanswered query is tracked (default 5s)")
		correlateMax = flag.Int("correlate-max", 0, "Outstanding-query table capacity (default 65536)")
		retainDays   = flag.Int("retention-days", 0, "Purge recorded rows older than this many days (default 7)")
		flushEvery   = flag.String("flush-interval", "", "Traffic aggregate write cadence (default 1m)")
		purgeEvery   = flag.String("purge-interval", "", "Retention purge cadence (default 1h)")
		dbPath       = flag.String("db", "", "SQLite database path (default dnslens.db)")
		jsonLogs     = flag.Bool("json-logs", false, "Enable JSON structured logging")
		debug        = flag.Bool("debug", false, "Enable debug logging")
		apiEnabled   = flag.Bool("api", false, "Enable the management API")
		apiHost      = flag.String("api-host", "127.0.0.1", "Bind host for the management API")
		apiPort      = flag.Int("api-port", 8080, "Bind port for the management API")
		apiKey       = flag.String("api-key", "", "API key for the management API (or set DNSLENS_API_KEY)")
		apiCORS      = flag.Bool("api-cors", false, "Enable CORS on the management API")
	)
	flag.Parse()

	key := *apiKey
	if key == "" {
		key = os.Getenv("DNSLENS_API_KEY")
	}

	cfg := &config.Config{
		Capture: config.CaptureConfig{
			Host:           *host,
			Port:           *port,
			WorkersRaw:     *workers,
			MaxConcurrency: *maxConc,
			EnableTCP:      !*noTCP,
			Respond:        *respond,
		},
		Correlate: config.CorrelateConfig{
			TTL:        *correlateTTL,
			MaxEntries: *correlateMax,
		},
		Retention: config.RetentionConfig{
			Days:          *retainDays,
			FlushInterval: *flushEvery,
			PurgeInterval: *purgeEvery,
		},
		Database: config.DatabaseConfig{Path: *dbPath},
		Logging: config.LoggingConfig{
			Level:            "INFO",
			Structured:       *jsonLogs,
			StructuredFormat: "json",
		},
		API: config.APIConfig{
			Enabled:    *apiEnabled,
			Host:       *apiHost,
			Port:       *apiPort,
			APIKey:     key,
			EnableCORS: *apiCORS,
		},
	}
	if *debug {
		cfg.Logging.Level = "DEBUG"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})
	logger.Info("dnslens starting",
		"host", cfg.Capture.Host,
		"port", cfg.Capture.Port,
		"workers", cfg.Capture.Workers.String(),
		"tcp", cfg.Capture.EnableTCP,
		"respond", cfg.Capture.Respond,
	)
	logger.Info("rate limits", "effective", server.FormatRateLimitsLog(server.RateLimitSettings{
		CleanupSeconds:   cfg.RateLimit.CleanupSeconds,
		MaxIPEntries:     cfg.RateLimit.MaxIPEntries,
		MaxPrefixEntries: cfg.RateLimit.MaxPrefixEntries,
		GlobalQPS:        cfg.RateLimit.GlobalQPS,
		GlobalBurst:      cfg.RateLimit.GlobalBurst,
		PrefixQPS:        cfg.RateLimit.PrefixQPS,
		PrefixBurst:      cfg.RateLimit.PrefixBurst,
		IPQPS:            cfg.RateLimit.IPQPS,
		IPBurst:          cfg.RateLimit.IPBurst,
	}))

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	tracker := correlate.New(cfg.CorrelateTTL(), cfg.Correlate.MaxEntries)

	var hub *live.Hub
	if cfg.API.Enabled {
		hub = live.New(logger)
	}

	icfg := inspect.Config{
		Logger:  logger,
		Tracker: tracker,
		Metrics: m,
		DB:      db,
		Respond: cfg.Capture.Respond,
	}
	if hub != nil {
		icfg.Feed = hub
	}
	inspector := inspect.New(icfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The hub outlives the listeners slightly so events queued during
	// shutdown still reach subscribers before the API goes away.
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	if hub != nil {
		go hub.Run(hubCtx)
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.New(api.Options{
			Config:    cfg,
			DB:        db,
			Logger:    logger,
			Inspector: inspector,
			Hub:       hub,
		})
		go func() {
			logger.Info("management api listening", "addr", apiServer.Addr())
			if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("management api failed", "error", err)
			}
		}()
	}

	runner := server.NewRunner(server.Options{
		Logger:    logger,
		Inspector: inspector,
		DB:        db,
		Metrics:   m,
	})
	runErr := runner.RunWithContext(ctx, cfg)

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("management api shutdown failed", "error", err)
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "server exited with error: %v\n", runErr)
		os.Exit(1)
	}
}
