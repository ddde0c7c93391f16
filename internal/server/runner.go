package server

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jroosing/dnslens/internal/config"
	"github.com/jroosing/dnslens/internal/database"
	"github.com/jroosing/dnslens/internal/helpers"
	"github.com/jroosing/dnslens/internal/inspect"
	"github.com/jroosing/dnslens/internal/metrics"
)

// Options wires the runner's collaborators. The caller builds them so the
// management API can share the same instances.
type Options struct {
	Logger    *slog.Logger
	Inspector *inspect.Inspector
	DB        *database.DB
	Metrics   *metrics.Metrics
}

// Runner orchestrates listener startup, background maintenance, and
// shutdown.
type Runner struct {
	logger    *slog.Logger
	inspector *inspect.Inspector
	db        *database.DB
	metrics   *metrics.Metrics
}

// NewRunner creates a runner from the given collaborators.
func NewRunner(opts Options) *Runner {
	return &Runner{
		logger:    opts.Logger,
		inspector: opts.Inspector,
		db:        opts.DB,
		metrics:   opts.Metrics,
	}
}

// Run starts the capture listeners with the given configuration.
//
// Lifecycle:
//  1. Configure runtime (GOMAXPROCS based on workers setting)
//  2. Start UDP and optionally TCP listeners
//  3. Start background maintenance (anomaly writer, flusher, janitor)
//  4. Wait for shutdown signal (SIGINT/SIGTERM)
//  5. Gracefully stop listeners, flush aggregates, stop maintenance
func (r *Runner) Run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return r.RunWithContext(ctx, cfg)
}

// RunWithContext starts the listeners and blocks until ctx is canceled or a
// listener error occurs.
//
// This enables callers (e.g. the management API) to share the same
// shutdown signal.
func (r *Runner) RunWithContext(ctx context.Context, cfg *config.Config) error {
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	// Configure GOMAXPROCS based on worker settings
	desiredProcs := r.configureRuntime(cfg)

	// Calculate concurrency limits
	maxConc := r.calculateMaxConcurrency(cfg, desiredProcs)

	limiter := NewRateLimiter(RateLimitSettings{
		CleanupSeconds:   cfg.RateLimit.CleanupSeconds,
		MaxIPEntries:     cfg.RateLimit.MaxIPEntries,
		MaxPrefixEntries: cfg.RateLimit.MaxPrefixEntries,
		GlobalQPS:        cfg.RateLimit.GlobalQPS,
		GlobalBurst:      cfg.RateLimit.GlobalBurst,
		PrefixQPS:        cfg.RateLimit.PrefixQPS,
		PrefixBurst:      cfg.RateLimit.PrefixBurst,
		IPQPS:            cfg.RateLimit.IPQPS,
		IPBurst:          cfg.RateLimit.IPBurst,
	})

	addr := net.JoinHostPort(cfg.Capture.Host, strconv.Itoa(cfg.Capture.Port))
	r.logStartup(cfg, addr, maxConc)

	// Background maintenance runs on its own context so the anomaly
	// writer outlives the listeners and drains what they queued.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	var bg sync.WaitGroup
	bg.Go(func() { r.inspector.Run(bgCtx) })
	bg.Go(func() { r.maintenanceLoop(bgCtx, cfg) })

	// Start listeners
	udp := &UDPServer{Logger: r.logger, Inspector: r.inspector, Limiter: limiter, Metrics: r.metrics, MaxConcurrency: maxConc}
	var tcp *TCPServer
	if cfg.Capture.EnableTCP {
		tcp = &TCPServer{Logger: r.logger, Inspector: r.inspector}
	}

	errCh := make(chan error, 2)
	go func() { errCh <- udp.Run(ctx, addr) }()
	if tcp != nil {
		go func() { errCh <- tcp.Run(ctx, addr) }()
	}

	// Wait for shutdown or error
	var runErr error
	select {
	case <-ctx.Done():
		// shutdown requested via signal
	case err := <-errCh:
		if err != nil {
			runErr = err
		}
		cancelRun()
	}

	// Graceful shutdown
	stopTimeout := 5 * time.Second
	_ = udp.Stop(stopTimeout)
	if tcp != nil {
		_ = tcp.Stop(stopTimeout)
	}

	// Final flush after the listeners have drained.
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 2*time.Second)
	if err := r.inspector.FlushTraffic(flushCtx); err != nil && r.logger != nil {
		r.logger.Warn("Final traffic flush failed", "error", err)
	}
	cancelFlush()

	bgCancel()
	bg.Wait()
	return runErr
}

// maintenanceLoop periodically flushes counter aggregates and purges rows
// past retention.
func (r *Runner) maintenanceLoop(ctx context.Context, cfg *config.Config) {
	flush := time.NewTicker(cfg.FlushInterval())
	defer flush.Stop()
	purge := time.NewTicker(cfg.PurgeInterval())
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-flush.C:
			if err := r.inspector.FlushTraffic(ctx); err != nil && r.logger != nil {
				r.logger.Warn("Traffic flush failed", "error", err)
			}
		case <-purge.C:
			r.purgeExpired(ctx, cfg)
		}
	}
}

// purgeExpired deletes anomalies and traffic buckets past the retention
// window.
func (r *Runner) purgeExpired(ctx context.Context, cfg *config.Config) {
	if r.db == nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -cfg.Retention.Days)

	anomalies, err := r.db.PurgeAnomaliesBefore(ctx, cutoff)
	if err != nil && r.logger != nil {
		r.logger.Warn("Anomaly purge failed", "error", err)
	}
	traffic, err := r.db.PurgeTrafficBefore(ctx, cutoff)
	if err != nil && r.logger != nil {
		r.logger.Warn("Traffic purge failed", "error", err)
	}
	if (anomalies > 0 || traffic > 0) && r.logger != nil {
		r.logger.Info("Purged expired rows", "anomalies", anomalies, "traffic_buckets", traffic, "cutoff", cutoff)
	}
}

// configureRuntime sets GOMAXPROCS based on worker configuration.
// Workers can reduce but never increase parallelism beyond the default.
func (r *Runner) configureRuntime(cfg *config.Config) int {
	baseProcs := runtime.GOMAXPROCS(0)
	if baseProcs <= 0 {
		baseProcs = 1
	}
	desiredProcs := baseProcs

	if cfg.Capture.Workers.Mode == config.WorkersFixed {
		w := cfg.Capture.Workers.Value
		if w <= 0 {
			w = 1
		}
		if w < desiredProcs {
			desiredProcs = w
		}
	}

	prev := runtime.GOMAXPROCS(desiredProcs)
	actual := runtime.GOMAXPROCS(0)
	if r.logger != nil {
		r.logger.Info("runtime", "gomaxprocs", actual, "prev", prev, "base", baseProcs)
	}
	return actual
}

// calculateMaxConcurrency determines the maximum concurrent packet handlers.
func (r *Runner) calculateMaxConcurrency(cfg *config.Config, procs int) int {
	maxConc := cfg.Capture.MaxConcurrency
	if maxConc <= 0 {
		c := procs
		if c <= 0 {
			c = 1
		}
		maxConc = helpers.ClampInt(c*256, 1, 2048)
	}
	return maxConc
}

// logStartup logs listener configuration at startup.
func (r *Runner) logStartup(cfg *config.Config, addr string, maxConc int) {
	if r.logger != nil {
		r.logger.Info(
			"capture listening",
			"addr", addr,
			"udp", true,
			"tcp", cfg.Capture.EnableTCP,
			"respond", cfg.Capture.Respond,
			"correlate_ttl", cfg.Correlate.TTL,
			"max_concurrency", maxConc,
			"database", cfg.Database.Path,
		)
	}
}
