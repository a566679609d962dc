package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/triage/internal/adapters/http/api"
	"github.com/okian/triage/internal/adapters/http/site"
	"github.com/okian/triage/internal/adapters/mailbox"
	service "github.com/okian/triage/internal/app"
	"github.com/okian/triage/internal/config"
	"github.com/okian/triage/internal/domain/burst"
	"github.com/okian/triage/pkg/logger"
	"github.com/okian/triage/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.Get().Error(context.Background(), "logger sync failed", logger.Error(err))
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Real host integration lives outside this repository; the memory
	// host keeps the full pipeline runnable for demos and local work.
	host := mailbox.NewMemory()

	detector := burst.New(
		burst.WithWindow(time.Duration(cfg.BurstWindowMin)*time.Minute),
		burst.WithThresholds(cfg.BurstElevated, cfg.BurstThreshold),
		burst.WithAlertCooldown(time.Duration(cfg.BurstCooldownMin)*time.Minute),
	)

	svc := service.New(
		service.WithHost(host),
		service.WithMailbox(cfg.Mailbox),
		service.WithLogger(loggerInstance),
		service.WithDataDir(cfg.DataDir),
		service.WithRosterPath(cfg.RosterPath()),
		service.WithPolicyPath(cfg.PolicyPath()),
		service.WithTickSchedule(cfg.TickSchedule),
		service.WithTickTimeout(time.Duration(cfg.TickTimeoutSec)*time.Second),
		service.WithSafeMode(cfg.SafeMode),
		service.WithBurstBucket(cfg.BurstBucket),
		service.WithBurstDetector(detector),
		service.WithPoisonThreshold(cfg.PoisonThreshold),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Operator dashboard at /
	site.Register(ctx, mux)

	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("mailbox", cfg.Mailbox),
			logger.String("tick_schedule", cfg.TickSchedule),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater refreshes the engine gauges between ticks
// so operator reconciliations show up without waiting for a poll.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics pushes current service stats into the gauges.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if open, ok := stats["open"].(int); ok {
		metrics.UpdateOpenAssignments(open)
	}
	if ledgerSize, ok := stats["ledgerSize"].(int); ok {
		metrics.UpdateLedgerSize(ledgerSize)
	}
	if rosterSize, ok := stats["rosterSize"].(int); ok {
		metrics.UpdateRosterSize(rosterSize)
	}
}
