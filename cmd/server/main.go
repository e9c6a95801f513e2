package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/gymdesk/internal"
	"github.com/dukerupert/gymdesk/internal/bootstrap"
	"github.com/dukerupert/gymdesk/internal/handler"
	"github.com/dukerupert/gymdesk/internal/middleware"
	"github.com/dukerupert/gymdesk/internal/router"
	"github.com/dukerupert/gymdesk/internal/routes"
	"github.com/dukerupert/gymdesk/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	flushSentry, err := telemetry.InitSentry(bootstrap.SentryConfig(cfg.Sentry), logger)
	if err != nil {
		return err
	}
	defer flushSentry()

	if err := bootstrap.Migrate(ctx, cfg.DatabaseUrl, logger); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	invoicing, err := bootstrap.NewInvoicing(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer invoicing.Close()
	logger.Info("Invoice pipeline ready", "renderer", invoicing.Renderer.Name())

	// ==========================================================================
	// Router
	// ==========================================================================

	dispatchLimiter := middleware.NewRateLimiter(middleware.DispatchRateLimiterConfig())
	defer dispatchLimiter.Stop()

	httpMetrics := middleware.NewMetrics(bootstrap.MetricsNamespace, reg)

	r := router.New(
		router.Recovery(logger),
		middleware.TrustProxyHeaders(cfg.TrustProxyHeaders),
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig()),
		httpMetrics.Middleware,
		router.Logger(logger),
	)

	routes.RegisterInvoiceRoutes(r, routes.InvoiceDeps{
		Handler:         handler.NewInvoiceHandler(invoicing.Service),
		DispatchLimiter: dispatchLimiter,
	})

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		Health:   handler.NewHealthHandler(invoicing.Pool),
		Metrics:  httpMetrics.Handler(),
		FilesDir: bootstrap.FilesDir(cfg.Storage),
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.CORS(cfg.CORS.AllowedOrigins)(r),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
