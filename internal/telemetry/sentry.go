package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryConfig holds configuration for Sentry error tracking.
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string

	// SampleRate controls the share of errors captured. Zero means 1.0.
	SampleRate float64

	// TracesSampleRate enables performance spans when above zero.
	TracesSampleRate float64

	Debug bool
}

var sentryEnabled bool

// InitSentry initializes the Sentry client and returns a flush func for
// shutdown. A disabled or DSN-less config is not an error.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	sentryEnabled = false

	if !cfg.Enabled {
		logger.Info("sentry disabled")
		return func() {}, nil
	}
	if cfg.DSN == "" {
		logger.Warn("sentry DSN not configured, disabling error tracking")
		return func() {}, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	sentryEnabled = true

	logger.Info("sentry initialized",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", sampleRate,
	)

	return func() { sentry.Flush(2 * time.Second) }, nil
}

// IsEnabled returns whether Sentry is currently enabled.
func IsEnabled() bool {
	return sentryEnabled
}

// CaptureError reports err using the hub on ctx, falling back to the global
// hub. Safe to call when Sentry is disabled.
func CaptureError(ctx context.Context, err error, extras map[string]any) {
	if !IsEnabled() || err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		hub.CaptureException(err)
	})
}

// CaptureInvoiceError reports a pipeline failure tagged with the invoice
// number and the step that failed (render, dispatch, store).
func CaptureInvoiceError(ctx context.Context, err error, invoiceNumber, step string) {
	if !IsEnabled() || err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("invoice_number", invoiceNumber)
		scope.SetTag("invoice_step", step)
		hub.CaptureException(err)
	})
}

// AddBreadcrumb records a step for the next captured event.
func AddBreadcrumb(ctx context.Context, category, message string, data map[string]any) {
	if !IsEnabled() {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Data:     data,
		Level:    sentry.LevelInfo,
	}, nil)
}

// SentryMiddleware puts a per-request hub on the context and reports panics.
// The panic is re-raised for the recovery middleware to answer.
func SentryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			hub := sentry.GetHubFromContext(r.Context())
			if hub == nil {
				hub = sentry.CurrentHub().Clone()
			}

			hub.Scope().SetRequest(r)
			ctx := sentry.SetHubOnContext(r.Context(), hub)

			defer func() {
				if err := recover(); err != nil {
					hub.RecoverWithContext(ctx, err)
					panic(err)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
