package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSentry_Disabled(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	flush, err := InitSentry(SentryConfig{Enabled: false, DSN: "https://key@o0.ingest.sentry.io/0"}, logger)
	require.NoError(t, err)
	require.NotNil(t, flush)
	flush()
	assert.False(t, IsEnabled())

	flush, err = InitSentry(SentryConfig{Enabled: true}, logger)
	require.NoError(t, err)
	flush()
	assert.False(t, IsEnabled(), "missing DSN disables sentry")
}

func TestCaptureHelpers_NoopWhenDisabled(t *testing.T) {
	sentryEnabled = false
	assert.NotPanics(t, func() {
		CaptureError(context.Background(), errors.New("boom"), map[string]any{"k": "v"})
		CaptureInvoiceError(context.Background(), errors.New("boom"), "INV-20240115-AB12", "render")
		AddBreadcrumb(context.Background(), "invoice", "created", nil)
	})
}

func TestSentryMiddleware_PassThroughWhenDisabled(t *testing.T) {
	sentryEnabled = false
	h := SentryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
