package routes

import (
	"net/http"

	"github.com/dukerupert/gymdesk/internal/handler"
	"github.com/dukerupert/gymdesk/internal/middleware"
)

// InvoiceDeps contains dependencies for the invoice API routes
type InvoiceDeps struct {
	Handler *handler.InvoiceHandler

	// DispatchLimiter throttles routes that send email. Optional.
	DispatchLimiter *middleware.RateLimiter
}

// OpsDeps contains dependencies for health, metrics and file routes
type OpsDeps struct {
	Health  http.Handler
	Metrics http.Handler // nil disables /metrics

	// FilesDir is served under /files. Empty keeps archived PDFs off the wire.
	FilesDir string
}
