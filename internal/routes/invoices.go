package routes

import (
	"github.com/dukerupert/gymdesk/internal/middleware"
	"github.com/dukerupert/gymdesk/internal/router"
)

// RegisterInvoiceRoutes registers the invoice API.
//
// Routes that dispatch email get a small body limit and the dispatch rate
// limiter. Reads get a short timeout; the PDF route renders and keeps the
// default one.
func RegisterInvoiceRoutes(r *router.Router, deps InvoiceDeps) {
	dispatch := []router.Middleware{middleware.MaxBodySize(middleware.SmallMaxBodySize)}
	if deps.DispatchLimiter != nil {
		dispatch = append(dispatch, deps.DispatchLimiter.Middleware)
	}

	r.Post("/invoices", deps.Handler.Create, dispatch...)
	r.Post("/invoices/{id}/resend", deps.Handler.Resend, dispatch...)

	r.Get("/invoices", deps.Handler.List, middleware.Timeout(middleware.ShortTimeout))
	r.Get("/invoices/{id}", deps.Handler.Get, middleware.Timeout(middleware.ShortTimeout))
	r.Get("/invoices/{id}/pdf", deps.Handler.PDF, middleware.Timeout())
}
