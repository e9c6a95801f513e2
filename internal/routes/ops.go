package routes

import (
	"github.com/dukerupert/gymdesk/internal/router"
)

// RegisterOpsRoutes registers health, metrics and archived file routes.
// None of them go through the invoice middleware.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.Health.ServeHTTP)

	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.ServeHTTP)
	}

	if deps.FilesDir != "" {
		r.Static("/files/", deps.FilesDir)
	}
}
