package middleware

import (
	"net/http"
	"strconv"
)

// SecurityHeadersConfig configures security headers
type SecurityHeadersConfig struct {
	// ContentSecurityPolicy sets the Content-Security-Policy header
	ContentSecurityPolicy string

	// FrameOptions sets X-Frame-Options (DENY, SAMEORIGIN)
	FrameOptions string

	// ContentTypeNosniff sets X-Content-Type-Options: nosniff
	ContentTypeNosniff bool

	// ReferrerPolicy sets Referrer-Policy header
	ReferrerPolicy string

	// HSTSMaxAge sets Strict-Transport-Security max-age in seconds.
	// Zero disables HSTS.
	HSTSMaxAge int
}

// DefaultSecurityHeadersConfig suits a JSON and PDF API with no HTML pages.
func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		FrameOptions:          "DENY",
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
		HSTSMaxAge:            31536000, // 1 year
	}
}

// SecurityHeaders adds security headers to all responses
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if config.FrameOptions != "" {
				h.Set("X-Frame-Options", config.FrameOptions)
			}
			if config.ContentTypeNosniff {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			if config.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", config.ReferrerPolicy)
			}
			if config.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
			}
			if config.HSTSMaxAge > 0 {
				h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(config.HSTSMaxAge)+"; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
