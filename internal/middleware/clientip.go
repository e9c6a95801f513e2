package middleware

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP returns the host part of RemoteAddr. Behind a proxy, install
// TrustProxyHeaders first so RemoteAddr holds the real client address.
func GetClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// TrustProxyHeaders rewrites RemoteAddr from the proxy headers when trust is
// set, and is a pass-through otherwise.
//
// Only the right-most X-Forwarded-For entry is used: it is the address the
// proxy in front of the service appended. Entries to its left come from the
// client and can be anything.
func TrustProxyHeaders(trust bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !trust {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := forwardedIP(r.Header); ip != "" {
				r2 := r.Clone(r.Context())
				r2.RemoteAddr = net.JoinHostPort(ip, "0")
				r = r2
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedIP(h http.Header) string {
	// Multiple X-Forwarded-For headers are one list, in order.
	if values := h.Values("X-Forwarded-For"); len(values) > 0 {
		last := values[len(values)-1]
		if i := strings.LastIndex(last, ","); i >= 0 {
			last = last[i+1:]
		}
		if ip := net.ParseIP(strings.TrimSpace(last)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(h.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return ""
}
