package internal

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// NewLogger returns a text logger in dev and a JSON logger in prod. Every
// record carries service=gymdesk. In prod, recipient addresses logged under
// the "to" key are masked.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	lvl := new(slog.LevelVar) // Info by default
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			slog.Default().Warn("Invalid log level. Using default level: info", slog.String("value", level))
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch env {
	case "prod":
		opts.ReplaceAttr = prodAttr
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With(slog.String("service", "gymdesk"))
}

func prodAttr(groups []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339Nano))
	case "to":
		return slog.String("to", maskEmail(a.Value.String()))
	}
	return a
}

// maskEmail keeps the first character of the local part and the domain:
// asha@example.com becomes a***@example.com.
func maskEmail(addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" {
		return addr
	}
	return local[:1] + "***@" + domain
}
