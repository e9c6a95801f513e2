package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/dukerupert/gymdesk/internal/handler"
	"github.com/dukerupert/gymdesk/internal/middleware"
	"github.com/dukerupert/gymdesk/internal/router"
	"github.com/stretchr/testify/assert"
)

type notFoundService struct {
	domain.InvoiceService
}

func (notFoundService) ResendInvoice(context.Context, string) (*domain.InvoiceResult, error) {
	return nil, domain.ErrInvoiceNotFound
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestRouter(limiter *middleware.RateLimiter) *router.Router {
	r := router.New()
	RegisterInvoiceRoutes(r, InvoiceDeps{
		Handler:         handler.NewInvoiceHandler(notFoundService{}),
		DispatchLimiter: limiter,
	})
	RegisterOpsRoutes(r, OpsDeps{Health: handler.NewHealthHandler(okPinger{})})
	return r
}

func TestRegisterInvoiceRoutes(t *testing.T) {
	r := newTestRouter(nil)

	t.Run("resend unknown id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/invoices/missing/resend", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Invoice not found")
	})

	t.Run("oversized create body", func(t *testing.T) {
		body := `{"clientId":"` + strings.Repeat("x", middleware.SmallMaxBodySize) + `"}`
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("metrics disabled", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRegisterInvoiceRoutes_DispatchLimiter(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer limiter.Stop()
	r := newTestRouter(limiter)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/invoices/missing/resend", nil)
		req.RemoteAddr = "203.0.113.9:5123"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNotFound, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}
