package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InvoiceMetrics holds Prometheus metrics for the invoice pipeline.
// A nil *InvoiceMetrics is valid and records nothing.
type InvoiceMetrics struct {
	InvoicesCreated   prometheus.Counter
	InvoicesResent    prometheus.Counter
	InvoiceStatus     *prometheus.CounterVec
	EmailDispatch     *prometheus.CounterVec
	PDFFailures       *prometheus.CounterVec
	PDFRenderDuration *prometheus.HistogramVec
	NumberCollisions  prometheus.Counter
	InsertRetries     prometheus.Counter
}

// NewInvoiceMetrics creates the metrics and registers them with reg. A nil
// reg uses the default registerer.
func NewInvoiceMetrics(namespace string, reg prometheus.Registerer) *InvoiceMetrics {
	if namespace == "" {
		namespace = "gymdesk"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &InvoiceMetrics{
		InvoicesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_created_total",
			Help:      "Invoices persisted",
		}),
		InvoicesResent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_resent_total",
			Help:      "Resend requests for existing invoices",
		}),
		InvoiceStatus: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoice_status_updates_total",
				Help:      "Invoice status transitions after dispatch",
			},
			[]string{"status"}, // sent, failed
		),
		EmailDispatch: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoice_emails_total",
				Help:      "Invoice email dispatch attempts",
			},
			[]string{"provider", "outcome"}, // outcome: delivered, failed
		),
		PDFFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoice_pdf_failures_total",
				Help:      "Invoice PDF renders that failed",
			},
			[]string{"renderer"},
		),
		PDFRenderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invoice_pdf_render_duration_seconds",
				Help:      "Invoice PDF render duration",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"renderer"},
		),
		NumberCollisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_number_collisions_total",
			Help:      "Generated invoice numbers that were already taken",
		}),
		InsertRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_insert_retries_total",
			Help:      "Invoice inserts retried after a unique constraint violation",
		}),
	}
}

func (m *InvoiceMetrics) RecordInvoiceCreated() {
	if m == nil {
		return
	}
	m.InvoicesCreated.Inc()
}

func (m *InvoiceMetrics) RecordInvoiceResent() {
	if m == nil {
		return
	}
	m.InvoicesResent.Inc()
}

func (m *InvoiceMetrics) RecordStatus(status string) {
	if m == nil {
		return
	}
	m.InvoiceStatus.WithLabelValues(status).Inc()
}

// RecordEmailDispatch counts one dispatch. Simulated sends are counted as
// failed deliveries under the "simulated" provider.
func (m *InvoiceMetrics) RecordEmailDispatch(provider string, delivered bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if delivered {
		outcome = "delivered"
	}
	m.EmailDispatch.WithLabelValues(provider, outcome).Inc()
}

func (m *InvoiceMetrics) RecordPDFRender(renderer string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.PDFRenderDuration.WithLabelValues(renderer).Observe(d.Seconds())
	if err != nil {
		m.PDFFailures.WithLabelValues(renderer).Inc()
	}
}

func (m *InvoiceMetrics) RecordNumberCollision() {
	if m == nil {
		return
	}
	m.NumberCollisions.Inc()
}

func (m *InvoiceMetrics) RecordInsertRetry() {
	if m == nil {
		return
	}
	m.InsertRetries.Inc()
}
