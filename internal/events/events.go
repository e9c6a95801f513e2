// Package events publishes invoice lifecycle events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/nats-io/nats.go"
)

// Type names an invoice lifecycle event. It is also the subject suffix.
type Type string

const (
	InvoiceCreated Type = "invoices.created"
	InvoiceSent    Type = "invoices.sent"
	InvoiceFailed  Type = "invoices.failed"
)

// InvoiceEvent is the JSON payload published for each transition.
type InvoiceEvent struct {
	Type          Type       `json:"type"`
	InvoiceID     string     `json:"invoice_id"`
	InvoiceNumber string     `json:"invoice_number"`
	ClientID      string     `json:"client_id"`
	Status        string     `json:"status"`
	TotalAmount   string     `json:"total_amount"`
	Provider      string     `json:"provider,omitempty"`
	EmailSentAt   *time.Time `json:"email_sent_at,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// NewInvoiceEvent builds an event from the invoice's current state.
func NewInvoiceEvent(t Type, inv *domain.Invoice, provider domain.DeliveryProvider, at time.Time) InvoiceEvent {
	return InvoiceEvent{
		Type:          t,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID,
		Status:        string(inv.Status),
		TotalAmount:   inv.TotalAmount().StringFixed(2),
		Provider:      string(provider),
		EmailSentAt:   inv.EmailSentAt,
		OccurredAt:    at.UTC(),
	}
}

// Publisher emits invoice events. Publishing is best effort; callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, e InvoiceEvent) error
}

// Noop discards events. Used when NATS is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, InvoiceEvent) error { return nil }

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes to <prefix>.<event type>.
type NATSPublisher struct {
	nc     conn
	prefix string
}

// Connect dials NATS and returns a publisher. Reconnects are unlimited.
func Connect(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("gymdesk"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return newNATSPublisher(nc, prefix), nil
}

func newNATSPublisher(nc conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(t Type) string {
	if p.prefix == "" {
		return string(t)
	}
	return p.prefix + "." + string(t)
}

func (p *NATSPublisher) Publish(ctx context.Context, e InvoiceEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	if err := p.nc.Publish(p.Subject(e.Type), data); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
