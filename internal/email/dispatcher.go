package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/gymdesk/internal/domain"
)

// Observer is notified after every dispatch. telemetry.InvoiceMetrics
// satisfies it.
type Observer interface {
	RecordEmailDispatch(provider string, delivered bool)
}

// Dispatcher sends through the first configured provider in its list. When no
// provider is configured it logs the envelope and reports a simulated
// delivery. A failing provider is not followed by the next one.
type Dispatcher struct {
	providers []Provider
	from      string
	logger    *slog.Logger
	observer  Observer
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithObserver records dispatch outcomes.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

// WithFrom sets the sender used when a message has none.
func WithFrom(from string) DispatcherOption {
	return func(d *Dispatcher) { d.from = from }
}

// NewDispatcher creates a dispatcher over providers in priority order.
func NewDispatcher(logger *slog.Logger, providers []Provider, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{providers: providers, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Active returns the provider that would handle the next message, or nil in
// simulated mode.
func (d *Dispatcher) Active() Provider {
	for _, p := range d.providers {
		if p != nil && p.IsConfigured() {
			return p
		}
	}
	return nil
}

// Send delivers msg. Provider failures are reported in the returned Delivery
// with a nil error; an error means the message itself was unusable or the
// provider panicked.
func (d *Dispatcher) Send(ctx context.Context, msg *Email) (delivery domain.Delivery, err error) {
	if msg == nil {
		return domain.Delivery{}, ErrNilMessage
	}
	if len(msg.To) == 0 || msg.To[0] == "" {
		return domain.Delivery{}, ErrNoRecipient
	}
	if msg.From == "" {
		msg.From = d.from
	}
	attached := len(msg.Attachments) > 0

	p := d.Active()
	if p == nil {
		d.logger.Info("email dispatch simulated",
			"to", msg.To,
			"subject", msg.Subject,
			"attachments", msg.AttachmentNames(),
		)
		d.observe("simulated", false)
		return domain.Delivery{Provider: domain.ProviderSimulated, PDFAttached: attached}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = &DispatchError{Provider: p.Name(), Err: fmt.Errorf("panic: %v", r)}
			delivery = domain.Delivery{Provider: p.Kind(), ErrorDetail: err.Error(), PDFAttached: attached}
			d.observe(p.Name(), false)
		}
	}()

	id, sendErr := p.Send(ctx, msg)
	if sendErr != nil {
		derr := &DispatchError{Provider: p.Name(), Err: sendErr}
		d.logger.Error("email dispatch failed",
			"provider", p.Name(),
			"to", msg.To,
			"subject", msg.Subject,
			"error", derr,
		)
		d.observe(p.Name(), false)
		return domain.Delivery{Provider: p.Kind(), ErrorDetail: derr.Error(), PDFAttached: attached}, nil
	}

	d.logger.Info("email dispatched",
		"provider", p.Name(),
		"to", msg.To,
		"message_id", id,
	)
	d.observe(p.Name(), true)
	return domain.Delivery{Delivered: true, Provider: p.Kind(), MessageID: id, PDFAttached: attached}, nil
}

func (d *Dispatcher) observe(provider string, delivered bool) {
	if d.observer != nil {
		d.observer.RecordEmailDispatch(provider, delivered)
	}
}
