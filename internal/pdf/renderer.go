// Package pdf turns invoice data into PDF documents.
//
// Two renderers satisfy Renderer: DeclarativeRenderer builds a layout tree and
// serializes it in-process, BrowserRenderer prints an HTML page through a
// headless Chromium. Both draw from the same content definitions in content.go.
package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Renderer renders an invoice to PDF bytes.
type Renderer interface {
	Render(ctx context.Context, data InvoiceData) ([]byte, error)
	Name() string
}

// Branding is the gym's identity printed on every invoice.
type Branding struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Recipient is the billed client.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// InvoiceData is everything a renderer needs for one invoice.
type InvoiceData struct {
	InvoiceNumber      string
	IssuedAt           time.Time
	PaymentDate        time.Time
	SubscriptionMonths int
	AmountPaid         decimal.Decimal
	AmountRemaining    decimal.Decimal
	Client             Recipient
	Gym                Branding
}

// Total is paid plus remaining.
func (d InvoiceData) Total() decimal.Decimal {
	return d.AmountPaid.Add(d.AmountRemaining)
}

// PaidInFull reports whether no balance remains.
func (d InvoiceData) PaidInFull() bool {
	return !d.AmountRemaining.IsPositive()
}

// Filename is the attachment name for the rendered invoice.
func (d InvoiceData) Filename() string {
	return d.InvoiceNumber + ".pdf"
}

// RenderError reports a failed render. Attempts is 1 for renderers that do
// not retry.
type RenderError struct {
	Renderer string
	Attempts int
	Err      error
}

func (e *RenderError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s renderer failed after %d attempts: %v", e.Renderer, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s renderer failed: %v", e.Renderer, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
