package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the delivery state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "draft"
	InvoiceStatusSent   InvoiceStatus = "sent"
	InvoiceStatusFailed InvoiceStatus = "failed"
)

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusFailed:
		return true
	}
	return false
}

// Invoice-related domain errors.
var (
	ErrInvoiceNotFound        = &Error{Code: ENOTFOUND, Message: "Invoice not found"}
	ErrClientNotFound         = &Error{Code: ENOTFOUND, Message: "Client not found"}
	ErrGenerationExhausted    = &Error{Code: EINTERNAL, Message: "Failed to generate a unique invoice number"}
	ErrDuplicateInvoiceNumber = &Error{Code: ECONFLICT, Message: "Invoice number already exists"}
	ErrInvoiceEmailNotSent    = &Error{Code: EINTERNAL, Message: "Invoice email could not be sent"}
	ErrInvoiceRenderFailed    = &Error{Code: EINTERNAL, Message: "Invoice PDF could not be generated"}
)

// Invoice is a persisted gym membership invoice.
//
// The total is never stored; TotalAmount derives it from the paid and
// remaining amounts on every call.
type Invoice struct {
	ID                 string
	InvoiceNumber      string
	ClientID           string
	AmountPaid         decimal.Decimal
	AmountRemaining    decimal.Decimal
	PaymentDate        time.Time
	SubscriptionMonths int
	Status             InvoiceStatus
	EmailSentAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TotalAmount returns AmountPaid + AmountRemaining.
func (i *Invoice) TotalAmount() decimal.Decimal {
	return i.AmountPaid.Add(i.AmountRemaining)
}

// IsPaidInFull reports whether nothing remains to be paid.
func (i *Invoice) IsPaidInFull() bool {
	return !i.AmountRemaining.IsPositive()
}

// Client is the subset of a gym client the invoice pipeline needs.
type Client struct {
	ID          string
	DisplayName string
	Email       string
	Phone       string
}

// HasEmail reports whether the client can receive invoices.
func (c *Client) HasEmail() bool {
	return c.Email != ""
}

// InvoiceDraft is what the store needs to insert a new invoice.
type InvoiceDraft struct {
	InvoiceNumber      string
	ClientID           string
	AmountPaid         decimal.Decimal
	AmountRemaining    decimal.Decimal
	PaymentDate        time.Time
	SubscriptionMonths int
}

// InvoiceStatusUpdate carries the fields changed after a dispatch attempt.
// A nil EmailSentAt leaves the stored value untouched.
type InvoiceStatusUpdate struct {
	Status      InvoiceStatus
	EmailSentAt *time.Time
}

// ListInvoicesParams filters and pages the invoice list.
type ListInvoicesParams struct {
	ClientID string
	Status   InvoiceStatus
	Limit    int
	Offset   int
}

// InvoicePage is one page of invoices plus the unpaged total.
type InvoicePage struct {
	Invoices []Invoice
	Total    int
}

// CreateInvoiceParams contains the caller's request to create an invoice.
// PaymentDate is an ISO date (YYYY-MM-DD); it is parsed during validation so
// that a malformed date is reported alongside every other violation.
type CreateInvoiceParams struct {
	ClientID           string
	AmountPaid         decimal.Decimal
	AmountRemaining    decimal.Decimal
	PaymentDate        string
	SubscriptionMonths int
}

// DeliveryProvider names the email strategy used for a dispatch.
type DeliveryProvider string

const (
	ProviderPrimary   DeliveryProvider = "primary"
	ProviderSecondary DeliveryProvider = "secondary"
	ProviderSimulated DeliveryProvider = "simulated"
)

// Delivery is the outcome of sending an invoice email.
type Delivery struct {
	Delivered   bool
	Provider    DeliveryProvider
	MessageID   string
	ErrorDetail string
	PDFAttached bool
}

// Accepted reports whether the invoice counts as sent. Simulated dispatch is
// treated as delivered so the workflow can continue without a provider.
func (d Delivery) Accepted() bool {
	return d.Delivered || d.Provider == ProviderSimulated
}

// InvoiceResult is returned by create and resend.
type InvoiceResult struct {
	Invoice  *Invoice
	Delivery Delivery
}

// InvoiceService runs the invoice lifecycle: number allocation, persistence,
// PDF rendering and email dispatch.
type InvoiceService interface {
	// CreateInvoice validates params, allocates a number, inserts a draft,
	// renders and emails the invoice, and records the delivery status.
	// A failed email still returns the persisted invoice with a nil error;
	// callers inspect Delivery.
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*InvoiceResult, error)

	// ResendInvoice repeats render, send and status update for an existing invoice.
	ResendInvoice(ctx context.Context, invoiceID string) (*InvoiceResult, error)

	// GetInvoice fetches one invoice.
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)

	// ListInvoices returns a newest-first page of invoices.
	ListInvoices(ctx context.Context, params ListInvoicesParams) (*InvoicePage, error)

	// RenderInvoicePDF renders the current state of an invoice.
	RenderInvoicePDF(ctx context.Context, invoiceID string) (*Invoice, []byte, error)
}
