package service

import (
	"context"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/dukerupert/gymdesk/internal/email"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=service

// InvoiceRepository is the invoice table as seen by the orchestrator.
// InsertInvoice must report a duplicate number as domain.ErrDuplicateInvoiceNumber.
type InvoiceRepository interface {
	InvoiceNumberExists(ctx context.Context, number string) (bool, error)
	InsertInvoice(ctx context.Context, draft domain.InvoiceDraft) (*domain.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, update domain.InvoiceStatusUpdate) (*domain.Invoice, error)
	FindInvoiceByID(ctx context.Context, id string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, params domain.ListInvoicesParams) (*domain.InvoicePage, error)
}

// ClientRepository looks up the billed client.
type ClientRepository interface {
	FindClientByID(ctx context.Context, id string) (*domain.Client, error)
}

// Mailer delivers a rendered message. *email.Dispatcher satisfies it.
type Mailer interface {
	Send(ctx context.Context, msg *email.Email) (domain.Delivery, error)
}
