package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/dukerupert/gymdesk/internal/email"
	"github.com/dukerupert/gymdesk/internal/events"
	"github.com/dukerupert/gymdesk/internal/format"
	"github.com/dukerupert/gymdesk/internal/invoicenumber"
	"github.com/dukerupert/gymdesk/internal/pdf"
	"github.com/dukerupert/gymdesk/internal/storage"
	"github.com/dukerupert/gymdesk/internal/telemetry"
	"github.com/shopspring/decimal"
)

const (
	// MaxInsertAttempts bounds the generate+insert sequence when the store
	// rejects a number that passed the existence check.
	MaxInsertAttempts = 3

	DefaultListLimit = 20
	MaxListLimit     = 100

	paymentDateLayout = "2006-01-02"
)

// InvoiceServiceDeps wires the orchestrator. Invoices, Clients, Renderer and
// Mailer are required; everything else is optional.
type InvoiceServiceDeps struct {
	Invoices InvoiceRepository
	Clients  ClientRepository
	Renderer pdf.Renderer
	Mailer   Mailer

	Archive *storage.InvoiceArchive
	Events  events.Publisher
	Metrics *telemetry.InvoiceMetrics
	Logger  *slog.Logger

	// Gym is printed on the PDF and named in the email subject.
	Gym pdf.Branding
	// BaseURL, when set, adds a download link to the email body.
	BaseURL string

	Now    func() time.Time
	Random io.Reader
}

type invoiceService struct {
	invoices InvoiceRepository
	clients  ClientRepository
	numbers  *invoicenumber.Generator
	renderer pdf.Renderer
	mailer   Mailer
	archive  *storage.InvoiceArchive
	events   events.Publisher
	metrics  *telemetry.InvoiceMetrics
	logger   *slog.Logger
	gym      pdf.Branding
	baseURL  string
	now      func() time.Time
}

// NewInvoiceService creates a new InvoiceService instance.
func NewInvoiceService(deps InvoiceServiceDeps) (domain.InvoiceService, error) {
	switch {
	case deps.Invoices == nil:
		return nil, errors.New("invoice repository is required")
	case deps.Clients == nil:
		return nil, errors.New("client repository is required")
	case deps.Renderer == nil:
		return nil, errors.New("pdf renderer is required")
	case deps.Mailer == nil:
		return nil, errors.New("mailer is required")
	}

	s := &invoiceService{
		invoices: deps.Invoices,
		clients:  deps.Clients,
		renderer: deps.Renderer,
		mailer:   deps.Mailer,
		archive:  deps.Archive,
		events:   deps.Events,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		gym:      deps.Gym,
		baseURL:  strings.TrimRight(deps.BaseURL, "/"),
		now:      deps.Now,
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	opts := []invoicenumber.Option{
		invoicenumber.WithClock(s.now),
		invoicenumber.WithLogger(s.logger),
		invoicenumber.WithCollisionHook(s.metrics.RecordNumberCollision),
	}
	if deps.Random != nil {
		opts = append(opts, invoicenumber.WithRandom(deps.Random))
	}
	s.numbers = invoicenumber.NewGenerator(deps.Invoices, opts...)

	return s, nil
}

// CreateInvoice validates the request, persists a draft under a fresh number,
// then renders, emails and records the delivery outcome.
func (s *invoiceService) CreateInvoice(ctx context.Context, params domain.CreateInvoiceParams) (*domain.InvoiceResult, error) {
	const op = "invoice.create"

	client, paymentDate, err := s.validateCreate(ctx, params)
	if err != nil {
		return nil, err
	}

	inv, err := s.insertDraft(ctx, domain.InvoiceDraft{
		ClientID:           client.ID,
		AmountPaid:         params.AmountPaid,
		AmountRemaining:    params.AmountRemaining,
		PaymentDate:        paymentDate,
		SubscriptionMonths: params.SubscriptionMonths,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"client_id", inv.ClientID,
		"total", inv.TotalAmount().StringFixed(2),
	)
	s.metrics.RecordInvoiceCreated()
	s.publish(ctx, events.InvoiceCreated, inv, "")

	return s.deliver(ctx, op, inv, client)
}

// ResendInvoice re-runs render, send and status update against freshly loaded
// invoice and client rows. No new invoice is created.
func (s *invoiceService) ResendInvoice(ctx context.Context, invoiceID string) (*domain.InvoiceResult, error) {
	const op = "invoice.resend"

	inv, err := s.invoices.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	client, err := s.recipient(ctx, op, inv.ClientID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceResent()
	return s.deliver(ctx, op, inv, client)
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.invoices.FindInvoiceByID(ctx, invoiceID)
}

// ListInvoices applies the default page size and rejects out-of-range paging.
func (s *invoiceService) ListInvoices(ctx context.Context, params domain.ListInvoicesParams) (*domain.InvoicePage, error) {
	const op = "invoice.list"

	if params.Limit == 0 {
		params.Limit = DefaultListLimit
	}
	if params.Limit < 0 || params.Limit > MaxListLimit {
		return nil, domain.Errorf(domain.EINVALID, op, "Limit must be between 1 and %d", MaxListLimit)
	}
	if params.Offset < 0 {
		return nil, domain.Invalid(op, "Offset cannot be negative")
	}
	if params.Status != "" && !params.Status.Valid() {
		return nil, domain.Errorf(domain.EINVALID, op, "Unknown status %q", params.Status)
	}

	return s.invoices.ListInvoices(ctx, params)
}

// RenderInvoicePDF renders the invoice on demand. When rendering fails the
// archived copy is served if one exists.
func (s *invoiceService) RenderInvoicePDF(ctx context.Context, invoiceID string) (*domain.Invoice, []byte, error) {
	const op = "invoice.pdf"

	inv, err := s.invoices.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	client, err := s.clients.FindClientByID(ctx, inv.ClientID)
	if err != nil {
		return nil, nil, err
	}

	b, renderErr := s.render(ctx, inv, client)
	if renderErr == nil {
		return inv, b, nil
	}

	if s.archive != nil {
		archived, err := s.archive.Load(ctx, inv.InvoiceNumber)
		if err == nil {
			s.logger.Warn("serving archived invoice pdf after render failure",
				"invoice_number", inv.InvoiceNumber,
				"error", renderErr,
			)
			return inv, archived, nil
		}
		if !storage.IsNotFound(err) {
			s.logger.Error("failed to load archived invoice pdf", "invoice_number", inv.InvoiceNumber, "error", err)
		}
	}

	return nil, nil, domain.Internal(renderErr, op, domain.ErrInvoiceRenderFailed.Message)
}

// validateCreate reports every violation at once, in field order. A client
// that does not exist short-circuits with not found; a client without an
// email address is reported alongside the field errors.
func (s *invoiceService) validateCreate(ctx context.Context, p domain.CreateInvoiceParams) (*domain.Client, time.Time, error) {
	ve := &domain.ValidationError{Op: "invoice.create"}

	var client *domain.Client
	if clientID := strings.TrimSpace(p.ClientID); clientID == "" {
		ve.Add("client_id", "Client is required")
	} else {
		c, err := s.clients.FindClientByID(ctx, clientID)
		if err != nil {
			return nil, time.Time{}, err
		}
		if !c.HasEmail() {
			ve.Add("email", noEmailMessage(c))
		}
		client = c
	}

	if !p.AmountPaid.IsPositive() {
		ve.Add("amount_paid", "Amount paid must be greater than 0")
	} else if msg := amountBoundsMessage("Amount paid", p.AmountPaid); msg != "" {
		ve.Add("amount_paid", msg)
	}
	if p.AmountRemaining.IsNegative() {
		ve.Add("amount_remaining", "Amount remaining cannot be negative")
	} else if msg := amountBoundsMessage("Amount remaining", p.AmountRemaining); msg != "" {
		ve.Add("amount_remaining", msg)
	}

	var paymentDate time.Time
	if strings.TrimSpace(p.PaymentDate) == "" {
		ve.Add("payment_date", "Payment date is required")
	} else if d, err := time.Parse(paymentDateLayout, strings.TrimSpace(p.PaymentDate)); err != nil {
		ve.Add("payment_date", "Payment date must be a valid date (YYYY-MM-DD)")
	} else {
		paymentDate = d
	}

	if p.SubscriptionMonths < 1 {
		ve.Add("subscription_months", "Subscription months must be at least 1")
	}

	if ve.HasErrors() {
		return nil, time.Time{}, ve
	}
	return client, paymentDate, nil
}

// maxAmount is the first value a NUMERIC(12,2) column cannot hold.
var maxAmount = decimal.New(1, 10)

// amountBoundsMessage rejects amounts the invoices table would round or
// overflow. It returns "" for a storable amount.
func amountBoundsMessage(label string, d decimal.Decimal) string {
	if !d.Equal(d.Round(2)) {
		return label + " cannot have more than 2 decimal places"
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return label + " must be less than " + format.Currency(maxAmount)
	}
	return ""
}

func noEmailMessage(c *domain.Client) string {
	return fmt.Sprintf("Client %s does not have a registered email address", c.DisplayName)
}

// recipient loads the client and requires an email address.
func (s *invoiceService) recipient(ctx context.Context, op, clientID string) (*domain.Client, error) {
	client, err := s.clients.FindClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.HasEmail() {
		return nil, domain.NewValidationError(op, "email", noEmailMessage(client))
	}
	return client, nil
}

// insertDraft allocates a number and inserts the draft, starting over with a
// new number when the insert loses a race on the unique constraint.
func (s *invoiceService) insertDraft(ctx context.Context, draft domain.InvoiceDraft) (*domain.Invoice, error) {
	const op = "invoice.create"

	for attempt := 1; ; attempt++ {
		number, err := s.numbers.Generate(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrGenerationExhausted) {
				s.logger.Error("invoice number generation exhausted", "client_id", draft.ClientID)
				return nil, err
			}
			return nil, domain.Internal(err, op, "failed to generate invoice number")
		}

		draft.InvoiceNumber = number
		inv, err := s.invoices.InsertInvoice(ctx, draft)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, domain.ErrDuplicateInvoiceNumber) {
			return nil, err
		}
		if attempt >= MaxInsertAttempts {
			s.logger.Error("invoice insert kept colliding",
				"invoice_number", number,
				"attempts", attempt,
			)
			return nil, domain.Internal(err, op, "Failed to allocate a unique invoice number")
		}

		s.logger.Warn("invoice number taken at insert, retrying",
			"invoice_number", number,
			"attempt", attempt,
		)
		s.metrics.RecordInsertRetry()
	}
}

// deliver is the tail shared by create and resend: render (non-fatal),
// archive, email, then record sent or failed.
func (s *invoiceService) deliver(ctx context.Context, op string, inv *domain.Invoice, client *domain.Client) (*domain.InvoiceResult, error) {
	pdfBytes, err := s.render(ctx, inv, client)
	if err != nil {
		s.logger.Error("invoice pdf render failed, sending without attachment",
			"invoice_number", inv.InvoiceNumber,
			"renderer", s.renderer.Name(),
			"error", err,
		)
		telemetry.CaptureInvoiceError(ctx, err, inv.InvoiceNumber, "render")
		pdfBytes = nil
	} else {
		s.archivePDF(ctx, inv.InvoiceNumber, pdfBytes)
	}

	delivery := s.send(ctx, inv, client, pdfBytes)

	update := domain.InvoiceStatusUpdate{Status: domain.InvoiceStatusFailed}
	if delivery.Accepted() {
		sentAt := s.now()
		update = domain.InvoiceStatusUpdate{Status: domain.InvoiceStatusSent, EmailSentAt: &sentAt}
	}

	updated, err := s.invoices.UpdateInvoiceStatus(ctx, inv.ID, update)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to record invoice status")
	}
	s.metrics.RecordStatus(string(updated.Status))

	s.logger.Info("invoice delivery recorded",
		"op", op,
		"invoice_number", updated.InvoiceNumber,
		"status", updated.Status,
		"provider", delivery.Provider,
		"pdf_attached", delivery.PDFAttached,
	)

	eventType := events.InvoiceSent
	if updated.Status == domain.InvoiceStatusFailed {
		eventType = events.InvoiceFailed
	}
	s.publish(ctx, eventType, updated, delivery.Provider)

	return &domain.InvoiceResult{Invoice: updated, Delivery: delivery}, nil
}

func (s *invoiceService) render(ctx context.Context, inv *domain.Invoice, client *domain.Client) ([]byte, error) {
	start := time.Now()
	b, err := s.renderer.Render(ctx, pdf.InvoiceData{
		InvoiceNumber:      inv.InvoiceNumber,
		IssuedAt:           inv.CreatedAt,
		PaymentDate:        inv.PaymentDate,
		SubscriptionMonths: inv.SubscriptionMonths,
		AmountPaid:         inv.AmountPaid,
		AmountRemaining:    inv.AmountRemaining,
		Client: pdf.Recipient{
			Name:  client.DisplayName,
			Email: client.Email,
			Phone: client.Phone,
		},
		Gym: s.gym,
	})
	s.metrics.RecordPDFRender(s.renderer.Name(), time.Since(start), err)
	return b, err
}

func (s *invoiceService) archivePDF(ctx context.Context, number string, b []byte) {
	if s.archive == nil {
		return
	}
	url, err := s.archive.Save(ctx, number, b)
	if err != nil {
		s.logger.Warn("failed to archive invoice pdf", "invoice_number", number, "error", err)
		return
	}
	s.logger.Debug("invoice pdf archived", "invoice_number", number, "url", url)
}

// send builds and dispatches the email. Any failure, including an unusable
// message, comes back as an unaccepted Delivery.
func (s *invoiceService) send(ctx context.Context, inv *domain.Invoice, client *domain.Client, pdfBytes []byte) domain.Delivery {
	msg := email.InvoiceEmail{
		To:                 client.Email,
		ClientName:         client.DisplayName,
		InvoiceNumber:      inv.InvoiceNumber,
		PaymentDate:        format.Date(inv.PaymentDate),
		SubscriptionMonths: inv.SubscriptionMonths,
		AmountPaid:         format.Currency(inv.AmountPaid),
		AmountRemaining:    format.Currency(inv.AmountRemaining),
		Total:              format.Currency(inv.TotalAmount()),
		PaidInFull:         inv.IsPaidInFull(),
		GymName:            s.gym.Name,
		SupportEmail:       s.gym.Email,
		PDF:                pdfBytes,
		PDFFilename:        inv.InvoiceNumber + ".pdf",
	}
	if s.baseURL != "" && inv.ID != "" {
		msg.InvoiceURL = s.baseURL + "/invoices/" + inv.ID + "/pdf"
	}

	m, err := msg.Message()
	if err != nil {
		s.logger.Error("failed to build invoice email", "invoice_number", inv.InvoiceNumber, "error", err)
		telemetry.CaptureInvoiceError(ctx, err, inv.InvoiceNumber, "dispatch")
		return domain.Delivery{ErrorDetail: err.Error(), PDFAttached: msg.PDFAttached()}
	}

	telemetry.AddBreadcrumb(ctx, "invoice", "dispatching invoice email", map[string]any{
		"invoice_number": inv.InvoiceNumber,
		"pdf_attached":   msg.PDFAttached(),
	})

	delivery, err := s.mailer.Send(ctx, m)
	if err != nil {
		s.logger.Error("invoice email dispatch errored", "invoice_number", inv.InvoiceNumber, "error", err)
		delivery.Delivered = false
		if delivery.ErrorDetail == "" {
			delivery.ErrorDetail = err.Error()
		}
	}
	if !delivery.Accepted() {
		telemetry.CaptureInvoiceError(ctx, errors.New(delivery.ErrorDetail), inv.InvoiceNumber, "dispatch")
	}
	return delivery
}

// publish is best effort.
func (s *invoiceService) publish(ctx context.Context, t events.Type, inv *domain.Invoice, provider domain.DeliveryProvider) {
	if err := s.events.Publish(ctx, events.NewInvoiceEvent(t, inv, provider, s.now())); err != nil {
		s.logger.Warn("failed to publish invoice event",
			"event", t,
			"invoice_number", inv.InvoiceNumber,
			"error", err,
		)
	}
}
