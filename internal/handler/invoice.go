package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/dukerupert/gymdesk/internal/middleware"
	"github.com/shopspring/decimal"
)

// InvoiceHandler serves the invoice API.
type InvoiceHandler struct {
	service domain.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(service domain.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

type createInvoiceRequest struct {
	ClientID           string          `json:"clientId"`
	AmountPaid         decimal.Decimal `json:"amountPaid"`
	AmountRemaining    decimal.Decimal `json:"amountRemaining"`
	PaymentDate        string          `json:"paymentDate"`
	SubscriptionMonths int             `json:"subscriptionMonths"`
}

type invoiceJSON struct {
	ID                 string     `json:"id"`
	InvoiceNumber      string     `json:"invoiceNumber"`
	ClientID           string     `json:"clientId"`
	AmountPaid         string     `json:"amountPaid"`
	AmountRemaining    string     `json:"amountRemaining"`
	TotalAmount        string     `json:"totalAmount"`
	PaymentDate        string     `json:"paymentDate"`
	SubscriptionMonths int        `json:"subscriptionMonths"`
	Status             string     `json:"status"`
	EmailSentAt        *time.Time `json:"emailSentAt"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type deliveryJSON struct {
	Provider    string `json:"provider"`
	Delivered   bool   `json:"delivered"`
	MessageID   string `json:"messageId,omitempty"`
	PDFAttached bool   `json:"pdfAttached"`
	Error       string `json:"error,omitempty"`
}

type invoiceResultJSON struct {
	Invoice  invoiceJSON  `json:"invoice"`
	Delivery deliveryJSON `json:"delivery"`
	Warning  string       `json:"warning,omitempty"`
	Error    *errorBody   `json:"error,omitempty"`
}

func toInvoiceJSON(inv *domain.Invoice) invoiceJSON {
	return invoiceJSON{
		ID:                 inv.ID,
		InvoiceNumber:      inv.InvoiceNumber,
		ClientID:           inv.ClientID,
		AmountPaid:         inv.AmountPaid.StringFixed(2),
		AmountRemaining:    inv.AmountRemaining.StringFixed(2),
		TotalAmount:        inv.TotalAmount().StringFixed(2),
		PaymentDate:        inv.PaymentDate.Format("2006-01-02"),
		SubscriptionMonths: inv.SubscriptionMonths,
		Status:             string(inv.Status),
		EmailSentAt:        inv.EmailSentAt,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
	}
}

func toDeliveryJSON(d domain.Delivery) deliveryJSON {
	return deliveryJSON{
		Provider:    string(d.Provider),
		Delivered:   d.Delivered,
		MessageID:   d.MessageID,
		PDFAttached: d.PDFAttached,
		Error:       d.ErrorDetail,
	}
}

// Create handles POST /invoices.
//
// 200 when the email went out (or was simulated), 207 when the invoice was
// stored but the email failed, 400 for validation errors, 404 for an unknown
// client, 500 otherwise.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, "invoice.create", "Request body too large"))
			return
		}
		ErrorResponse(w, r, domain.Invalid("invoice.create", "Invalid request body"))
		return
	}

	res, err := h.service.CreateInvoice(r.Context(), domain.CreateInvoiceParams{
		ClientID:           req.ClientID,
		AmountPaid:         req.AmountPaid,
		AmountRemaining:    req.AmountRemaining,
		PaymentDate:        req.PaymentDate,
		SubscriptionMonths: req.SubscriptionMonths,
	})
	if err != nil {
		ValidationErrorResponse(w, r, err)
		return
	}

	body := invoiceResultJSON{
		Invoice:  toInvoiceJSON(res.Invoice),
		Delivery: toDeliveryJSON(res.Delivery),
	}
	if !res.Delivery.Accepted() {
		middleware.GetLogger(r.Context()).Warn("invoice created but email failed",
			"invoice_number", res.Invoice.InvoiceNumber,
			"provider", res.Delivery.Provider,
		)
		body.Warning = "Invoice created but the email could not be sent"
		writeJSON(w, http.StatusMultiStatus, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Resend handles POST /invoices/{id}/resend.
//
// A failed dispatch still returns the updated invoice, with status 500.
func (h *InvoiceHandler) Resend(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ResendInvoice(r.Context(), r.PathValue("id"))
	if err != nil {
		ValidationErrorResponse(w, r, err)
		return
	}

	body := invoiceResultJSON{
		Invoice:  toInvoiceJSON(res.Invoice),
		Delivery: toDeliveryJSON(res.Delivery),
	}
	if !res.Delivery.Accepted() {
		middleware.GetLogger(r.Context()).Error("invoice resend failed",
			"invoice_number", res.Invoice.InvoiceNumber,
			"provider", res.Delivery.Provider,
			"detail", res.Delivery.ErrorDetail,
		)
		body.Error = &errorBody{
			Code:    domain.EINTERNAL,
			Message: domain.ErrInvoiceEmailNotSent.Message,
		}
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Get handles GET /invoices/{id}.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": toInvoiceJSON(inv)})
}

// List handles GET /invoices?client_id=&status=&limit=&offset=.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "invoice.list"
	q := r.URL.Query()

	params := domain.ListInvoicesParams{
		ClientID: q.Get("client_id"),
		Status:   domain.InvoiceStatus(q.Get("status")),
	}

	var err error
	if params.Limit, err = queryInt(q.Get("limit")); err != nil {
		ErrorResponse(w, r, domain.Invalid(op, "limit must be an integer"))
		return
	}
	if params.Offset, err = queryInt(q.Get("offset")); err != nil {
		ErrorResponse(w, r, domain.Invalid(op, "offset must be an integer"))
		return
	}

	page, err := h.service.ListInvoices(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	invoices := make([]invoiceJSON, 0, len(page.Invoices))
	for i := range page.Invoices {
		invoices = append(invoices, toInvoiceJSON(&page.Invoices[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"invoices": invoices,
		"total":    page.Total,
	})
}

// PDF handles GET /invoices/{id}/pdf.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	inv, b, err := h.service.RenderInvoicePDF(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.InvoiceNumber+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
