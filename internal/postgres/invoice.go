package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// InvoiceStore persists invoices. The invoice_number unique constraint is the
// final word on number uniqueness.
type InvoiceStore struct {
	db DBTX
}

func NewInvoiceStore(db DBTX) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// Amounts travel as text so NUMERIC values keep their exact scale.
const invoiceColumns = `
	id::text, invoice_number, client_id::text, amount_paid::text, amount_remaining::text,
	payment_date, subscription_months, status, email_sent_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var (
		inv       domain.Invoice
		paid      string
		remaining string
		status    string
	)
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.ClientID, &paid, &remaining,
		&inv.PaymentDate, &inv.SubscriptionMonths, &status, &inv.EmailSentAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if inv.AmountPaid, err = decimal.NewFromString(paid); err != nil {
		return nil, fmt.Errorf("parse amount_paid %q: %w", paid, err)
	}
	if inv.AmountRemaining, err = decimal.NewFromString(remaining); err != nil {
		return nil, fmt.Errorf("parse amount_remaining %q: %w", remaining, err)
	}
	inv.Status = domain.InvoiceStatus(status)
	return &inv, nil
}

func (s *InvoiceStore) InvoiceNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE invoice_number = $1)`, number,
	).Scan(&exists)
	if err != nil {
		return false, domain.Internal(err, "invoice.number_exists", "failed to check invoice number")
	}
	return exists, nil
}

// InsertInvoice creates a draft invoice. A taken number yields
// domain.ErrDuplicateInvoiceNumber.
func (s *InvoiceStore) InsertInvoice(ctx context.Context, d domain.InvoiceDraft) (*domain.Invoice, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO invoices (
			invoice_number, client_id, amount_paid, amount_remaining,
			payment_date, subscription_months, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, 'draft')
		RETURNING `+invoiceColumns,
		d.InvoiceNumber,
		d.ClientID,
		d.AmountPaid.String(),
		d.AmountRemaining.String(),
		d.PaymentDate,
		d.SubscriptionMonths,
	)

	inv, err := scanInvoice(row)
	if err != nil {
		return nil, mapInsertError(err)
	}
	return inv, nil
}

func mapInsertError(err error) error {
	switch code, constraint := pgErrorCode(err); {
	case code == codeUniqueViolation && (constraint == "" || strings.Contains(constraint, "invoice_number")):
		return fmt.Errorf("%w: %v", domain.ErrDuplicateInvoiceNumber, err)
	case code == codeForeignKeyViolation:
		return domain.ErrClientNotFound
	case code == codeCheckViolation || code == codeNumericOutOfRange:
		return domain.WrapError(err, domain.EINVALID, "invoice.insert", "Invoice amounts are outside the allowed range")
	default:
		return domain.Internal(err, "invoice.insert", "failed to insert invoice")
	}
}

// UpdateInvoiceStatus sets the status and, when non-nil, email_sent_at.
func (s *InvoiceStore) UpdateInvoiceStatus(ctx context.Context, id string, u domain.InvoiceStatusUpdate) (*domain.Invoice, error) {
	if !u.Status.Valid() {
		return nil, domain.Invalid("invoice.update_status", fmt.Sprintf("invalid status %q", u.Status))
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvoiceNotFound
	}

	inv, err := scanInvoice(s.db.QueryRow(ctx, `
		UPDATE invoices
		SET status = $2,
		    email_sent_at = COALESCE($3, email_sent_at),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+invoiceColumns,
		id, string(u.Status), u.EmailSentAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, domain.Internal(err, "invoice.update_status", "failed to update invoice")
	}
	return inv, nil
}

func (s *InvoiceStore) FindInvoiceByID(ctx context.Context, id string) (*domain.Invoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return s.findOne(ctx, "invoice.find", `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

func (s *InvoiceStore) FindInvoiceByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	return s.findOne(ctx, "invoice.find_by_number", `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = $1`, number)
}

func (s *InvoiceStore) findOne(ctx context.Context, op, query string, arg any) (*domain.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, domain.Internal(err, op, "failed to load invoice")
	}
	return inv, nil
}

// listQuery builds the filtered page and count queries.
func listQuery(p domain.ListInvoicesParams) (page string, count string, args []any) {
	var where []string
	if p.ClientID != "" {
		args = append(args, p.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if p.Status != "" {
		args = append(args, string(p.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	count = `SELECT COUNT(*) FROM invoices` + clause
	page = fmt.Sprintf(`SELECT %s FROM invoices%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		invoiceColumns, clause, len(args)+1, len(args)+2)
	return page, count, args
}

// ListInvoices returns a newest-first page and the total matching count.
func (s *InvoiceStore) ListInvoices(ctx context.Context, p domain.ListInvoicesParams) (*domain.InvoicePage, error) {
	if p.ClientID != "" {
		if _, err := uuid.Parse(p.ClientID); err != nil {
			return &domain.InvoicePage{Invoices: []domain.Invoice{}}, nil
		}
	}

	pageSQL, countSQL, args := listQuery(p)

	var total int
	if err := s.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, domain.Internal(err, "invoice.list", "failed to count invoices")
	}

	rows, err := s.db.Query(ctx, pageSQL, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, domain.Internal(err, "invoice.list", "failed to list invoices")
	}
	defer rows.Close()

	invoices := []domain.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, domain.Internal(err, "invoice.list", "failed to scan invoice")
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "invoice.list", "failed to list invoices")
	}

	return &domain.InvoicePage{Invoices: invoices, Total: total}, nil
}
