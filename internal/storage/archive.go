package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

const pdfContentType = "application/pdf"

// InvoiceArchive keeps one PDF per invoice number under invoices/.
type InvoiceArchive struct {
	store Storage
}

// NewInvoiceArchive wraps store. A nil store yields a nil archive.
func NewInvoiceArchive(store Storage) *InvoiceArchive {
	if store == nil {
		return nil
	}
	return &InvoiceArchive{store: store}
}

// Key is the storage key for an invoice PDF.
func Key(invoiceNumber string) string {
	return "invoices/" + invoiceNumber + ".pdf"
}

// Save stores pdf, replacing any earlier copy, and returns its URL.
func (a *InvoiceArchive) Save(ctx context.Context, invoiceNumber string, pdf []byte) (string, error) {
	url, err := a.store.Put(ctx, Key(invoiceNumber), bytes.NewReader(pdf), pdfContentType)
	if err != nil {
		return "", fmt.Errorf("archive invoice %s: %w", invoiceNumber, err)
	}
	return url, nil
}

// Load returns the archived PDF. Use IsNotFound to detect a missing copy.
func (a *InvoiceArchive) Load(ctx context.Context, invoiceNumber string) ([]byte, error) {
	rc, err := a.store.Get(ctx, Key(invoiceNumber))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read archived invoice %s: %w", invoiceNumber, err)
	}
	return b, nil
}
