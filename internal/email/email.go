// Package email composes invoice emails and delivers them through the first
// configured provider.
package email

import (
	"context"

	"github.com/dukerupert/gymdesk/internal/domain"
)

// Email represents an email message to be sent.
type Email struct {
	To          []string          // Recipient email addresses
	From        string            // Sender address; providers fall back to their default
	Subject     string            // Email subject
	TextBody    string            // Plain text body
	HTMLBody    string            // HTML body
	Attachments []Attachment      // File attachments (optional)
	Headers     map[string]string // Custom headers (optional)
}

// Attachment represents a file attachment for an email.
type Attachment struct {
	Filename    string // Name of the file
	ContentType string // MIME type
	Content     []byte // File content
}

// AttachmentNames lists attachment filenames in order.
func (e *Email) AttachmentNames() []string {
	names := make([]string, 0, len(e.Attachments))
	for _, a := range e.Attachments {
		names = append(names, a.Filename)
	}
	return names
}

// Sender delivers a message through one transport.
// Returns the message ID from the email provider (if available).
type Sender interface {
	Send(ctx context.Context, email *Email) (string, error)
}

// Provider is a Sender the dispatcher can choose. Providers are tried in a
// fixed order and the first configured one handles the message.
type Provider interface {
	Sender

	// Name identifies the transport in logs and metrics, e.g. "smtp".
	Name() string

	// Kind is the dispatch tier the provider occupies.
	Kind() domain.DeliveryProvider

	// IsConfigured reports whether the provider has the credentials it needs.
	IsConfigured() bool
}
