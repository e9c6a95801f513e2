package email

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/resend/resend-go/v2"
)

// ResendSender is a secondary provider using the Resend API.
type ResendSender struct {
	apiKey string
	from   string
	client *resend.Client
}

// NewResendSender creates a Resend sender. from is the default sender.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		apiKey: apiKey,
		from:   from,
		client: resend.NewClient(apiKey),
	}
}

// WithBaseURL points the client at a different API host. The URL must end
// with a slash.
func (r *ResendSender) WithBaseURL(raw string) (*ResendSender, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse resend base url: %w", err)
	}
	r.client.BaseURL = u
	return r, nil
}

func (r *ResendSender) Name() string { return "resend" }

func (r *ResendSender) Kind() domain.DeliveryProvider { return domain.ProviderSecondary }

func (r *ResendSender) IsConfigured() bool { return r.apiKey != "" }

// Send sends an email via Resend.
func (r *ResendSender) Send(ctx context.Context, email *Email) (string, error) {
	from := email.From
	if from == "" {
		from = r.from
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
		Headers: email.Headers,
	}
	for _, att := range email.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Content:     att.Content,
			Filename:    att.Filename,
			ContentType: att.ContentType,
		})
	}

	sent, err := r.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend API error: %w", err)
	}
	return sent.Id, nil
}
