package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // default sender address
	FromName string // optional sender display name
	Timeout  time.Duration
}

// SMTPSender is the primary provider, built on go-mail.
type SMTPSender struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(config SMTPConfig, logger *slog.Logger) *SMTPSender {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{config: config, logger: logger}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Kind() domain.DeliveryProvider { return domain.ProviderPrimary }

// IsConfigured requires a host and the username/password pair.
func (s *SMTPSender) IsConfigured() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != ""
}

// Send sends an email via SMTP using go-mail.
func (s *SMTPSender) Send(ctx context.Context, email *Email) (string, error) {
	msg, err := s.buildMessage(email)
	if err != nil {
		return "", err
	}

	client, err := mail.NewClient(s.config.Host, s.clientOptions()...)
	if err != nil {
		return "", fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("smtp: email sent", "to", email.To, "host", s.config.Host)

	// SMTP doesn't hand back a provider ID; use the generated Message-ID.
	msgID := msg.GetGenHeader(mail.HeaderMessageID)
	if len(msgID) > 0 {
		return msgID[0], nil
	}
	return fmt.Sprintf("smtp-%d", time.Now().UnixNano()), nil
}

func (s *SMTPSender) buildMessage(email *Email) (*mail.Msg, error) {
	msg := mail.NewMsg()

	from := email.From
	if from == "" {
		from = s.config.From
	}
	if s.config.FromName != "" {
		if err := msg.FromFormat(s.config.FromName, from); err != nil {
			return nil, fmt.Errorf("invalid from address: %w", err)
		}
	} else if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}

	msg.Subject(email.Subject)
	msg.SetMessageID()

	switch {
	case email.HTMLBody != "" && email.TextBody != "":
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	case email.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	}

	for key, value := range email.Headers {
		msg.SetGenHeader(mail.Header(key), value)
	}

	for _, att := range email.Attachments {
		err := msg.AttachReader(att.Filename, bytes.NewReader(att.Content),
			mail.WithFileContentType(mail.ContentType(att.ContentType)))
		if err != nil {
			return nil, fmt.Errorf("failed to attach file %s: %w", att.Filename, err)
		}
	}

	return msg, nil
}

// clientOptions picks the TLS mode from the port.
func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(s.config.Timeout),
	}

	switch s.config.Port {
	case 465:
		// Implicit TLS (SMTPS)
		opts = append(opts, mail.WithSSL())
	case 587:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.config.Username != "" && s.config.Password != "" {
		opts = append(opts,
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	return opts
}
