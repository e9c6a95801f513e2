package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var invoiceTemplates = template.Must(template.ParseFS(templateFS, "templates/invoice.html"))

// InvoiceEmail holds the formatted values for an invoice message.
type InvoiceEmail struct {
	To                 string
	ClientName         string
	InvoiceNumber      string
	PaymentDate        string
	SubscriptionMonths int
	AmountPaid         string
	AmountRemaining    string
	Total              string
	PaidInFull         bool
	GymName            string
	SupportEmail       string
	InvoiceURL         string

	// PDF is the rendered invoice. Nil means rendering failed and the body
	// says so.
	PDF         []byte
	PDFFilename string
}

// PDFAttached reports whether a PDF will be attached.
func (e InvoiceEmail) PDFAttached() bool {
	return len(e.PDF) > 0
}

func (e InvoiceEmail) Subject() string {
	return fmt.Sprintf("Invoice %s from %s", e.InvoiceNumber, e.GymName)
}

// Message renders the invoice email.
func (e InvoiceEmail) Message() (*Email, error) {
	htmlBody, textBody, err := renderTemplate(e)
	if err != nil {
		return nil, err
	}

	msg := &Email{
		To:       []string{e.To},
		Subject:  e.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	if e.PDFAttached() {
		name := e.PDFFilename
		if name == "" {
			name = e.InvoiceNumber + ".pdf"
		}
		msg.Attachments = []Attachment{{
			Filename:    name,
			ContentType: "application/pdf",
			Content:     e.PDF,
		}}
	}
	return msg, nil
}

type invoiceView struct {
	InvoiceEmail
	Subject     string
	PDFAttached bool
}

func renderTemplate(e InvoiceEmail) (string, string, error) {
	var htmlBuf bytes.Buffer
	view := invoiceView{InvoiceEmail: e, Subject: e.Subject(), PDFAttached: e.PDFAttached()}
	if err := invoiceTemplates.ExecuteTemplate(&htmlBuf, "email_layout", view); err != nil {
		return "", "", fmt.Errorf("failed to execute invoice email template: %w", err)
	}

	htmlBody := htmlBuf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(html string) string {
	text := html

	for _, tag := range []string{"<br>", "<br/>", "<br />", "</tr>", "</div>"} {
		text = strings.ReplaceAll(text, tag, "\n")
	}
	for _, tag := range []string{"</p>", "</h1>", "</h2>", "</h3>", "</table>"} {
		text = strings.ReplaceAll(text, tag, "\n\n")
	}
	text = strings.ReplaceAll(text, "</td><td", "</td>: <td")

	// Drop the head so the title doesn't leak into the body.
	if start, end := strings.Index(text, "<head>"), strings.Index(text, "</head>"); start >= 0 && end > start {
		text = text[:start] + text[end+len("</head>"):]
	}

	for {
		start := strings.Index(text, "<")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], ">")
		if end < 0 {
			break
		}
		text = text[:start] + text[start+end+1:]
	}

	text = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#34;", "\"",
		"&#39;", "'",
	).Replace(text)

	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
