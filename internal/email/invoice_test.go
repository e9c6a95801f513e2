package email

import (
	"strings"
	"testing"
)

func TestGeneratePlainText(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		contains []string
		excludes []string
	}{
		{
			name:     "simple paragraph",
			html:     "<p>Hello, World!</p>",
			contains: []string{"Hello, World!"},
			excludes: []string{"<p>", "</p>"},
		},
		{
			name:     "line breaks",
			html:     "Line 1<br>Line 2<br/>Line 3<br />Line 4",
			contains: []string{"Line 1", "Line 2", "Line 3", "Line 4"},
			excludes: []string{"<br>", "<br/>", "<br />"},
		},
		{
			name:     "headings",
			html:     "<h1>Title</h1><h2>Subtitle</h2><h3>Section</h3>",
			contains: []string{"Title", "Subtitle", "Section"},
			excludes: []string{"<h1>", "</h1>", "<h2>", "</h2>", "<h3>", "</h3>"},
		},
		{
			name:     "nested tags",
			html:     "<div><p><strong>Bold text</strong> and <em>italic</em></p></div>",
			contains: []string{"Bold text", "and", "italic"},
			excludes: []string{"<div>", "<p>", "<strong>", "<em>"},
		},
		{
			name:     "HTML entities",
			html:     "Price: $10 &amp; shipping &nbsp; included &lt;$5&gt; &quot;free&quot;",
			contains: []string{"Price: $10 & shipping", "included <$5>", "\"free\""},
			excludes: []string{"&amp;", "&nbsp;", "&lt;", "&gt;", "&quot;"},
		},
		{
			name:     "links stripped",
			html:     `<a href="https://example.com">Click here</a>`,
			contains: []string{"Click here"},
			excludes: []string{"<a", "href", "</a>"},
		},
		{
			name:     "empty content",
			html:     "",
			contains: []string{},
			excludes: []string{},
		},
		{
			name: "email template structure",
			html: `
				<div class="email-content">
					<h2>Welcome!</h2>
					<p>Thank you for signing up.</p>
					<p>Click <a href="https://example.com/verify">here</a> to verify.</p>
				</div>
			`,
			contains: []string{"Welcome!", "Thank you for signing up", "here", "to verify"},
			excludes: []string{"<div", "<h2>", "<p>", "<a href"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := generatePlainText(tt.html)

			for _, want := range tt.contains {
				if !strings.Contains(result, want) {
					t.Errorf("generatePlainText() result should contain %q, got: %q", want, result)
				}
			}

			for _, exclude := range tt.excludes {
				if strings.Contains(result, exclude) {
					t.Errorf("generatePlainText() result should not contain %q, got: %q", exclude, result)
				}
			}
		})
	}
}

func TestGeneratePlainText_WhitespaceHandling(t *testing.T) {
	html := `
		<p>   Line with spaces   </p>
		<p></p>
		<p>Another line</p>
	`

	result := generatePlainText(html)

	// Should not have empty lines (they get filtered)
	lines := strings.Split(result, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "" && line != "" {
			t.Error("generatePlainText() should not have blank lines with only whitespace")
		}
	}

	// Should contain the actual content
	if !strings.Contains(result, "Line with spaces") {
		t.Error("generatePlainText() should contain trimmed content")
	}
	if !strings.Contains(result, "Another line") {
		t.Error("generatePlainText() should contain 'Another line'")
	}
}

func sampleInvoiceEmail() InvoiceEmail {
	return InvoiceEmail{
		To:                 "asha@example.com",
		ClientName:         "Asha O'Neil",
		InvoiceNumber:      "INV-20240115-AB12",
		PaymentDate:        "15/01/2024",
		SubscriptionMonths: 3,
		AmountPaid:         "₹5,000.00",
		AmountRemaining:    "₹3,000.00",
		Total:              "₹8,000.00",
		GymName:            "Iron Temple",
		SupportEmail:       "desk@irontemple.in",
		InvoiceURL:         "https://gym.example.com/invoices/42/pdf",
		PDF:                []byte("%PDF-1.4"),
	}
}

func TestInvoiceEmail_Message(t *testing.T) {
	t.Run("with pdf", func(t *testing.T) {
		msg, err := sampleInvoiceEmail().Message()
		if err != nil {
			t.Fatalf("Message() error = %v", err)
		}

		if msg.Subject != "Invoice INV-20240115-AB12 from Iron Temple" {
			t.Errorf("Subject = %q", msg.Subject)
		}
		if len(msg.To) != 1 || msg.To[0] != "asha@example.com" {
			t.Errorf("To = %v", msg.To)
		}
		if len(msg.Attachments) != 1 {
			t.Fatalf("Attachments = %d, want 1", len(msg.Attachments))
		}
		att := msg.Attachments[0]
		if att.Filename != "INV-20240115-AB12.pdf" || att.ContentType != "application/pdf" {
			t.Errorf("attachment = %q (%s)", att.Filename, att.ContentType)
		}
		for _, want := range []string{"₹8,000.00", "Balance due: ₹3,000.00", "attached to this email"} {
			if !strings.Contains(msg.HTMLBody, want) {
				t.Errorf("HTMLBody should contain %q", want)
			}
		}
		if !strings.Contains(msg.TextBody, "Hi Asha O'Neil,") {
			t.Errorf("TextBody should contain decoded greeting, got: %q", msg.TextBody)
		}
		if strings.Contains(msg.TextBody, "<") {
			t.Errorf("TextBody should not contain markup, got: %q", msg.TextBody)
		}
	})

	t.Run("without pdf", func(t *testing.T) {
		e := sampleInvoiceEmail()
		e.PDF = nil

		msg, err := e.Message()
		if err != nil {
			t.Fatalf("Message() error = %v", err)
		}
		if len(msg.Attachments) != 0 {
			t.Errorf("Attachments = %d, want 0", len(msg.Attachments))
		}
		want := "We could not generate a PDF copy of this invoice. Please contact desk@irontemple.in for a copy."
		if !strings.Contains(msg.TextBody, want) {
			t.Errorf("TextBody should explain the missing PDF, got: %q", msg.TextBody)
		}
	})

	t.Run("paid in full", func(t *testing.T) {
		e := sampleInvoiceEmail()
		e.PaidInFull = true
		e.AmountRemaining = "₹0.00"

		msg, err := e.Message()
		if err != nil {
			t.Fatalf("Message() error = %v", err)
		}
		if !strings.Contains(msg.TextBody, "Your payment is complete.") {
			t.Errorf("TextBody should confirm payment, got: %q", msg.TextBody)
		}
		if strings.Contains(msg.TextBody, "Balance due") {
			t.Error("paid invoice should not show balance due")
		}
	})
}
