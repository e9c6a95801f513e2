package pdf

import (
	"fmt"

	"github.com/dukerupert/gymdesk/internal/format"
)

// LineItem is one row of the invoice table. Invoices carry a single row for
// the training package.
type LineItem struct {
	Description string
	Months      int
	Amount      string
}

// SummaryRow is a label/value pair in the payment summary.
type SummaryRow struct {
	Label    string
	Value    string
	Emphasis bool
}

// Banner is the status strip under the summary.
type Banner struct {
	Text     string
	Complete bool
}

// content holds the rendered strings shared by both renderers.
type content struct {
	Title     string
	Items     []LineItem
	Summary   []SummaryRow
	Banner    Banner
	IssuedOn  string
	PaidOn    string
	ThankYou  string
	ContactUs string
}

// contentFor formats d for either renderer.
func contentFor(d InvoiceData) content {
	total := d.Total()
	c := content{
		Title: "Invoice " + d.InvoiceNumber,
		Items: []LineItem{{
			Description: packageDescription(d.SubscriptionMonths),
			Months:      d.SubscriptionMonths,
			Amount:      format.Currency(total),
		}},
		Summary: []SummaryRow{
			{Label: "Subtotal", Value: format.Currency(total)},
			{Label: "Amount paid", Value: format.Currency(d.AmountPaid)},
			{Label: "Balance remaining", Value: format.Currency(d.AmountRemaining)},
			{Label: "Total", Value: format.Currency(total), Emphasis: true},
		},
		IssuedOn: format.Date(d.IssuedAt),
		PaidOn:   format.Date(d.PaymentDate),
		ThankYou: "Thank you for training with " + d.Gym.Name + ".",
	}

	if d.PaidInFull() {
		c.Banner = Banner{Text: "PAYMENT COMPLETE", Complete: true}
	} else {
		c.Banner = Banner{Text: "BALANCE DUE: " + format.Currency(d.AmountRemaining)}
	}

	if d.Gym.Email != "" || d.Gym.Phone != "" {
		c.ContactUs = "Questions about this invoice? Contact us"
		if d.Gym.Email != "" {
			c.ContactUs += " at " + d.Gym.Email
		}
		if d.Gym.Phone != "" {
			c.ContactUs += " or call " + d.Gym.Phone
		}
		c.ContactUs += "."
	}

	return c
}

func packageDescription(months int) string {
	if months == 1 {
		return "Gym membership - 1 month training package"
	}
	return fmt.Sprintf("Gym membership - %d month training package", months)
}
