// Package format renders money and dates the way invoices and emails show them.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RupeeSymbol prefixes every formatted amount.
const RupeeSymbol = "₹"

// DateLayout is DD/MM/YYYY.
const DateLayout = "02/01/2006"

var printer = message.NewPrinter(language.English)

// Amount formats d with two decimals and thousands separators, e.g. 1,234.50.
func Amount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	n := d.Abs().Round(2).Truncate(0).IntPart()
	grouped := printer.Sprintf("%d", n)
	// Fall back to the plain digits if the printer produced something unexpected.
	if strings.ReplaceAll(grouped, ",", "") != whole {
		grouped = whole
	}

	out := grouped + "." + frac
	if d.Round(2).IsNegative() {
		return "-" + out
	}
	return out
}

// Currency formats d as rupees, e.g. ₹1,234.50.
func Currency(d decimal.Decimal) string {
	return CurrencyWithSymbol(d, RupeeSymbol)
}

// CurrencyWithSymbol formats d using symbol as the prefix. The sign, if any,
// goes before the symbol.
func CurrencyWithSymbol(d decimal.Decimal, symbol string) string {
	s := Amount(d)
	if strings.HasPrefix(s, "-") {
		return "-" + symbol + s[1:]
	}
	return symbol + s
}

// Date formats t as DD/MM/YYYY.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
