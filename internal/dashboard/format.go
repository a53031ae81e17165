// Package dashboard renders the dashboard pages as plain text from mounted view models.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter formats money and counts for one locale.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter creates a Formatter for the BCP 47 locale tag. Unknown tags fall
// back to en-US; the currency is the locale's region currency, or USD.
func NewFormatter(locale string) Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	unit, conf := currency.FromTag(tag)
	if conf == language.No {
		unit = currency.USD
	}
	p := message.NewPrinter(tag)
	return Formatter{printer: p, symbol: strings.TrimSpace(p.Sprint(currency.Symbol(unit)))}
}

// Money formats a float amount with two decimals, e.g. "$12,750.00".
func (f Formatter) Money(v float64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return sign + f.symbol + f.printer.Sprint(number.Decimal(v, number.Scale(2)))
}

// Decimal formats a decimal amount.
func (f Formatter) Decimal(d decimal.Decimal) string {
	return f.Money(d.InexactFloat64())
}

// Count formats an integer with grouping.
func (f Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Percent formats a percentage that is already scaled to 0..100.
func (f Formatter) Percent(p float64) string {
	return f.printer.Sprintf("%.0f%%", p)
}

// bar draws a progress bar of width cells for a 0..100 percentage.
func bar(percentage float64, width int) string {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	filled := int(percentage / 100 * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func heading(title string) string {
	return fmt.Sprintf("%s\n%s\n", title, strings.Repeat("=", len(title)))
}
