// Package money formats amounts and phone numbers for display.
package money

import (
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var (
	reNonDigit = regexp.MustCompile(`\D`)
	rePhone    = regexp.MustCompile(`^(\d{1,3})(\d{3})(\d{3})(\d{4})$`)
)

// FormatCurrency renders an amount as US dollars, e.g. $1,234.50.
func FormatCurrency(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	cents := fixed[strings.IndexByte(fixed, '.'):]
	return sign + "$" + humanize.BigComma(d.BigInt()) + cents
}

// FormatPhone renders an international number as +C (AAA) BBB-CCCC.
// Numbers that do not fit that shape are returned unchanged.
func FormatPhone(phone string) string {
	m := rePhone.FindStringSubmatch(Digits(phone))
	if m == nil {
		return phone
	}
	var b strings.Builder
	b.WriteString("+")
	b.WriteString(m[1])
	b.WriteString(" (")
	b.WriteString(m[2])
	b.WriteString(") ")
	b.WriteString(m[3])
	b.WriteString("-")
	b.WriteString(m[4])
	return b.String()
}

// Digits strips everything but 0-9.
func Digits(s string) string {
	return reNonDigit.ReplaceAllString(s, "")
}
