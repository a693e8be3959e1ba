// Package whatsapp builds wa.me deep links carrying a pre-filled message.
package whatsapp

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"whatsstore/internal/domain"
	"whatsstore/internal/money"
)

const base = "https://wa.me/"

const (
	CheckoutHeader = "🛍️ *New Order from WhatsStore*"
	CheckoutFooter = "Please confirm this order!"
)

type Line struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// Summary is the content of a handoff message.
type Summary struct {
	Header   string
	Lines    []Line
	Total    decimal.Decimal
	Customer string
	Footer   string
}

// LinesFrom converts cart or order items into message lines.
func LinesFrom(items []domain.CartItem) []Line {
	out := make([]Line, len(items))
	for i, it := range items {
		out[i] = Line{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
	}
	return out
}

// CheckoutSummary is the message sent when a cart is submitted.
func CheckoutSummary(items []domain.CartItem, total decimal.Decimal, customer string) Summary {
	return Summary{
		Header:   CheckoutHeader,
		Lines:    LinesFrom(items),
		Total:    total,
		Customer: customer,
		Footer:   CheckoutFooter,
	}
}

// Message renders the summary as multi-line WhatsApp text.
func (s Summary) Message() string {
	var b strings.Builder
	b.WriteString(s.Header)
	b.WriteString("\n\n*Items:*\n")
	for i, l := range s.Lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Bullet(l))
	}
	b.WriteString("\n\n*Total:* ")
	b.WriteString(money.FormatCurrency(s.Total))
	if s.Customer != "" {
		b.WriteString("\n*Customer:* ")
		b.WriteString(s.Customer)
	}
	if s.Footer != "" {
		b.WriteString("\n\n")
		b.WriteString(s.Footer)
	}
	return b.String()
}

// Bullet renders one line item as "• name (×quantity)".
func Bullet(l Line) string {
	return "• " + l.Name + " (×" + strconv.Itoa(l.Quantity) + ")"
}

// Link returns the wa.me URL for number with text percent-encoded.
// Spaces become %20, matching encodeURIComponent.
func Link(number, message string) string {
	return base + money.Digits(number) + "?text=" + Escape(message)
}

// Escape percent-encodes s for a query value.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// CheckoutLink is Link applied to Summary.Message.
func CheckoutLink(number string, s Summary) string {
	return Link(number, s.Message())
}

var ErrNotWhatsApp = errors.New("whatsapp: not a wa.me link")

// DecodeText extracts and unescapes the text parameter from a link built by Link.
func DecodeText(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	if u.Host != "wa.me" {
		return "", ErrNotWhatsApp
	}
	return u.Query().Get("text"), nil
}
