package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// The Backend Gateway speaks plain JSON numbers for prices and totals.
func init() { decimal.MarshalJSONWithoutQuotes = true }

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Images      []string        `json:"images,omitempty"`
	Stock       int             `json:"stock"`
	Rating      *float64        `json:"rating,omitempty"`
	Featured    bool            `json:"featured,omitempty"`
}

// Image returns the canonical image: the first gallery entry when present.
func (p Product) Image() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return p.ImageURL
}

// CartItem is a product snapshot taken when it was added, plus a quantity.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums price × quantity over items.
func Total(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDelivered Status = "delivered"
)

// Rank orders the lifecycle; unknown statuses rank -1.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusConfirmed:
		return 1
	case StatusDelivered:
		return 2
	}
	return -1
}

func (s Status) Valid() bool { return s.Rank() >= 0 }

type Order struct {
	ID            string          `json:"id"`
	CustomerPhone string          `json:"customer_phone"`
	Items         []CartItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	CreatedAt     string          `json:"created_at"`
}

// UnmarshalJSON assigns StatusPending when the backend omits the status.
func (o *Order) UnmarshalJSON(b []byte) error {
	type plain Order
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	*o = Order(p)
	return nil
}

// Recalculate sets Total from the current items.
func (o *Order) Recalculate() {
	o.Total = Total(o.Items)
}

// Editable reports whether items may still change.
func (o Order) Editable() bool { return o.Status == StatusPending }
