// Package gatewaytest is an in-memory Backend Gateway for local development and tests.
// Do NOT use in production.
package gatewaytest

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"whatsstore/internal/domain"
)

// OTP is the code every phone verifies with.
const OTP = "123456"

type rejection struct {
	status  int
	message string
}

// order keeps status empty until changed so responses omit it, like the real backend does.
type order struct {
	ID            string            `json:"id"`
	CustomerPhone string            `json:"customer_phone"`
	Items         []domain.CartItem `json:"items"`
	Total         decimal.Decimal   `json:"total"`
	Status        domain.Status     `json:"status,omitempty"`
	CreatedAt     string            `json:"created_at"`
}

type Backend struct {
	mu           sync.Mutex
	products     []domain.Product
	orders       []*order
	admins       map[string]bool
	tokens       map[string]string // token -> phone
	rejections   map[string]rejection
	calls        map[string]int
	requireToken bool
	now          func() time.Time
}

func New() *Backend {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return &Backend{
		admins:     map[string]bool{},
		tokens:     map[string]string{},
		rejections: map[string]rejection{},
		calls:      map[string]int{},
		now: func() time.Time {
			n++
			return base.Add(time.Duration(n) * time.Minute)
		},
	}
}

// Seeded returns a backend with a small demo catalog and one admin phone.
func Seeded() *Backend {
	b := New()
	b.AddProduct(domain.Product{ID: "shirt-01", Name: "Linen Shirt", Description: "Breathable summer linen", Price: decimal.RequireFromString("39.90"), Category: "Clothing", ImageURL: "https://picsum.photos/seed/shirt/600", Stock: 12, Featured: true})
	b.AddProduct(domain.Product{ID: "shoe-01", Name: "Canvas Sneakers", Description: "Everyday low-tops", Price: decimal.RequireFromString("59.00"), Category: "Shoes", ImageURL: "https://picsum.photos/seed/shoe/600", Stock: 5})
	b.AddProduct(domain.Product{ID: "mug-01", Name: "Enamel Mug", Description: "Camp-style 350ml", Price: decimal.RequireFromString("12.50"), Category: "Home", ImageURL: "https://picsum.photos/seed/mug/600", Stock: 40, Featured: true})
	b.AddAdmin("2348000000000")
	return b
}

func (b *Backend) AddProduct(p domain.Product) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products = append(b.products, p)
}

func (b *Backend) AddAdmin(phone string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.admins[phone] = true
}

// RequireToken makes every non-auth route answer 401 without a known bearer token.
func (b *Backend) RequireToken() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requireToken = true
}

// RejectNext makes the next request to method+path fail with status and message.
func (b *Backend) RejectNext(method, path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejections[method+" "+path] = rejection{status: status, message: message}
}

// Calls returns how many requests reached method+path.
func (b *Backend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

// SetStatus changes an order's status out of band, as another admin would.
func (b *Backend) SetStatus(id string, s domain.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o := b.find(id); o != nil {
		o.Status = s
	}
}

// Order returns a copy of a stored order with the status default applied.
func (b *Backend) Order(id string) (domain.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o := b.find(id)
	if o == nil {
		return domain.Order{}, false
	}
	st := o.Status
	if st == "" {
		st = domain.StatusPending
	}
	return domain.Order{ID: o.ID, CustomerPhone: o.CustomerPhone, Items: append([]domain.CartItem(nil), o.Items...), Total: o.Total, Status: st, CreatedAt: o.CreatedAt}, true
}

func (b *Backend) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.count)

	r.Post("/auth/request-otp", b.requestOTP)
	r.Post("/auth/verify-otp", b.verifyOTP)

	r.Group(func(r chi.Router) {
		r.Use(b.auth)
		r.Get("/products", b.listProducts)
		r.Get("/product", b.getProduct)
		r.Get("/featured-products", b.listFeatured)
		r.Post("/order", b.createOrder)
		r.Get("/order", b.getOrder)
		r.Patch("/order", b.updateOrder)
		r.Get("/orders", b.listOrders)
	})
	return r
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.calls[key]++
		rej, ok := b.rejections[key]
		delete(b.rejections, key)
		b.mu.Unlock()
		if ok {
			writeJSON(w, rej.status, map[string]any{"success": false, "message": rej.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		need := b.requireToken
		_, known := b.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		b.mu.Unlock()
		if need && !known {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requestOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "phone is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "code sent"})
}

func (b *Backend) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.OTP != OTP {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid code"})
		return
	}
	tok := uuid.NewString()
	b.mu.Lock()
	b.tokens[tok] = in.Phone
	admin := b.admins[in.Phone]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "isAdmin": admin})
}

func (b *Backend) listProducts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := append([]domain.Product{}, b.products...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) listFeatured(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := []domain.Product{}
	for _, p := range b.products {
		if p.Featured {
			out = append(out, p)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	p, ok := b.product(r.URL.Query().Get("id"))
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) createOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CustomerPhone string          `json:"customer_phone"`
		Total         decimal.Decimal `json:"total"`
		Items         []struct {
			ProductID string `json:"product_id"`
			Qty       int    `json:"qty"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "items are required"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	o := &order{ID: uuid.NewString(), CustomerPhone: in.CustomerPhone, Total: in.Total, CreatedAt: b.now().Format(time.RFC3339)}
	for _, l := range in.Items {
		p, ok := b.product(l.ProductID)
		if !ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "unknown product " + l.ProductID})
			return
		}
		o.Items = append(o.Items, domain.CartItem{Product: p, Quantity: l.Qty})
	}
	b.orders = append(b.orders, o)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order_id": o.ID})
}

func (b *Backend) getOrder(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o := b.find(r.URL.Query().Get("id"))
	if o == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (b *Backend) updateOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Total  decimal.Decimal `json:"total"`
		Status domain.Status   `json:"status"`
		Items  []struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	o := b.find(r.URL.Query().Get("id"))
	if o == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "order not found"})
		return
	}
	items := make([]domain.CartItem, 0, len(in.Items))
	for _, l := range in.Items {
		p, ok := snapshot(o.Items, l.ProductID)
		if !ok {
			if p, ok = b.product(l.ProductID); !ok {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "unknown product " + l.ProductID})
				return
			}
		}
		items = append(items, domain.CartItem{Product: p, Quantity: l.Quantity})
	}
	o.Items = items
	o.Total = in.Total
	if in.Status != "" {
		o.Status = in.Status
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) listOrders(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.orders)
}

func (b *Backend) find(id string) *order {
	for _, o := range b.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (b *Backend) product(id string) (domain.Product, bool) {
	for _, p := range b.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func snapshot(items []domain.CartItem, id string) (domain.Product, bool) {
	for _, it := range items {
		if it.ID == id {
			return it.Product, true
		}
	}
	return domain.Product{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
