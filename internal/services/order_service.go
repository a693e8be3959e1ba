package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"whatsstore/internal/domain"
	"whatsstore/internal/gateway"
	applog "whatsstore/internal/log"
	"whatsstore/internal/money"
	"whatsstore/internal/whatsapp"
)

// OrderBackend is the slice of the Backend Gateway the order lifecycle needs.
type OrderBackend interface {
	CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (gateway.CreateOrderResponse, error)
	UpdateOrder(ctx context.Context, id string, req gateway.UpdateOrderRequest) error
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type OrderService struct {
	Backend     OrderBackend
	StoreNumber string
	Now         func() time.Time
}

func NewOrderService(b OrderBackend, storeNumber string) *OrderService {
	return &OrderService{Backend: b, StoreNumber: storeNumber, Now: time.Now}
}

// Checkout is a placed order plus the WhatsApp handoff for it.
type Checkout struct {
	Order   domain.Order `json:"order"`
	Message string       `json:"message"`
	Link    string       `json:"whatsapp_url"`
}

func authed(ctx context.Context, sess domain.Session) (context.Context, error) {
	if !sess.Authenticated || sess.Phone == "" {
		return ctx, ErrUnauthenticated
	}
	return gateway.WithToken(ctx, sess.Token), nil
}

func admin(ctx context.Context, sess domain.Session) (context.Context, error) {
	ctx, err := authed(ctx, sess)
	if err != nil {
		return ctx, err
	}
	if !sess.Admin {
		return ctx, ErrForbidden
	}
	return ctx, nil
}

// Create submits the cart as a new order. The cart is cleared only after the
// backend accepted the order; on any failure it is left untouched.
func (s *OrderService) Create(ctx context.Context, sess domain.Session, cart *CartStore) (domain.Order, error) {
	ctx, err := authed(ctx, sess)
	if err != nil {
		return domain.Order{}, err
	}
	items := cart.Items()
	if len(items) == 0 {
		return domain.Order{}, ErrEmptyCart
	}
	o, err := s.submit(ctx, sess, items)
	if err != nil {
		return domain.Order{}, err
	}
	if err := cart.Clear(ctx); err != nil {
		applog.Error(nil, "cart_clear_after_order", err, map[string]any{"order_id": o.ID})
	}
	return o, nil
}

// BuyNow places a single-line order without touching the cart.
func (s *OrderService) BuyNow(ctx context.Context, sess domain.Session, p domain.Product, qty int) (domain.Order, error) {
	ctx, err := authed(ctx, sess)
	if err != nil {
		return domain.Order{}, err
	}
	return s.submit(ctx, sess, []domain.CartItem{{Product: p, Quantity: atLeastOne(qty)}})
}

func (s *OrderService) submit(ctx context.Context, sess domain.Session, items []domain.CartItem) (domain.Order, error) {
	total := domain.Total(items)
	req := gateway.CreateOrderRequest{CustomerPhone: sess.Phone, Total: total, Items: make([]gateway.CreateLine, len(items))}
	for i, it := range items {
		req.Items[i] = gateway.CreateLine{ProductID: it.ID, Qty: it.Quantity}
	}
	resp, err := s.Backend.CreateOrder(ctx, req)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	return domain.Order{
		ID:            resp.OrderID,
		CustomerPhone: sess.Phone,
		Items:         items,
		Total:         total,
		Status:        domain.StatusPending,
		CreatedAt:     s.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Checkout creates the order and builds the store handoff link for it.
func (s *OrderService) Checkout(ctx context.Context, sess domain.Session, cart *CartStore) (Checkout, error) {
	o, err := s.Create(ctx, sess, cart)
	if err != nil {
		return Checkout{}, err
	}
	return s.Handoff(o), nil
}

// Handoff builds the checkout message and store link for an order.
func (s *OrderService) Handoff(o domain.Order) Checkout {
	msg := whatsapp.CheckoutSummary(o.Items, o.Total, o.CustomerPhone).Message()
	return Checkout{Order: o, Message: msg, Link: whatsapp.Link(s.StoreNumber, msg)}
}

// Edit replaces the items of a pending order. On failure the returned order is current, unchanged.
func (s *OrderService) Edit(ctx context.Context, sess domain.Session, current domain.Order, items []domain.CartItem) (domain.Order, error) {
	ctx, err := admin(ctx, sess)
	if err != nil {
		return current, err
	}
	if !current.Editable() {
		return current, ErrNotEditable
	}
	next := current
	next.Items = make([]domain.CartItem, len(items))
	for i, it := range items {
		it.Quantity = atLeastOne(it.Quantity)
		next.Items[i] = it
	}
	next.Recalculate()
	if err := s.Backend.UpdateOrder(ctx, current.ID, updateRequest(next, "")); err != nil {
		return current, fmt.Errorf("update order: %w", err)
	}
	return next, nil
}

// EditByID loads the order and applies product id -> quantity changes to its lines.
func (s *OrderService) EditByID(ctx context.Context, sess domain.Session, id string, qty map[string]int) (domain.Order, error) {
	if _, err := admin(ctx, sess); err != nil {
		return domain.Order{}, err
	}
	cur, err := s.Get(ctx, sess, id)
	if err != nil {
		return domain.Order{}, err
	}
	items := make([]domain.CartItem, len(cur.Items))
	copy(items, cur.Items)
	for pid := range qty {
		found := false
		for i := range items {
			if items[i].ID == pid {
				items[i].Quantity = qty[pid]
				found = true
			}
		}
		if !found {
			return cur, fmt.Errorf("%w: product %s is not in order", ErrInvalidInput, pid)
		}
	}
	return s.Edit(ctx, sess, cur, items)
}

// Confirm moves a pending order to confirmed.
func (s *OrderService) Confirm(ctx context.Context, sess domain.Session, current domain.Order) (domain.Order, error) {
	if _, err := admin(ctx, sess); err != nil {
		return current, err
	}
	if current.Status != domain.StatusPending {
		return current, ErrInvalidTransition
	}
	return s.SetStatus(ctx, sess, current, domain.StatusConfirmed)
}

// SetStatus moves an order forward through pending, confirmed, delivered.
// Backward moves and moves out of delivered are refused locally.
func (s *OrderService) SetStatus(ctx context.Context, sess domain.Session, current domain.Order, to domain.Status) (domain.Order, error) {
	ctx, err := admin(ctx, sess)
	if err != nil {
		return current, err
	}
	if !to.Valid() {
		return current, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if to.Rank() <= current.Status.Rank() {
		return current, ErrInvalidTransition
	}
	next := current
	next.Items = append([]domain.CartItem(nil), current.Items...)
	next.Recalculate()
	next.Status = to
	if err := s.Backend.UpdateOrder(ctx, current.ID, updateRequest(next, to)); err != nil {
		return current, fmt.Errorf("update order status: %w", err)
	}
	return next, nil
}

func updateRequest(o domain.Order, status domain.Status) gateway.UpdateOrderRequest {
	req := gateway.UpdateOrderRequest{Total: o.Total, Status: status, Items: make([]gateway.UpdateLine, len(o.Items))}
	for i, it := range o.Items {
		req.Items[i] = gateway.UpdateLine{ProductID: it.ID, Quantity: it.Quantity}
	}
	return req
}

// Get fetches one order. Non-admins only see their own.
func (s *OrderService) Get(ctx context.Context, sess domain.Session, id string) (domain.Order, error) {
	ctx, err := authed(ctx, sess)
	if err != nil {
		return domain.Order{}, err
	}
	o, err := s.Backend.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	if !sess.Admin && o.CustomerPhone != sess.Phone {
		return domain.Order{}, ErrNotFound
	}
	o.Recalculate()
	return o, nil
}

// List returns every order for admins and the caller's own orders otherwise, newest first.
func (s *OrderService) List(ctx context.Context, sess domain.Session) ([]domain.Order, error) {
	ctx, err := authed(ctx, sess)
	if err != nil {
		return nil, err
	}
	all, err := s.Backend.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]domain.Order, 0, len(all))
	for _, o := range all {
		if sess.Admin || o.CustomerPhone == sess.Phone {
			o.Recalculate()
			out = append(out, o)
		}
	}
	newestFirst(out)
	return out, nil
}

// RecentFor returns at most n of the session's orders, newest first.
func (s *OrderService) RecentFor(ctx context.Context, sess domain.Session, n int) ([]domain.Order, error) {
	own := sess
	own.Admin = false
	orders, err := s.List(ctx, own)
	if err != nil {
		return nil, err
	}
	if len(orders) > n {
		orders = orders[:n]
	}
	return orders, nil
}

// newestFirst orders by parsed creation time. Unparseable stamps fall back to
// string order.
func newestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, errA := time.Parse(time.RFC3339Nano, orders[i].CreatedAt)
		b, errB := time.Parse(time.RFC3339Nano, orders[j].CreatedAt)
		if errA != nil || errB != nil {
			return orders[i].CreatedAt > orders[j].CreatedAt
		}
		return a.After(b)
	})
}

// Overview is the admin dashboard summary.
type Overview struct {
	OrderCount   int             `json:"order_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	Recent       []domain.Order  `json:"recent_orders"`
	ProductCount int             `json:"product_count"`
	Errors       []string        `json:"errors,omitempty"`
}

// Overview loads orders and products concurrently. A failed half is reported
// in Errors and leaves its figures at zero.
func (s *OrderService) Overview(ctx context.Context, sess domain.Session) (Overview, error) {
	if _, err := admin(ctx, sess); err != nil {
		return Overview{}, err
	}
	var (
		ov              Overview
		orders          []domain.Order
		products        []domain.Product
		ordErr, prodErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, ordErr = s.List(gctx, sess)
		return nil
	})
	g.Go(func() error {
		products, prodErr = s.Backend.ListProducts(gateway.WithToken(gctx, sess.Token))
		return nil
	})
	_ = g.Wait()

	if ordErr != nil {
		_, msg := Classify(ordErr)
		ov.Errors = append(ov.Errors, "orders: "+msg)
	}
	if prodErr != nil {
		_, msg := Classify(prodErr)
		ov.Errors = append(ov.Errors, "products: "+msg)
	}
	ov.OrderCount = len(orders)
	ov.Revenue = decimal.Zero
	for _, o := range orders {
		ov.Revenue = ov.Revenue.Add(o.Total)
	}
	if len(orders) > 5 {
		orders = orders[:5]
	}
	ov.Recent = orders
	ov.ProductCount = len(products)
	return ov, nil
}

// FollowUp is the message and link a customer sends about an existing order.
type FollowUp struct {
	Message string `json:"message"`
	Link    string `json:"whatsapp_url"`
}

// BuildFollowUpMessage renders a deterministic order summary for the store.
func BuildFollowUpMessage(o domain.Order) string {
	status := o.Status
	if status == "" {
		status = domain.StatusPending
	}
	lines := make([]string, len(o.Items))
	for i, it := range o.Items {
		lines[i] = fmt.Sprintf("• %s ×%d @ %s", it.Name, it.Quantity, money.FormatCurrency(it.Price))
	}
	var b strings.Builder
	b.WriteString("👋 *Order Follow-up*\n\n")
	b.WriteString("Hello! I'm reaching out regarding my order:\n\n")
	b.WriteString("📦 *Order ID:* #" + shortID(o.ID) + "\n")
	b.WriteString("✅ *Status:* " + strings.ToUpper(string(status)) + "\n")
	b.WriteString("👤 *Customer Phone:* " + money.FormatPhone(o.CustomerPhone) + "\n\n")
	b.WriteString("🛒 *Items:*\n" + strings.Join(lines, "\n") + "\n\n")
	b.WriteString("💰 *Total Amount:* " + money.FormatCurrency(domain.Total(o.Items)) + "\n\n")
	b.WriteString("Please provide an update on delivery/confirmation. Thank you!")
	return b.String()
}

// shortID keeps the last 8 characters.
func shortID(id string) string {
	r := []rune(id)
	if len(r) <= 8 {
		return id
	}
	return string(r[len(r)-8:])
}

// FollowUp builds the follow-up handoff; delivered orders have none.
func (s *OrderService) FollowUp(o domain.Order) (FollowUp, error) {
	if o.Status == domain.StatusDelivered {
		return FollowUp{}, ErrFollowUpClosed
	}
	msg := BuildFollowUpMessage(o)
	return FollowUp{Message: msg, Link: whatsapp.Link(s.StoreNumber, msg)}, nil
}
