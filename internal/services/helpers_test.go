package services_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"whatsstore/internal/domain"
	"whatsstore/internal/gateway"
	"whatsstore/internal/gateway/gatewaytest"
	"whatsstore/internal/services"
)

const storeNumber = "+1 555 000 1111"

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	shirt = domain.Product{ID: "shirt-01", Name: "Linen Shirt", Price: dec("39.90"), Category: "Clothing"}
	shoe  = domain.Product{ID: "shoe-01", Name: "Canvas Sneakers", Price: dec("59.00"), Category: "Shoes"}
	mug   = domain.Product{ID: "mug-01", Name: "Enamel Mug", Price: dec("12.50"), Category: "Home"}
)

var (
	customer = domain.Session{ID: "sid-c", Phone: "2348011111111", Authenticated: true, Token: "tok-c"}
	other    = domain.Session{ID: "sid-o", Phone: "2348022222222", Authenticated: true, Token: "tok-o"}
	admin    = domain.Session{ID: "sid-a", Phone: "2348000000000", Authenticated: true, Admin: true, Token: "tok-a"}
	guest    = domain.Session{ID: "sid-g"}
)

// memPersister is an in-memory CartPersister whose writes can be made to fail.
type memPersister struct {
	mu    sync.Mutex
	data  map[string][]byte
	fail  bool
	saves int
}

func newMemPersister() *memPersister { return &memPersister{data: map[string][]byte{}} }

func (m *memPersister) LoadCart(_ context.Context, sid string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[sid], nil
}

func (m *memPersister) SaveCart(_ context.Context, sid string, b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.saves++
	m.data[sid] = append([]byte(nil), b...)
	return nil
}

func (m *memPersister) setFail(v bool) {
	m.mu.Lock()
	m.fail = v
	m.mu.Unlock()
}

func newStore(t *testing.T) (*services.CartStore, *memPersister) {
	t.Helper()
	p := newMemPersister()
	s, err := services.NewCartStore(context.Background(), "sid", p)
	if err != nil {
		t.Fatal(err)
	}
	return s, p
}

type env struct {
	be     *gatewaytest.Backend
	client *gateway.Client
	orders *services.OrderService
}

func newEnv(t *testing.T) env {
	t.Helper()
	be := gatewaytest.Seeded()
	srv := httptest.NewServer(be.Router())
	t.Cleanup(srv.Close)
	client := gateway.New(gateway.Static(srv.URL), srv.Client())
	svc := services.NewOrderService(client, storeNumber)
	svc.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return env{be: be, client: client, orders: svc}
}

// place creates an order for sess holding the given lines.
func (e env) place(t *testing.T, sess domain.Session, lines ...domain.CartItem) domain.Order {
	t.Helper()
	cart, _ := newStore(t)
	ctx := context.Background()
	for _, l := range lines {
		if err := cart.Add(ctx, l.Product, l.Quantity); err != nil {
			t.Fatal(err)
		}
	}
	o, err := e.orders.Create(ctx, sess, cart)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func line(p domain.Product, q int) domain.CartItem { return domain.CartItem{Product: p, Quantity: q} }
