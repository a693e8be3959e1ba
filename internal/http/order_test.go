package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"whatsstore/internal/domain"
	"whatsstore/internal/whatsapp"
)

func TestCheckoutRequiresLogin(t *testing.T) {
	a := newTestApp(t, true)
	resp, _ := a.do(t, http.MethodPost, "/cart", "", map[string]any{"product_id": "mug-01"})
	sid := extractCookie(resp, "sid")

	resp, body := a.do(t, http.MethodPost, "/checkout", sid, nil)
	if resp.StatusCode != http.StatusUnauthorized || body["error"] != "unauthenticated" {
		t.Fatalf("anonymous checkout: %d %v", resp.StatusCode, body)
	}
	if n := a.be.Calls(http.MethodPost, "/order"); n != 0 {
		t.Fatalf("backend called %d times", n)
	}
}

func TestCheckoutFlow(t *testing.T) {
	a := newTestApp(t, true)
	sid := a.login(t, "+234 801 111 1111")

	resp, body := a.do(t, http.MethodPost, "/checkout", sid, nil)
	if resp.StatusCode != http.StatusBadRequest || body["message"] != "Your cart is empty." {
		t.Fatalf("empty checkout: %d %v", resp.StatusCode, body)
	}

	a.do(t, http.MethodPost, "/cart", sid, map[string]any{"product_id": "shoe-01", "quantity": 2})
	resp, body = a.do(t, http.MethodPost, "/checkout", sid, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: %d %v", resp.StatusCode, body)
	}
	order := body["order"].(map[string]any)
	if order["status"] != "pending" || order["total"].(float64) != 118 || order["customer_phone"] != "2348011111111" {
		t.Fatalf("order: %v", order)
	}
	link := body["whatsapp_url"].(string)
	if !strings.HasPrefix(link, "https://wa.me/15550001111?text=") || strings.Contains(link, "+") {
		t.Fatalf("link: %s", link)
	}
	text, err := whatsapp.DecodeText(link)
	if err != nil || !strings.Contains(text, "• Canvas Sneakers (×2)") {
		t.Fatalf("link text: %q %v", text, err)
	}

	_, cart := a.do(t, http.MethodGet, "/cart", sid, nil)
	if cart["count"].(float64) != 0 {
		t.Fatalf("cart not cleared after order: %v", cart)
	}

	_, orders := a.list(t, "/orders", sid)
	if len(orders) != 1 || orders[0]["id"] != order["id"] {
		t.Fatalf("history: %v", orders)
	}
}

func TestCheckoutBackendFailureKeepsCart(t *testing.T) {
	a := newTestApp(t, true)
	sid := a.login(t, "2348011111111")
	a.do(t, http.MethodPost, "/cart", sid, map[string]any{"product_id": "mug-01", "quantity": 3})

	a.be.RejectNext(http.MethodPost, "/order", http.StatusInternalServerError, "Database down")
	resp, body := a.do(t, http.MethodPost, "/checkout", sid, nil)
	if resp.StatusCode != http.StatusBadGateway || body["message"] != "Database down" {
		t.Fatalf("rejected checkout: %d %v", resp.StatusCode, body)
	}
	_, cart := a.do(t, http.MethodGet, "/cart", sid, nil)
	if cart["count"].(float64) != 3 {
		t.Fatalf("cart changed after failure: %v", cart)
	}

	a.srv.Close()
	resp, body = a.do(t, http.MethodPost, "/checkout", sid, nil)
	if resp.StatusCode != http.StatusServiceUnavailable || body["retryable"] != true {
		t.Fatalf("transport failure: %d %v", resp.StatusCode, body)
	}
	_, cart = a.do(t, http.MethodGet, "/cart", sid, nil)
	if cart["count"].(float64) != 3 {
		t.Fatalf("cart changed after transport failure: %v", cart)
	}
}

func TestBuyNow(t *testing.T) {
	a := newTestApp(t, true)
	sid := a.login(t, "2348011111111")
	a.do(t, http.MethodPost, "/cart", sid, map[string]any{"product_id": "mug-01"})

	resp, body := a.do(t, http.MethodPost, "/products/shirt-01/buy", sid, map[string]any{"quantity": 2})
	if resp.StatusCode != http.StatusCreated || body["order"].(map[string]any)["total"].(float64) != 79.8 {
		t.Fatalf("buy now: %d %v", resp.StatusCode, body)
	}
	_, cart := a.do(t, http.MethodGet, "/cart", sid, nil)
	if cart["count"].(float64) != 1 {
		t.Fatalf("buy now touched the cart: %v", cart)
	}
}

func TestOrdersAreScopedToOwner(t *testing.T) {
	a := newTestApp(t, true)
	alice := a.login(t, "2348011111111")
	bob := a.login(t, "2348022222222")

	a.do(t, http.MethodPost, "/cart", alice, map[string]any{"product_id": "mug-01"})
	_, body := a.do(t, http.MethodPost, "/checkout", alice, nil)
	id := body["order"].(map[string]any)["id"].(string)

	resp, _ := a.do(t, http.MethodGet, "/orders/"+id, bob, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign order visible: %d", resp.StatusCode)
	}
	_, orders := a.list(t, "/orders", bob)
	if len(orders) != 0 {
		t.Fatalf("bob sees %d orders", len(orders))
	}
}

func TestFollowUp(t *testing.T) {
	a := newTestApp(t, true)
	sid := a.login(t, "2348011111111")
	a.do(t, http.MethodPost, "/cart", sid, map[string]any{"product_id": "mug-01"})
	_, body := a.do(t, http.MethodPost, "/checkout", sid, nil)
	id := body["order"].(map[string]any)["id"].(string)

	resp, fu := a.do(t, http.MethodPost, "/orders/"+id+"/followup", sid, nil)
	if resp.StatusCode != 200 || !strings.Contains(fu["message"].(string), "#"+id[len(id)-8:]) {
		t.Fatalf("follow-up: %d %v", resp.StatusCode, fu)
	}

	a.be.SetStatus(id, domain.StatusDelivered)
	resp, fu = a.do(t, http.MethodPost, "/orders/"+id+"/followup", sid, nil)
	if resp.StatusCode != http.StatusConflict || fu["error"] != "invalid_state" {
		t.Fatalf("delivered follow-up: %d %v", resp.StatusCode, fu)
	}
}
