// Package gateway is the JSON/HTTP client for the remote catalog, order and auth backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"whatsstore/internal/domain"
)

type ctxKey string

const tokenKey ctxKey = "bearer_token"

// WithToken attaches the session's bearer token to outgoing requests made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func tokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey).(string)
	return tok
}

// BaseURLFunc resolves the backend base URL at call time; "" means not configured.
type BaseURLFunc func(ctx context.Context) (string, error)

// Static returns a BaseURLFunc for a fixed URL.
func Static(u string) BaseURLFunc {
	return func(context.Context) (string, error) { return u, nil }
}

type Client struct {
	baseURL BaseURLFunc
	http    *http.Client
}

func New(baseURL BaseURLFunc, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Configured reports whether a base URL is currently resolvable.
func (c *Client) Configured(ctx context.Context) bool {
	u, err := c.baseURL(ctx)
	return err == nil && u != ""
}

type OTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type VerifyResponse struct {
	Token   string `json:"token"`
	IsAdmin *bool  `json:"isAdmin,omitempty"`
}

type CreateLine struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type CreateOrderRequest struct {
	CustomerPhone string          `json:"customer_phone"`
	Items         []CreateLine    `json:"items"`
	Total         decimal.Decimal `json:"total"`
}

type CreateOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

type UpdateLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateOrderRequest struct {
	Items  []UpdateLine    `json:"items"`
	Total  decimal.Decimal `json:"total"`
	Status domain.Status   `json:"status,omitempty"`
}

type ackResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message,omitempty"`
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, "list products", http.MethodGet, "/products", nil, &out)
	return out, err
}

func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, "get product", http.MethodGet, "/product?id="+url.QueryEscape(id), nil, &out)
	return out, err
}

func (c *Client) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, "list featured", http.MethodGet, "/featured-products", nil, &out)
	return out, err
}

func (c *Client) RequestOTP(ctx context.Context, phone string) (OTPResponse, error) {
	var out OTPResponse
	err := c.do(ctx, "request otp", http.MethodPost, "/auth/request-otp", map[string]string{"phone": phone}, &out)
	return out, err
}

func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) (VerifyResponse, error) {
	var out VerifyResponse
	err := c.do(ctx, "verify otp", http.MethodPost, "/auth/verify-otp", map[string]string{"phone": phone, "otp": otp}, &out)
	if err == nil && out.Token == "" {
		return out, &RejectedError{Op: "verify otp", Status: http.StatusOK, Message: "Invalid code. Please check and try again."}
	}
	return out, err
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error) {
	var out CreateOrderResponse
	if err := c.do(ctx, "create order", http.MethodPost, "/order", req, &out); err != nil {
		return out, err
	}
	if !out.Success || out.OrderID == "" {
		return out, &RejectedError{Op: "create order", Status: http.StatusOK, Message: "Order was not accepted."}
	}
	return out, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id string, req UpdateOrderRequest) error {
	var out ackResponse
	if err := c.do(ctx, "update order", http.MethodPatch, "/order?id="+url.QueryEscape(id), req, &out); err != nil {
		return err
	}
	if out.Success != nil && !*out.Success {
		msg := out.Message
		if msg == "" {
			msg = "Order update was not accepted."
		}
		return &RejectedError{Op: "update order", Status: http.StatusOK, Message: msg}
	}
	return nil
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := c.do(ctx, "list orders", http.MethodGet, "/orders", nil, &out)
	return out, err
}

func (c *Client) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var out domain.Order
	err := c.do(ctx, "get order", http.MethodGet, "/order?id="+url.QueryEscape(id), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	base, err := c.baseURL(ctx)
	if err != nil {
		return fmt.Errorf("gateway: resolve base url: %w", err)
	}
	if base == "" {
		return ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("gateway: encode %s: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if tok := tokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RejectedError{Op: op, Status: resp.StatusCode, Message: rejectionMessage(raw, resp.StatusCode)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	// The backend answered, so a malformed body is not a retryable transport failure.
	if err := json.Unmarshal(raw, out); err != nil {
		return &RejectedError{Op: op, Status: resp.StatusCode, Message: "Unreadable response from backend."}
	}
	return nil
}

func rejectionMessage(raw []byte, status int) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fmt.Sprintf("Request failed with status %d", status)
}
