package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"whatsstore/internal/config"
	"whatsstore/internal/gateway/gatewaytest"
	"whatsstore/internal/http/handlers"
	"whatsstore/internal/repos"
)

const adminPhone = "2348000000000"

type fakeAI struct{ system string }

func (f *fakeAI) Complete(_ context.Context, system, message string) (string, error) {
	f.system = system
	return "echo: " + message, nil
}

type testApp struct {
	app *fiber.App
	be  *gatewaytest.Backend
	srv *httptest.Server
	ai  *fakeAI
}

// newTestApp wires the real routes against an in-memory database and the fake backend.
// With configured false the backend URL is left unset.
func newTestApp(t *testing.T, configured bool) *testApp {
	t.Helper()
	be := gatewaytest.Seeded()
	srv := httptest.NewServer(be.Router())
	t.Cleanup(srv.Close)

	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{StoreWhatsApp: "15550001111", CartStore: "sqlite", SecretKey: "test"}
	if configured {
		cfg.BackendURL = srv.URL
	}
	ai := &fakeAI{}
	deps, err := handlers.NewDeps(context.Background(), db, cfg, handlers.WithCompleter(ai))
	if err != nil {
		t.Fatalf("deps: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	handlers.Routes(app, deps)
	return &testApp{app: app, be: be, srv: srv, ai: ai}
}

// do sends a JSON request with the sid cookie and decodes a JSON object reply.
func (a *testApp) do(t *testing.T, method, path, sid string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

// list decodes a JSON array reply.
func (a *testApp) list(t *testing.T, path, sid string) (*http.Response, []map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	var out []map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// login runs the OTP flow and returns the session cookie.
func (a *testApp) login(t *testing.T, phone string) string {
	t.Helper()
	resp, _ := a.do(t, http.MethodPost, "/auth/verify-otp", "", map[string]string{"phone": phone, "otp": gatewaytest.OTP})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", phone, resp.StatusCode)
	}
	sid := extractCookie(resp, "sid")
	if sid == "" {
		t.Fatal("no sid cookie after login")
	}
	return sid
}
