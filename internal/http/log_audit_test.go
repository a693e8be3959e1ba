package handlers_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	applog "whatsstore/internal/log"
)

func TestAuditAndSecurityEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := applog.Set(zap.New(core))
	defer applog.Set(prev)

	a := newTestApp(t, true)
	user := a.login(t, "2348011111111")
	id := placeOrder(t, a, user)
	a.do(t, http.MethodPost, "/admin/orders/"+id+"/confirm", user, nil)

	if n := logs.FilterMessage("auth.login.success").Len(); n != 1 {
		t.Fatalf("login audit entries = %d", n)
	}
	created := logs.FilterMessage("order.create").All()
	if len(created) != 1 {
		t.Fatalf("order.create entries = %d", len(created))
	}
	fields := created[0].ContextMap()["fields"].(map[string]any)
	if fields["order_id"] != id || fields["lines"] != 2 {
		t.Fatalf("order.create fields: %v", fields)
	}
	denied := logs.FilterMessage("access.denied.admin").All()
	if len(denied) != 1 || denied[0].Level != zapcore.WarnLevel {
		t.Fatalf("admin denial not logged as security event: %v", denied)
	}
	for _, e := range logs.All() {
		f, _ := e.ContextMap()["fields"].(map[string]any)
		if _, leak := f["token"]; leak {
			t.Fatalf("token leaked into logs: %v", e.ContextMap())
		}
	}
}
