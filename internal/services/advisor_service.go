package services

import (
	"context"
	"fmt"
	"strings"

	"whatsstore/internal/domain"
	applog "whatsstore/internal/log"
	"whatsstore/internal/money"
)

// FallbackReply is what the assistant says when the completion service fails.
const FallbackReply = "I'm refreshing my system! 🚀 If you need immediate help, please reach out to us directly on WhatsApp."

// Completer produces an assistant reply for a message under a system instruction.
type Completer interface {
	Complete(ctx context.Context, system, message string) (string, error)
}

// ChatCommand is one user message to the assistant, with where it was sent from.
type ChatCommand struct {
	Message          string `json:"message"`
	CurrentPage      string `json:"current_page"`
	FocusedProductID string `json:"focused_product_id,omitempty"`
}

// AdvisorContext is the read-only view of the session handed to the assistant.
type AdvisorContext struct {
	UserPhone      string
	CartItems      []domain.CartItem
	CurrentPage    string
	LastOrders     []domain.Order
	FocusedProduct *domain.Product
}

type AdvisorService struct {
	AI      Completer
	Orders  *OrderService
	Catalog *CatalogService
}

// BuildContext gathers cart, recent orders and the focused product. Lookup
// failures leave the matching field empty.
func (s *AdvisorService) BuildContext(ctx context.Context, sess domain.Session, cart *CartStore, cmd ChatCommand) AdvisorContext {
	ac := AdvisorContext{CurrentPage: cmd.CurrentPage}
	if cart != nil {
		ac.CartItems = cart.Items()
	}
	if sess.Authenticated {
		ac.UserPhone = sess.Phone
		if s.Orders != nil {
			if orders, err := s.Orders.RecentFor(ctx, sess, 3); err == nil {
				ac.LastOrders = orders
			}
		}
	}
	if cmd.FocusedProductID != "" && s.Catalog != nil {
		if p, err := s.Catalog.Get(ctx, cmd.FocusedProductID); err == nil {
			ac.FocusedProduct = &p
		}
	}
	return ac
}

// Ask never fails: any completion error becomes FallbackReply.
func (s *AdvisorService) Ask(ctx context.Context, sess domain.Session, cart *CartStore, cmd ChatCommand) string {
	if s.AI == nil {
		return FallbackReply
	}
	ac := s.BuildContext(ctx, sess, cart, cmd)
	reply, err := s.AI.Complete(ctx, SystemPrompt(ac), cmd.Message)
	if err != nil {
		applog.Error(nil, "assistant_completion", err, map[string]any{"page": cmd.CurrentPage})
		return FallbackReply
	}
	return reply
}

// SystemPrompt renders the assistant instructions with the session context.
func SystemPrompt(ac AdvisorContext) string {
	cart := "CART: Empty."
	if len(ac.CartItems) > 0 {
		cart = fmt.Sprintf("CART: %d items. Total: %s.", len(ac.CartItems), money.FormatCurrency(domain.Total(ac.CartItems)))
	}
	orders := "ORDERS: None yet."
	if len(ac.LastOrders) > 0 {
		parts := make([]string, len(ac.LastOrders))
		for i, o := range ac.LastOrders {
			id := o.ID
			if len(id) > 4 {
				id = id[len(id)-4:]
			}
			parts[i] = fmt.Sprintf("ID #%s (%s)", id, o.Status)
		}
		orders = "ORDERS: " + strings.Join(parts, ", ") + "."
	}
	product := "FOCUSED_PRODUCT: None."
	if p := ac.FocusedProduct; p != nil {
		product = fmt.Sprintf("FOCUSED_PRODUCT: %s (%s). Desc: %s", p.Name, money.FormatCurrency(p.Price), p.Description)
	}
	user := ac.UserPhone
	if user == "" {
		user = "Guest"
	}

	var b strings.Builder
	b.WriteString(`You are the "WhatsStore AI Concierge", the support layer for this mobile-first shopping platform.

APP ROUTES (use markdown links: [Label](/path)):
- Home: [/](/)
- All Products: [Catalog](/products)
- Your Profile/Settings: [Account Settings](/profile)
- Support Hub: [Support](/support)
- Shopping Bag: [Cart](/cart)

MISSION: Answer questions about products, orders, and technical setup.

1. TECHNICAL ISSUES: if products are missing, explain the Backend URL must be set in [Account Settings](/profile).
2. ORDER FINALIZATION: orders are built here and finalized on WhatsApp, where the store owner gives payment instructions.
3. NAVIGATION: order history lives in the [Profile](/profile); categories are at /products?category=<name>.
4. PRODUCTS: use FOCUSED_PRODUCT when present, otherwise suggest the [Catalog](/products).

CURRENT SESSION:
`)
	fmt.Fprintf(&b, "- User: %s\n- %s\n- %s\n- %s\n- Page: %s\n\n", user, cart, orders, product, ac.CurrentPage)
	b.WriteString("TONE: Professional, concise, mobile-friendly (use emojis ✨ ✅ 📱). Max 2-3 sentences per response.")
	return b.String()
}
