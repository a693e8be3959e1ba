package handlers

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"whatsstore/internal/ai"
	"whatsstore/internal/cache"
	"whatsstore/internal/config"
	"whatsstore/internal/gateway"
	applog "whatsstore/internal/log"
	"whatsstore/internal/repos"
	"whatsstore/internal/services"
)

type Deps struct {
	Auth     *services.AuthService
	Settings *services.SettingsService
	Gateway  *gateway.Client

	ProductHandler   *ProductHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
	AuthHandler      *AuthHandler
	SettingsHandler  *SettingsHandler
	AssistantHandler *AssistantHandler
}

// Option adjusts the wiring, mainly for tests.
type Option func(*options)

type options struct {
	completer services.Completer
	persister services.CartPersister
}

// WithCompleter replaces the Gemini-backed assistant.
func WithCompleter(c services.Completer) Option { return func(o *options) { o.completer = c } }

// WithCartPersister replaces the configured cart storage.
func WithCartPersister(p services.CartPersister) Option { return func(o *options) { o.persister = p } }

func NewDeps(ctx context.Context, db *sqlx.DB, cfg config.Config, opts ...Option) (*Deps, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	settingsRepo := repos.NewSettingsRepo(db)
	key, err := repos.SessionKey(ctx, settingsRepo, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	sessionRepo := repos.NewSessionRepo(db, key)

	if o.persister == nil {
		switch cfg.CartStore {
		case "redis":
			rc := cache.NewCartCache(cfg.RedisAddr, "whatsstore")
			if err := rc.Ping(ctx); err != nil {
				return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
			}
			o.persister = rc
		default:
			o.persister = repos.NewCartRepo(db)
		}
	}

	if o.completer == nil && cfg.GenAIKey != "" {
		g, err := ai.NewGenAI(ctx, cfg.GenAIKey, cfg.GenAIModel)
		if err != nil {
			applog.Error(nil, "assistant.init", err, nil)
		} else {
			o.completer = g
		}
	}

	settingsSvc := services.NewSettingsService(cfg.BackendURL, settingsRepo)
	client := gateway.New(settingsSvc.BackendURL, nil)

	authSvc := services.NewAuthService(client, sessionRepo)
	catalogSvc := services.NewCatalogService(client)
	cartSvc := services.NewCartService(o.persister)
	orderSvc := services.NewOrderService(client, cfg.StoreWhatsApp)
	advisor := &services.AdvisorService{AI: o.completer, Orders: orderSvc, Catalog: catalogSvc}

	return &Deps{
		Auth:     authSvc,
		Settings: settingsSvc,
		Gateway:  client,

		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		CartHandler:      &CartHandler{Cart: cartSvc, Catalog: catalogSvc},
		OrderHandler:     &OrderHandler{Cart: cartSvc, Orders: orderSvc, Catalog: catalogSvc},
		AdminHandler:     &AdminHandler{Orders: orderSvc},
		AuthHandler:      &AuthHandler{Auth: authSvc},
		SettingsHandler:  &SettingsHandler{Settings: settingsSvc},
		AssistantHandler: &AssistantHandler{Advisor: advisor, Cart: cartSvc},
	}, nil
}
