package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"whatsstore/internal/domain"
	"whatsstore/internal/gateway"
	applog "whatsstore/internal/log"
	"whatsstore/internal/services"
)

const sessionKey = "session"

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	return sid
}

// LoadSession binds the sid cookie's session (authenticated or not) to the request.
func LoadSession(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := ensureSID(c)
		sess, err := auth.Current(c.UserContext(), sid)
		if err != nil {
			applog.Error(c, "session.load", err, nil)
			sess = domain.Session{ID: sid}
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

func session(c *fiber.Ctx) domain.Session {
	s, _ := c.Locals(sessionKey).(domain.Session)
	if s.ID == "" {
		s.ID = c.Cookies("sid")
	}
	return s
}

// backendCtx carries the session's bearer token to the backend.
func backendCtx(c *fiber.Ctx) context.Context {
	return gateway.WithToken(c.UserContext(), session(c).Token)
}

// RequireUser rejects requests without a logged-in session.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !session(c).Authenticated {
			applog.Security(c, "access.denied.user", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": string(services.KindUnauthenticated), "message": "Please log in to continue."})
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := session(c)
		if !s.Authenticated {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "anonymous"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": string(services.KindUnauthenticated), "message": "Please log in to continue."})
		}
		if !s.Admin {
			applog.Security(c, "access.denied.admin", map[string]any{"phone": s.Phone})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": string(services.KindForbidden), "message": "Only admins can do that."})
		}
		return c.Next()
	}
}
