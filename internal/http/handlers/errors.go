package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "whatsstore/internal/log"
	"whatsstore/internal/services"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation:      fiber.StatusBadRequest,
	services.KindUnauthenticated: fiber.StatusUnauthorized,
	services.KindForbidden:       fiber.StatusForbidden,
	services.KindNotFound:        fiber.StatusNotFound,
	services.KindInvalidState:    fiber.StatusConflict,
	services.KindRejected:        fiber.StatusBadGateway,
	services.KindTransport:       fiber.StatusServiceUnavailable,
	services.KindNotConfigured:   fiber.StatusServiceUnavailable,
	services.KindInternal:        fiber.StatusInternalServerError,
}

// fail writes err as {"error": kind, "message": text}.
func fail(c *fiber.Ctx, action string, err error) error {
	kind, msg := services.Classify(err)
	status := kindStatus[kind]
	body := fiber.Map{"error": string(kind), "message": msg}
	if kind == services.KindTransport {
		body["retryable"] = true
	}
	c.Status(status)
	switch kind {
	case services.KindInternal, services.KindTransport:
		applog.Error(c, action, err, nil)
	case services.KindForbidden, services.KindUnauthenticated:
		applog.Security(c, action+".denied", map[string]any{"reason": err.Error()})
	default:
		applog.Info(c, action+".fail", map[string]any{"kind": string(kind), "reason": err.Error()})
	}
	return c.JSON(body)
}

func badRequest(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": string(services.KindValidation), "message": msg})
}

// ErrorHandler is the app-wide fallback; it never echoes internal error text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": "request", "message": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   string(services.KindInternal),
		"message": "Something went wrong. Please try again.",
	})
}
