package services

import (
	"database/sql"
	"errors"
	"net/http"

	"whatsstore/internal/gateway"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrUnauthenticated   = errors.New("not logged in")
	ErrForbidden         = errors.New("admin only")
	ErrNotEditable       = errors.New("order is not pending")
	ErrInvalidTransition = errors.New("status change not allowed")
	ErrFollowUpClosed    = errors.New("order already delivered")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
)

// Kind groups errors by how a caller should react.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindInvalidState    Kind = "invalid_state"
	KindRejected        Kind = "rejected"
	KindTransport       Kind = "transport"
	KindNotConfigured   Kind = "not_configured"
	KindInternal        Kind = "internal"
)

var local = []struct {
	err  error
	kind Kind
	msg  string
}{
	{ErrUnauthenticated, KindUnauthenticated, "Please log in to continue."},
	{ErrForbidden, KindForbidden, "Only admins can do that."},
	{ErrNotFound, KindNotFound, "Not found."},
	{sql.ErrNoRows, KindNotFound, "Not found."},
	{ErrNotEditable, KindInvalidState, "Only pending orders can be edited."},
	{ErrInvalidTransition, KindInvalidState, "That status change is not allowed."},
	{ErrFollowUpClosed, KindInvalidState, "This order was delivered. Follow-up is closed."},
	{ErrEmptyCart, KindValidation, "Your cart is empty."},
	{ErrInvalidInput, KindValidation, "Please check your input and try again."},
}

// Classify maps err to a Kind and a message safe to show the user.
// Backend rejections keep the backend's message verbatim.
func Classify(err error) (Kind, string) {
	if err == nil {
		return "", ""
	}
	if errors.Is(err, gateway.ErrNotConfigured) {
		return KindNotConfigured, gateway.ErrNotConfigured.Error()
	}
	var rej *gateway.RejectedError
	if errors.As(err, &rej) {
		switch rej.Status {
		case http.StatusNotFound:
			return KindNotFound, rej.Message
		case http.StatusUnauthorized:
			return KindUnauthenticated, rej.Message
		}
		return KindRejected, rej.Message
	}
	if gateway.IsRetryable(err) {
		return KindTransport, "Could not reach the store. Please try again."
	}
	for _, l := range local {
		if errors.Is(err, l.err) {
			return l.kind, l.msg
		}
	}
	return KindInternal, "Something went wrong. Please try again."
}
