package validate

import (
	"net/url"
	"regexp"
	"strings"

	"whatsstore/internal/money"
)

var (
	reOTP = regexp.MustCompile(`^[0-9]{6}$`)
	reID  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// MaxQty caps a single cart line so a typo cannot order thousands.
const MaxQty = 50

// Qty clamps a requested quantity into [1, MaxQty].
func Qty(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxQty {
		return MaxQty
	}
	return n
}

// Phone accepts an international number with at least 8 digits and returns its digits.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	d := money.Digits(s)
	if len(d) < 8 || len(d) > 15 {
		return "", false
	}
	return d, true
}

// OTP validates a 6-digit one-time code.
func OTP(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reOTP.MatchString(s)
}

// ID validates a simple resource identifier (product/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// BackendURL validates an absolute http(s) URL and strips a trailing slash.
func BackendURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return strings.TrimRight(s, "/"), true
}

// Message validates a free-form chat prompt, trimming it to 500 characters.
func Message(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 500 {
		s = string(r[:500])
	}
	return s, true
}
