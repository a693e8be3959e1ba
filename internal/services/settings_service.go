package services

import (
	"context"
	"fmt"

	"whatsstore/internal/domain"
	"whatsstore/internal/repos"
	"whatsstore/internal/validate"
)

type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Claim(ctx context.Context, key, value string) (bool, error)
}

// SettingsService resolves the backend URL: the configured value when set,
// otherwise the one saved from the settings screen.
type SettingsService struct {
	Fixed string
	Store KV
}

func NewSettingsService(fixed string, store KV) *SettingsService {
	return &SettingsService{Fixed: fixed, Store: store}
}

// BackendURL is a gateway.BaseURLFunc.
func (s *SettingsService) BackendURL(ctx context.Context) (string, error) {
	if s.Fixed != "" {
		return s.Fixed, nil
	}
	return s.Store.Get(ctx, repos.KeyBackendURL)
}

// Locked reports whether the configured value overrides the stored one.
func (s *SettingsService) Locked() bool { return s.Fixed != "" }

// SetBackendURL saves the backend URL. Before one is saved anybody may set it
// (first-run setup); afterwards only an admin may change it.
func (s *SettingsService) SetBackendURL(ctx context.Context, sess domain.Session, raw string) (string, error) {
	if s.Locked() {
		return "", fmt.Errorf("%w: backend url is fixed by configuration", ErrForbidden)
	}
	u, ok := validate.BackendURL(raw)
	if !ok {
		return "", fmt.Errorf("%w: backend url must be an absolute http(s) URL", ErrInvalidInput)
	}
	if sess.Authenticated && sess.Admin {
		if err := s.Store.Set(ctx, repos.KeyBackendURL, u); err != nil {
			return "", fmt.Errorf("save backend url: %w", err)
		}
		return u, nil
	}
	claimed, err := s.Store.Claim(ctx, repos.KeyBackendURL, u)
	if err != nil {
		return "", fmt.Errorf("save backend url: %w", err)
	}
	if !claimed {
		if !sess.Authenticated {
			return "", ErrUnauthenticated
		}
		return "", ErrForbidden
	}
	return u, nil
}
