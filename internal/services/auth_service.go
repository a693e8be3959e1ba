package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"whatsstore/internal/domain"
	"whatsstore/internal/gateway"
	applog "whatsstore/internal/log"
	"whatsstore/internal/repos"
	"whatsstore/internal/validate"
)

type AuthBackend interface {
	RequestOTP(ctx context.Context, phone string) (gateway.OTPResponse, error)
	VerifyOTP(ctx context.Context, phone, otp string) (gateway.VerifyResponse, error)
}

type SessionStore interface {
	Save(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type AuthService struct {
	Backend  AuthBackend
	Sessions SessionStore
}

func NewAuthService(b AuthBackend, sessions SessionStore) *AuthService {
	return &AuthService{Backend: b, Sessions: sessions}
}

// RequestOTP asks the backend to send a code to phone.
func (s *AuthService) RequestOTP(ctx context.Context, phone string) error {
	d, ok := validate.Phone(phone)
	if !ok {
		return fmt.Errorf("%w: phone needs at least 8 digits", ErrInvalidInput)
	}
	if _, err := s.Backend.RequestOTP(ctx, d); err != nil {
		return fmt.Errorf("request otp: %w", err)
	}
	return nil
}

// VerifyOTP exchanges a code for a backend token and binds it to sid.
func (s *AuthService) VerifyOTP(ctx context.Context, sid, phone, otp string) (domain.Session, error) {
	d, ok := validate.Phone(phone)
	if !ok {
		return domain.Session{}, fmt.Errorf("%w: phone needs at least 8 digits", ErrInvalidInput)
	}
	code, ok := validate.OTP(otp)
	if !ok {
		return domain.Session{}, fmt.Errorf("%w: code must be 6 digits", ErrInvalidInput)
	}
	resp, err := s.Backend.VerifyOTP(ctx, d, code)
	if err != nil {
		return domain.Session{}, fmt.Errorf("verify otp: %w", err)
	}
	sess := domain.Session{ID: sid, Phone: d, Authenticated: true, Token: resp.Token}
	if resp.IsAdmin != nil {
		sess.Admin = *resp.IsAdmin
	}
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Sessions.Delete(ctx, sid)
}

// Current returns the session bound to sid, or an unauthenticated one.
func (s *AuthService) Current(ctx context.Context, sid string) (domain.Session, error) {
	sess, err := s.Sessions.Get(ctx, sid)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.Session{ID: sid}, nil
	case errors.Is(err, repos.ErrSealed):
		// Key changed since the token was stored; the user has to log in again.
		applog.Security(nil, "session_unreadable", map[string]any{"session": sid})
		_ = s.Sessions.Delete(ctx, sid)
		return domain.Session{ID: sid}, nil
	}
	return domain.Session{}, err
}
