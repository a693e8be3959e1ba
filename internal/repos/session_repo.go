package repos

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/nacl/secretbox"

	"whatsstore/internal/domain"
)

const keySessionSecret = "session_secret"

var ErrSealed = errors.New("session token cannot be opened")

type SessionRepo struct {
	db  *sqlx.DB
	key [32]byte
}

func NewSessionRepo(db *sqlx.DB, key [32]byte) *SessionRepo { return &SessionRepo{db: db, key: key} }

// SessionKey derives the token sealing key from secret, or loads (creating on
// first use) a random key kept in settings when secret is empty.
func SessionKey(ctx context.Context, settings *SettingsRepo, secret string) ([32]byte, error) {
	if secret != "" {
		return sha256.Sum256([]byte(secret)), nil
	}
	var key [32]byte
	stored, err := settings.Get(ctx, keySessionSecret)
	if err != nil {
		return key, err
	}
	if stored != "" {
		b, err := hex.DecodeString(stored)
		if err != nil || len(b) != len(key) {
			return key, fmt.Errorf("repos: stored session secret is malformed")
		}
		copy(key[:], b)
		return key, nil
	}
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, err
	}
	return key, settings.Set(ctx, keySessionSecret, hex.EncodeToString(key[:]))
}

func (r *SessionRepo) seal(token string) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(token), &nonce, &r.key), nil
}

func (r *SessionRepo) open(sealed []byte) (string, error) {
	if len(sealed) < 24 {
		return "", ErrSealed
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	out, ok := secretbox.Open(nil, sealed[24:], &nonce, &r.key)
	if !ok {
		return "", ErrSealed
	}
	return string(out), nil
}

func (r *SessionRepo) Save(ctx context.Context, s domain.Session) error {
	sealed, err := r.seal(s.Token)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions(id, phone, is_admin, token_sealed, last_seen)
		VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET phone = excluded.phone, is_admin = excluded.is_admin,
		  token_sealed = excluded.token_sealed, last_seen = CURRENT_TIMESTAMP
	`, s.ID, s.Phone, s.Admin, sealed)
	return err
}

// Get returns sql.ErrNoRows when the session is unknown.
func (r *SessionRepo) Get(ctx context.Context, id string) (domain.Session, error) {
	var row struct {
		ID     string `db:"id"`
		Phone  string `db:"phone"`
		Admin  bool   `db:"is_admin"`
		Sealed []byte `db:"token_sealed"`
	}
	if err := r.db.GetContext(ctx, &row, `SELECT id, phone, is_admin, token_sealed FROM sessions WHERE id = ?`, id); err != nil {
		return domain.Session{}, err
	}
	tok, err := r.open(row.Sealed)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{ID: row.ID, Phone: row.Phone, Admin: row.Admin, Token: tok, Authenticated: true}, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}
