// Package session owns the server-side session table. Sessions are keyed by
// the sha256 hash of an opaque token; the plaintext token only ever lives in
// the client's cookie.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Jackrayallday/uniproj/internal/crypto"
	"github.com/Jackrayallday/uniproj/internal/model"
)

// ErrNoSession covers an absent, destroyed or expired session alike.
var ErrNoSession = errors.New("no active session")

type Identity struct {
	Email string
	Role  model.Role
}

type Store interface {
	Put(ctx context.Context, sess model.Session) error
	Get(ctx context.Context, tokenHash string) (model.Session, error)
	// Delete is idempotent; deleting an absent session is not an error.
	Delete(ctx context.Context, tokenHash string) error
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Issue invalidates priorToken (if any) and then creates a fresh session for
// the verified identity. The ordering is deliberate: identity is never
// attached to a token that existed before credential verification.
func (m *Manager) Issue(ctx context.Context, priorToken, email string, role model.Role) (string, error) {
	if priorToken != "" {
		if err := m.store.Delete(ctx, crypto.HashToken(priorToken)); err != nil {
			return "", err
		}
	}
	token, err := crypto.NewSessionToken()
	if err != nil {
		return "", err
	}
	now := m.now()
	sess := model.Session{
		ID:        uuid.NewString(),
		TokenHash: crypto.HashToken(token),
		Email:     email,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Put(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the identity behind a token. Expiry is checked lazily: an
// expired session is dropped on access and reported as absent.
func (m *Manager) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoSession
	}
	hash := crypto.HashToken(token)
	sess, err := m.store.Get(ctx, hash)
	if err != nil {
		return Identity{}, err
	}
	if m.now().After(sess.ExpiresAt) {
		if err := m.store.Delete(ctx, hash); err != nil {
			return Identity{}, err
		}
		return Identity{}, ErrNoSession
	}
	return Identity{Email: sess.Email, Role: sess.Role}, nil
}

// Destroy ends a session. Destroying a session that no longer exists succeeds.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, crypto.HashToken(token))
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}
