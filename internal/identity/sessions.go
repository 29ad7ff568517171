// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/truthfinder/pkg/types"
)

// ErrNoSession is returned when a session token is empty.
var ErrNoSession = errors.New("identity: empty session token")

// SessionStore maps session tokens to identities for the lifetime of a
// session. Implementations expire idle sessions.
type SessionStore interface {
	// Get returns the identity bound to token and refreshes its idle timer.
	Get(ctx context.Context, token string) (types.Identity, bool, error)

	// Claim binds id to token unless token is already bound, and returns the
	// identity that ends up bound.
	Claim(ctx context.Context, token string, id types.Identity) (types.Identity, error)

	// Del ends the session.
	Del(ctx context.Context, token string) error
}

// Sessions resolves session tokens to identities, minting one the first time
// a token is seen.
type Sessions struct {
	store SessionStore
	gen   *Generator
}

// NewSessions returns a resolver over store.
func NewSessions(store SessionStore, gen *Generator) *Sessions {
	if gen == nil {
		gen = NewGenerator(nil, nil)
	}
	return &Sessions{store: store, gen: gen}
}

// NewToken returns a fresh opaque session token.
func NewToken() string {
	return uuid.NewString()
}

// Resolve returns the identity for token, creating it on first use.
func (s *Sessions) Resolve(ctx context.Context, token string) (types.Identity, error) {
	if token == "" {
		return "", ErrNoSession
	}

	id, ok, err := s.store.Get(ctx, token)
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}
	if ok {
		return id, nil
	}

	fresh, err := s.gen.New()
	if err != nil {
		return "", err
	}
	id, err = s.store.Claim(ctx, token, fresh)
	if err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}
	return id, nil
}

// End discards the session bound to token. Its identity is gone for good.
func (s *Sessions) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Del(ctx, token)
}
