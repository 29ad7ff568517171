// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identity derives the pseudonymous per-session identifier that keys
// entitlements and usage.
//
// An identity lives as long as its session. It is not persisted across
// sessions and is not stable across devices: a user who opens a new session
// gets a new identity, and with it a fresh free-tier allowance and no premium
// grant. This is a known limitation of anonymous identities, not a defect.
package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/truthfinder/pkg/types"
)

// Length is the number of hex characters in an Identity.
const Length = 16

// ErrNoEntropy is returned when the entropy source cannot produce bytes.
// No identity is issued in that case.
var ErrNoEntropy = errors.New("identity: entropy source unavailable")

// Generator mints new identities from an entropy source and a clock.
type Generator struct {
	entropy io.Reader
	now     func() time.Time
}

// NewGenerator returns a Generator. A nil entropy reader uses crypto/rand and
// a nil clock uses time.Now.
func NewGenerator(entropy io.Reader, now func() time.Time) *Generator {
	if entropy == nil {
		entropy = rand.Reader
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{entropy: entropy, now: now}
}

// New returns a fresh identity: SHA-256 over random bytes and a nanosecond
// timestamp, hex-encoded and truncated to Length characters.
func (g *Generator) New() (types.Identity, error) {
	u, err := uuid.NewRandomFromReader(g.entropy)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoEntropy, err)
	}

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(g.now().UnixNano()))

	h := sha256.New()
	h.Write(u[:])
	h.Write(ts[:])
	return types.Identity(hex.EncodeToString(h.Sum(nil))[:Length]), nil
}

// Valid reports whether s has the shape of an Identity.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Provider holds the identity of one session. The first call to Identity
// generates it; later calls return the cached value.
type Provider struct {
	mu  sync.Mutex
	gen *Generator
	id  types.Identity
}

// NewProvider returns a Provider for a new session.
func NewProvider(gen *Generator) *Provider {
	if gen == nil {
		gen = NewGenerator(nil, nil)
	}
	return &Provider{gen: gen}
}

// Identity returns the session identity, generating it on first use. If
// generation fails nothing is cached, so a later call may succeed.
func (p *Provider) Identity() (types.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.id != "" {
		return p.id, nil
	}
	id, err := p.gen.New()
	if err != nil {
		return "", err
	}
	p.id = id
	return id, nil
}
