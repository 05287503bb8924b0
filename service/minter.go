package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/ethauth/core"
	"github.com/layer-3/ethauth/ports"
)

// DefaultTokenTTL is how long identity tokens stay valid
const DefaultTokenTTL = 30 * 24 * time.Hour

// Minter issues identity tokens for registered applications
type Minter struct {
	registry  ports.Registry
	tokenizer ports.Tokenizer
	issuer    string
	ttl       time.Duration
}

// NewMinter creates a minter. A non-positive ttl selects DefaultTokenTTL.
func NewMinter(registry ports.Registry, tokenizer ports.Tokenizer, issuer string, ttl time.Duration) *Minter {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Minter{
		registry:  registry,
		tokenizer: tokenizer,
		issuer:    issuer,
		ttl:       ttl,
	}
}

// Mint issues a token for address whose audience is appID. The returned
// claim describes what was signed.
func (m *Minter) Mint(address, appID string, now time.Time) (string, core.IdentityClaim, error) {
	if address == "" {
		return "", core.IdentityClaim{}, core.ErrUnauthenticated
	}

	app, err := m.registry.Lookup(appID)
	if err != nil {
		return "", core.IdentityClaim{}, err
	}

	claim := core.IdentityClaim{
		ID:        uuid.New().String(),
		Subject:   core.DeriveSubject(address),
		Issuer:    m.issuer,
		Audience:  app.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token, err := m.tokenizer.ClaimToToken(claim)
	if err != nil {
		return "", core.IdentityClaim{}, fmt.Errorf("failed to create identity token: %w", err)
	}

	return token, claim, nil
}
