package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/ethauth/core"
	"github.com/layer-3/ethauth/internal/eth"
	"github.com/layer-3/ethauth/ports"
)

// Verifier checks signed challenge messages against the session nonce and
// the serving domain.
type Verifier struct {
	sessions ports.SessionStore
	domain   string
}

// NewVerifier creates a verifier for messages addressed to domain. Domains
// are compared byte for byte.
func NewVerifier(sessions ports.SessionStore, domain string) *Verifier {
	return &Verifier{
		sessions: sessions,
		domain:   domain,
	}
}

// Verify checks message and signature and returns the lower-cased signer
// address. The session nonce is consumed before any other check, so a
// nonce can back at most one verification attempt whatever its outcome.
func (v *Verifier) Verify(ctx context.Context, handle string, message core.ChallengeMessage, signature string, now time.Time) (string, error) {
	// 1. Nonce, taken atomically
	nonce, err := v.sessions.TakeNonce(ctx, handle)
	if err != nil {
		return "", err
	}
	if nonce == "" {
		return "", core.Verification(core.ErrNonceMismatch, "no pending nonce for session")
	}
	if nonce != message.Nonce {
		return "", core.Verification(core.ErrNonceMismatch, "")
	}

	// 2. Domain
	if message.Domain != v.domain {
		return "", core.Verification(core.ErrDomainMismatch, fmt.Sprintf("message is for %q", message.Domain))
	}

	// 3. Time bounds
	if exp, ok := message.ExpiresAt(); ok && !now.Before(exp) {
		return "", core.Verification(core.ErrExpired, "")
	}
	if nbf, ok := message.NotBeforeTime(); ok && now.Before(nbf) {
		return "", core.Verification(core.ErrNotYetValid, "")
	}

	// 4. Signature over the canonical text
	verified, err := eth.VerifySignatureAgainstAddress([]byte(message.String()), signature, message.Address)
	if err != nil {
		if errors.Is(err, eth.ErrInvalidAddress) {
			return "", fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
		}
		return "", core.Verification(core.ErrBadSignature, err.Error())
	}
	if !verified {
		return "", core.Verification(core.ErrBadSignature, "")
	}

	return eth.NormalizeAddress(message.Address), nil
}
