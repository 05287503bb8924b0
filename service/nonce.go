package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/layer-3/ethauth/ports"
)

// NonceBytes is the amount of randomness in each nonce
const NonceBytes = 32

// NonceManager issues single-use sign-in nonces bound to a session
type NonceManager struct {
	sessions ports.SessionStore
	generate func() (string, error)
}

// NewNonceManager creates a nonce manager backed by sessions
func NewNonceManager(sessions ports.SessionStore) *NonceManager {
	return &NonceManager{
		sessions: sessions,
		generate: GenerateNonce,
	}
}

// IssueNonce binds a fresh nonce to the session. Any nonce issued earlier
// for the session stops being valid.
func (m *NonceManager) IssueNonce(ctx context.Context, handle string) (string, error) {
	nonce, err := m.generate()
	if err != nil {
		return "", err
	}

	if err := m.sessions.SetNonce(ctx, handle, nonce); err != nil {
		return "", err
	}

	return nonce, nil
}

// GenerateNonce returns NonceBytes of crypto/rand entropy, hex encoded
func GenerateNonce() (string, error) {
	nonceBytes := make([]byte, NonceBytes)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(nonceBytes), nil
}

// GenerateHandle returns a new opaque session handle
func GenerateHandle() (string, error) {
	return GenerateNonce()
}
