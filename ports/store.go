package ports

import (
	"context"

	"github.com/layer-3/ethauth/core"
)

// SessionStore persists the nonce and address bound to a session handle.
// Nonce and address are independent: writing or clearing one leaves the
// other untouched.
type SessionStore interface {
	Get(ctx context.Context, handle string) (core.Session, error)
	SetNonce(ctx context.Context, handle, nonce string) error
	// TakeNonce atomically returns and clears the pending nonce. Of two
	// concurrent calls on one handle only one observes the nonce.
	TakeNonce(ctx context.Context, handle string) (string, error)
	SetAddress(ctx context.Context, handle, address string) error
	ClearAddress(ctx context.Context, handle string) error
}
