package core

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Session is the server-side state correlated with one session handle.
// Nonce and Address have independent lifecycles: clearing one never
// touches the other.
type Session struct {
	Handle  string // Opaque handle carried by the client cookie
	Nonce   string // Pending sign-in nonce, empty when none is bound
	Address string // Verified lower-case address, empty when unauthenticated
}

// Authenticated reports whether a verified address is bound to the session.
func (s Session) Authenticated() bool {
	return s.Address != ""
}

// AppConfig describes a registered relying application
type AppConfig struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	RedirectURI string `json:"redirect_uri" yaml:"redirect_uri"`
}

// IdentityClaim is the set of claims minted for one token request
type IdentityClaim struct {
	ID        string    // Unique token identifier (jti)
	Subject   string    // Pseudonymous subject derived from the address
	Issuer    string    // Identity of this service
	Audience  string    // Registered application id
	IssuedAt  time.Time // When the token was minted
	ExpiresAt time.Time // When the token stops being valid
}

// HashHandle returns a loggable fingerprint of a session handle. Handles are
// bearer secrets and never leave the process in clear.
func HashHandle(handle string) string {
	sum := sha256.Sum256([]byte(handle))
	return hex.EncodeToString(sum[:8])
}
