package ports

import "github.com/layer-3/ethauth/core"

// Tokenizer converts between identity claims and signed tokens
type Tokenizer interface {
	ClaimToToken(claim core.IdentityClaim) (string, error)
	TokenToClaim(token string, audience string) (core.IdentityClaim, error)
}
