package tokenizer

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims are the claims of an identity token. UUID repeats the
// subject for relying apps that read the older "uuid" claim.
type IdentityClaims struct {
	jwt.RegisteredClaims
	UUID string `json:"uuid"`
}
