package ethauth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the verified Identity
const IdentityKey = "ethauth_identity"

// Middleware rejects requests without a valid "Authorization: Bearer" identity
// token and stores the verified Identity in the gin context.
func Middleware(verifier IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := BearerToken(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		identity, err := verifier.Verify(tokenStr)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Middleware
func IdentityFrom(c *gin.Context) (Identity, bool) {
	value, ok := c.Get(IdentityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || tokenStr == "" {
		return "", ErrMissingToken
	}
	return tokenStr, nil
}
