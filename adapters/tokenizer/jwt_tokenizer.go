package tokenizer

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/ethauth/core"
	"github.com/layer-3/ethauth/ports"
)

// MinKeyBits is the smallest RSA modulus accepted for signing
const MinKeyBits = 2048

var ErrInvalidToken = errors.New("invalid token")

// JWTTokenizer implements the Tokenizer interface with RS256 JWTs
type JWTTokenizer struct {
	signKey *rsa.PrivateKey
	issuer  string
	now     func() time.Time
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// NewJWTTokenizer creates a tokenizer and checks the key can sign. Problems
// with the key surface here, at start-up, rather than per request.
func NewJWTTokenizer(signKey *rsa.PrivateKey, issuer string) (*JWTTokenizer, error) {
	if signKey == nil {
		return nil, fmt.Errorf("%w: signing key is missing", core.ErrConfiguration)
	}
	if err := signKey.Validate(); err != nil {
		return nil, fmt.Errorf("%w: signing key: %w", core.ErrConfiguration, err)
	}
	if bits := signKey.N.BitLen(); bits < MinKeyBits {
		return nil, fmt.Errorf("%w: signing key is %d bits, need at least %d", core.ErrConfiguration, bits, MinKeyBits)
	}
	if issuer == "" {
		return nil, fmt.Errorf("%w: issuer is empty", core.ErrConfiguration)
	}

	j := &JWTTokenizer{signKey: signKey, issuer: issuer, now: time.Now}
	if _, err := jwt.New(jwt.SigningMethodRS256).SignedString(signKey); err != nil {
		return nil, fmt.Errorf("%w: signing key cannot sign: %w", core.ErrConfiguration, err)
	}
	return j, nil
}

// ParsePrivateKeyPEM parses a PKCS#1 or PKCS#8 PEM encoded RSA private key
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse signing key: %w", core.ErrConfiguration, err)
	}
	return key, nil
}

// PublicKey returns the verification key for issued tokens
func (j *JWTTokenizer) PublicKey() *rsa.PublicKey {
	return &j.signKey.PublicKey
}

// PublicKeyPEM returns the verification key as a PKIX PEM block
func (j *JWTTokenizer) PublicKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(j.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ClaimToToken signs an identity claim. The claim's issuer is ignored in
// favour of the configured one.
func (j *JWTTokenizer) ClaimToToken(claim core.IdentityClaim) (string, error) {
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   claim.Subject,
			Audience:  jwt.ClaimStrings{claim.Audience},
			ExpiresAt: jwt.NewNumericDate(claim.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(claim.IssuedAt),
			ID:        claim.ID,
		},
		UUID: claim.Subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign identity token: %w", err)
	}

	return signedToken, nil
}

// TokenToClaim verifies a token issued for audience and returns its claims
func (j *JWTTokenizer) TokenToClaim(tokenStr string, audience string) (core.IdentityClaim, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return j.PublicKey(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return core.IdentityClaim{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return core.IdentityClaim{}, ErrInvalidToken
	}

	claim := core.IdentityClaim{
		ID:        claims.ID,
		Subject:   claims.Subject,
		Issuer:    claims.Issuer,
		Audience:  audience,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		claim.IssuedAt = claims.IssuedAt.Time
	}
	return claim, nil
}
