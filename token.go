package ethauth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a relying app learns from a valid identity token
type Identity struct {
	Subject   string    // Stable pseudonymous user id
	TokenID   string    // Unique token id (jti)
	IssuedAt  time.Time // When the token was minted
	ExpiresAt time.Time // When the token stops being valid
}

// Claims mirrors the claims the auth service signs
type Claims struct {
	jwt.RegisteredClaims
	UUID string `json:"uuid,omitempty"`
}

// Verifier checks identity tokens for one relying app
type Verifier struct {
	publicKey *rsa.PublicKey
	issuer    string
	appID     string
	now       func() time.Time
}

var _ IdentityVerifier = (*Verifier)(nil)

// NewVerifier creates a verifier accepting tokens signed by publicKey,
// issued by issuer and addressed to appID.
func NewVerifier(publicKey *rsa.PublicKey, issuer, appID string) *Verifier {
	return &Verifier{
		publicKey: publicKey,
		issuer:    issuer,
		appID:     appID,
		now:       time.Now,
	}
}

// ParsePublicKeyPEM parses the PEM served by the auth service at
// /api/public-key
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// Verify validates the token and returns the identity it carries
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyFunc,
		jwt.WithAudience(v.appID),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, mapError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.UUID
	}
	if subject == "" {
		return Identity{}, fmt.Errorf("%w: subject is missing", ErrInvalidClaims)
	}

	identity := Identity{
		Subject:   subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	return identity, nil
}

// keyFunc is used by jwt.Parse to validate the signing method
func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodRS256 {
		return nil, ErrInvalidSigningMethod
	}
	return v.publicKey, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidSigningMethod):
		return ErrInvalidSigningMethod
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrInvalidAudience
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrInvalidIssuer
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %w", ErrInvalidClaims, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
}
