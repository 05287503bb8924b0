package ethauth

import (
	"errors"
)

var (
	// ErrTokenExpired is returned when a token has expired
	ErrTokenExpired = errors.New("token has expired")

	// ErrInvalidToken is returned when a token is malformed or its signature
	// does not verify
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidSigningMethod is returned when the signing method is not RS256
	ErrInvalidSigningMethod = errors.New("unexpected signing method")

	// ErrInvalidAudience is returned when the token was issued for another app
	ErrInvalidAudience = errors.New("invalid audience")

	// ErrInvalidIssuer is returned when the token comes from another issuer
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrInvalidClaims is returned when the token claims are invalid
	ErrInvalidClaims = errors.New("invalid claims")

	// ErrMissingToken is returned when a request carries no bearer token
	ErrMissingToken = errors.New("missing bearer token")
)
