package ethauth

// IdentityVerifier checks identity tokens presented to a relying app
type IdentityVerifier interface {
	// Verify returns the identity carried by a valid token
	Verify(token string) (Identity, error)
}
