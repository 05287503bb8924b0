package core

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrUnknownApp       = errors.New("unknown app")
	ErrRedirectMismatch = errors.New("redirect uri does not match registered uri")
	ErrConfiguration    = errors.New("invalid configuration")
	ErrPersistence      = errors.New("session store failure")

	ErrNonceMismatch  = errors.New("nonce mismatch")
	ErrDomainMismatch = errors.New("domain mismatch")
	ErrBadSignature   = errors.New("signature does not match address")
	ErrExpired        = errors.New("message expired")
	ErrNotYetValid    = errors.New("message not yet valid")
)

// VerificationError groups the failures of a sign-in verification. Reason is
// one of ErrNonceMismatch, ErrDomainMismatch, ErrBadSignature, ErrExpired or
// ErrNotYetValid, so errors.Is works on the kind.
type VerificationError struct {
	Reason error
	Detail string
}

func (e *VerificationError) Error() string {
	if e.Detail != "" {
		return e.Reason.Error() + ": " + e.Detail
	}
	return e.Reason.Error()
}

func (e *VerificationError) Unwrap() error {
	return e.Reason
}

// Verification builds a VerificationError for the given reason
func Verification(reason error, detail string) error {
	return &VerificationError{Reason: reason, Detail: detail}
}

// IsVerificationError reports whether err is a sign-in verification failure
func IsVerificationError(err error) bool {
	var verr *VerificationError
	return errors.As(err, &verr)
}
