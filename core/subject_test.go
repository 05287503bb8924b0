package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDeriveSubject(t *testing.T) {
	// Values produced by the uuid v5 reference implementation for the v1 namespace.
	assert.Equal(t, "0f782c58-ab9e-510b-8389-1be5d8d19e60",
		DeriveSubject("0x71c7656ec7ab88b098defb751b7401b5f6d8976f"))
	assert.Equal(t, "e801718b-05e4-5f9c-84f3-a282248babb7",
		DeriveSubject("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))

	t.Run("ignores checksum casing", func(t *testing.T) {
		assert.Equal(t,
			DeriveSubject("0x71c7656ec7ab88b098defb751b7401b5f6d8976f"),
			DeriveSubject("0x71C7656EC7ab88b098defB751B7401B5f6d8976F"))
	})

	t.Run("namespace changes the subject", func(t *testing.T) {
		other := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
		assert.NotEqual(t,
			DeriveSubject("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
			DeriveSubjectIn(other, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	})
}

func TestVerificationError(t *testing.T) {
	err := Verification(ErrDomainMismatch, `got "evil.com"`)
	assert.ErrorIs(t, err, ErrDomainMismatch)
	assert.NotErrorIs(t, err, ErrNonceMismatch)
	assert.True(t, IsVerificationError(err))
	assert.False(t, IsVerificationError(ErrUnknownApp))
	assert.Equal(t, `domain mismatch: got "evil.com"`, err.Error())
}
