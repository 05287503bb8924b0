package eth

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignatureAgainstAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	message := []byte("example.com wants you to sign in with your Ethereum account")
	sig, err := SignText(key, message)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		ok, err := VerifySignatureAgainstAddress(message, sig, AddressOf(key))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("lower-case expected address", func(t *testing.T) {
		ok, err := VerifySignatureAgainstAddress(message, sig, strings.ToLower(AddressOf(key)))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("raw recovery id", func(t *testing.T) {
		raw, err := hexutil.Decode(sig)
		require.NoError(t, err)
		raw[64] -= 27

		ok, err := VerifySignatureAgainstAddress(message, hexutil.Encode(raw), AddressOf(key))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("other signer", func(t *testing.T) {
		ok, err := VerifySignatureAgainstAddress(message, sig, AddressOf(other))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("tampered message", func(t *testing.T) {
		ok, err := VerifySignatureAgainstAddress(append(message, '!'), sig, AddressOf(key))
		if err == nil {
			assert.False(t, ok)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := VerifySignatureAgainstAddress(message, "0xzz", AddressOf(key))
		assert.ErrorIs(t, err, ErrInvalidSignature)

		_, err = VerifySignatureAgainstAddress(message, "0x1234", AddressOf(key))
		assert.ErrorIs(t, err, ErrInvalidSignatureLen)

		_, err = VerifySignatureAgainstAddress(message, sig, "not-an-address")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t,
		"0x71c7656ec7ab88b098defb751b7401b5f6d8976f",
		NormalizeAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F"))
}
