// Package eth wraps the go-ethereum primitives used to check wallet
// signatures over personal_sign (EIP-191) messages.
package eth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the size of an r || s || v signature
const SignatureLength = crypto.SignatureLength

var (
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidSignatureLen = errors.New("signature must be 65 bytes")
	ErrInvalidAddress      = errors.New("invalid ethereum address")
)

// DecodeSignature decodes a 0x-prefixed hex signature and normalizes the
// recovery id from 27/28 to 0/1.
func DecodeSignature(sigHex string) ([]byte, error) {
	raw, err := hexutil.Decode(sigHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", ErrInvalidSignature)
	}
	if len(raw) != SignatureLength {
		return nil, ErrInvalidSignatureLen
	}

	sig := make([]byte, SignatureLength)
	copy(sig, raw)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return nil, fmt.Errorf("recovery id out of range: %w", ErrInvalidSignature)
	}
	return sig, nil
}

// RecoverAddress returns the address that produced sig over the
// personal_sign digest of message.
func RecoverAddress(message []byte, sig []byte) (common.Address, error) {
	digest := accounts.TextHash(message)

	pubKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", ErrInvalidSignature)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// VerifySignatureAgainstAddress reports whether sigHex is a personal_sign
// signature of message by expected.
func VerifySignatureAgainstAddress(message []byte, sigHex string, expected string) (bool, error) {
	if !common.IsHexAddress(expected) {
		return false, ErrInvalidAddress
	}

	sig, err := DecodeSignature(sigHex)
	if err != nil {
		return false, err
	}

	recovered, err := RecoverAddress(message, sig)
	if err != nil {
		return false, err
	}
	return recovered == common.HexToAddress(expected), nil
}

// NormalizeAddress lower-cases a hex address for canonical comparison
func NormalizeAddress(address string) string {
	return strings.ToLower(common.HexToAddress(address).Hex())
}

// SignText produces a wallet-style personal_sign signature (v = 27/28)
func SignText(key *ecdsa.PrivateKey, message []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// AddressOf returns the checksummed address controlled by key
func AddressOf(key *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(key.PublicKey).Hex()
}
