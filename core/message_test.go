package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMessage() ChallengeMessage {
	return ChallengeMessage{
		Domain:    "example.com",
		Address:   "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
		Statement: "Sign in with Ledger",
		URI:       "https://example.com",
		Version:   "1",
		ChainID:   1,
		Nonce:     "abc123def456",
		IssuedAt:  "2022-03-01T10:00:00Z",
	}
}

func TestChallengeMessageString(t *testing.T) {
	m := sampleMessage()
	expected := "example.com wants you to sign in with your Ethereum account:\n" +
		"0x71C7656EC7ab88b098defB751B7401B5f6d8976F\n" +
		"\n" +
		"Sign in with Ledger\n" +
		"\n" +
		"URI: https://example.com\n" +
		"Version: 1\n" +
		"Chain ID: 1\n" +
		"Nonce: abc123def456\n" +
		"Issued At: 2022-03-01T10:00:00Z"
	assert.Equal(t, expected, m.String())

	t.Run("without statement", func(t *testing.T) {
		m := sampleMessage()
		m.Statement = ""
		assert.Contains(t, m.String(), "0x71C7656EC7ab88b098defB751B7401B5f6d8976F\n\n\nURI: ")
	})

	t.Run("optional fields", func(t *testing.T) {
		m := sampleMessage()
		m.ExpirationTime = "2022-03-02T10:00:00Z"
		m.NotBefore = "2022-03-01T09:00:00Z"
		m.RequestID = "req-1"
		m.Resources = []string{"ipfs://a", "https://b.example"}
		assert.Contains(t, m.String(), "Issued At: 2022-03-01T10:00:00Z\n"+
			"Expiration Time: 2022-03-02T10:00:00Z\n"+
			"Not Before: 2022-03-01T09:00:00Z\n"+
			"Request ID: req-1\n"+
			"Resources:\n- ipfs://a\n- https://b.example")
	})
}

func TestParseMessage(t *testing.T) {
	t.Run("round trips the canonical text", func(t *testing.T) {
		m := sampleMessage()
		m.ExpirationTime = "2022-03-02T10:00:00.5Z"
		m.Resources = []string{"ipfs://a"}

		parsed, err := ParseMessage(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	})

	t.Run("without statement", func(t *testing.T) {
		m := sampleMessage()
		m.Statement = ""

		parsed, err := ParseMessage(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	})

	t.Run("scheme in header", func(t *testing.T) {
		m := sampleMessage()
		m.Scheme = "https"
		text := m.String()
		require.True(t, strings.HasPrefix(text, "https://example.com wants you to sign in"))

		parsed, err := ParseMessage(text)
		require.NoError(t, err)
		assert.Equal(t, "https", parsed.Scheme)
		assert.Equal(t, "example.com", parsed.Domain)
		assert.Equal(t, text, parsed.String())
	})

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"bad header", "example.com wants you to log in:\n0x71C7656EC7ab88b098defB751B7401B5f6d8976F"},
		{"missing nonce", "example.com wants you to sign in with your Ethereum account:\n" +
			"0x71C7656EC7ab88b098defB751B7401B5f6d8976F\n\n\nURI: https://example.com\nVersion: 1\nChain ID: 1\nIssued At: 2022-03-01T10:00:00Z"},
		{"trailing garbage", sampleMessage().String() + "\nExtra: 1"},
		{"bad scheme", strings.Replace(sampleMessage().String(), "example.com wants", "1ht tp://example.com wants", 1)},
		{"empty scheme", strings.Replace(sampleMessage().String(), "example.com wants", "://example.com wants", 1)},
		{"bad address", "example.com wants you to sign in with your Ethereum account:\n" +
			"0x1234\n\n\nURI: https://example.com\nVersion: 1\nChain ID: 1\nNonce: abc123def456\nIssued At: 2022-03-01T10:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage(tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestChallengeMessageUnmarshalJSON(t *testing.T) {
	m := sampleMessage()

	t.Run("object", func(t *testing.T) {
		var decoded ChallengeMessage
		require.NoError(t, json.Unmarshal([]byte(`{
			"domain": "example.com",
			"address": "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
			"statement": "Sign in with Ledger",
			"uri": "https://example.com",
			"version": "1",
			"chainId": 1,
			"nonce": "abc123def456",
			"issuedAt": "2022-03-01T10:00:00Z"
		}`), &decoded))
		assert.Equal(t, m, decoded)
	})

	t.Run("text", func(t *testing.T) {
		raw, err := json.Marshal(m.String())
		require.NoError(t, err)

		var decoded ChallengeMessage
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, m, decoded)
	})

	t.Run("malformed text", func(t *testing.T) {
		var decoded ChallengeMessage
		err := json.Unmarshal([]byte(`"hello"`), &decoded)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestChallengeMessageValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ChallengeMessage)
	}{
		{"missing domain", func(m *ChallengeMessage) { m.Domain = "" }},
		{"bad version", func(m *ChallengeMessage) { m.Version = "2" }},
		{"zero chain", func(m *ChallengeMessage) { m.ChainID = 0 }},
		{"short nonce", func(m *ChallengeMessage) { m.Nonce = "abc" }},
		{"non alphanumeric nonce", func(m *ChallengeMessage) { m.Nonce = "abc-123-def" }},
		{"bad issued at", func(m *ChallengeMessage) { m.IssuedAt = "yesterday" }},
		{"bad expiration", func(m *ChallengeMessage) { m.ExpirationTime = "soon" }},
		{"bad not before", func(m *ChallengeMessage) { m.NotBefore = "later" }},
		{"scheme in domain", func(m *ChallengeMessage) { m.Domain = "https://example.com" }},
		{"bad scheme", func(m *ChallengeMessage) { m.Scheme = "ht tp" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleMessage()
			tt.mutate(&m)
			assert.ErrorIs(t, m.Validate(), ErrInvalidInput)
		})
	}

	assert.NoError(t, sampleMessage().Validate())
}

func TestChallengeMessageTimes(t *testing.T) {
	m := sampleMessage()
	_, ok := m.ExpiresAt()
	assert.False(t, ok)

	now := time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)
	m.ExpirationTime = FormatTimestamp(now.Add(time.Hour))
	m.NotBefore = FormatTimestamp(now)

	exp, ok := m.ExpiresAt()
	require.True(t, ok)
	assert.True(t, exp.Equal(now.Add(time.Hour)))

	nbf, ok := m.NotBeforeTime()
	require.True(t, ok)
	assert.True(t, nbf.Equal(now))
}
