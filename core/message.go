package core

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	headerSuffix    = " wants you to sign in with your Ethereum account:"
	schemeSeparator = "://"

	uriTag            = "URI: "
	versionTag        = "Version: "
	chainIDTag        = "Chain ID: "
	nonceTag          = "Nonce: "
	issuedAtTag       = "Issued At: "
	expirationTimeTag = "Expiration Time: "
	notBeforeTag      = "Not Before: "
	requestIDTag      = "Request ID: "
	resourcesTag      = "Resources:"

	// MessageVersion is the only EIP-4361 message version accepted
	MessageVersion = "1"

	minNonceLength = 8
)

// ChallengeMessage is an EIP-4361 sign-in message. Timestamps are kept as
// the exact strings the wallet signed so the canonical text round-trips.
type ChallengeMessage struct {
	Scheme         string   `json:"scheme,omitempty"`
	Domain         string   `json:"domain"`
	Address        string   `json:"address"`
	Statement      string   `json:"statement,omitempty"`
	URI            string   `json:"uri"`
	Version        string   `json:"version"`
	ChainID        int64    `json:"chainId"`
	Nonce          string   `json:"nonce"`
	IssuedAt       string   `json:"issuedAt"`
	ExpirationTime string   `json:"expirationTime,omitempty"`
	NotBefore      string   `json:"notBefore,omitempty"`
	RequestID      string   `json:"requestId,omitempty"`
	Resources      []string `json:"resources,omitempty"`
}

// String returns the canonical EIP-4361 text, which is what the wallet signs
func (m ChallengeMessage) String() string {
	var b strings.Builder
	if m.Scheme != "" {
		b.WriteString(m.Scheme)
		b.WriteString(schemeSeparator)
	}
	b.WriteString(m.Domain)
	b.WriteString(headerSuffix)
	b.WriteString("\n")
	b.WriteString(m.Address)
	b.WriteString("\n\n")
	if m.Statement != "" {
		b.WriteString(m.Statement)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fields := []string{
		uriTag + m.URI,
		versionTag + m.Version,
		chainIDTag + strconv.FormatInt(m.ChainID, 10),
		nonceTag + m.Nonce,
		issuedAtTag + m.IssuedAt,
	}
	if m.ExpirationTime != "" {
		fields = append(fields, expirationTimeTag+m.ExpirationTime)
	}
	if m.NotBefore != "" {
		fields = append(fields, notBeforeTag+m.NotBefore)
	}
	if m.RequestID != "" {
		fields = append(fields, requestIDTag+m.RequestID)
	}
	if len(m.Resources) > 0 {
		resources := []string{resourcesTag}
		for _, r := range m.Resources {
			resources = append(resources, "- "+r)
		}
		fields = append(fields, strings.Join(resources, "\n"))
	}
	b.WriteString(strings.Join(fields, "\n"))
	return b.String()
}

// ParseMessage parses the EIP-4361 text form of a challenge message
func ParseMessage(text string) (ChallengeMessage, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	p := &lineParser{lines: lines}

	var m ChallengeMessage
	header, ok := p.next()
	if !ok || !strings.HasSuffix(header, headerSuffix) {
		return m, invalidMessage("missing sign-in header")
	}
	m.Domain = strings.TrimSuffix(header, headerSuffix)
	if scheme, domain, found := strings.Cut(m.Domain, schemeSeparator); found {
		if scheme == "" {
			return m, invalidMessage("empty scheme in header")
		}
		m.Scheme, m.Domain = scheme, domain
	}

	if m.Address, ok = p.next(); !ok {
		return m, invalidMessage("missing address")
	}
	if blank, ok := p.next(); !ok || blank != "" {
		return m, invalidMessage("expected blank line after address")
	}

	line, ok := p.next()
	if !ok {
		return m, invalidMessage("truncated message")
	}
	if line != "" {
		m.Statement = line
		if blank, ok := p.next(); !ok || blank != "" {
			return m, invalidMessage("expected blank line after statement")
		}
	}

	var err error
	if m.URI, err = p.required(uriTag); err != nil {
		return m, err
	}
	if m.Version, err = p.required(versionTag); err != nil {
		return m, err
	}
	chainID, err := p.required(chainIDTag)
	if err != nil {
		return m, err
	}
	if m.ChainID, err = strconv.ParseInt(chainID, 10, 64); err != nil {
		return m, invalidMessage("chain id is not a number")
	}
	if m.Nonce, err = p.required(nonceTag); err != nil {
		return m, err
	}
	if m.IssuedAt, err = p.required(issuedAtTag); err != nil {
		return m, err
	}
	m.ExpirationTime = p.optional(expirationTimeTag)
	m.NotBefore = p.optional(notBeforeTag)
	m.RequestID = p.optional(requestIDTag)

	if line, ok := p.peek(); ok && line == resourcesTag {
		p.next()
		for {
			line, ok := p.peek()
			if !ok || !strings.HasPrefix(line, "- ") {
				break
			}
			p.next()
			m.Resources = append(m.Resources, strings.TrimPrefix(line, "- "))
		}
	}

	if line, ok := p.next(); ok {
		return m, invalidMessage(fmt.Sprintf("unexpected line %q", line))
	}

	return m, m.Validate()
}

// UnmarshalJSON accepts either the EIP-4361 text as a JSON string or an
// object with the message fields.
func (m *ChallengeMessage) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return invalidMessage(err.Error())
		}
		parsed, err := ParseMessage(text)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}

	type plain ChallengeMessage
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return invalidMessage(err.Error())
	}
	*m = ChallengeMessage(p)
	return nil
}

// Validate checks the message is well formed. It does not check the nonce,
// domain, time bounds or signature; those belong to verification.
func (m ChallengeMessage) Validate() error {
	switch {
	case m.Domain == "":
		return invalidMessage("domain is required")
	case strings.Contains(m.Domain, schemeSeparator):
		return invalidMessage("domain must not carry a scheme")
	case m.Scheme != "" && !validScheme(m.Scheme):
		return invalidMessage(fmt.Sprintf("scheme %q is not valid", m.Scheme))
	case !common.IsHexAddress(m.Address):
		return invalidMessage("address is not a valid hex address")
	case m.URI == "":
		return invalidMessage("uri is required")
	case m.Version != MessageVersion:
		return invalidMessage(fmt.Sprintf("unsupported version %q", m.Version))
	case m.ChainID <= 0:
		return invalidMessage("chain id must be positive")
	case !validNonce(m.Nonce):
		return invalidMessage("nonce must be at least 8 alphanumeric characters")
	}
	if _, err := url.Parse(m.URI); err != nil {
		return invalidMessage("uri is not valid")
	}
	if _, err := parseTimestamp(m.IssuedAt); err != nil {
		return invalidMessage("issued at is not an RFC 3339 timestamp")
	}
	if m.ExpirationTime != "" {
		if _, err := parseTimestamp(m.ExpirationTime); err != nil {
			return invalidMessage("expiration time is not an RFC 3339 timestamp")
		}
	}
	if m.NotBefore != "" {
		if _, err := parseTimestamp(m.NotBefore); err != nil {
			return invalidMessage("not before is not an RFC 3339 timestamp")
		}
	}
	return nil
}

// ExpiresAt returns the expiration time, if the message carries one
func (m ChallengeMessage) ExpiresAt() (time.Time, bool) {
	return optionalTimestamp(m.ExpirationTime)
}

// NotBeforeTime returns the not-before time, if the message carries one
func (m ChallengeMessage) NotBeforeTime() (time.Time, bool) {
	return optionalTimestamp(m.NotBefore)
}

// FormatTimestamp renders t the way challenge messages carry timestamps
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func optionalTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := parseTimestamp(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func validNonce(nonce string) bool {
	if len(nonce) < minNonceLength {
		return false
	}
	for _, r := range nonce {
		isAlnum := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isAlnum {
			return false
		}
	}
	return true
}

// validScheme follows the RFC 3986 scheme grammar
func validScheme(scheme string) bool {
	for i, r := range scheme {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !(r >= '0' && r <= '9') && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

func invalidMessage(detail string) error {
	return fmt.Errorf("%w: challenge message: %s", ErrInvalidInput, detail)
}

type lineParser struct {
	lines []string
	pos   int
}

func (p *lineParser) peek() (string, bool) {
	if p.pos >= len(p.lines) {
		return "", false
	}
	return p.lines[p.pos], true
}

func (p *lineParser) next() (string, bool) {
	line, ok := p.peek()
	if ok {
		p.pos++
	}
	return line, ok
}

func (p *lineParser) required(tag string) (string, error) {
	line, ok := p.next()
	if !ok || !strings.HasPrefix(line, tag) {
		return "", invalidMessage(fmt.Sprintf("missing %q field", strings.TrimSpace(tag)))
	}
	return strings.TrimPrefix(line, tag), nil
}

func (p *lineParser) optional(tag string) string {
	line, ok := p.peek()
	if !ok || !strings.HasPrefix(line, tag) {
		return ""
	}
	p.pos++
	return strings.TrimPrefix(line, tag)
}
