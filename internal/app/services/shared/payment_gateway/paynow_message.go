package payment_gateway

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"maternity-service/internal/pkg/constvars"
	"net/url"
	"strings"
)

type paynowField struct {
	Key   string
	Value string
}

// paynowMessage keeps fields in wire order because the hash is computed over
// the values in that order.
type paynowMessage []paynowField

func (m paynowMessage) Get(key string) string {
	for _, field := range m {
		if strings.EqualFold(field.Key, key) {
			return field.Value
		}
	}
	return ""
}

func (m paynowMessage) Has(key string) bool {
	for _, field := range m {
		if strings.EqualFold(field.Key, key) {
			return true
		}
	}
	return false
}

// Signed returns m with the hash field appended.
func (m paynowMessage) Signed(integrationKey string) paynowMessage {
	signed := make(paynowMessage, 0, len(m)+1)
	signed = append(signed, m...)
	return append(signed, paynowField{Key: constvars.PaynowFieldHash, Value: paynowHash(m, integrationKey)})
}

func (m paynowMessage) Encode() string {
	var b strings.Builder
	for i, field := range m {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(field.Key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(field.Value))
	}
	return b.String()
}

// VerifyHash checks the hash field against every other value in order.
func (m paynowMessage) VerifyHash(integrationKey string) error {
	received := m.Get(constvars.PaynowFieldHash)
	if received == "" {
		return fmt.Errorf("response carries no hash")
	}
	expected := paynowHash(m, integrationKey)
	if !strings.EqualFold(received, expected) {
		return fmt.Errorf("hash mismatch: received %s", received)
	}
	return nil
}

func paynowHash(m paynowMessage, integrationKey string) string {
	var b strings.Builder
	for _, field := range m {
		if strings.EqualFold(field.Key, constvars.PaynowFieldHash) {
			continue
		}
		b.WriteString(field.Value)
	}
	b.WriteString(integrationKey)
	sum := sha512.Sum512([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func parsePaynowMessage(body string) (paynowMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty response body")
	}

	pairs := strings.Split(body, "&")
	message := make(paynowMessage, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, rawValue, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("malformed pair %q", pair)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("malformed value for %s: %w", key, err)
		}
		message = append(message, paynowField{Key: strings.ToLower(key), Value: value})
	}
	return message, nil
}
