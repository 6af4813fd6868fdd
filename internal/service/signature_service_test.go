package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSignatureService_SignAndVerify(t *testing.T) {
	svc := NewHMACSignatureService()
	secretKey := "relay-secret"
	payload := `POST|/relay/calls|1708092000|abc123nonce|{"transaction_id":3}`

	signature := svc.Sign(secretKey, payload)

	assert.Regexp(t, `^[0-9a-f]{64}$`, signature, "signature should be 64-char lowercase hex (SHA-256)")
	assert.True(t, svc.Verify(secretKey, payload, signature))
	assert.True(t, svc.Verify(secretKey, payload, strings.ToUpper(signature)), "hex case is not significant")
}

func TestHMACSignatureService_VerifyFails(t *testing.T) {
	svc := NewHMACSignatureService()
	signature := svc.Sign("correct-key", "original payload")

	tests := []struct {
		name      string
		key       string
		payload   string
		signature string
	}{
		{"wrong key", "wrong-key", "original payload", signature},
		{"tampered payload", "correct-key", "tampered payload", signature},
		{"not hex", "correct-key", "original payload", "invalidsignature"},
		{"truncated", "correct-key", "original payload", signature[:32]},
		{"empty", "correct-key", "original payload", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, svc.Verify(tt.key, tt.payload, tt.signature))
		})
	}
}

func TestHMACSignatureService_DeterministicSign(t *testing.T) {
	svc := NewHMACSignatureService()
	assert.Equal(t, svc.Sign("key", "data"), svc.Sign("key", "data"))
}

func TestHMACSignatureService_BuildCanonicalString(t *testing.T) {
	svc := NewHMACSignatureService()

	result := svc.BuildCanonicalString("post", "/relay/calls", 1708092000, "abc123", `{"value":"0"}`)
	assert.Equal(t, `POST|/relay/calls|1708092000|abc123|{"value":"0"}`, result)

	result = svc.BuildCanonicalString("GET", "/relay/health", 1708092000, "nonce1", "")
	assert.Equal(t, "GET|/relay/health|1708092000|nonce1|", result)
}
