// Package signature authenticates inbound payment-gateway webhook bodies.
//
// The gateway signs every delivery with base64(HMAC-SHA256(rawBody, secret))
// in a request header. Verification must run over the exact raw request
// bytes: re-serializing a parsed payload produces different bytes and breaks
// the signature.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Verify reports whether header is a valid signature for body under secret.
//
// It returns false when the secret is empty (an unset secret fails closed,
// never open), when the header is empty, or when the signature does not
// match. The comparison is constant-time. Verify never panics.
func Verify(body []byte, header, secret string) bool {
	if secret == "" || header == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(body, secret)), []byte(header))
}

// Sign computes the base64-encoded HMAC-SHA256 of body under secret. It is
// what the gateway is expected to put in the signature header, and what
// operators can use to produce test deliveries.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
