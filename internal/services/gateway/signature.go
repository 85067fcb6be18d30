package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hmac256 generates a hex-encoded HMAC-SHA256 over body.
func Hmac256(body, key []byte) string {
	hash := hmac.New(sha256.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// VerifySignature checks a gateway payment confirmation: the signature
// must be HMAC-SHA256 over "orderID|paymentID" with the shared secret.
// Comparison is constant time.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	payload := fmt.Sprintf("%s|%s", orderID, paymentID)
	expected := Hmac256([]byte(payload), []byte(secret))

	return hmac.Equal([]byte(signature), []byte(expected))
}
