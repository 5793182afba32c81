// Package paystack models the slice of Paystack's API the reconciliation
// engine needs: transaction initialization, verification, webhook signature
// checks, status vocabulary mapping and the webhook event envelope.
package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader is the HTTP header carrying the webhook signature
const SignatureHeader = "X-Paystack-Signature"

// VerifySignature checks that a webhook body was produced by the provider:
// HMAC-SHA512 over the exact raw bytes with the shared secret, hex encoded.
// The comparison is constant time. Returns false on a missing header, an
// empty secret, or any mismatch. The body must never be parsed before this
// check passes.
func VerifySignature(rawBody []byte, signatureHeader string, secret []byte) bool {
	if signatureHeader == "" || len(secret) == 0 {
		return false
	}

	supplied, err := hex.DecodeString(signatureHeader)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, secret)
	mac.Write(rawBody)

	return hmac.Equal(mac.Sum(nil), supplied)
}

// Sign computes the signature the provider would attach to a payload.
// Used by tests and by tools that replay captured webhook traffic.
func Sign(rawBody []byte, secret []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}
