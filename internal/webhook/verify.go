package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrBadSignature rejects a webhook whose signature does not verify.
var ErrBadSignature = errors.New("webhook signature verification failed")

// VerifySignature checks the hex HMAC-SHA256 signature of a webhook body
// against the gateway's shared secret.
func VerifySignature(secret []byte, signature string, body []byte) error {
	if len(secret) == 0 || signature == "" {
		return ErrBadSignature
	}
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}
