package pixwebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrMissingSignature = errors.New("webhook signature is missing")
	ErrBadSignature     = errors.New("webhook signature verification failed")
)

// VerifySignature checks the HMAC-SHA256 hex digest of the raw payload
// against the shared webhook secret. Constant-time compare; a txid/status
// pair is never trusted before this passes.
func VerifySignature(secret string, payload []byte, provided string) error {
	if provided == "" {
		return ErrMissingSignature
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	expected := hex.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return ErrBadSignature
	}
	return nil
}
