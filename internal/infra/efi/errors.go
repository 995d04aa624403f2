package efi

import (
	"errors"
	"fmt"
)

// ConfigError means missing or invalid credentials/certificate. Fatal until
// an operator fixes the configuration; never retried automatically.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "efi: configuration error: " + e.Reason
}

// AuthError means the provider rejected the client credentials.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("efi: authentication rejected (status %d): %s", e.StatusCode, e.Body)
}

// ProviderError is a non-2xx response from a charge or payment-code call.
// The raw provider body is preserved for support diagnostics.
type ProviderError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("efi: %s failed (status %d): %s", e.Op, e.StatusCode, e.Body)
}

// NetworkError is a transport-level failure. Retryable: no charge state is
// committed locally without a provider-confirmed txid.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("efi: %s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsRetryable reports whether the caller may safely retry the operation.
func IsRetryable(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
