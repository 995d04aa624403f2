package efi

import (
	"crypto/tls"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"strings"
)

// newHTTPClient builds the authenticated transport for the provider. When a
// certificate bundle is configured it is presented on every request (mutual
// TLS, provider-mandated for production PIX APIs). A malformed bundle is a
// ConfigError; there is no fallback to an unauthenticated transport.
func newHTTPClient(cfg Config) (*http.Client, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	if client.Timeout == 0 {
		client.Timeout = defaultTimeout
	}

	if cfg.CertificateB64 == "" {
		return client, nil
	}

	cert, err := parseCertificateBundle(cfg.CertificateB64)
	if err != nil {
		return nil, err
	}

	client.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		},
	}
	return client, nil
}

// parseCertificateBundle decodes a base64 PEM bundle and extracts the client
// certificate and private key. Errors are descriptive so test_connection can
// show the operator actionable text instead of an opaque code.
func parseCertificateBundle(b64 string) (tls.Certificate, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return tls.Certificate{}, &ConfigError{Reason: "certificate bundle is not valid base64"}
	}

	var certPEM, keyPEM []byte
	rest := raw
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch {
		case block.Type == "CERTIFICATE":
			if certPEM == nil {
				certPEM = pem.EncodeToMemory(block)
			}
		case strings.HasSuffix(block.Type, "PRIVATE KEY"):
			keyPEM = pem.EncodeToMemory(block)
		}
	}

	if certPEM == nil {
		return tls.Certificate{}, &ConfigError{Reason: "certificate bundle has no PEM certificate block"}
	}
	if keyPEM == nil {
		return tls.Certificate{}, &ConfigError{Reason: "certificate bundle has no PEM private key block"}
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, &ConfigError{Reason: "certificate could not be parsed: " + err.Error()}
	}
	return cert, nil
}
