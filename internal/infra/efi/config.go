package efi

import (
	"strconv"
	"time"

	appconfig "vitrine-app/config"
)

const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"

	productionBaseURL = "https://pix.api.efipay.com.br"
	sandboxBaseURL    = "https://pix-h.api.efipay.com.br"

	defaultTimeout = 15 * time.Second
)

// Config carries everything needed to talk to the Efí PIX API. Built once
// from the environment and passed in explicitly; never re-read per call.
type Config struct {
	Environment  string // "sandbox" | "production"
	ClientID     string
	ClientSecret string
	PixKey       string // receiving key charges are credited to

	// Optional base64-encoded PEM bundle holding the mTLS client
	// certificate and private key. Required in production.
	CertificateB64 string

	Timeout time.Duration
}

// FromAppConfig assembles the provider config from the loaded environment.
func FromAppConfig() Config {
	return Config{
		Environment:    appconfig.EFI_ENVIRONMENT,
		ClientID:       appconfig.EFI_CLIENT_ID,
		ClientSecret:   appconfig.EFI_CLIENT_SECRET,
		PixKey:         appconfig.EFI_PIX_KEY,
		CertificateB64: appconfig.EFI_CERTIFICATE,
		Timeout:        defaultTimeout,
	}
}

// Validate fails closed on anything that would leave the transport
// unauthenticated. Production without a client certificate is a
// configuration error, not a silent HTTP fallback.
func (c Config) Validate() error {
	switch c.Environment {
	case EnvSandbox, EnvProduction:
	default:
		return &ConfigError{Reason: "EFI_ENVIRONMENT must be \"sandbox\" or \"production\", got " + strconv.Quote(c.Environment)}
	}
	if c.ClientID == "" {
		return &ConfigError{Reason: "missing client id (EFI_CLIENT_ID)"}
	}
	if c.ClientSecret == "" {
		return &ConfigError{Reason: "missing client secret (EFI_CLIENT_SECRET)"}
	}
	if c.PixKey == "" {
		return &ConfigError{Reason: "missing PIX receiving key (EFI_PIX_KEY)"}
	}
	if c.Environment == EnvProduction && c.CertificateB64 == "" {
		return &ConfigError{Reason: "production PIX API requires a client certificate (EFI_CERTIFICATE)"}
	}
	return nil
}

// BaseURL returns the API host for the configured environment.
func (c Config) BaseURL() string {
	if c.Environment == EnvProduction {
		return productionBaseURL
	}
	return sandboxBaseURL
}
