package efi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultChargeExpiry is how long a PIX charge stays payable, in seconds.
const DefaultChargeExpiry = 3600

const maxResponseBytes = 1 << 20

// Client speaks the Efí PIX charge-creation protocol. Tokens are short-lived
// and requested fresh per operation group; nothing is cached across calls.
type Client struct {
	cfg     Config
	http    *http.Client
	baseURL string
}

// Charge is the provider-side payment request mirrored locally via its txid.
type Charge struct {
	TxID       string
	LocationID int
}

// PaymentCode is the scannable payment material for a charge.
type PaymentCode struct {
	CopyPaste   string
	QRCodeImage string // base64 data URI
}

// NewClient validates the configuration and assembles the transport.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, http: httpClient, baseURL: cfg.BaseURL()}, nil
}

// SetBaseURL overrides the provider host. Test hook.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Authenticate exchanges the client credentials for a short-lived bearer
// token. A provider rejection is an AuthError, distinct from transport
// failures which surface as NetworkError.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	body := bytes.NewBufferString(`{"grant_type":"client_credentials"}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", body)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &NetworkError{Op: "authenticate", Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.AccessToken == "" {
		return "", &ProviderError{Op: "authenticate", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return out.AccessToken, nil
}

// CreateCharge submits a charge and returns the provider transaction id.
// The txid is generated client-side and confirmed by the provider, so a
// retry after a transport failure creates at most one charge per txid.
// No txid is ever reported unless the provider accepted the charge.
func (c *Client) CreateCharge(ctx context.Context, amountBRL float64, description string, expirySeconds int) (*Charge, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	if expirySeconds <= 0 {
		expirySeconds = DefaultChargeExpiry
	}
	txid := NewTxID()

	payload := map[string]interface{}{
		"calendario": map[string]int{"expiracao": expirySeconds},
		// Amounts must reach the provider as a two-decimal string, never a
		// float literal, or the charge is rejected for rounding drift.
		"valor":              map[string]string{"original": FormatAmount(amountBRL)},
		"chave":              c.cfg.PixKey,
		"solicitacaoPagador": description,
	}
	raw, status, err := c.doJSON(ctx, http.MethodPut, "/v2/cob/"+txid, token, payload)
	if err != nil {
		return nil, &NetworkError{Op: "create charge", Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &ProviderError{Op: "create charge", StatusCode: status, Body: string(raw)}
	}

	var out struct {
		TxID string `json:"txid"`
		Loc  struct {
			ID int `json:"id"`
		} `json:"loc"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ProviderError{Op: "create charge", StatusCode: status, Body: string(raw)}
	}
	if out.TxID == "" {
		out.TxID = txid
	}
	return &Charge{TxID: out.TxID, LocationID: out.Loc.ID}, nil
}

// FetchPaymentCode retrieves the copy-paste string and a renderable code
// image for an existing charge. Second round trip: a failure here leaves the
// provider-side charge intact, so callers retry code retrieval without
// re-creating the charge.
func (c *Client) FetchPaymentCode(ctx context.Context, locationID int) (*PaymentCode, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	raw, status, err := c.doJSON(ctx, http.MethodGet, "/v2/loc/"+strconv.Itoa(locationID)+"/qrcode", token, nil)
	if err != nil {
		return nil, &NetworkError{Op: "fetch payment code", Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &ProviderError{Op: "fetch payment code", StatusCode: status, Body: string(raw)}
	}

	var out struct {
		QRCode       string `json:"qrcode"`
		ImagemQRCode string `json:"imagemQrcode"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.QRCode == "" {
		return nil, &ProviderError{Op: "fetch payment code", StatusCode: status, Body: string(raw)}
	}

	image := out.ImagemQRCode
	if image == "" {
		image, err = renderQRCode(out.QRCode)
		if err != nil {
			return nil, err
		}
	}
	return &PaymentCode{CopyPaste: out.QRCode, QRCodeImage: image}, nil
}

// TestConnection authenticates and reports the result. No side effects;
// used by the settings screen to validate credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Authenticate(ctx)
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, payload interface{}) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, err
	}
	return raw, resp.StatusCode, nil
}

// FormatAmount serializes a BRL amount with exactly two decimal places.
// 199.90 -> "199.90", never "199.9" or a binary-float-rounded value.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// NewTxID generates a provider-acceptable transaction id (26-35 alphanumeric
// characters): a uuid with the hyphens stripped.
func NewTxID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func renderQRCode(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("efi: failed to render QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
