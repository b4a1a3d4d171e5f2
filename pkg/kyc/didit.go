// Package kyc wraps the Didit identity-verification API.
package kyc

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Session struct {
	SessionID string
	URL       string
}

type Provider interface {
	CreateSession(ctx context.Context, vendorData string) (*Session, error)
	VerifyWebhookSignature(body []byte, signature string) bool
}

type DiditProvider struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	client        *http.Client
}

func NewDiditProvider(baseURL, apiKey, webhookSecret string) *DiditProvider {
	if baseURL == "" {
		baseURL = "https://verification.didit.me/v1"
	}
	return &DiditProvider{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		WebhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

type diditSessionReq struct {
	VendorData string `json:"vendor_data"` // our user ID, echoed in the webhook
}

type diditSessionResp struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func (p *DiditProvider) CreateSession(ctx context.Context, vendorData string) (*Session, error) {
	body, _ := json.Marshal(diditSessionReq{VendorData: vendorData})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/session/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("didit session: %d %s", resp.StatusCode, string(respBody))
	}
	var out diditSessionResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &Session{SessionID: out.SessionID, URL: out.URL}, nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 hex signature Didit sends in
// the X-Signature header over the raw request body.
func (p *DiditProvider) VerifyWebhookSignature(body []byte, signature string) bool {
	if p.WebhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(p.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
