package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// EasypayProvider creates hosted card checkouts via the Easypay single
// payment API. Easypay confirms asynchronously through a signed webhook;
// VerifyPayment is only used as a fallback poll.
type EasypayProvider struct {
	BaseURL       string
	AccountID     string
	APIKey        string
	WebhookSecret string
	client        *http.Client
}

func NewEasypayProvider(baseURL, accountID, apiKey, webhookSecret string) *EasypayProvider {
	if baseURL == "" {
		baseURL = "https://api.prod.easypay.pt/2.0"
	}
	return &EasypayProvider{
		BaseURL:       baseURL,
		AccountID:     accountID,
		APIKey:        apiKey,
		WebhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

type easypayCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type easypayCheckoutReq struct {
	Key            string          `json:"key"` // our order ID
	Type           string          `json:"type"`
	Method         string          `json:"method"`
	Value          float64         `json:"value"`
	Currency       string          `json:"currency"`
	Customer       easypayCustomer `json:"customer"`
	Descriptive    string          `json:"descriptive,omitempty"`
	ExpirationTime string          `json:"expiration_time,omitempty"`
}

type easypayCheckoutResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Method struct {
		URL string `json:"url"`
	} `json:"method"`
}

func (p *EasypayProvider) InitiatePayment(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	expiresAt := time.Now().Add(req.ExpiresIn)
	payload := easypayCheckoutReq{
		Key:      req.OrderID,
		Type:     "sale",
		Method:   "cc",
		Value:    float64(req.AmountCents) / 100,
		Currency: req.Currency,
		Customer: easypayCustomer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
		},
		Descriptive:    req.Description,
		ExpirationTime: expiresAt.UTC().Format("2006-01-02 15:04"),
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/single", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("AccountId", p.AccountID)
	httpReq.Header.Set("ApiKey", p.APIKey)
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("easypay checkout: %d %s", resp.StatusCode, string(respBody))
	}
	var out easypayCheckoutResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	log.Printf("[Easypay] checkout created order_id=%s easypay_id=%s", req.OrderID, out.ID)
	return &CheckoutResponse{
		Reference:   req.OrderID,
		Status:      "PENDING",
		CheckoutURL: out.Method.URL,
		ExpiresAt:   expiresAt,
	}, nil
}

type easypayStatusResp struct {
	PaymentStatus string `json:"payment_status"`
}

func (p *EasypayProvider) VerifyPayment(ctx context.Context, reference string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/single/"+reference, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("AccountId", p.AccountID)
	req.Header.Set("ApiKey", p.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("easypay status: %d %s", resp.StatusCode, string(respBody))
	}
	var out easypayStatusResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return false, err
	}
	return out.PaymentStatus == "paid", nil
}

// RefundPayment pushes a captured amount back to the payer's card.
func (p *EasypayProvider) RefundPayment(ctx context.Context, reference string, amountCents int64) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"value": float64(amountCents) / 100,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/single/"+reference+"/refund", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("AccountId", p.AccountID)
	req.Header.Set("ApiKey", p.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("easypay refund: %d %s", resp.StatusCode, string(respBody))
	}
	log.Printf("[Easypay] refund issued ref=%s value=%.2f", reference, float64(amountCents)/100)
	return nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 hex signature Easypay sends
// in the X-Easypay-Signature header over the raw request body.
func (p *EasypayProvider) VerifyWebhookSignature(body []byte, signature string) bool {
	if p.WebhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(p.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
