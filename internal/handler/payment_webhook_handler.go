package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"idosolink/config"
	"idosolink/internal/domain"
	"idosolink/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentWebhookHandler struct {
	svc      *service.PaymentService
	notifSvc *service.NotificationService
	cfg      *config.Config
}

func NewPaymentWebhookHandler(svc *service.PaymentService, notifSvc *service.NotificationService, cfg *config.Config) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{svc: svc, notifSvc: notifSvc, cfg: cfg}
}

// Handle processes Easypay payment confirmations. The signature covers the
// raw body; confirmation itself is idempotent, so replays are acknowledged
// without re-applying.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.Payment.WebhookSecret != "" {
		sig := c.GetHeader("X-Easypay-Signature")
		if !h.verifySignature(body, sig) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}
	var payload struct {
		Reference string `json:"reference"` // our provider_ref (Easypay "key")
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference required"})
		return
	}
	success := payload.Status == "paid" || payload.Status == "success" || payload.Status == "COMPLETED"
	p, err := h.svc.Confirm(payload.Reference, success)
	switch {
	case err == nil:
		if success && p != nil && p.Status == domain.PaymentCompleted {
			_ = h.notifSvc.NotifyPaymentConfirmed(p.UserID, p.AmountCents, p.ProviderRef)
			if p.TokensGranted > 0 {
				_ = h.notifSvc.NotifyTokensGranted(p.UserID, p.TokensGranted)
			}
		}
	case errors.Is(err, domain.ErrAlreadyProcessed):
		// replayed webhook; already applied
	case errors.Is(err, domain.ErrNotFound):
		// unknown reference; acknowledge so the provider stops retrying
	default:
		log.Printf("[webhook] payment confirm failed ref=%s: %v", payload.Reference, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Payment.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
