package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"idosolink/internal/domain"
	"idosolink/internal/middleware"
	"idosolink/internal/service"
	"idosolink/pkg/kyc"

	"github.com/gin-gonic/gin"
)

type KycHandler struct {
	svc      *service.KycService
	provider kyc.Provider
}

func NewKycHandler(svc *service.KycService, provider kyc.Provider) *KycHandler {
	return &KycHandler{svc: svc, provider: provider}
}

// Start opens a Didit verification session for the caregiver.
func (h *KycHandler) Start(c *gin.Context) {
	userID := middleware.GetUserID(c)
	v, url, err := h.svc.Start(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"verification": v, "url": url})
}

func (h *KycHandler) Status(c *gin.Context) {
	userID := middleware.GetUserID(c)
	v, err := h.svc.Status(userID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"verification": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verification": v})
}

// Webhook receives the Didit decision. vendor_data carries the user ID we
// sent at session creation; decisions are final per session.
func (h *KycHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !h.provider.VerifyWebhookSignature(body, c.GetHeader("X-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var payload struct {
		SessionID  string  `json:"session_id"`
		Status     string  `json:"status"` // Approved | Declined
		VendorData string  `json:"vendor_data"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	status := domain.KycDeclined
	if payload.Status == "Approved" || payload.Status == "approved" {
		status = domain.KycVerified
	}
	if err := h.svc.ApplyResult(payload.SessionID, status, payload.Confidence, payload.Reason); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyProcessed):
			// replay; decision already applied
		default:
			log.Printf("[kyc] webhook failed session=%s vendor=%s: %v", payload.SessionID, payload.VendorData, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
