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
	"idosolink/internal/middleware"
	"idosolink/internal/repository"
	"idosolink/internal/service"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	svc    *service.WithdrawalService
	repo   *repository.WithdrawalRepository
	notify *service.NotificationService
	cfg    *config.Config
}

func NewWithdrawalHandler(svc *service.WithdrawalService, repo *repository.WithdrawalRepository, notify *service.NotificationService, cfg *config.Config) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc, repo: repo, notify: notify, cfg: cfg}
}

type withdrawalRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	IBAN        string `json:"iban" binding:"required"`
}

func (h *WithdrawalHandler) Request(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)
	w, err := h.svc.Request(userID, req.AmountCents, req.IBAN)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"withdrawal": w})
}

func (h *WithdrawalHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	list, err := h.repo.ListByUserID(userID, limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

// Webhook receives payout settlement callbacks from Easypay. Settlement is
// idempotent, so duplicate deliveries are acknowledged without side effects.
func (h *WithdrawalHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.Payment.WebhookSecret != "" {
		sig := c.GetHeader("X-Easypay-Signature")
		mac := hmac.New(sha256.New, []byte(h.cfg.Payment.WebhookSecret))
		mac.Write(body)
		if !hmac.Equal([]byte(sig), []byte(hex.EncodeToString(mac.Sum(nil)))) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}
	var payload struct {
		OrderID   string `json:"order_id"`
		Status    string `json:"status"`
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id required"})
		return
	}
	success := payload.Status == "paid" || payload.Status == "success"
	err = h.svc.Settle(payload.OrderID, success, payload.Reference)
	switch {
	case err == nil:
		if w, werr := h.repo.GetByOrderID(payload.OrderID); werr == nil {
			_ = h.notify.NotifyWithdrawalSettled(w.UserID, w.AmountCents, success)
		}
	case errors.Is(err, domain.ErrAlreadyProcessed):
		// replayed webhook; already settled
	case errors.Is(err, domain.ErrNotFound):
		// unknown order; acknowledge so the provider stops retrying
	default:
		log.Printf("[webhook] withdrawal settle failed order=%s: %v", payload.OrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
