package handler

import (
	"net/http"

	"idosolink/internal/middleware"
	"idosolink/internal/repository"
	"idosolink/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	svc         *service.PaymentService
	paymentRepo *repository.PaymentRepository
	userRepo    *repository.UserRepository
}

func NewPaymentHandler(svc *service.PaymentService, paymentRepo *repository.PaymentRepository, userRepo *repository.UserRepository) *PaymentHandler {
	return &PaymentHandler{svc: svc, paymentRepo: paymentRepo, userRepo: userRepo}
}

type CheckoutRequest struct {
	Purpose     string `json:"purpose" binding:"required,oneof=ACTIVATION TOKEN_PURCHASE CONTRACT_FEE"`
	ContractID  *uint  `json:"contract_id"`
	AmountCents int64  `json:"amount_cents"` // TOKEN_PURCHASE only; other purposes derive it server-side
}

func (h *PaymentHandler) Checkout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	res, err := h.svc.CreateCheckout(c.Request.Context(), userID, req.Purpose, req.ContractID, req.AmountCents, u.Email, u.Name)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"payment":      res.Payment,
		"checkout_url": res.CheckoutURL,
	})
}

func (h *PaymentHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	payments, err := h.paymentRepo.ListByUserID(userID, limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// Status polls the provider for a pending payment whose webhook has not
// arrived yet and returns the current record.
func (h *PaymentHandler) Status(c *gin.Context) {
	userID := middleware.GetUserID(c)
	ref := c.Param("ref")
	p, err := h.paymentRepo.GetByProviderRef(ref)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if p.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	p, err = h.svc.Reconcile(c.Request.Context(), ref)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}
