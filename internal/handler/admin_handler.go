package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"idosolink/internal/domain"
	"idosolink/internal/middleware"
	"idosolink/internal/models"
	"idosolink/internal/repository"
	"idosolink/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminRepo     *repository.AdminRepository
	settingRepo   *repository.SettingRepository
	actionRepo    *repository.AdminActionRepository
	caregiverRepo *repository.CaregiverRepository
	contractSvc   *service.ContractService
	paymentSvc    *service.PaymentService
	engine        *service.LedgerEngine
	notify        *service.NotificationService
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	settingRepo *repository.SettingRepository,
	actionRepo *repository.AdminActionRepository,
	caregiverRepo *repository.CaregiverRepository,
	contractSvc *service.ContractService,
	paymentSvc *service.PaymentService,
	engine *service.LedgerEngine,
	notify *service.NotificationService,
) *AdminHandler {
	return &AdminHandler{
		adminRepo:     adminRepo,
		settingRepo:   settingRepo,
		actionRepo:    actionRepo,
		caregiverRepo: caregiverRepo,
		contractSvc:   contractSvc,
		paymentSvc:    paymentSvc,
		engine:        engine,
		notify:        notify,
	}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	search := c.Query("search")
	role := c.Query("role")
	page, limit := pageParams(c)
	users, total, err := h.adminRepo.ListUsers(search, role, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total, "page": page, "limit": limit})
}

// GetUser handles GET /admin/users/:id.
func (h *AdminHandler) GetUser(c *gin.Context) {
	u, err := h.adminRepo.GetUserByID(paramID(c, "id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// SetUserStatus handles PATCH /admin/users/:id/status — suspend or reinstate.
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,oneof=ACTIVE SUSPENDED"`
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := paramID(c, "id")
	u, err := h.adminRepo.GetUserByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if u.Role == domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot change an admin account"})
		return
	}
	before := u.Status
	if err := h.adminRepo.UpdateUser(id, map[string]interface{}{"status": req.Status}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.audit(c, "user_status_changed", "user", id,
		map[string]interface{}{"status": before},
		map[string]interface{}{"status": req.Status}, req.Reason)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// VerifyCaregiver handles POST /admin/caregivers/:id/verify — manual override
// of the KYC flow.
func (h *AdminHandler) VerifyCaregiver(c *gin.Context) {
	var req struct {
		Verified *bool  `json:"verified" binding:"required"`
		Reason   string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := paramID(c, "id")
	p, err := h.caregiverRepo.GetByUserID(userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.caregiverRepo.SetVerified(userID, *req.Verified); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.audit(c, "caregiver_verification_set", "caregiver_profile", userID,
		map[string]interface{}{"verified": p.Verified},
		map[string]interface{}{"verified": *req.Verified}, req.Reason)
	if *req.Verified {
		_ = h.notify.NotifyKycVerified(userID)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListContracts handles GET /admin/contracts.
func (h *AdminHandler) ListContracts(c *gin.Context) {
	status := c.Query("status")
	page, limit := pageParams(c)
	list, total, err := h.adminRepo.ListContracts(status, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list contracts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ListPayments handles GET /admin/payments.
func (h *AdminHandler) ListPayments(c *gin.Context) {
	status := c.Query("status")
	page, limit := pageParams(c)
	list, total, err := h.adminRepo.ListPayments(status, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ListLedger handles GET /admin/ledger.
func (h *AdminHandler) ListLedger(c *gin.Context) {
	reason := c.Query("reason")
	page, limit := pageParams(c)
	list, total, err := h.adminRepo.ListLedger(reason, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ListWithdrawals handles GET /admin/withdrawals.
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status := c.Query("status")
	page, limit := pageParams(c)
	list, total, err := h.adminRepo.ListWithdrawals(status, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ListReviews handles GET /admin/reviews.
func (h *AdminHandler) ListReviews(c *gin.Context) {
	var caregiverID uint
	if v := c.Query("caregiver_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid caregiver_id"})
			return
		}
		caregiverID = uint(id)
	}
	page, limit := pageParams(c)
	list, total, err := h.adminRepo.ListReviews(caregiverID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ListActions handles GET /admin/actions — the audit trail, newest first.
func (h *AdminHandler) ListActions(c *gin.Context) {
	entityType := c.Query("entity_type")
	page, limit := pageParams(c)
	list, total, err := h.actionRepo.List(entityType, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list actions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingRepo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// UpdateSettings handles PUT /admin/settings. Each changed key gets its own
// audit row so the trail shows old and new values per setting.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req struct {
		Settings map[string]string `json:"settings" binding:"required"`
		Reason   string            `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for k, v := range req.Settings {
		old, _ := h.settingRepo.Get(k)
		if err := h.settingRepo.Set(k, v); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update setting: " + k})
			return
		}
		h.auditSetting(c, k, old, v, req.Reason)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ResolveDispute handles POST /admin/contracts/:id/resolve.
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	var req struct {
		Decision     string `json:"decision" binding:"required,oneof=favor_family favor_caregiver split"`
		SplitPercent int    `json:"split_percent"`
		Reason       string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contractID := paramID(c, "id")
	adminID := middleware.GetUserID(c)
	res, err := h.contractSvc.Resolve(contractID, adminID, req.Decision, req.SplitPercent,
		req.Reason, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolution": res})
}

// ReleaseEscrow handles POST /admin/escrows/:id/release — manual split of a
// held escrow outside the dispute flow.
func (h *AdminHandler) ReleaseEscrow(c *gin.Context) {
	var req struct {
		FamilyCents    int64  `json:"family_cents"`
		CaregiverCents int64  `json:"caregiver_cents"`
		PlatformCents  int64  `json:"platform_cents"`
		Reason         string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	escrowID := paramID(c, "id")
	adminID := middleware.GetUserID(c)
	split := service.EscrowSplit{
		FamilyCents:    req.FamilyCents,
		CaregiverCents: req.CaregiverCents,
		PlatformCents:  req.PlatformCents,
	}
	if err := h.contractSvc.ReleaseEscrow(escrowID, adminID, split, req.Reason, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CancelContract handles POST /admin/contracts/:id/cancel.
func (h *AdminHandler) CancelContract(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contractID := paramID(c, "id")
	adminID := middleware.GetUserID(c)
	if err := h.contractSvc.Cancel(contractID, adminID, true, req.Reason, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CompleteContract handles POST /admin/contracts/:id/complete.
func (h *AdminHandler) CompleteContract(c *gin.Context) {
	contractID := paramID(c, "id")
	adminID := middleware.GetUserID(c)
	if err := h.contractSvc.Complete(contractID, adminID, true); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RefundPayment handles POST /admin/payments/:id/refund. amount_cents is
// optional and defaults to the full captured amount.
func (h *AdminHandler) RefundPayment(c *gin.Context) {
	var req struct {
		AmountCents int64  `json:"amount_cents" binding:"gte=0"`
		Reason      string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	paymentID := paramID(c, "id")
	adminID := middleware.GetUserID(c)
	if err := h.paymentSvc.Refund(c.Request.Context(), adminID, paymentID, req.AmountCents, req.Reason, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AdjustTokens handles POST /admin/users/:id/adjust-tokens.
func (h *AdminHandler) AdjustTokens(c *gin.Context) {
	var req struct {
		Direction string `json:"direction" binding:"required,oneof=CREDIT DEBIT"`
		Tokens    int64  `json:"tokens" binding:"required,gt=0"`
		Reason    string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := paramID(c, "id")
	adminID := middleware.GetUserID(c)
	balance, err := h.engine.AdjustTokens(adminID, userID, req.Direction, req.Tokens,
		req.Reason, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token_balance": balance})
}

func (h *AdminHandler) audit(c *gin.Context, action, entityType string, entityID uint, before, after map[string]interface{}, reason string) {
	beforeJSON, _ := json.Marshal(before)
	afterJSON, _ := json.Marshal(after)
	_ = h.actionRepo.Create(&models.AdminAction{
		AdminID:    middleware.GetUserID(c),
		Action:     action,
		EntityType: entityType,
		EntityID:   strconv.FormatUint(uint64(entityID), 10),
		BeforeJSON: string(beforeJSON),
		AfterJSON:  string(afterJSON),
		Reason:     reason,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}

func (h *AdminHandler) auditSetting(c *gin.Context, key, before, after, reason string) {
	_ = h.actionRepo.Create(&models.AdminAction{
		AdminID:    middleware.GetUserID(c),
		Action:     "setting_changed",
		EntityType: "system_setting",
		EntityID:   key,
		BeforeJSON: before,
		AfterJSON:  after,
		Reason:     reason,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}
