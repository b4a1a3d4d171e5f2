package handler

import (
	"net/http"
	"strconv"
	"time"

	"idosolink/internal/domain"
	"idosolink/internal/middleware"
	"idosolink/internal/repository"
	"idosolink/internal/service"

	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	svc          *service.ContractService
	contractRepo *repository.ContractRepository
	userRepo     *repository.UserRepository
	notifSvc     *service.NotificationService
}

func NewContractHandler(svc *service.ContractService, contractRepo *repository.ContractRepository, userRepo *repository.UserRepository, notifSvc *service.NotificationService) *ContractHandler {
	return &ContractHandler{svc: svc, contractRepo: contractRepo, userRepo: userRepo, notifSvc: notifSvc}
}

type CreateContractRequest struct {
	CaregiverID     uint     `json:"caregiver_id" binding:"required"`
	HourlyRateCents int64    `json:"hourly_rate_cents" binding:"required"`
	TotalHours      int      `json:"total_hours" binding:"required"`
	ServiceTypes    []string `json:"service_types"`
	StartDate       string   `json:"start_date" binding:"required"` // ISO date
	EndDate         string   `json:"end_date"`
}

func (h *ContractHandler) Create(c *gin.Context) {
	familyID := middleware.GetUserID(c)
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date format (use YYYY-MM-DD)"})
		return
	}
	var end *time.Time
	if req.EndDate != "" {
		e, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date format (use YYYY-MM-DD)"})
			return
		}
		end = &e
	}
	caregiver, err := h.userRepo.GetByID(req.CaregiverID)
	if err != nil || !caregiver.IsCaregiver() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "caregiver not found"})
		return
	}
	contract, err := h.svc.Create(service.CreateContractInput{
		FamilyID:        familyID,
		CaregiverID:     req.CaregiverID,
		HourlyRateCents: req.HourlyRateCents,
		TotalHours:      req.TotalHours,
		ServiceTypes:    req.ServiceTypes,
		StartDate:       start,
		EndDate:         end,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	if family, err := h.userRepo.GetByID(familyID); err == nil {
		_ = h.notifSvc.NotifyContractProposed(caregiver.ID, contract.ID, family.Name)
	}
	c.JSON(http.StatusCreated, gin.H{"contract": contract})
}

func (h *ContractHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	contracts, err := h.contractRepo.ListByPartyID(userID, c.Query("status"), limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

func (h *ContractHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := paramID(c, "id")
	contract, err := h.contractRepo.GetByID(id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !contract.IsParty(userID) && middleware.GetRole(c) != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// Accept records the calling party's consent. When both parties have
// accepted, the contract moves to PENDING_PAYMENT and the family can pay.
func (h *ContractHandler) Accept(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := paramID(c, "id")
	res, err := h.svc.RecordAcceptance(id, userID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondErr(c, err)
		return
	}
	if contract, err := h.contractRepo.GetByID(id); err == nil {
		other := contract.FamilyID
		if userID == contract.FamilyID {
			other = contract.CaregiverID
		}
		if u, err := h.userRepo.GetByID(userID); err == nil {
			_ = h.notifSvc.NotifyContractAccepted(other, id, u.Name)
		}
	}
	c.JSON(http.StatusOK, res)
}

func (h *ContractHandler) Cancel(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason required"})
		return
	}
	id := paramID(c, "id")
	if err := h.svc.Cancel(id, userID, false, req.Reason, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondErr(c, err)
		return
	}
	if contract, err := h.contractRepo.GetByID(id); err == nil {
		_ = h.notifSvc.NotifyContractCancelled(contract.FamilyID, id, req.Reason)
		_ = h.notifSvc.NotifyContractCancelled(contract.CaregiverID, id, req.Reason)
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *ContractHandler) Complete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := paramID(c, "id")
	if err := h.svc.Complete(id, userID, false); err != nil {
		respondErr(c, err)
		return
	}
	if contract, err := h.contractRepo.GetByID(id); err == nil {
		_ = h.notifSvc.NotifyContractCompleted(contract.FamilyID, id)
		_ = h.notifSvc.NotifyContractCompleted(contract.CaregiverID, id)
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (h *ContractHandler) Dispute(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason required"})
		return
	}
	id := paramID(c, "id")
	if err := h.svc.Dispute(id, userID, false, req.Reason); err != nil {
		respondErr(c, err)
		return
	}
	if contract, err := h.contractRepo.GetByID(id); err == nil {
		_ = h.notifSvc.NotifyDisputeOpened(contract.FamilyID, id)
		_ = h.notifSvc.NotifyDisputeOpened(contract.CaregiverID, id)
	}
	c.JSON(http.StatusOK, gin.H{"status": "disputed"})
}

func (h *ContractHandler) Tip(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Tokens int64 `json:"tokens" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := paramID(c, "id")
	if err := h.svc.Tip(id, userID, req.Tokens); err != nil {
		respondErr(c, err)
		return
	}
	if contract, err := h.contractRepo.GetByID(id); err == nil {
		_ = h.notifSvc.NotifyTokensGranted(contract.CaregiverID, req.Tokens)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func paramID(c *gin.Context, name string) uint {
	id, _ := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(id)
}
