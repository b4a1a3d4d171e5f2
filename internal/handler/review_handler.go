package handler

import (
	"net/http"

	"idosolink/internal/domain"
	"idosolink/internal/middleware"
	"idosolink/internal/models"
	"idosolink/internal/repository"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	repo          *repository.ReviewRepository
	contractRepo  *repository.ContractRepository
	caregiverRepo *repository.CaregiverRepository
}

func NewReviewHandler(repo *repository.ReviewRepository, contractRepo *repository.ContractRepository, caregiverRepo *repository.CaregiverRepository) *ReviewHandler {
	return &ReviewHandler{repo: repo, contractRepo: contractRepo, caregiverRepo: caregiverRepo}
}

type CreateReviewRequest struct {
	ContractID uint   `json:"contract_id" binding:"required"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	Comment    string `json:"comment" binding:"max=2000"`
}

// Create lets the family review a completed contract, once.
func (h *ReviewHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contract, err := h.contractRepo.GetByID(req.ContractID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if contract.FamilyID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if contract.Status != domain.ContractCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "contract not completed"})
		return
	}
	if existing, _ := h.repo.GetByContractID(req.ContractID); existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "contract already reviewed"})
		return
	}
	review := &models.Review{
		ContractID:  req.ContractID,
		FamilyID:    userID,
		CaregiverID: contract.CaregiverID,
		Rating:      req.Rating,
		Comment:     req.Comment,
	}
	if err := h.repo.Create(review); err != nil {
		respondErr(c, err)
		return
	}
	_ = h.caregiverRepo.ApplyRating(contract.CaregiverID, req.Rating)
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

func (h *ReviewHandler) ListForCaregiver(c *gin.Context) {
	limit, offset := pagination(c)
	reviews, err := h.repo.ListByCaregiverID(paramID(c, "id"), limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
