package handler

import (
	"net/http"
	"strconv"
	"strings"

	"idosolink/internal/domain"
	"idosolink/internal/middleware"
	"idosolink/internal/models"
	"idosolink/internal/repository"

	"github.com/gin-gonic/gin"
)

type CaregiverHandler struct {
	repo       *repository.CaregiverRepository
	reviewRepo *repository.ReviewRepository
}

func NewCaregiverHandler(repo *repository.CaregiverRepository, reviewRepo *repository.ReviewRepository) *CaregiverHandler {
	return &CaregiverHandler{repo: repo, reviewRepo: reviewRepo}
}

type UpsertProfileRequest struct {
	Bio             string   `json:"bio"`
	ServiceTypes    []string `json:"service_types" binding:"required,min=1"`
	HourlyRateCents int64    `json:"hourly_rate_cents" binding:"required,min=1"`
	YearsExperience int      `json:"years_experience"`
	City            string   `json:"city" binding:"required"`
	PhotoURL        string   `json:"photo_url"`
}

// UpsertProfile creates or updates the caller's caregiver profile. The
// Verified flag is owned by the KYC flow and never writable here.
func (h *CaregiverHandler) UpsertProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, st := range req.ServiceTypes {
		if !validServiceType(st) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown service type: " + st})
			return
		}
	}
	existing, _ := h.repo.GetByUserID(userID)
	p := &models.CaregiverProfile{
		UserID:          userID,
		Bio:             req.Bio,
		ServiceTypes:    strings.Join(req.ServiceTypes, ","),
		HourlyRateCents: req.HourlyRateCents,
		YearsExperience: req.YearsExperience,
		City:            req.City,
		PhotoURL:        req.PhotoURL,
	}
	if existing != nil {
		p.Verified = existing.Verified
		p.RatingAvg = existing.RatingAvg
		p.RatingCount = existing.RatingCount
	}
	if err := h.repo.Upsert(p); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (h *CaregiverHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	p, err := h.repo.GetByUserID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// Search lists verified caregivers for families, filterable by city,
// service type and maximum hourly rate.
func (h *CaregiverHandler) Search(c *gin.Context) {
	page, limit := pageParams(c)
	maxRate, _ := strconv.ParseInt(c.Query("max_rate_cents"), 10, 64)
	list, total, err := h.repo.Search(c.Query("city"), c.Query("service_type"), maxRate, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"caregivers": list, "total": total, "page": page})
}

func (h *CaregiverHandler) Get(c *gin.Context) {
	p, err := h.repo.GetByID(paramID(c, "id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "caregiver not found"})
		return
	}
	limit, offset := pagination(c)
	reviews, _ := h.reviewRepo.ListByCaregiverID(p.UserID, limit, offset)
	c.JSON(http.StatusOK, gin.H{"caregiver": p, "reviews": reviews})
}

func validServiceType(st string) bool {
	for _, v := range domain.CaregiverServiceTypes {
		if v == st {
			return true
		}
	}
	return false
}
