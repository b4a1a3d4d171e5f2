package handler

import (
	"net/http"

	"idosolink/internal/middleware"
	"idosolink/internal/repository"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	userRepo   *repository.UserRepository
	walletRepo *repository.WalletRepository
	kycRepo    *repository.KycRepository
}

func NewMeHandler(userRepo *repository.UserRepository, walletRepo *repository.WalletRepository, kycRepo *repository.KycRepository) *MeHandler {
	return &MeHandler{userRepo: userRepo, walletRepo: walletRepo, kycRepo: kycRepo}
}

func (h *MeHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	wallet, _ := h.walletRepo.GetOrCreate(userID)
	out := gin.H{"user": u, "wallet": wallet}
	if kyc, err := h.kycRepo.LatestByUserID(userID); err == nil {
		out["kyc"] = kyc
	}
	c.JSON(http.StatusOK, out)
}

func (h *MeHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Name      string `json:"name"`
		Phone     string `json:"phone"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}
	if req.AvatarURL != "" {
		u.AvatarURL = req.AvatarURL
	}
	if err := h.userRepo.Update(u); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
