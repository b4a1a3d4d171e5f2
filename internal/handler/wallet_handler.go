package handler

import (
	"net/http"
	"strconv"

	"idosolink/internal/middleware"
	"idosolink/internal/repository"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	walletRepo *repository.WalletRepository
	ledgerRepo *repository.LedgerRepository
}

func NewWalletHandler(walletRepo *repository.WalletRepository, ledgerRepo *repository.LedgerRepository) *WalletHandler {
	return &WalletHandler{walletRepo: walletRepo, ledgerRepo: ledgerRepo}
}

func (h *WalletHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	w, err := h.walletRepo.GetOrCreate(userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": w})
}

// History returns the user's ledger, newest first.
func (h *WalletHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	entries, err := h.ledgerRepo.ListByUserID(userID, limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// pagination reads limit/offset query params with sane bounds.
func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// pageParams reads page/limit query params for page-numbered admin lists.
func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}
