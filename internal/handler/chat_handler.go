package handler

import (
	"net/http"

	"idosolink/internal/domain"
	"idosolink/internal/middleware"
	"idosolink/internal/repository"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chats     *repository.ChatRepository
	contracts *repository.ContractRepository
}

func NewChatHandler(chats *repository.ChatRepository, contracts *repository.ContractRepository) *ChatHandler {
	return &ChatHandler{chats: chats, contracts: contracts}
}

// History returns persisted messages for a contract's chat session. Only the
// contract's parties (or an admin) may read it.
func (h *ChatHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)
	contract, err := h.contracts.GetByID(paramID(c, "id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if userID != contract.FamilyID && userID != contract.CaregiverID && middleware.GetRole(c) != domain.RoleAdmin {
		respondErr(c, domain.ErrForbidden)
		return
	}
	session, err := h.chats.GetOrCreateSession(contract.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	limit, offset := pagination(c)
	messages, err := h.chats.ListMessages(session.ID, limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "messages": messages})
}
