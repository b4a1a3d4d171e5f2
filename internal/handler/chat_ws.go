package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"idosolink/config"
	"idosolink/internal/auth"
	"idosolink/internal/domain"
	"idosolink/internal/models"
	"idosolink/internal/repository"
	"idosolink/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	chatWriteWait  = 10 * time.Second
	chatPongWait   = 60 * time.Second
	chatPingPeriod = (chatPongWait * 9) / 10
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UpgradeChatWS upgrades to WebSocket for contract chat; query: token,
// contract_id. The user must be a party of the contract, and chat opens once
// the contract is past acceptance (both sides have agreed to work together).
func UpgradeChatWS(cfg *config.JWTConfig, chatHub *ws.ChatHub, contractRepo *repository.ContractRepository, chatRepo *repository.ChatRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		contractIDStr := c.Query("contract_id")
		if token == "" || contractIDStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and contract_id required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		var contractID uint
		if _, err := fmt.Sscanf(contractIDStr, "%d", &contractID); err != nil || contractID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_id"})
			return
		}
		contract, err := contractRepo.GetByID(contractID)
		if err != nil {
			respondErr(c, err)
			return
		}
		if claims.UserID != contract.FamilyID && claims.UserID != contract.CaregiverID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not part of this contract"})
			return
		}
		switch contract.Status {
		case domain.ContractPendingPayment, domain.ContractActive, domain.ContractDisputed:
		default:
			c.JSON(http.StatusForbidden, gin.H{"error": "chat not open for this contract"})
			return
		}
		session, err := chatRepo.GetOrCreateSession(contractID)
		if err != nil {
			respondErr(c, err)
			return
		}
		conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		client := &ws.Client{
			UserID: claims.UserID,
			Role:   claims.Role,
			Send:   make(chan []byte, 256),
		}
		room := chatHub.GetOrCreateRoom(contractID, contract.FamilyID, contract.CaregiverID)
		room.Join(client)
		defer func() {
			room.Leave(client)
			client.Close()
		}()
		conn.SetReadDeadline(time.Now().Add(chatPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(chatPongWait))
			return nil
		})
		go func() {
			ticker := time.NewTicker(chatPingPeriod)
			defer ticker.Stop()
			for {
				select {
				case msg, ok := <-client.Send:
					if !ok {
						return
					}
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var msg struct {
				Type     string `json:"type"`
				Content  string `json:"content"`
				MediaURL string `json:"media_url"`
			}
			if json.Unmarshal(raw, &msg) != nil || msg.Type != "message" {
				continue
			}
			cm := &models.ChatMessage{
				SessionID: session.ID,
				SenderID:  claims.UserID,
				Content:   msg.Content,
				MediaURL:  msg.MediaURL,
			}
			if err := chatRepo.CreateMessage(cm); err != nil {
				continue
			}
			payload := map[string]interface{}{
				"type":        "message",
				"id":          cm.ID,
				"sender_id":   cm.SenderID,
				"sender_role": client.Role,
				"content":     cm.Content,
				"media_url":   cm.MediaURL,
				"created_at":  cm.CreatedAt,
			}
			room.Broadcast(client, payload)
		}
	}
}
