package repository

import (
	"errors"

	"idosolink/internal/models"

	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) GetOrCreateSession(contractID uint) (*models.ChatSession, error) {
	var s models.ChatSession
	err := r.db.Where("contract_id = ?", contractID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = models.ChatSession{ContractID: contractID}
		if err := r.db.Create(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ChatRepository) CreateMessage(m *models.ChatMessage) error {
	return r.db.Create(m).Error
}

func (r *ChatRepository) ListMessages(sessionID uint, limit, offset int) ([]models.ChatMessage, error) {
	var list []models.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
