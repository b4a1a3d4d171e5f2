package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatSession is one conversation per contract between its two parties.
type ChatSession struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ContractID uint           `gorm:"uniqueIndex;not null" json:"contract_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Contract Contract `gorm:"foreignKey:ContractID" json:"-"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

type ChatMessage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID uint           `gorm:"not null;index" json:"session_id"`
	SenderID  uint           `gorm:"not null;index" json:"sender_id"`
	Content   string         `gorm:"type:text" json:"content"`
	MediaURL  string         `gorm:"size:512" json:"media_url"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Session ChatSession `gorm:"foreignKey:SessionID" json:"-"`
	Sender  User        `gorm:"foreignKey:SenderID" json:"-"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
