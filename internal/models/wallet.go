package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet is the denormalized current balance per user. TokenBalance must equal
// the signed sum of the user's ledger entries; every mutation happens in the
// same transaction as the ledger append.
type Wallet struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	TokenBalance int64          `gorm:"not null;default:0" json:"token_balance"`
	BalanceCents int64          `gorm:"not null;default:0" json:"balance_cents"`
	Currency     string         `gorm:"size:3;default:'EUR'" json:"currency"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}
