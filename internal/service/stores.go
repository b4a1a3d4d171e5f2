package service

import (
	"time"

	"idosolink/internal/models"

	"gorm.io/gorm"
)

// Minimal store interfaces the money-moving services depend on. The gorm
// repositories satisfy them; tests substitute in-memory implementations.

type TxRunner interface {
	InTx(fn func(tx *gorm.DB) error) error
}

type WalletStore interface {
	CreditTx(tx *gorm.DB, userID uint, tokens, cents int64) (newTokenBalance int64, err error)
	DebitTx(tx *gorm.DB, userID uint, tokens, cents int64) (newTokenBalance int64, err error)
}

type LedgerStore interface {
	AppendTx(tx *gorm.DB, e *models.LedgerEntry) error
}

type EscrowStore interface {
	CreateTx(tx *gorm.DB, e *models.EscrowPayment) error
	GetForUpdateTx(tx *gorm.DB, id uint) (*models.EscrowPayment, error)
	ByContractTx(tx *gorm.DB, contractID uint) (*models.EscrowPayment, error)
	TransitionTx(tx *gorm.DB, id uint, to string, extra map[string]interface{}) (bool, error)
}

type PaymentStore interface {
	GetForUpdateTx(tx *gorm.DB, id uint) (*models.Payment, error)
	GetByProviderRefForUpdateTx(tx *gorm.DB, ref string) (*models.Payment, error)
	UpdateTx(tx *gorm.DB, p *models.Payment) error
}

type ContractStore interface {
	Create(c *models.Contract) error
	GetForUpdateTx(tx *gorm.DB, id uint) (*models.Contract, error)
	SetStatusTx(tx *gorm.DB, id uint, from, to string, extra map[string]interface{}) (bool, error)
	GetAcceptanceForUpdateTx(tx *gorm.DB, contractID uint) (*models.ContractAcceptance, error)
	SaveAcceptanceTx(tx *gorm.DB, a *models.ContractAcceptance) error
	TouchDisputeTx(tx *gorm.DB, id uint, reason string, at time.Time) error
}

type UserStore interface {
	GetTx(tx *gorm.DB, id uint) (*models.User, error)
	ActivateTx(tx *gorm.DB, id uint) (bool, error)
}

type AuditStore interface {
	CreateTx(tx *gorm.DB, a *models.AdminAction) error
}

type SettingStore interface {
	GetInt64(key string, def int64) int64
}
