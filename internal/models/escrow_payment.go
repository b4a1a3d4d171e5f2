package models

import (
	"time"

	"gorm.io/gorm"
)

// EscrowPayment holds captured contract funds until released or cancelled.
// Invariant: TotalCents = CaregiverCents + PlatformFeeCents at release, and a
// row leaves HELD at most once.
type EscrowPayment struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ContractID       uint           `gorm:"uniqueIndex;not null" json:"contract_id"`
	PaymentID        *uint          `gorm:"index" json:"payment_id"`
	TotalCents       int64          `gorm:"not null" json:"total_cents"`
	CaregiverCents   int64          `gorm:"not null" json:"caregiver_cents"`
	PlatformFeeCents int64          `gorm:"not null" json:"platform_fee_cents"`
	Status           string         `gorm:"size:20;not null;index" json:"status"` // HELD, RELEASED, CANCELLED
	ReleasedAt       *time.Time     `json:"released_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Contract Contract `gorm:"foreignKey:ContractID" json:"-"`
	Payment  *Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
}

func (EscrowPayment) TableName() string {
	return "escrow_payments"
}
