package models

import (
	"time"

	"gorm.io/gorm"
)

// KycVerification tracks one Didit verification session for a caregiver.
type KycVerification struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	SessionID  string         `gorm:"size:128;uniqueIndex;not null" json:"session_id"`
	Status     string         `gorm:"size:20;not null;index" json:"status"` // PENDING, VERIFIED, DECLINED
	Confidence float64        `json:"confidence"`
	VerifiedAt *time.Time     `json:"verified_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (KycVerification) TableName() string {
	return "kyc_verifications"
}
