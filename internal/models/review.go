package models

import (
	"time"

	"gorm.io/gorm"
)

// Review is left by the family after a contract completes; one per contract.
type Review struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ContractID  uint           `gorm:"uniqueIndex;not null" json:"contract_id"`
	FamilyID    uint           `gorm:"not null;index" json:"family_id"`
	CaregiverID uint           `gorm:"not null;index" json:"caregiver_id"`
	Rating      int            `gorm:"not null" json:"rating"` // 1..5
	Comment     string         `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Contract  Contract `gorm:"foreignKey:ContractID" json:"-"`
	Family    User     `gorm:"foreignKey:FamilyID" json:"-"`
	Caregiver User     `gorm:"foreignKey:CaregiverID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

type Favorite struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FamilyID    uint           `gorm:"not null;index:idx_fav_pair,unique" json:"family_id"`
	CaregiverID uint           `gorm:"not null;index:idx_fav_pair,unique" json:"caregiver_id"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Family    User `gorm:"foreignKey:FamilyID" json:"-"`
	Caregiver User `gorm:"foreignKey:CaregiverID" json:"-"`
}

func (Favorite) TableName() string {
	return "favorites"
}
