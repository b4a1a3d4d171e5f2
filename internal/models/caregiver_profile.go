package models

import (
	"time"

	"gorm.io/gorm"
)

type CaregiverProfile struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio             string         `gorm:"type:text" json:"bio"`
	ServiceTypes    string         `gorm:"size:512" json:"service_types"` // comma-separated
	HourlyRateCents int64          `gorm:"not null;default:0" json:"hourly_rate_cents"`
	YearsExperience int            `json:"years_experience"`
	City            string         `gorm:"size:128;index" json:"city"`
	Verified        bool           `gorm:"default:false;index" json:"verified"` // set by the KYC callback
	PhotoURL        string         `gorm:"size:512" json:"photo_url"`
	RatingAvg       float64        `gorm:"default:0" json:"rating_avg"`
	RatingCount     int            `gorm:"default:0" json:"rating_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (CaregiverProfile) TableName() string {
	return "caregiver_profiles"
}
