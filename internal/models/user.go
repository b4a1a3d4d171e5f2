package models

import (
	"time"

	"idosolink/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:128;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"`   // FAMILY | CAREGIVER | ADMIN
	Status       string         `gorm:"size:20;not null;index" json:"status"` // PENDING, ACTIVE, SUSPENDED
	Phone        string         `gorm:"size:20" json:"phone"`
	GoogleID     *string        `gorm:"uniqueIndex;size:255" json:"-"` // nil for email signups (avoids duplicate '' on unique index)
	AvatarURL    string         `gorm:"size:512" json:"avatar_url"`
	ActivatedAt  *time.Time     `json:"activated_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	CaregiverProfile *CaregiverProfile `gorm:"foreignKey:UserID" json:"caregiver_profile,omitempty"`
	Wallet           *Wallet           `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
}

func (u *User) IsFamily() bool    { return u.Role == domain.RoleFamily }
func (u *User) IsCaregiver() bool { return u.Role == domain.RoleCaregiver }
func (u *User) IsAdmin() bool     { return u.Role == domain.RoleAdmin }
func (u *User) IsActive() bool    { return u.Status == domain.UserStatusActive }
