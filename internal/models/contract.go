package models

import (
	"time"

	"idosolink/internal/domain"

	"gorm.io/gorm"
)

type Contract struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	FamilyID        uint           `gorm:"not null;index" json:"family_id"`
	CaregiverID     uint           `gorm:"not null;index" json:"caregiver_id"`
	Status          string         `gorm:"size:25;not null;index" json:"status"`
	HourlyRateCents int64          `gorm:"not null" json:"hourly_rate_cents"`
	TotalHours      int            `gorm:"not null" json:"total_hours"`
	TotalCents      int64          `gorm:"not null" json:"total_cents"`
	ServiceTypes    string         `gorm:"size:512" json:"service_types"` // comma-separated subset of domain.CaregiverServiceTypes
	StartDate       time.Time      `json:"start_date"`
	EndDate         *time.Time     `json:"end_date"`
	CancelReason    string         `gorm:"size:512" json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time     `json:"cancelled_at"`
	DisputeReason   string         `gorm:"size:512" json:"dispute_reason,omitempty"`
	DisputedAt      *time.Time     `json:"disputed_at"`
	CompletedAt     *time.Time     `json:"completed_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Family     User                `gorm:"foreignKey:FamilyID" json:"-"`
	Caregiver  User                `gorm:"foreignKey:CaregiverID" json:"-"`
	Acceptance *ContractAcceptance `gorm:"foreignKey:ContractID" json:"acceptance,omitempty"`
	Escrow     *EscrowPayment      `gorm:"foreignKey:ContractID" json:"escrow,omitempty"`
}

func (Contract) TableName() string {
	return "contracts"
}

func (c *Contract) IsParty(userID uint) bool {
	return c.FamilyID == userID || c.CaregiverID == userID
}

func (c *Contract) IsTerminal() bool {
	return c.Status == domain.ContractCompleted || c.Status == domain.ContractCancelled
}

// ContractAcceptance holds both parties' consent evidence for one contract.
// Each side is an independent timestamp+IP+user-agent triple; the contract may
// not enter PENDING_PAYMENT until both are populated.
type ContractAcceptance struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	ContractID          uint       `gorm:"uniqueIndex;not null" json:"contract_id"`
	FamilyAcceptedAt    *time.Time `json:"family_accepted_at"`
	FamilyIP            string     `gorm:"size:45" json:"family_ip"`
	FamilyUserAgent     string     `gorm:"size:512" json:"family_user_agent"`
	CaregiverAcceptedAt *time.Time `json:"caregiver_accepted_at"`
	CaregiverIP         string     `gorm:"size:45" json:"caregiver_ip"`
	CaregiverUserAgent  string     `gorm:"size:512" json:"caregiver_user_agent"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	Contract Contract `gorm:"foreignKey:ContractID" json:"-"`
}

func (ContractAcceptance) TableName() string {
	return "contract_acceptances"
}

func (a *ContractAcceptance) BothAccepted() bool {
	return a.FamilyAcceptedAt != nil && a.CaregiverAcceptedAt != nil
}
