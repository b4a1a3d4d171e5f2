package models

import "time"

// AdminAction is the immutable audit row written for every privileged
// mutation. Before/after snapshots are serialized JSON so an investigation
// can diff them. No update or delete path exists for this table.
type AdminAction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AdminID    uint      `gorm:"not null;index" json:"admin_id"`
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	EntityType string    `gorm:"size:100;index" json:"entity_type"`
	EntityID   string    `gorm:"size:100;index" json:"entity_id"`
	BeforeJSON string    `gorm:"type:text" json:"before"`
	AfterJSON  string    `gorm:"type:text" json:"after"`
	Reason     string    `gorm:"size:512;not null" json:"reason"`
	IP         string    `gorm:"size:45" json:"ip"`
	UserAgent  string    `gorm:"size:512" json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`

	Admin User `gorm:"foreignKey:AdminID" json:"-"`
}

func (AdminAction) TableName() string {
	return "admin_actions"
}
