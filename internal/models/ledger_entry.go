package models

import "time"

// LedgerEntry is the append-only record of token credits/debits. Rows are
// never updated or deleted; balances are reconstructable by summation.
// No soft-delete column on purpose.
type LedgerEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Direction    string    `gorm:"size:10;not null;index" json:"direction"` // CREDIT | DEBIT
	Reason       string    `gorm:"size:30;not null;index" json:"reason"`
	AmountTokens int64     `gorm:"not null" json:"amount_tokens"`
	AmountCents  int64     `gorm:"not null" json:"amount_cents"`
	ContractID   *uint     `gorm:"index" json:"contract_id"`
	PaymentID    *uint     `gorm:"index" json:"payment_id"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"` // token balance snapshot after applying this entry
	CreatedAt    time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Signed returns the entry's token delta with direction applied.
func (e *LedgerEntry) Signed() int64 {
	if e.Direction == "DEBIT" {
		return -e.AmountTokens
	}
	return e.AmountTokens
}
