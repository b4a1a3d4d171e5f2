package repository

import (
	"idosolink/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository is append-only: no update or delete methods exist.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) AppendTx(tx *gorm.DB, e *models.LedgerEntry) error {
	return tx.Create(e).Error
}

func (r *LedgerRepository) ListByUserID(userID uint, limit, offset int) ([]models.LedgerEntry, error) {
	var list []models.LedgerEntry
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// SumTokens returns the signed token sum for a user, the reconciliation
// counterpart of Wallet.TokenBalance.
func (r *LedgerRepository) SumTokens(userID uint) (int64, error) {
	var out struct{ Total int64 }
	err := r.db.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(CASE WHEN direction = 'DEBIT' THEN -amount_tokens ELSE amount_tokens END), 0) as total").
		Where("user_id = ?", userID).Scan(&out).Error
	return out.Total, err
}
