package repository

import (
	"errors"

	"idosolink/internal/domain"
	"idosolink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetOrCreate(userID uint) (*models.Wallet, error) {
	w, err := r.GetByUserID(userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = &models.Wallet{UserID: userID, Currency: "EUR"}
	if err := r.db.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// getForUpdateTx locks the wallet row for the remainder of the transaction,
// creating it if the user has none yet.
func (r *WalletRepository) getForUpdateTx(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		w = models.Wallet{UserID: userID, Currency: "EUR"}
		if err := tx.Create(&w).Error; err != nil {
			return nil, err
		}
		return &w, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreditTx adds tokens and cents under a row lock and returns the new token
// balance for the ledger's BalanceAfter snapshot.
func (r *WalletRepository) CreditTx(tx *gorm.DB, userID uint, tokens, cents int64) (int64, error) {
	w, err := r.getForUpdateTx(tx, userID)
	if err != nil {
		return 0, err
	}
	w.TokenBalance += tokens
	w.BalanceCents += cents
	err = tx.Model(w).Updates(map[string]interface{}{
		"token_balance": w.TokenBalance,
		"balance_cents": w.BalanceCents,
	}).Error
	return w.TokenBalance, err
}

// DebitTx subtracts tokens and cents; fails with ErrInsufficientBalance
// instead of driving either balance negative.
func (r *WalletRepository) DebitTx(tx *gorm.DB, userID uint, tokens, cents int64) (int64, error) {
	w, err := r.getForUpdateTx(tx, userID)
	if err != nil {
		return 0, err
	}
	if w.TokenBalance < tokens || w.BalanceCents < cents {
		return 0, domain.ErrInsufficientBalance
	}
	w.TokenBalance -= tokens
	w.BalanceCents -= cents
	err = tx.Model(w).Updates(map[string]interface{}{
		"token_balance": w.TokenBalance,
		"balance_cents": w.BalanceCents,
	}).Error
	return w.TokenBalance, err
}
