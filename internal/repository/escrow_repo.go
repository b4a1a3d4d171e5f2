package repository

import (
	"errors"

	"idosolink/internal/domain"
	"idosolink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EscrowRepository struct {
	db *gorm.DB
}

func NewEscrowRepository(db *gorm.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

func (r *EscrowRepository) CreateTx(tx *gorm.DB, e *models.EscrowPayment) error {
	return tx.Create(e).Error
}

func (r *EscrowRepository) GetByID(id uint) (*models.EscrowPayment, error) {
	var e models.EscrowPayment
	err := r.db.First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EscrowRepository) GetForUpdateTx(tx *gorm.DB, id uint) (*models.EscrowPayment, error) {
	var e models.EscrowPayment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// HeldByContractTx returns the contract's escrow row if one exists in any
// state; callers decide whether a non-terminal row blocks a new capture.
func (r *EscrowRepository) ByContractTx(tx *gorm.DB, contractID uint) (*models.EscrowPayment, error) {
	var e models.EscrowPayment
	err := tx.Where("contract_id = ?", contractID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// TransitionTx moves the escrow out of HELD exactly once. The conditional
// UPDATE means that of two concurrent releases only one sees RowsAffected > 0.
func (r *EscrowRepository) TransitionTx(tx *gorm.DB, id uint, to string, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&models.EscrowPayment{}).
		Where("id = ? AND status = ?", id, domain.EscrowHeld).Updates(updates)
	return res.RowsAffected > 0, res.Error
}
