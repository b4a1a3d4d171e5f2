package repository

import (
	"errors"
	"time"

	"idosolink/internal/domain"
	"idosolink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create inserts the contract together with its empty acceptance row.
func (r *ContractRepository) Create(c *models.Contract) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Create(&models.ContractAcceptance{ContractID: c.ID}).Error
	})
}

func (r *ContractRepository) GetByID(id uint) (*models.Contract, error) {
	var c models.Contract
	err := r.db.Preload("Acceptance").Preload("Escrow").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetForUpdateTx locks the contract row; money-moving transitions start here
// so concurrent operations on the same contract serialize.
func (r *ContractRepository) GetForUpdateTx(tx *gorm.DB, id uint) (*models.Contract, error) {
	var c models.Contract
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SetStatusTx transitions from -> to, guarded: returns false when the row was
// not in the expected source state.
func (r *ContractRepository) SetStatusTx(tx *gorm.DB, id uint, from, to string, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&models.Contract{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *ContractRepository) GetAcceptanceForUpdateTx(tx *gorm.DB, contractID uint) (*models.ContractAcceptance, error) {
	var a models.ContractAcceptance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contract_id = ?", contractID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Acceptance rows are created with the contract; tolerate older rows.
		a = models.ContractAcceptance{ContractID: contractID}
		if err := tx.Create(&a).Error; err != nil {
			return nil, err
		}
		return &a, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ContractRepository) SaveAcceptanceTx(tx *gorm.DB, a *models.ContractAcceptance) error {
	return tx.Save(a).Error
}

func (r *ContractRepository) ListByPartyID(userID uint, status string, limit, offset int) ([]models.Contract, error) {
	q := r.db.Where("family_id = ? OR caregiver_id = ?", userID, userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.Contract
	err := q.Preload("Acceptance").Preload("Escrow").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *ContractRepository) CountActiveBetween(familyID, caregiverID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Contract{}).
		Where("family_id = ? AND caregiver_id = ? AND status NOT IN ?",
			familyID, caregiverID, []string{domain.ContractCompleted, domain.ContractCancelled}).
		Count(&c).Error
	return c, err
}

// TouchDisputeTx records dispute metadata alongside the status change.
func (r *ContractRepository) TouchDisputeTx(tx *gorm.DB, id uint, reason string, at time.Time) error {
	return tx.Model(&models.Contract{}).Where("id = ?", id).
		Updates(map[string]interface{}{"dispute_reason": reason, "disputed_at": at}).Error
}
