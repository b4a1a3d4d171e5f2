package repository

import (
	"errors"

	"idosolink/internal/models"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(rev *models.Review) error {
	return r.db.Create(rev).Error
}

func (r *ReviewRepository) GetByContractID(contractID uint) (*models.Review, error) {
	var rev models.Review
	err := r.db.Where("contract_id = ?", contractID).First(&rev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *ReviewRepository) ListByCaregiverID(caregiverID uint, limit, offset int) ([]models.Review, error) {
	var list []models.Review
	err := r.db.Where("caregiver_id = ?", caregiverID).Preload("Family").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
