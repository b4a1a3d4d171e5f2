package repository

import (
	"idosolink/internal/models"

	"gorm.io/gorm"
)

type KycRepository struct {
	db *gorm.DB
}

func NewKycRepository(db *gorm.DB) *KycRepository {
	return &KycRepository{db: db}
}

func (r *KycRepository) Create(v *models.KycVerification) error {
	return r.db.Create(v).Error
}

func (r *KycRepository) GetBySessionID(sessionID string) (*models.KycVerification, error) {
	var v models.KycVerification
	err := r.db.Where("session_id = ?", sessionID).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *KycRepository) Update(v *models.KycVerification) error {
	return r.db.Save(v).Error
}

func (r *KycRepository) LatestByUserID(userID uint) (*models.KycVerification, error) {
	var v models.KycVerification
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}
