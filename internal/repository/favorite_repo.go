package repository

import (
	"idosolink/internal/models"

	"gorm.io/gorm"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Add(familyID, caregiverID uint) error {
	return r.db.Create(&models.Favorite{FamilyID: familyID, CaregiverID: caregiverID}).Error
}

func (r *FavoriteRepository) Remove(familyID, caregiverID uint) error {
	return r.db.Where("family_id = ? AND caregiver_id = ?", familyID, caregiverID).Delete(&models.Favorite{}).Error
}

func (r *FavoriteRepository) IsFavorite(familyID, caregiverID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.Favorite{}).Where("family_id = ? AND caregiver_id = ?", familyID, caregiverID).Count(&c).Error
	return c > 0, err
}

func (r *FavoriteRepository) ListByFamilyID(familyID uint, limit, offset int) ([]models.Favorite, error) {
	var list []models.Favorite
	err := r.db.Where("family_id = ?", familyID).Preload("Caregiver").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
