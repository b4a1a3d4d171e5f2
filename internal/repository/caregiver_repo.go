package repository

import (
	"errors"

	"idosolink/internal/models"

	"gorm.io/gorm"
)

type CaregiverRepository struct {
	db *gorm.DB
}

func NewCaregiverRepository(db *gorm.DB) *CaregiverRepository {
	return &CaregiverRepository{db: db}
}

func (r *CaregiverRepository) GetByUserID(userID uint) (*models.CaregiverProfile, error) {
	var p models.CaregiverProfile
	err := r.db.Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CaregiverRepository) GetByID(id uint) (*models.CaregiverProfile, error) {
	var p models.CaregiverProfile
	err := r.db.Preload("User").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CaregiverRepository) Upsert(p *models.CaregiverProfile) error {
	existing, err := r.GetByUserID(p.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(p).Error
	}
	if err != nil {
		return err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	return r.db.Save(p).Error
}

// IsVerified reports whether the caregiver passed identity verification.
// Missing profiles count as unverified.
func (r *CaregiverRepository) IsVerified(userID uint) (bool, error) {
	var p models.CaregiverProfile
	err := r.db.Select("verified").Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Verified, nil
}

func (r *CaregiverRepository) SetVerified(userID uint, verified bool) error {
	return r.db.Model(&models.CaregiverProfile{}).
		Where("user_id = ?", userID).Update("verified", verified).Error
}

// Search filters verified caregivers for the family-side browse page.
func (r *CaregiverRepository) Search(city, serviceType string, maxRateCents int64, page, limit int) ([]models.CaregiverProfile, int64, error) {
	q := r.db.Model(&models.CaregiverProfile{}).Where("verified = ?", true)
	if city != "" {
		q = q.Where("city LIKE ?", "%"+city+"%")
	}
	if serviceType != "" {
		q = q.Where("service_types LIKE ?", "%"+serviceType+"%")
	}
	if maxRateCents > 0 {
		q = q.Where("hourly_rate_cents <= ?", maxRateCents)
	}
	var total int64
	q.Count(&total)
	var list []models.CaregiverProfile
	err := q.Preload("User").Order("rating_avg DESC, rating_count DESC").
		Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ApplyRating folds a new review score into the cached average.
func (r *CaregiverRepository) ApplyRating(userID uint, rating int) error {
	p, err := r.GetByUserID(userID)
	if err != nil {
		return err
	}
	total := p.RatingAvg*float64(p.RatingCount) + float64(rating)
	p.RatingCount++
	p.RatingAvg = total / float64(p.RatingCount)
	return r.db.Model(p).Updates(map[string]interface{}{
		"rating_avg":   p.RatingAvg,
		"rating_count": p.RatingCount,
	}).Error
}
