package repository

import (
	"idosolink/internal/models"

	"gorm.io/gorm"
)

// AdminActionRepository is append-only, like the ledger.
type AdminActionRepository struct {
	db *gorm.DB
}

func NewAdminActionRepository(db *gorm.DB) *AdminActionRepository {
	return &AdminActionRepository{db: db}
}

func (r *AdminActionRepository) Create(a *models.AdminAction) error {
	return r.db.Create(a).Error
}

func (r *AdminActionRepository) CreateTx(tx *gorm.DB, a *models.AdminAction) error {
	return tx.Create(a).Error
}

func (r *AdminActionRepository) List(entityType string, page, limit int) ([]models.AdminAction, int64, error) {
	q := r.db.Model(&models.AdminAction{})
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	var total int64
	q.Count(&total)
	var list []models.AdminAction
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}
