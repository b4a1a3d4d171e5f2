package repository

import (
	"errors"
	"time"

	"idosolink/internal/domain"
	"idosolink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByProviderRef(ref string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("provider_ref = ?", ref).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) Update(p *models.Payment) error {
	return r.db.Save(p).Error
}

// GetByProviderRefForUpdateTx locks the payment row; the webhook dedupe check
// (status already COMPLETED?) must happen under this lock.
func (r *PaymentRepository) GetByProviderRefForUpdateTx(tx *gorm.DB, ref string) (*models.Payment, error) {
	var p models.Payment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("provider_ref = ?", ref).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetForUpdateTx(tx *gorm.DB, id uint) (*models.Payment, error) {
	var p models.Payment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) UpdateTx(tx *gorm.DB, p *models.Payment) error {
	return tx.Save(p).Error
}

// ExpireStale marks overdue pending payments EXPIRED. A later provider
// confirmation can still complete them; this only stops them counting as
// open checkouts.
func (r *PaymentRepository) ExpireStale(now time.Time) (int64, error) {
	res := r.db.Model(&models.Payment{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", domain.PaymentPending, now).
		Update("status", domain.PaymentExpired)
	return res.RowsAffected, res.Error
}

func (r *PaymentRepository) ListByUserID(userID uint, limit, offset int) ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
