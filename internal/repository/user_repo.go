package repository

import (
	"idosolink/internal/domain"
	"idosolink/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.Preload("CaregiverProfile").First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var u models.User
	err := r.db.Where("google_id = ?", googleID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

func (r *UserRepository) GetTx(tx *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	if err := tx.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ActivateTx flips a PENDING user to ACTIVE. Returns false when the user was
// not PENDING, so webhook replays don't re-activate (or re-mint the bonus).
func (r *UserRepository) ActivateTx(tx *gorm.DB, id uint) (bool, error) {
	res := tx.Model(&models.User{}).
		Where("id = ? AND status = ?", id, domain.UserStatusPending).
		Updates(map[string]interface{}{"status": domain.UserStatusActive, "activated_at": tx.NowFunc()})
	return res.RowsAffected > 0, res.Error
}

// SetStatusTx updates status unconditionally (admin suspend/reactivate).
func (r *UserRepository) SetStatusTx(tx *gorm.DB, id uint, status string) error {
	return tx.Model(&models.User{}).Where("id = ?", id).Update("status", status).Error
}
