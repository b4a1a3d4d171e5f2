package repository

import (
	"idosolink/internal/domain"
	"idosolink/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers         int64 `json:"total_users"`
	TotalFamilies      int64 `json:"total_families"`
	TotalCaregivers    int64 `json:"total_caregivers"`
	VerifiedCaregivers int64 `json:"verified_caregivers"`
	ActiveContracts    int64 `json:"active_contracts"`
	DisputedContracts  int64 `json:"disputed_contracts"`
	HeldEscrowCents    int64 `json:"held_escrow_cents"`
	TotalRevenueCents  int64 `json:"total_revenue_cents"`
	PlatformFeeCents   int64 `json:"platform_fee_cents"`
	TokensOutstanding  int64 `json:"tokens_outstanding"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	r.db.Model(&models.User{}).Count(&s.TotalUsers)
	r.db.Model(&models.User{}).Where("role = ?", domain.RoleFamily).Count(&s.TotalFamilies)
	r.db.Model(&models.User{}).Where("role = ?", domain.RoleCaregiver).Count(&s.TotalCaregivers)
	r.db.Model(&models.CaregiverProfile{}).Where("verified = ?", true).Count(&s.VerifiedCaregivers)
	r.db.Model(&models.Contract{}).Where("status = ?", domain.ContractActive).Count(&s.ActiveContracts)
	r.db.Model(&models.Contract{}).Where("status = ?", domain.ContractDisputed).Count(&s.DisputedContracts)

	var held struct{ Total int64 }
	r.db.Model(&models.EscrowPayment{}).Select("COALESCE(SUM(total_cents), 0) as total").
		Where("status = ?", domain.EscrowHeld).Scan(&held)
	s.HeldEscrowCents = held.Total

	var rev struct{ Total int64 }
	r.db.Model(&models.Payment{}).Select("COALESCE(SUM(amount_cents), 0) as total").
		Where("status = ?", domain.PaymentCompleted).Scan(&rev)
	s.TotalRevenueCents = rev.Total

	var fee struct{ Total int64 }
	r.db.Model(&models.LedgerEntry{}).Select("COALESCE(SUM(amount_cents), 0) as total").
		Where("reason = ?", domain.ReasonPlatformFee).Scan(&fee)
	s.PlatformFeeCents = fee.Total

	var tokens struct{ Total int64 }
	r.db.Model(&models.Wallet{}).Select("COALESCE(SUM(token_balance), 0) as total").Scan(&tokens)
	s.TokensOutstanding = tokens.Total

	r.db.Model(&models.Withdrawal{}).Where("status = ?", domain.WithdrawalPending).Count(&s.PendingWithdrawals)
	return &s, nil
}

// ListUsers returns users with search, role filter, and pagination.
func (r *AdminRepository) ListUsers(search, role string, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		q = q.Where("name LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var total int64
	q.Count(&total)
	var users []models.User
	err := q.Preload("CaregiverProfile").Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}

func (r *AdminRepository) GetUserByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.Preload("CaregiverProfile").Preload("Wallet").First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *AdminRepository) UpdateUser(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *AdminRepository) ListContracts(status string, page, limit int) ([]models.Contract, int64, error) {
	q := r.db.Model(&models.Contract{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Contract
	err := q.Preload("Acceptance").Preload("Escrow").Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *AdminRepository) ListPayments(status string, page, limit int) ([]models.Payment, int64, error) {
	q := r.db.Model(&models.Payment{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Payment
	err := q.Preload("User").Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *AdminRepository) ListLedger(reason string, page, limit int) ([]models.LedgerEntry, int64, error) {
	q := r.db.Model(&models.LedgerEntry{})
	if reason != "" {
		q = q.Where("reason = ?", reason)
	}
	var total int64
	q.Count(&total)
	var list []models.LedgerEntry
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *AdminRepository) ListReviews(caregiverID uint, page, limit int) ([]models.Review, int64, error) {
	q := r.db.Model(&models.Review{})
	if caregiverID != 0 {
		q = q.Where("caregiver_id = ?", caregiverID)
	}
	var total int64
	q.Count(&total)
	var list []models.Review
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *AdminRepository) ListWithdrawals(status string, page, limit int) ([]models.Withdrawal, int64, error) {
	q := r.db.Model(&models.Withdrawal{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Withdrawal
	err := q.Preload("User").Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}
