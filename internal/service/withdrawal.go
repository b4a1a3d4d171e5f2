package service

import (
	"time"

	"idosolink/internal/domain"
	"idosolink/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WithdrawalStore interface {
	CreateTx(tx *gorm.DB, w *models.Withdrawal) error
	GetByOrderIDForUpdateTx(tx *gorm.DB, orderID string) (*models.Withdrawal, error)
	UpdateTx(tx *gorm.DB, w *models.Withdrawal) error
}

// WithdrawalService pays out caregiver earnings to an IBAN. The amount is
// debited from the wallet when the request is created, so a pending
// withdrawal can never be double-spent; a failed payout credits it back as
// WITHDRAWAL_RETURN.
type WithdrawalService struct {
	tx          TxRunner
	withdrawals WithdrawalStore
	engine      *LedgerEngine
}

func NewWithdrawalService(tx TxRunner, withdrawals WithdrawalStore, engine *LedgerEngine) *WithdrawalService {
	return &WithdrawalService{tx: tx, withdrawals: withdrawals, engine: engine}
}

func (s *WithdrawalService) Request(userID uint, amountCents int64, iban string) (*models.Withdrawal, error) {
	if amountCents <= 0 || iban == "" {
		return nil, domain.ErrInvalidAmount
	}
	w := &models.Withdrawal{
		UserID:      userID,
		OrderID:     uuid.NewString(),
		AmountCents: amountCents,
		IBAN:        iban,
		Status:      domain.WithdrawalPending,
	}
	err := s.tx.InTx(func(tx *gorm.DB) error {
		if err := s.engine.WithdrawTx(tx, userID, amountCents); err != nil {
			return err
		}
		return s.withdrawals.CreateTx(tx, w)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Settle applies the payout provider's verdict. Repeated webhooks for an
// already-settled order return ErrAlreadyProcessed.
func (s *WithdrawalService) Settle(orderID string, success bool, providerRef string) error {
	return s.tx.InTx(func(tx *gorm.DB) error {
		w, err := s.withdrawals.GetByOrderIDForUpdateTx(tx, orderID)
		if err != nil {
			return err
		}
		if w.Status != domain.WithdrawalPending {
			return domain.ErrAlreadyProcessed
		}
		if success {
			w.Status = domain.WithdrawalCompleted
			now := time.Now()
			w.CompletedAt = &now
		} else {
			w.Status = domain.WithdrawalFailed
			if err := s.engine.WithdrawReturnTx(tx, w.UserID, w.AmountCents); err != nil {
				return err
			}
		}
		w.ProviderRef = providerRef
		return s.withdrawals.UpdateTx(tx, w)
	})
}
