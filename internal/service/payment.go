package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"idosolink/config"
	"idosolink/internal/domain"
	"idosolink/internal/models"
	"idosolink/pkg/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRecordStore extends PaymentStore with the non-transactional
// operations checkout creation needs.
type PaymentRecordStore interface {
	PaymentStore
	Create(p *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByProviderRef(ref string) (*models.Payment, error)
}

// PaymentService creates provider checkouts and applies confirmed payments.
// Confirmation is keyed on the provider reference, so replayed webhooks hit
// the same row and short-circuit on its status.
type PaymentService struct {
	tx        TxRunner
	payments  PaymentRecordStore
	users     UserStore
	contracts ContractStore
	engine    *LedgerEngine
	contract  *ContractService
	settings  SettingStore
	provider  payment.Provider
	cfg       config.PaymentConfig
}

func NewPaymentService(tx TxRunner, payments PaymentRecordStore, users UserStore, contracts ContractStore, engine *LedgerEngine, contract *ContractService, settings SettingStore, provider payment.Provider, cfg config.PaymentConfig) *PaymentService {
	return &PaymentService{
		tx:        tx,
		payments:  payments,
		users:     users,
		contracts: contracts,
		engine:    engine,
		contract:  contract,
		settings:  settings,
		provider:  provider,
		cfg:       cfg,
	}
}

type CheckoutResult struct {
	Payment     *models.Payment `json:"payment"`
	CheckoutURL string          `json:"checkout_url"`
}

// CreateCheckout opens a PENDING payment and a hosted checkout for it. The
// amount is never taken from the client: ACTIVATION reads the configured
// fee, CONTRACT_FEE reads the contract total, and TOKEN_PURCHASE validates
// the requested amount against the token rate.
func (s *PaymentService) CreateCheckout(ctx context.Context, userID uint, purpose string, contractID *uint, amountCents int64, email, name string) (*CheckoutResult, error) {
	var (
		amount  int64
		cID     *uint
		descrip string
	)
	switch purpose {
	case domain.PurposeActivation:
		amount = s.settings.GetInt64(domain.SettingActivationFeeCents, 2500)
		descrip = "Account activation"
	case domain.PurposeTokenPurchase:
		rate := s.settings.GetInt64(domain.SettingTokenRateCents, 100)
		if amountCents <= 0 || rate <= 0 || amountCents%rate != 0 {
			return nil, domain.ErrInvalidAmount
		}
		amount = amountCents
		descrip = "Token purchase"
	case domain.PurposeContractFee:
		if contractID == nil {
			return nil, domain.ErrInvalidAmount
		}
		var c *models.Contract
		err := s.tx.InTx(func(tx *gorm.DB) error {
			var err error
			c, err = s.contracts.GetForUpdateTx(tx, *contractID)
			return err
		})
		if err != nil {
			return nil, err
		}
		if c.FamilyID != userID {
			return nil, domain.ErrForbidden
		}
		if c.Status != domain.ContractPendingPayment {
			return nil, domain.ErrInvalidStateTransition
		}
		amount = c.TotalCents
		cID = contractID
		descrip = fmt.Sprintf("Care contract #%d", c.ID)
	default:
		return nil, domain.ErrInvalidAmount
	}

	orderID := uuid.NewString()
	expiresAt := time.Now().Add(s.cfg.PaymentExpiry)
	p := &models.Payment{
		UserID:         userID,
		Purpose:        purpose,
		AmountCents:    amount,
		Currency:       "EUR",
		Provider:       "easypay",
		ProviderRef:    orderID,
		Status:         domain.PaymentPending,
		IdempotencyKey: uuid.NewString(),
		ContractID:     cID,
		ExpiresAt:      &expiresAt,
	}
	if err := s.payments.Create(p); err != nil {
		return nil, err
	}
	resp, err := s.provider.InitiatePayment(ctx, payment.CheckoutRequest{
		UserID:         userID,
		AmountCents:    amount,
		Currency:       "EUR",
		IdempotencyKey: p.IdempotencyKey,
		Description:    descrip,
		OrderID:        orderID,
		CustomerEmail:  email,
		CustomerName:   name,
		CallbackURL:    s.cfg.WebhookBaseURL + "/api/v1/webhooks/payment",
		ExpiresIn:      s.cfg.PaymentExpiry,
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Payment: p, CheckoutURL: resp.CheckoutURL}, nil
}

// Confirm applies a provider outcome to the payment identified by its
// provider reference. A payment already COMPLETED or REFUNDED returns
// ErrAlreadyProcessed; the whole confirmation is one transaction, so a
// failure while granting tokens or capturing escrow leaves the payment
// PENDING for the webhook retry.
func (s *PaymentService) Confirm(providerRef string, success bool) (*models.Payment, error) {
	var out *models.Payment
	err := s.tx.InTx(func(tx *gorm.DB) error {
		p, err := s.payments.GetByProviderRefForUpdateTx(tx, providerRef)
		if err != nil {
			return err
		}
		switch p.Status {
		case domain.PaymentCompleted, domain.PaymentRefunded, domain.PaymentReview:
			return domain.ErrAlreadyProcessed
		case domain.PaymentPending, domain.PaymentExpired, domain.PaymentFailed:
			// expired/failed payments can still complete if the provider says so
		default:
			return domain.ErrInvalidStateTransition
		}
		if !success {
			if p.Status == domain.PaymentPending {
				p.Status = domain.PaymentFailed
				if err := s.payments.UpdateTx(tx, p); err != nil {
					return err
				}
			}
			out = p
			return nil
		}
		switch p.Purpose {
		case domain.PurposeActivation:
			if _, err := s.users.ActivateTx(tx, p.UserID); err != nil {
				return err
			}
			if err := s.engine.ActivationBonusTx(tx, p.UserID, &p.ID); err != nil {
				return err
			}
		case domain.PurposeTokenPurchase:
			tokens, err := s.engine.PurchaseTx(tx, p.UserID, p.ID, p.AmountCents)
			if err != nil {
				return err
			}
			p.TokensGranted = tokens
		case domain.PurposeContractFee:
			if p.ContractID == nil {
				return domain.ErrInvalidStateTransition
			}
			if err := s.contract.CaptureTx(tx, *p.ContractID, p); err != nil {
				// The contract moved on (e.g. cancelled) while the
				// provider still collected the money. Failing here would
				// make the provider retry forever, so park the payment
				// for an admin to refund.
				if errors.Is(err, domain.ErrInvalidStateTransition) || errors.Is(err, domain.ErrAlreadyProcessed) {
					p.Status = domain.PaymentReview
					if uerr := s.payments.UpdateTx(tx, p); uerr != nil {
						return uerr
					}
					out = p
					return nil
				}
				return err
			}
		}
		now := time.Now()
		p.Status = domain.PaymentCompleted
		p.CompletedAt = &now
		if err := s.payments.UpdateTx(tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Refund records the refund in the engine (clawback, audit, REFUNDED status)
// and then asks the provider to return the money. The provider call is
// best-effort: the books are already correct, and a transport failure is
// retried out of band.
func (s *PaymentService) Refund(ctx context.Context, adminID, paymentID uint, amountCents int64, reason, ip, userAgent string) error {
	if err := s.engine.Refund(adminID, paymentID, amountCents, reason, ip, userAgent); err != nil {
		return err
	}
	r, ok := s.provider.(payment.Refunder)
	if !ok {
		return nil
	}
	p, err := s.payments.GetByID(paymentID)
	if err != nil {
		return nil
	}
	if err := r.RefundPayment(ctx, p.ProviderRef, p.RefundedCents); err != nil {
		log.Printf("[payment] provider refund failed ref=%s: %v", p.ProviderRef, err)
	}
	return nil
}

// Reconcile polls the provider for a still-pending payment, for checkouts
// whose webhook never arrived.
func (s *PaymentService) Reconcile(ctx context.Context, providerRef string) (*models.Payment, error) {
	p, err := s.payments.GetByProviderRef(providerRef)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentPending {
		return p, nil
	}
	paid, err := s.provider.VerifyPayment(ctx, providerRef)
	if err != nil {
		return nil, err
	}
	if !paid {
		return p, nil
	}
	return s.Confirm(providerRef, true)
}
