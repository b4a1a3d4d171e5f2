package service

import (
	"encoding/json"
	"fmt"
	"time"

	"idosolink/internal/domain"
	"idosolink/internal/models"

	"gorm.io/gorm"
)

// LedgerEngine moves money between the family, caregiver and platform reserve
// accounts while keeping wallet balances and the ledger in permanent
// agreement. Every public method is all-or-nothing: contract status, escrow
// row, ledger entries and wallet balances commit together or not at all.
type LedgerEngine struct {
	tx       TxRunner
	wallets  WalletStore
	ledger   LedgerStore
	escrows  EscrowStore
	payments PaymentStore
	audit    AuditStore
	settings SettingStore

	// PlatformUserID is the seeded platform reserve account; platform fees
	// are credited to its wallet.
	PlatformUserID uint
}

func NewLedgerEngine(tx TxRunner, wallets WalletStore, ledger LedgerStore, escrows EscrowStore, payments PaymentStore, audit AuditStore, settings SettingStore, platformUserID uint) *LedgerEngine {
	return &LedgerEngine{
		tx:             tx,
		wallets:        wallets,
		ledger:         ledger,
		escrows:        escrows,
		payments:       payments,
		audit:          audit,
		settings:       settings,
		PlatformUserID: platformUserID,
	}
}

// movement is one wallet-affecting leg of an operation. Tokens and
// WalletCents mutate the wallet; AmountCents is the recorded EUR value of
// the event, which for card-funded legs differs from the wallet delta.
type movement struct {
	UserID      uint
	Direction   string
	Reason      string
	Tokens      int64
	WalletCents int64
	AmountCents int64
	ContractID  *uint
	PaymentID   *uint
}

// applyTx updates the wallet and appends the matching ledger entry inside the
// caller's transaction. The wallet row lock is taken first, so concurrent
// movements on the same wallet serialize.
func (e *LedgerEngine) applyTx(tx *gorm.DB, m movement) (int64, error) {
	if m.Tokens < 0 || m.WalletCents < 0 || m.AmountCents < 0 {
		return 0, domain.ErrInvalidAmount
	}
	var newBalance int64
	var err error
	switch m.Direction {
	case domain.LedgerCredit:
		newBalance, err = e.wallets.CreditTx(tx, m.UserID, m.Tokens, m.WalletCents)
	case domain.LedgerDebit:
		newBalance, err = e.wallets.DebitTx(tx, m.UserID, m.Tokens, m.WalletCents)
	default:
		return 0, domain.ErrInvalidAmount
	}
	if err != nil {
		return 0, err
	}
	err = e.ledger.AppendTx(tx, &models.LedgerEntry{
		UserID:       m.UserID,
		Direction:    m.Direction,
		Reason:       m.Reason,
		AmountTokens: m.Tokens,
		AmountCents:  m.AmountCents,
		ContractID:   m.ContractID,
		PaymentID:    m.PaymentID,
		BalanceAfter: newBalance,
	})
	return newBalance, err
}

// EscrowSplit is how a HELD escrow's total is distributed on release.
type EscrowSplit struct {
	FamilyCents    int64
	CaregiverCents int64
	PlatformCents  int64
	FamilyReason   string // REFUND or DISPUTE_SETTLEMENT
}

// CaptureTx creates the HELD escrow for a contract. The caller has already
// locked the contract row and verified it is in PENDING_PAYMENT.
func (e *LedgerEngine) CaptureTx(tx *gorm.DB, contract *models.Contract, payment *models.Payment) (*models.EscrowPayment, error) {
	if payment.AmountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if payment.AmountCents != contract.TotalCents {
		return nil, domain.ErrInvalidAmount
	}
	existing, err := e.escrows.ByContractTx(tx, contract.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == domain.EscrowHeld {
		return nil, domain.ErrAlreadyProcessed
	}
	feePct := e.settings.GetInt64(domain.SettingPlatformFeePercent, 15)
	if feePct < 0 {
		feePct = 0
	}
	if feePct > 100 {
		feePct = 100
	}
	fee := contract.TotalCents * feePct / 100
	esc := &models.EscrowPayment{
		ContractID:       contract.ID,
		PaymentID:        &payment.ID,
		TotalCents:       contract.TotalCents,
		CaregiverCents:   contract.TotalCents - fee,
		PlatformFeeCents: fee,
		Status:           domain.EscrowHeld,
	}
	if err := e.escrows.CreateTx(tx, esc); err != nil {
		return nil, err
	}
	// Record the capture against the family's ledger. The money came in by
	// card, so the wallet itself is untouched (zero deltas).
	_, err = e.applyTx(tx, movement{
		UserID:      contract.FamilyID,
		Direction:   domain.LedgerDebit,
		Reason:      domain.ReasonContractFee,
		AmountCents: contract.TotalCents,
		ContractID:  &contract.ID,
		PaymentID:   &payment.ID,
	})
	if err != nil {
		return nil, err
	}
	return esc, nil
}

// ReleaseTx settles a HELD escrow according to the split. The conditional
// transition guarantees that of two concurrent releases exactly one wins;
// the loser observes an invalid state.
func (e *LedgerEngine) ReleaseTx(tx *gorm.DB, contract *models.Contract, esc *models.EscrowPayment, split EscrowSplit) error {
	if split.FamilyCents < 0 || split.CaregiverCents < 0 || split.PlatformCents < 0 {
		return domain.ErrInvalidSplit
	}
	if split.FamilyCents+split.CaregiverCents+split.PlatformCents != esc.TotalCents {
		return domain.ErrInvalidSplit
	}
	if esc.Status != domain.EscrowHeld {
		return domain.ErrInvalidStateTransition
	}
	now := time.Now()
	ok, err := e.escrows.TransitionTx(tx, esc.ID, domain.EscrowReleased, map[string]interface{}{
		"released_at":        now,
		"caregiver_cents":    split.CaregiverCents,
		"platform_fee_cents": split.PlatformCents,
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidStateTransition
	}
	if split.CaregiverCents > 0 {
		if _, err := e.applyTx(tx, movement{
			UserID:      contract.CaregiverID,
			Direction:   domain.LedgerCredit,
			Reason:      domain.ReasonContractEarning,
			WalletCents: split.CaregiverCents,
			AmountCents: split.CaregiverCents,
			ContractID:  &contract.ID,
		}); err != nil {
			return err
		}
	}
	if split.FamilyCents > 0 {
		reason := split.FamilyReason
		if reason == "" {
			reason = domain.ReasonRefund
		}
		if _, err := e.applyTx(tx, movement{
			UserID:      contract.FamilyID,
			Direction:   domain.LedgerCredit,
			Reason:      reason,
			WalletCents: split.FamilyCents,
			AmountCents: split.FamilyCents,
			ContractID:  &contract.ID,
		}); err != nil {
			return err
		}
	}
	if split.PlatformCents > 0 {
		if _, err := e.applyTx(tx, movement{
			UserID:      e.PlatformUserID,
			Direction:   domain.LedgerCredit,
			Reason:      domain.ReasonPlatformFee,
			WalletCents: split.PlatformCents,
			AmountCents: split.PlatformCents,
			ContractID:  &contract.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// CancelEscrowTx reverses a HELD escrow: the full amount is returned to the
// family and the linked payment is marked refunded.
func (e *LedgerEngine) CancelEscrowTx(tx *gorm.DB, contract *models.Contract, esc *models.EscrowPayment) error {
	if esc.Status != domain.EscrowHeld {
		return domain.ErrInvalidStateTransition
	}
	ok, err := e.escrows.TransitionTx(tx, esc.ID, domain.EscrowCancelled, nil)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidStateTransition
	}
	if _, err := e.applyTx(tx, movement{
		UserID:      contract.FamilyID,
		Direction:   domain.LedgerCredit,
		Reason:      domain.ReasonRefund,
		WalletCents: esc.TotalCents,
		AmountCents: esc.TotalCents,
		ContractID:  &contract.ID,
		PaymentID:   esc.PaymentID,
	}); err != nil {
		return err
	}
	if esc.PaymentID != nil {
		p, err := e.payments.GetForUpdateTx(tx, *esc.PaymentID)
		if err != nil {
			return err
		}
		if p.RefundedAt == nil {
			now := time.Now()
			p.Status = domain.PaymentRefunded
			p.RefundedCents = esc.TotalCents
			p.RefundedAt = &now
			if err := e.payments.UpdateTx(tx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// ActivationBonusTx mints the activation token bonus.
func (e *LedgerEngine) ActivationBonusTx(tx *gorm.DB, userID uint, paymentID *uint) error {
	bonus := e.settings.GetInt64(domain.SettingActivationBonusToken, 0)
	if bonus <= 0 {
		return nil
	}
	rate := e.settings.GetInt64(domain.SettingTokenRateCents, 100)
	_, err := e.applyTx(tx, movement{
		UserID:      userID,
		Direction:   domain.LedgerCredit,
		Reason:      domain.ReasonActivationBonus,
		Tokens:      bonus,
		AmountCents: bonus * rate,
		PaymentID:   paymentID,
	})
	return err
}

// PurchaseTx credits tokens for a completed token purchase at the rate in
// force right now. Returns the tokens granted.
func (e *LedgerEngine) PurchaseTx(tx *gorm.DB, userID uint, paymentID uint, amountCents int64) (int64, error) {
	rate := e.settings.GetInt64(domain.SettingTokenRateCents, 100)
	if rate <= 0 || amountCents <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	tokens := amountCents / rate
	if tokens <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	_, err := e.applyTx(tx, movement{
		UserID:      userID,
		Direction:   domain.LedgerCredit,
		Reason:      domain.ReasonPurchase,
		Tokens:      tokens,
		AmountCents: amountCents,
		PaymentID:   &paymentID,
	})
	return tokens, err
}

// WithdrawTx reserves caregiver earnings for a payout by debiting the
// wallet's cent balance. Fails with insufficient balance rather than
// overdrawing.
func (e *LedgerEngine) WithdrawTx(tx *gorm.DB, userID uint, amountCents int64) error {
	if amountCents <= 0 {
		return domain.ErrInvalidAmount
	}
	_, err := e.applyTx(tx, movement{
		UserID:      userID,
		Direction:   domain.LedgerDebit,
		Reason:      domain.ReasonWithdrawal,
		WalletCents: amountCents,
		AmountCents: amountCents,
	})
	return err
}

// WithdrawReturnTx puts a failed payout back in the wallet.
func (e *LedgerEngine) WithdrawReturnTx(tx *gorm.DB, userID uint, amountCents int64) error {
	_, err := e.applyTx(tx, movement{
		UserID:      userID,
		Direction:   domain.LedgerCredit,
		Reason:      domain.ReasonWithdrawalReturn,
		WalletCents: amountCents,
		AmountCents: amountCents,
	})
	return err
}

// TipTx moves tokens from one wallet to another as a paired debit/credit.
// The debit goes first, so an overdraw aborts before anything is credited.
func (e *LedgerEngine) TipTx(tx *gorm.DB, fromUserID, toUserID uint, tokens int64, contractID *uint) error {
	if tokens <= 0 || fromUserID == toUserID {
		return domain.ErrInvalidAmount
	}
	rate := e.settings.GetInt64(domain.SettingTokenRateCents, 100)
	if _, err := e.applyTx(tx, movement{
		UserID:      fromUserID,
		Direction:   domain.LedgerDebit,
		Reason:      domain.ReasonTipSent,
		Tokens:      tokens,
		AmountCents: tokens * rate,
		ContractID:  contractID,
	}); err != nil {
		return err
	}
	_, err := e.applyTx(tx, movement{
		UserID:      toUserID,
		Direction:   domain.LedgerCredit,
		Reason:      domain.ReasonTipReceived,
		Tokens:      tokens,
		AmountCents: tokens * rate,
		ContractID:  contractID,
	})
	return err
}

// Refund claws back tokens for a refunded payment, proportional to the
// refunded share of the original amount (half-up rounding). A clawback that
// would drive the balance negative fails with insufficient balance instead
// of clamping.
func (e *LedgerEngine) Refund(adminID, paymentID uint, amountCents int64, reason, ip, userAgent string) error {
	return e.tx.InTx(func(tx *gorm.DB) error {
		p, err := e.payments.GetForUpdateTx(tx, paymentID)
		if err != nil {
			return err
		}
		if p.RefundedAt != nil {
			return domain.ErrAlreadyProcessed
		}
		// COMPLETED payments refund normally; REVIEW payments are the
		// parked contract fees an admin returns by hand.
		if p.Status != domain.PaymentCompleted && p.Status != domain.PaymentReview {
			return domain.ErrInvalidStateTransition
		}
		if amountCents == 0 {
			amountCents = p.AmountCents
		}
		if amountCents <= 0 || amountCents > p.AmountCents {
			return domain.ErrInvalidAmount
		}
		// A contract fee still sitting in a HELD escrow cannot be refunded
		// here: the later release would pay the same money out a second
		// time. Cancelling the contract returns it through the escrow.
		if p.ContractID != nil {
			esc, err := e.escrows.ByContractTx(tx, *p.ContractID)
			if err != nil {
				return err
			}
			if esc != nil && esc.Status == domain.EscrowHeld {
				return domain.ErrInvalidStateTransition
			}
		}
		var clawback int64
		if p.TokensGranted > 0 {
			clawback = (amountCents*p.TokensGranted + p.AmountCents/2) / p.AmountCents
		}
		before, _ := json.Marshal(map[string]interface{}{"status": p.Status, "refunded_cents": p.RefundedCents})
		if clawback > 0 {
			if _, err := e.applyTx(tx, movement{
				UserID:      p.UserID,
				Direction:   domain.LedgerDebit,
				Reason:      domain.ReasonRefund,
				Tokens:      clawback,
				AmountCents: amountCents,
				PaymentID:   &p.ID,
			}); err != nil {
				return err
			}
		}
		now := time.Now()
		p.Status = domain.PaymentRefunded
		p.RefundedCents = amountCents
		p.RefundedAt = &now
		if err := e.payments.UpdateTx(tx, p); err != nil {
			return err
		}
		after, _ := json.Marshal(map[string]interface{}{
			"status":          p.Status,
			"refunded_cents":  p.RefundedCents,
			"clawback_tokens": clawback,
		})
		return e.audit.CreateTx(tx, &models.AdminAction{
			AdminID:    adminID,
			Action:     "payment_refunded",
			EntityType: "payment",
			EntityID:   fmt.Sprintf("%d", p.ID),
			BeforeJSON: string(before),
			AfterJSON:  string(after),
			Reason:     reason,
			IP:         ip,
			UserAgent:  userAgent,
		})
	})
}

// AdjustTokens is the admin-only manual correction. Exactly one ledger entry
// and one audit row per call.
func (e *LedgerEngine) AdjustTokens(adminID, userID uint, direction string, tokens int64, reason, ip, userAgent string) (int64, error) {
	if tokens <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	if direction != domain.LedgerCredit && direction != domain.LedgerDebit {
		return 0, domain.ErrInvalidAmount
	}
	var newBalance int64
	err := e.tx.InTx(func(tx *gorm.DB) error {
		rate := e.settings.GetInt64(domain.SettingTokenRateCents, 100)
		var err error
		newBalance, err = e.applyTx(tx, movement{
			UserID:      userID,
			Direction:   direction,
			Reason:      domain.ReasonAdjustment,
			Tokens:      tokens,
			AmountCents: tokens * rate,
		})
		if err != nil {
			return err
		}
		before, _ := json.Marshal(map[string]interface{}{"token_balance": balanceBefore(newBalance, direction, tokens)})
		after, _ := json.Marshal(map[string]interface{}{"token_balance": newBalance})
		return e.audit.CreateTx(tx, &models.AdminAction{
			AdminID:    adminID,
			Action:     "tokens_adjusted",
			EntityType: "wallet",
			EntityID:   fmt.Sprintf("%d", userID),
			BeforeJSON: string(before),
			AfterJSON:  string(after),
			Reason:     reason,
			IP:         ip,
			UserAgent:  userAgent,
		})
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func balanceBefore(after int64, direction string, tokens int64) int64 {
	if direction == domain.LedgerDebit {
		return after + tokens
	}
	return after - tokens
}
