package service

import (
	"errors"
	"testing"

	"idosolink/internal/domain"
	"idosolink/internal/models"

	"gorm.io/gorm"
)

func TestCaptureCreatesHeldEscrow(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c, esc, _ := f.newActiveContract(1, 2, 10000)

	if c.Status != domain.ContractActive {
		t.Fatalf("contract status = %s, want ACTIVE", c.Status)
	}
	if esc.Status != domain.EscrowHeld {
		t.Fatalf("escrow status = %s, want HELD", esc.Status)
	}
	if esc.PlatformFeeCents != 1500 || esc.CaregiverCents != 8500 {
		t.Fatalf("fee split = %d/%d, want 1500/8500", esc.PlatformFeeCents, esc.CaregiverCents)
	}
	// The capture is card-funded: recorded in the ledger but no wallet delta.
	if len(f.store.ledger) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(f.store.ledger))
	}
	e := f.store.ledger[0]
	if e.UserID != 1 || e.Reason != domain.ReasonContractFee || e.AmountTokens != 0 || e.AmountCents != 10000 {
		t.Fatalf("unexpected capture entry: %+v", e)
	}
	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}
}

func TestCaptureAmountMismatch(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c := &models.Contract{
		FamilyID: 1, CaregiverID: 2,
		Status:          domain.ContractPendingPayment,
		HourlyRateCents: 10000, TotalHours: 1, TotalCents: 10000,
	}
	if err := (memContracts{f.store}).Create(c); err != nil {
		t.Fatal(err)
	}
	p := &models.Payment{UserID: 1, Purpose: domain.PurposeContractFee, AmountCents: 9999, ContractID: &c.ID}
	if err := (memPayments{f.store}).Create(p); err != nil {
		t.Fatal(err)
	}
	err := f.store.InTx(func(tx *gorm.DB) error {
		return f.svc.CaptureTx(tx, c.ID, p)
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if got, _ := (memEscrows{f.store}).ByContractTx(nil, c.ID); got != nil {
		t.Fatal("escrow created despite amount mismatch")
	}
}

func TestCaptureTwiceIsRejected(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c, _, p := f.newActiveContract(1, 2, 10000)

	err := f.store.InTx(func(tx *gorm.DB) error {
		return f.svc.CaptureTx(tx, c.ID, p)
	})
	// Contract already left PENDING_PAYMENT, so the state guard fires first.
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
	}
	if len(f.store.ledger) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(f.store.ledger))
	}
}

func TestReleaseSplitMustAccountForEveryCent(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c, esc, _ := f.newActiveContract(1, 2, 10000)

	bad := []EscrowSplit{
		{CaregiverCents: 9000, PlatformCents: 500},                    // short
		{CaregiverCents: 9000, PlatformCents: 1500},                   // over
		{FamilyCents: -100, CaregiverCents: 10100, PlatformCents: 0},  // negative leg
		{FamilyCents: 11000, CaregiverCents: -1000, PlatformCents: 0}, // negative leg
	}
	for _, split := range bad {
		err := f.store.InTx(func(tx *gorm.DB) error {
			return f.engine.ReleaseTx(tx, c, esc, split)
		})
		if !errors.Is(err, domain.ErrInvalidSplit) {
			t.Fatalf("split %+v: err = %v, want ErrInvalidSplit", split, err)
		}
	}
	got, _ := (memEscrows{f.store}).ByContractTx(nil, c.ID)
	if got.Status != domain.EscrowHeld {
		t.Fatalf("escrow left HELD after rejected splits: %s", got.Status)
	}
}

func TestReleaseCreditsAllParties(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c, esc, _ := f.newActiveContract(1, 2, 10000)

	err := f.store.InTx(func(tx *gorm.DB) error {
		return f.engine.ReleaseTx(tx, c, esc, EscrowSplit{
			FamilyCents:    1000,
			CaregiverCents: 7500,
			PlatformCents:  1500,
			FamilyReason:   domain.ReasonDisputeSettle,
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.store.wallets[2].BalanceCents; got != 7500 {
		t.Fatalf("caregiver balance = %d, want 7500", got)
	}
	if got := f.store.wallets[1].BalanceCents; got != 1000 {
		t.Fatalf("family balance = %d, want 1000", got)
	}
	if got := f.store.wallets[testPlatformUserID].BalanceCents; got != 1500 {
		t.Fatalf("platform balance = %d, want 1500", got)
	}
	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}
}

func TestReleaseHappensAtMostOnce(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c, esc, _ := f.newActiveContract(1, 2, 10000)

	split := EscrowSplit{CaregiverCents: 8500, PlatformCents: 1500}
	if err := f.store.InTx(func(tx *gorm.DB) error {
		return f.engine.ReleaseTx(tx, c, esc, split)
	}); err != nil {
		t.Fatal(err)
	}
	// Second release with a stale HELD snapshot must lose on the conditional
	// transition, not double-pay.
	err := f.store.InTx(func(tx *gorm.DB) error {
		return f.engine.ReleaseTx(tx, c, esc, split)
	})
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
	}
	if got := f.store.wallets[2].BalanceCents; got != 8500 {
		t.Fatalf("caregiver balance = %d, want 8500 (paid once)", got)
	}
}

func TestReleaseRollsBackWhenLedgerFails(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c, esc, _ := f.newActiveContract(1, 2, 10000)

	f.store.failAppend = true
	err := f.store.InTx(func(tx *gorm.DB) error {
		return f.engine.ReleaseTx(tx, c, esc, EscrowSplit{CaregiverCents: 8500, PlatformCents: 1500})
	})
	f.store.failAppend = false
	if err == nil {
		t.Fatal("release succeeded despite ledger failure")
	}
	got, _ := (memEscrows{f.store}).ByContractTx(nil, c.ID)
	if got.Status != domain.EscrowHeld {
		t.Fatalf("escrow status = %s after rollback, want HELD", got.Status)
	}
	if w, ok := f.store.wallets[2]; ok && w.BalanceCents != 0 {
		t.Fatalf("caregiver balance = %d after rollback, want 0", w.BalanceCents)
	}
	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}
}

func TestPurchaseGrantsTokensAtCurrentRate(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	p := &models.Payment{UserID: 1, Purpose: domain.PurposeTokenPurchase, AmountCents: 2500}
	if err := (memPayments{f.store}).Create(p); err != nil {
		t.Fatal(err)
	}
	var tokens int64
	err := f.store.InTx(func(tx *gorm.DB) error {
		var err error
		tokens, err = f.engine.PurchaseTx(tx, 1, p.ID, p.AmountCents)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if tokens != 25 {
		t.Fatalf("tokens = %d, want 25 at rate 100", tokens)
	}
	if got := f.store.wallets[1].TokenBalance; got != 25 {
		t.Fatalf("balance = %d, want 25", got)
	}
	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}
}

func TestActivationBonusMintsConfiguredTokens(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleCaregiver, domain.UserStatusPending)
	err := f.store.InTx(func(tx *gorm.DB) error {
		return f.engine.ActivationBonusTx(tx, 1, nil)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.store.wallets[1].TokenBalance; got != 10 {
		t.Fatalf("balance = %d, want 10", got)
	}
	if f.store.ledger[0].Reason != domain.ReasonActivationBonus {
		t.Fatalf("reason = %s", f.store.ledger[0].Reason)
	}
}

func TestRefundClawsBackProportionalTokens(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	p := &models.Payment{UserID: 1, Purpose: domain.PurposeTokenPurchase, AmountCents: 3000, Status: domain.PaymentPending}
	if err := (memPayments{f.store}).Create(p); err != nil {
		t.Fatal(err)
	}
	err := f.store.InTx(func(tx *gorm.DB) error {
		tokens, err := f.engine.PurchaseTx(tx, 1, p.ID, p.AmountCents)
		if err != nil {
			return err
		}
		p.TokensGranted = tokens
		p.Status = domain.PaymentCompleted
		return (memPayments{f.store}).UpdateTx(tx, p)
	})
	if err != nil {
		t.Fatal(err)
	}

	// Partial refund of 1000 of 3000 with 30 tokens granted: clawback
	// rounds half-up to 10.
	if err := f.engine.Refund(50, p.ID, 1000, "card chargeback", "10.0.0.1", "test"); err != nil {
		t.Fatal(err)
	}
	if got := f.store.wallets[1].TokenBalance; got != 20 {
		t.Fatalf("balance = %d, want 20 after clawback", got)
	}
	got, _ := (memPayments{f.store}).GetForUpdateTx(nil, p.ID)
	if got.Status != domain.PaymentRefunded || got.RefundedCents != 1000 || got.RefundedAt == nil {
		t.Fatalf("payment after refund: %+v", got)
	}
	if len(f.store.audits) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(f.store.audits))
	}
	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}

	// A payment refunds at most once.
	err = f.engine.Refund(50, p.ID, 500, "again", "10.0.0.1", "test")
	if !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("err = %v, want ErrAlreadyProcessed", err)
	}
}

func TestRefundFailsOnInsufficientBalanceWithoutClamping(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	p := &models.Payment{UserID: 1, Purpose: domain.PurposeTokenPurchase, AmountCents: 3000, Status: domain.PaymentPending}
	if err := (memPayments{f.store}).Create(p); err != nil {
		t.Fatal(err)
	}
	err := f.store.InTx(func(tx *gorm.DB) error {
		tokens, err := f.engine.PurchaseTx(tx, 1, p.ID, p.AmountCents)
		if err != nil {
			return err
		}
		p.TokensGranted = tokens
		p.Status = domain.PaymentCompleted
		return (memPayments{f.store}).UpdateTx(tx, p)
	})
	if err != nil {
		t.Fatal(err)
	}
	// Spend the tokens elsewhere so the clawback cannot be covered.
	err = f.store.InTx(func(tx *gorm.DB) error {
		_, err := f.engine.applyTx(tx, movement{
			UserID: 1, Direction: domain.LedgerDebit, Reason: domain.ReasonAdjustment, Tokens: 25,
		})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	err = f.engine.Refund(50, p.ID, 3000, "full refund", "10.0.0.1", "test")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	got, _ := (memPayments{f.store}).GetForUpdateTx(nil, p.ID)
	if got.Status != domain.PaymentCompleted || got.RefundedAt != nil {
		t.Fatalf("payment mutated by failed refund: %+v", got)
	}
	if got := f.store.wallets[1].TokenBalance; got != 5 {
		t.Fatalf("balance = %d, want 5 (unchanged)", got)
	}
}

func TestRefundRejectedWhileEscrowHeld(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c, _, p := f.newActiveContract(1, 2, 10000)

	// The fee is still held in escrow; refunding the payment now and
	// releasing the escrow later would pay the same money out twice.
	err := f.engine.Refund(50, p.ID, 0, "card chargeback", "10.0.0.50", "admin-agent")
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
	}
	got, _ := (memPayments{f.store}).GetForUpdateTx(nil, p.ID)
	if got.Status != domain.PaymentCompleted || got.RefundedAt != nil {
		t.Fatalf("payment mutated by rejected refund: %+v", got)
	}

	// Settlement proceeds normally afterwards.
	if err := f.svc.Complete(c.ID, 1, false); err != nil {
		t.Fatal(err)
	}
	if bal := f.store.wallets[2].BalanceCents; bal != 8500 {
		t.Fatalf("caregiver balance = %d, want 8500", bal)
	}

	// Cancelling the contract is the path that returns held money, and it
	// marks the payment refunded as it does so.
	c2, _, p2 := f.newActiveContract(1, 2, 5000)
	if err := f.svc.Cancel(c2.ID, 50, true, "caregiver no-show", "10.0.0.50", "admin-agent"); err != nil {
		t.Fatal(err)
	}
	err = f.engine.Refund(50, p2.ID, 0, "card chargeback", "10.0.0.50", "admin-agent")
	if !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("err = %v, want ErrAlreadyProcessed", err)
	}
	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}
}

func TestAdjustTokensWritesOneEntryAndOneAuditRow(t *testing.T) {
	f := newFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)

	balance, err := f.engine.AdjustTokens(50, 1, domain.LedgerCredit, 40, "support goodwill", "10.0.0.1", "test")
	if err != nil {
		t.Fatal(err)
	}
	if balance != 40 {
		t.Fatalf("balance = %d, want 40", balance)
	}
	if len(f.store.ledger) != 1 || len(f.store.audits) != 1 {
		t.Fatalf("ledger=%d audits=%d, want 1/1", len(f.store.ledger), len(f.store.audits))
	}

	// Debiting more than the balance fails rather than clamping to zero.
	_, err = f.engine.AdjustTokens(50, 1, domain.LedgerDebit, 100, "correction", "10.0.0.1", "test")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if got := f.store.wallets[1].TokenBalance; got != 40 {
		t.Fatalf("balance = %d, want 40 after failed debit", got)
	}

	_, err = f.engine.AdjustTokens(50, 1, domain.LedgerCredit, 0, "noop", "10.0.0.1", "test")
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount for zero tokens", err)
	}
}

func TestWithdrawalReservesAndReturnsFunds(t *testing.T) {
	f := newFixture()
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	// Seed earnings.
	err := f.store.InTx(func(tx *gorm.DB) error {
		_, err := f.store.CreditTx(tx, 2, 0, 5000)
		if err != nil {
			return err
		}
		return f.store.AppendTx(tx, &models.LedgerEntry{
			UserID: 2, Direction: domain.LedgerCredit, Reason: domain.ReasonContractEarning, AmountCents: 5000,
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	ws := NewWithdrawalService(f.store, memWithdrawals{f.store}, f.engine)
	w, err := ws.Request(2, 3000, "PT50000201231234567890154")
	if err != nil {
		t.Fatal(err)
	}
	if got := f.store.wallets[2].BalanceCents; got != 2000 {
		t.Fatalf("balance = %d, want 2000 after reservation", got)
	}

	// More than the remaining balance is refused outright.
	if _, err := ws.Request(2, 2500, "PT50000201231234567890154"); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	// Payout failure returns the reserved amount.
	if err := ws.Settle(w.OrderID, false, "bank-ref-1"); err != nil {
		t.Fatal(err)
	}
	if got := f.store.wallets[2].BalanceCents; got != 5000 {
		t.Fatalf("balance = %d, want 5000 after failed payout", got)
	}
	got, _ := (memWithdrawals{f.store}).GetByOrderIDForUpdateTx(nil, w.OrderID)
	if got.Status != domain.WithdrawalFailed {
		t.Fatalf("status = %s, want FAILED", got.Status)
	}

	// Replayed webhook for a settled order is a no-op.
	if err := ws.Settle(w.OrderID, true, "bank-ref-1"); !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("err = %v, want ErrAlreadyProcessed", err)
	}
	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}
}
