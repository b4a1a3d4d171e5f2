package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"idosolink/config"
	"idosolink/internal/domain"
	"idosolink/pkg/payment"
)

func newPaymentFixture() (*fixture, *PaymentService) {
	f := newFixture()
	cfg := config.PaymentConfig{
		WebhookBaseURL: "https://example.com",
		PaymentExpiry:  30 * time.Minute,
	}
	ps := NewPaymentService(f.store, memPayments{f.store}, f.store, memContracts{f.store},
		f.engine, f.svc, f.store, &payment.StubProvider{}, cfg)
	return f, ps
}

func TestCreateCheckoutActivationUsesConfiguredFee(t *testing.T) {
	f, ps := newPaymentFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusPending)

	res, err := ps.CreateCheckout(context.Background(), 1, domain.PurposeActivation, nil, 0, "u1@example.com", "Ana")
	if err != nil {
		t.Fatal(err)
	}
	if res.Payment.AmountCents != 2500 {
		t.Fatalf("amount = %d, want configured 2500", res.Payment.AmountCents)
	}
	if res.Payment.Status != domain.PaymentPending || res.Payment.ProviderRef == "" {
		t.Fatalf("payment = %+v", res.Payment)
	}
	if res.CheckoutURL == "" {
		t.Fatal("no checkout URL")
	}
}

func TestCreateCheckoutTokenPurchaseValidatesAmount(t *testing.T) {
	f, ps := newPaymentFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)

	// Amount must be a positive multiple of the token rate.
	for _, amount := range []int64{0, -100, 2550} {
		_, err := ps.CreateCheckout(context.Background(), 1, domain.PurposeTokenPurchase, nil, amount, "u1@example.com", "Ana")
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("amount %d: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if _, err := ps.CreateCheckout(context.Background(), 1, domain.PurposeTokenPurchase, nil, 2500, "u1@example.com", "Ana"); err != nil {
		t.Fatal(err)
	}
}

func TestCreateCheckoutContractFeeGuards(t *testing.T) {
	f, ps := newPaymentFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c, _ := f.svc.Create(CreateContractInput{
		FamilyID: 1, CaregiverID: 2, HourlyRateCents: 1000, TotalHours: 10, StartDate: time.Now(),
	})

	// Not yet in PENDING_PAYMENT.
	if _, err := ps.CreateCheckout(context.Background(), 1, domain.PurposeContractFee, &c.ID, 0, "u1@example.com", "Ana"); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
	}

	if _, err := f.svc.RecordAcceptance(c.ID, 1, "10.0.0.1", "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RecordAcceptance(c.ID, 2, "10.0.0.2", "a"); err != nil {
		t.Fatal(err)
	}

	// Only the family pays.
	if _, err := ps.CreateCheckout(context.Background(), 2, domain.PurposeContractFee, &c.ID, 0, "u2@example.com", "Rui"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	res, err := ps.CreateCheckout(context.Background(), 1, domain.PurposeContractFee, &c.ID, 0, "u1@example.com", "Ana")
	if err != nil {
		t.Fatal(err)
	}
	// The amount comes from the contract, never the client.
	if res.Payment.AmountCents != 10000 {
		t.Fatalf("amount = %d, want contract total 10000", res.Payment.AmountCents)
	}
}

func TestConfirmActivationActivatesAndMintsBonus(t *testing.T) {
	f, ps := newPaymentFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusPending)
	res, err := ps.CreateCheckout(context.Background(), 1, domain.PurposeActivation, nil, 0, "u1@example.com", "Ana")
	if err != nil {
		t.Fatal(err)
	}

	p, err := ps.Confirm(res.Payment.ProviderRef, true)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != domain.PaymentCompleted || p.CompletedAt == nil {
		t.Fatalf("payment = %+v", p)
	}
	if f.store.users[1].Status != domain.UserStatusActive {
		t.Fatalf("user status = %s, want ACTIVE", f.store.users[1].Status)
	}
	if got := f.store.wallets[1].TokenBalance; got != 10 {
		t.Fatalf("bonus balance = %d, want 10", got)
	}

	// A replayed webhook must not activate or mint twice.
	if _, err := ps.Confirm(res.Payment.ProviderRef, true); !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("replay err = %v, want ErrAlreadyProcessed", err)
	}
	if got := f.store.wallets[1].TokenBalance; got != 10 {
		t.Fatalf("balance = %d after replay, want 10", got)
	}
	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmTokenPurchaseRecordsTokensGranted(t *testing.T) {
	f, ps := newPaymentFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	res, err := ps.CreateCheckout(context.Background(), 1, domain.PurposeTokenPurchase, nil, 2500, "u1@example.com", "Ana")
	if err != nil {
		t.Fatal(err)
	}

	p, err := ps.Confirm(res.Payment.ProviderRef, true)
	if err != nil {
		t.Fatal(err)
	}
	if p.TokensGranted != 25 {
		t.Fatalf("tokens granted = %d, want 25", p.TokensGranted)
	}
	if got := f.store.wallets[1].TokenBalance; got != 25 {
		t.Fatalf("balance = %d, want 25", got)
	}
}

func TestConfirmContractFeeActivatesContract(t *testing.T) {
	f, ps := newPaymentFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c, _ := f.svc.Create(CreateContractInput{
		FamilyID: 1, CaregiverID: 2, HourlyRateCents: 1000, TotalHours: 10, StartDate: time.Now(),
	})
	if _, err := f.svc.RecordAcceptance(c.ID, 1, "10.0.0.1", "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RecordAcceptance(c.ID, 2, "10.0.0.2", "a"); err != nil {
		t.Fatal(err)
	}
	res, err := ps.CreateCheckout(context.Background(), 1, domain.PurposeContractFee, &c.ID, 0, "u1@example.com", "Ana")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ps.Confirm(res.Payment.ProviderRef, true); err != nil {
		t.Fatal(err)
	}
	if f.store.contracts[c.ID].Status != domain.ContractActive {
		t.Fatalf("contract status = %s, want ACTIVE", f.store.contracts[c.ID].Status)
	}
	esc, _ := (memEscrows{f.store}).ByContractTx(nil, c.ID)
	if esc == nil || esc.Status != domain.EscrowHeld {
		t.Fatalf("escrow = %+v, want HELD", esc)
	}
	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmAfterContractCancelParksPaymentForReview(t *testing.T) {
	f, ps := newPaymentFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusActive)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)
	c, _ := f.svc.Create(CreateContractInput{
		FamilyID: 1, CaregiverID: 2, HourlyRateCents: 1000, TotalHours: 10, StartDate: time.Now(),
	})
	if _, err := f.svc.RecordAcceptance(c.ID, 1, "10.0.0.1", "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RecordAcceptance(c.ID, 2, "10.0.0.2", "a"); err != nil {
		t.Fatal(err)
	}
	res, err := ps.CreateCheckout(context.Background(), 1, domain.PurposeContractFee, &c.ID, 0, "u1@example.com", "Ana")
	if err != nil {
		t.Fatal(err)
	}

	// The family cancels while the provider is still collecting the money.
	if err := f.svc.Cancel(c.ID, 1, false, "changed plans", "10.0.0.1", "a"); err != nil {
		t.Fatal(err)
	}

	p, err := ps.Confirm(res.Payment.ProviderRef, true)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != domain.PaymentReview {
		t.Fatalf("status = %s, want REVIEW", p.Status)
	}
	if esc, _ := (memEscrows{f.store}).ByContractTx(nil, c.ID); esc != nil {
		t.Fatalf("escrow created for cancelled contract: %+v", esc)
	}
	// Webhook replays are acknowledged instead of retried forever.
	if _, err := ps.Confirm(res.Payment.ProviderRef, true); !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("replay err = %v, want ErrAlreadyProcessed", err)
	}

	// The admin returns the money.
	if err := f.engine.Refund(50, res.Payment.ID, 0, "contract cancelled before capture", "10.0.0.50", "admin-agent"); err != nil {
		t.Fatal(err)
	}
	got, _ := (memPayments{f.store}).GetForUpdateTx(nil, res.Payment.ID)
	if got.Status != domain.PaymentRefunded || got.RefundedCents != 10000 {
		t.Fatalf("payment after refund: %+v", got)
	}
	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmFailureMarksPaymentFailed(t *testing.T) {
	f, ps := newPaymentFixture()
	f.addUser(1, domain.RoleFamily, domain.UserStatusPending)
	res, err := ps.CreateCheckout(context.Background(), 1, domain.PurposeActivation, nil, 0, "u1@example.com", "Ana")
	if err != nil {
		t.Fatal(err)
	}

	p, err := ps.Confirm(res.Payment.ProviderRef, false)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != domain.PaymentFailed {
		t.Fatalf("status = %s, want FAILED", p.Status)
	}
	if f.store.users[1].Status != domain.UserStatusPending {
		t.Fatal("user activated by failed payment")
	}

	// The provider's later success verdict still lands.
	if _, err := ps.Confirm(res.Payment.ProviderRef, true); err != nil {
		t.Fatal(err)
	}
	if f.store.users[1].Status != domain.UserStatusActive {
		t.Fatal("user not activated")
	}
}
