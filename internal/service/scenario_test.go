package service

import (
	"context"
	"testing"
	"time"

	"idosolink/internal/domain"
)

// Walks the whole lifecycle at the service level: activation, token purchase,
// contract agreement, escrow capture, completion, and payout.
func TestMarketplaceLifecycle(t *testing.T) {
	f, ps := newPaymentFixture()
	ws := NewWithdrawalService(f.store, memWithdrawals{f.store}, f.engine)
	ctx := context.Background()

	f.addUser(1, domain.RoleFamily, domain.UserStatusPending)
	f.addUser(2, domain.RoleCaregiver, domain.UserStatusActive)

	// The family pays the activation fee and comes online with bonus tokens.
	res, err := ps.CreateCheckout(ctx, 1, domain.PurposeActivation, nil, 0, "ana@example.com", "Ana")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ps.Confirm(res.Payment.ProviderRef, true); err != nil {
		t.Fatal(err)
	}
	if f.store.users[1].Status != domain.UserStatusActive {
		t.Fatal("family not activated")
	}

	// Tokens for messaging and tips.
	res, err = ps.CreateCheckout(ctx, 1, domain.PurposeTokenPurchase, nil, 2500, "ana@example.com", "Ana")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ps.Confirm(res.Payment.ProviderRef, true); err != nil {
		t.Fatal(err)
	}

	c, err := f.svc.Create(CreateContractInput{
		FamilyID:        1,
		CaregiverID:     2,
		HourlyRateCents: 1000,
		TotalHours:      10,
		ServiceTypes:    []string{"companionship"},
		StartDate:       time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RecordAcceptance(c.ID, 1, "10.0.0.1", "family-agent"); err != nil {
		t.Fatal(err)
	}
	ares, err := f.svc.RecordAcceptance(c.ID, 2, "10.0.0.2", "caregiver-agent")
	if err != nil {
		t.Fatal(err)
	}
	if !ares.BothAccepted || ares.NewStatus != domain.ContractPendingPayment {
		t.Fatalf("acceptance result = %+v", ares)
	}

	// The contract fee lands in escrow and the engagement goes live.
	res, err = ps.CreateCheckout(ctx, 1, domain.PurposeContractFee, &c.ID, 0, "ana@example.com", "Ana")
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
	if esc.Status != domain.EscrowHeld || esc.TotalCents != 10000 {
		t.Fatalf("escrow = %+v", esc)
	}

	if err := f.svc.Tip(c.ID, 1, 3); err != nil {
		t.Fatal(err)
	}
	if got := f.store.wallets[2].TokenBalance; got != 3 {
		t.Fatalf("caregiver tokens = %d, want 3", got)
	}

	if err := f.svc.Complete(c.ID, 1, false); err != nil {
		t.Fatal(err)
	}
	if got := f.store.wallets[2].BalanceCents; got != 8500 {
		t.Fatalf("caregiver earnings = %d, want 8500", got)
	}
	if got := f.store.wallets[testPlatformUserID].BalanceCents; got != 1500 {
		t.Fatalf("platform fee = %d, want 1500", got)
	}

	// The caregiver cashes out everything.
	w, err := ws.Request(2, 8500, "PT50000201231234567890154")
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.Settle(w.OrderID, true, "bank-ref-9"); err != nil {
		t.Fatal(err)
	}
	got, _ := (memWithdrawals{f.store}).GetByOrderIDForUpdateTx(nil, w.OrderID)
	if got.Status != domain.WithdrawalCompleted {
		t.Fatalf("withdrawal status = %s, want COMPLETED", got.Status)
	}
	if bal := f.store.wallets[2].BalanceCents; bal != 0 {
		t.Fatalf("caregiver balance = %d, want 0 after payout", bal)
	}

	if err := f.store.checkLedgerAgainstWallets(); err != nil {
		t.Fatal(err)
	}
}
