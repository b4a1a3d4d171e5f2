package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"idosolink/internal/domain"
	"idosolink/internal/models"

	"gorm.io/gorm"
)

// memStore holds all in-memory state behind the store interfaces. InTx
// snapshots the state before running the function and restores it on error,
// so the all-or-nothing behavior of the real transactions is observable in
// tests. Per-entity adapters (memEscrows, memPayments, ...) exist because the
// store interfaces reuse method names like CreateTx with different types.
type memStore struct {
	mu sync.Mutex

	wallets     map[uint]*models.Wallet
	ledger      []models.LedgerEntry
	escrows     map[uint]*models.EscrowPayment
	payments    map[uint]*models.Payment
	contracts   map[uint]*models.Contract
	acceptances map[uint]*models.ContractAcceptance // keyed by contract ID
	withdrawals map[string]*models.Withdrawal       // keyed by order ID
	users       map[uint]*models.User
	audits      []models.AdminAction
	settings    map[string]int64
	verified    map[uint]bool
	nextID      uint

	failAppend bool // fault injection: ledger appends error
}

func newMemStore() *memStore {
	return &memStore{
		wallets:     map[uint]*models.Wallet{},
		escrows:     map[uint]*models.EscrowPayment{},
		payments:    map[uint]*models.Payment{},
		contracts:   map[uint]*models.Contract{},
		acceptances: map[uint]*models.ContractAcceptance{},
		withdrawals: map[string]*models.Withdrawal{},
		users:       map[uint]*models.User{},
		settings: map[string]int64{
			domain.SettingTokenRateCents:       100,
			domain.SettingPlatformFeePercent:   15,
			domain.SettingActivationFeeCents:   2500,
			domain.SettingActivationBonusToken: 10,
		},
		verified: map[uint]bool{},
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

type memSnapshot struct {
	wallets     map[uint]*models.Wallet
	ledger      []models.LedgerEntry
	escrows     map[uint]*models.EscrowPayment
	payments    map[uint]*models.Payment
	contracts   map[uint]*models.Contract
	acceptances map[uint]*models.ContractAcceptance
	withdrawals map[string]*models.Withdrawal
	users       map[uint]*models.User
	audits      []models.AdminAction
	nextID      uint
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		wallets:     map[uint]*models.Wallet{},
		escrows:     map[uint]*models.EscrowPayment{},
		payments:    map[uint]*models.Payment{},
		contracts:   map[uint]*models.Contract{},
		acceptances: map[uint]*models.ContractAcceptance{},
		withdrawals: map[string]*models.Withdrawal{},
		users:       map[uint]*models.User{},
		nextID:      m.nextID,
	}
	for k, v := range m.wallets {
		c := *v
		s.wallets[k] = &c
	}
	for k, v := range m.escrows {
		c := *v
		s.escrows[k] = &c
	}
	for k, v := range m.payments {
		c := *v
		s.payments[k] = &c
	}
	for k, v := range m.contracts {
		c := *v
		s.contracts[k] = &c
	}
	for k, v := range m.acceptances {
		c := *v
		s.acceptances[k] = &c
	}
	for k, v := range m.withdrawals {
		c := *v
		s.withdrawals[k] = &c
	}
	for k, v := range m.users {
		c := *v
		s.users[k] = &c
	}
	s.ledger = append([]models.LedgerEntry(nil), m.ledger...)
	s.audits = append([]models.AdminAction(nil), m.audits...)
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.wallets = s.wallets
	m.ledger = s.ledger
	m.escrows = s.escrows
	m.payments = s.payments
	m.contracts = s.contracts
	m.acceptances = s.acceptances
	m.withdrawals = s.withdrawals
	m.users = s.users
	m.audits = s.audits
	m.nextID = s.nextID
}

// InTx serializes transactions under one lock and rolls back on error.
func (m *memStore) InTx(fn func(tx *gorm.DB) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(nil); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// WalletStore

func (m *memStore) wallet(userID uint) *models.Wallet {
	w, ok := m.wallets[userID]
	if !ok {
		w = &models.Wallet{ID: m.id(), UserID: userID, Currency: "EUR"}
		m.wallets[userID] = w
	}
	return w
}

func (m *memStore) CreditTx(tx *gorm.DB, userID uint, tokens, cents int64) (int64, error) {
	w := m.wallet(userID)
	w.TokenBalance += tokens
	w.BalanceCents += cents
	return w.TokenBalance, nil
}

func (m *memStore) DebitTx(tx *gorm.DB, userID uint, tokens, cents int64) (int64, error) {
	w := m.wallet(userID)
	if w.TokenBalance < tokens || w.BalanceCents < cents {
		return 0, domain.ErrInsufficientBalance
	}
	w.TokenBalance -= tokens
	w.BalanceCents -= cents
	return w.TokenBalance, nil
}

// LedgerStore

func (m *memStore) AppendTx(tx *gorm.DB, e *models.LedgerEntry) error {
	if m.failAppend {
		return errors.New("ledger append failed")
	}
	e.ID = m.id()
	e.CreatedAt = time.Now()
	m.ledger = append(m.ledger, *e)
	return nil
}

// UserStore

func (m *memStore) GetTx(tx *gorm.DB, id uint) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memStore) ActivateTx(tx *gorm.DB, id uint) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if u.Status != domain.UserStatusPending {
		return false, nil
	}
	u.Status = domain.UserStatusActive
	now := time.Now()
	u.ActivatedAt = &now
	return true, nil
}

// SettingStore

func (m *memStore) GetInt64(key string, def int64) int64 {
	if v, ok := m.settings[key]; ok {
		return v
	}
	return def
}

// VerificationStore

func (m *memStore) IsVerified(userID uint) (bool, error) {
	return m.verified[userID], nil
}

type memEscrows struct{ m *memStore }

func (s memEscrows) CreateTx(tx *gorm.DB, e *models.EscrowPayment) error {
	for _, existing := range s.m.escrows {
		if existing.ContractID == e.ContractID {
			return errors.New("duplicate escrow for contract")
		}
	}
	e.ID = s.m.id()
	c := *e
	s.m.escrows[e.ID] = &c
	return nil
}

func (s memEscrows) GetForUpdateTx(tx *gorm.DB, id uint) (*models.EscrowPayment, error) {
	e, ok := s.m.escrows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (s memEscrows) ByContractTx(tx *gorm.DB, contractID uint) (*models.EscrowPayment, error) {
	for _, e := range s.m.escrows {
		if e.ContractID == contractID {
			c := *e
			return &c, nil
		}
	}
	return nil, nil
}

func (s memEscrows) TransitionTx(tx *gorm.DB, id uint, to string, extra map[string]interface{}) (bool, error) {
	e, ok := s.m.escrows[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if e.Status != domain.EscrowHeld {
		return false, nil
	}
	e.Status = to
	if v, ok := extra["released_at"].(time.Time); ok {
		e.ReleasedAt = &v
	}
	if v, ok := extra["caregiver_cents"].(int64); ok {
		e.CaregiverCents = v
	}
	if v, ok := extra["platform_fee_cents"].(int64); ok {
		e.PlatformFeeCents = v
	}
	return true, nil
}

type memPayments struct{ m *memStore }

func (s memPayments) Create(p *models.Payment) error {
	p.ID = s.m.id()
	c := *p
	s.m.payments[p.ID] = &c
	return nil
}

func (s memPayments) GetByID(id uint) (*models.Payment, error) {
	p, ok := s.m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s memPayments) GetForUpdateTx(tx *gorm.DB, id uint) (*models.Payment, error) {
	p, ok := s.m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s memPayments) GetByProviderRefForUpdateTx(tx *gorm.DB, ref string) (*models.Payment, error) {
	for _, p := range s.m.payments {
		if p.ProviderRef == ref {
			c := *p
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s memPayments) GetByProviderRef(ref string) (*models.Payment, error) {
	return s.GetByProviderRefForUpdateTx(nil, ref)
}

func (s memPayments) UpdateTx(tx *gorm.DB, p *models.Payment) error {
	if _, ok := s.m.payments[p.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *p
	s.m.payments[p.ID] = &c
	return nil
}

type memContracts struct{ m *memStore }

func (s memContracts) Create(c *models.Contract) error {
	c.ID = s.m.id()
	cc := *c
	s.m.contracts[c.ID] = &cc
	s.m.acceptances[c.ID] = &models.ContractAcceptance{ID: s.m.id(), ContractID: c.ID}
	return nil
}

func (s memContracts) GetForUpdateTx(tx *gorm.DB, id uint) (*models.Contract, error) {
	c, ok := s.m.contracts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (s memContracts) SetStatusTx(tx *gorm.DB, id uint, from, to string, extra map[string]interface{}) (bool, error) {
	c, ok := s.m.contracts[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if c.Status != from {
		return false, nil
	}
	c.Status = to
	if v, ok := extra["cancel_reason"].(string); ok {
		c.CancelReason = v
	}
	if v, ok := extra["cancelled_at"].(time.Time); ok {
		c.CancelledAt = &v
	}
	if v, ok := extra["completed_at"].(time.Time); ok {
		c.CompletedAt = &v
	}
	return true, nil
}

func (s memContracts) GetAcceptanceForUpdateTx(tx *gorm.DB, contractID uint) (*models.ContractAcceptance, error) {
	a, ok := s.m.acceptances[contractID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (s memContracts) SaveAcceptanceTx(tx *gorm.DB, a *models.ContractAcceptance) error {
	c := *a
	s.m.acceptances[a.ContractID] = &c
	return nil
}

func (s memContracts) TouchDisputeTx(tx *gorm.DB, id uint, reason string, at time.Time) error {
	c, ok := s.m.contracts[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.DisputeReason = reason
	c.DisputedAt = &at
	return nil
}

type memAudits struct{ m *memStore }

func (s memAudits) CreateTx(tx *gorm.DB, a *models.AdminAction) error {
	a.ID = s.m.id()
	s.m.audits = append(s.m.audits, *a)
	return nil
}

type memWithdrawals struct{ m *memStore }

func (s memWithdrawals) CreateTx(tx *gorm.DB, w *models.Withdrawal) error {
	if _, ok := s.m.withdrawals[w.OrderID]; ok {
		return errors.New("duplicate order id")
	}
	w.ID = s.m.id()
	c := *w
	s.m.withdrawals[w.OrderID] = &c
	return nil
}

func (s memWithdrawals) GetByOrderIDForUpdateTx(tx *gorm.DB, orderID string) (*models.Withdrawal, error) {
	w, ok := s.m.withdrawals[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *w
	return &c, nil
}

func (s memWithdrawals) UpdateTx(tx *gorm.DB, w *models.Withdrawal) error {
	if _, ok := s.m.withdrawals[w.OrderID]; !ok {
		return domain.ErrNotFound
	}
	c := *w
	s.m.withdrawals[w.OrderID] = &c
	return nil
}

// checkLedgerAgainstWallets verifies that every wallet's token balance equals
// the signed sum of that user's ledger entries.
func (m *memStore) checkLedgerAgainstWallets() error {
	sums := map[uint]int64{}
	for i := range m.ledger {
		e := &m.ledger[i]
		sums[e.UserID] += e.Signed()
	}
	for userID, w := range m.wallets {
		if sums[userID] != w.TokenBalance {
			return fmt.Errorf("user %d: ledger sum %d != wallet balance %d", userID, sums[userID], w.TokenBalance)
		}
	}
	for userID, sum := range sums {
		if _, ok := m.wallets[userID]; !ok && sum != 0 {
			return fmt.Errorf("user %d: ledger sum %d with no wallet", userID, sum)
		}
	}
	return nil
}

const testPlatformUserID = 99

// fixture wires a full money stack over one memStore.
type fixture struct {
	store  *memStore
	engine *LedgerEngine
	svc    *ContractService
}

func newFixture() *fixture {
	m := newMemStore()
	engine := NewLedgerEngine(m, m, m, memEscrows{m}, memPayments{m}, memAudits{m}, m, testPlatformUserID)
	svc := NewContractService(m, memContracts{m}, memEscrows{m}, m, m, engine, memAudits{m})
	return &fixture{store: m, engine: engine, svc: svc}
}

func (f *fixture) addUser(id uint, role, status string) {
	f.store.users[id] = &models.User{ID: id, Role: role, Status: status, Email: fmt.Sprintf("u%d@example.com", id)}
	if role == domain.RoleCaregiver {
		f.store.verified[id] = true
	}
}

// newActiveContract fabricates a captured, ACTIVE contract with a HELD
// escrow, the state most settlement tests start from.
func (f *fixture) newActiveContract(familyID, caregiverID uint, totalCents int64) (*models.Contract, *models.EscrowPayment, *models.Payment) {
	c := &models.Contract{
		FamilyID:        familyID,
		CaregiverID:     caregiverID,
		Status:          domain.ContractPendingPayment,
		HourlyRateCents: totalCents,
		TotalHours:      1,
		TotalCents:      totalCents,
		StartDate:       time.Now(),
	}
	if err := (memContracts{f.store}).Create(c); err != nil {
		panic(err)
	}
	p := &models.Payment{
		UserID:      familyID,
		Purpose:     domain.PurposeContractFee,
		AmountCents: totalCents,
		Currency:    "EUR",
		Provider:    "easypay",
		ProviderRef: fmt.Sprintf("ref-%d", c.ID),
		Status:      domain.PaymentCompleted,
		ContractID:  &c.ID,
	}
	if err := (memPayments{f.store}).Create(p); err != nil {
		panic(err)
	}
	err := f.store.InTx(func(tx *gorm.DB) error {
		return f.svc.CaptureTx(tx, c.ID, p)
	})
	if err != nil {
		panic(err)
	}
	esc, err := (memEscrows{f.store}).ByContractTx(nil, c.ID)
	if err != nil || esc == nil {
		panic("no escrow after capture")
	}
	cc, _ := (memContracts{f.store}).GetForUpdateTx(nil, c.ID)
	return cc, esc, p
}
