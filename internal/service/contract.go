package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"idosolink/internal/domain"
	"idosolink/internal/models"

	"gorm.io/gorm"
)

// VerificationStore answers whether a caregiver passed KYC.
type VerificationStore interface {
	IsVerified(userID uint) (bool, error)
}

// ContractService drives the contract state machine:
//
//	PENDING_ACCEPTANCE -> PENDING_PAYMENT -> ACTIVE -> COMPLETED | CANCELLED | DISPUTED
//	DISPUTED -> COMPLETED | CANCELLED (admin resolution)
//
// Terminal states accept no further transitions. All money-coupled
// transitions run inside one transaction via the ledger engine.
type ContractService struct {
	tx        TxRunner
	contracts ContractStore
	escrows   EscrowStore
	users     UserStore
	verify    VerificationStore
	engine    *LedgerEngine
	audit     AuditStore
}

func NewContractService(tx TxRunner, contracts ContractStore, escrows EscrowStore, users UserStore, verify VerificationStore, engine *LedgerEngine, audit AuditStore) *ContractService {
	return &ContractService{
		tx:        tx,
		contracts: contracts,
		escrows:   escrows,
		users:     users,
		verify:    verify,
		engine:    engine,
		audit:     audit,
	}
}

type CreateContractInput struct {
	FamilyID        uint
	CaregiverID     uint
	HourlyRateCents int64
	TotalHours      int
	ServiceTypes    []string
	StartDate       time.Time
	EndDate         *time.Time
}

// Upper bounds on client-supplied terms; they also keep the cents
// multiplication far from overflow.
const (
	maxHourlyRateCents = 100000   // EUR 1000/h
	maxContractHours   = 24 * 365 // one year around the clock
)

func (s *ContractService) Create(in CreateContractInput) (*models.Contract, error) {
	if in.HourlyRateCents <= 0 || in.TotalHours <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if in.HourlyRateCents > maxHourlyRateCents || in.TotalHours > maxContractHours {
		return nil, domain.ErrInvalidAmount
	}
	c := &models.Contract{
		FamilyID:        in.FamilyID,
		CaregiverID:     in.CaregiverID,
		Status:          domain.ContractPendingAcceptance,
		HourlyRateCents: in.HourlyRateCents,
		TotalHours:      in.TotalHours,
		TotalCents:      in.HourlyRateCents * int64(in.TotalHours),
		ServiceTypes:    strings.Join(in.ServiceTypes, ","),
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
	}
	if err := s.contracts.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// AcceptanceResult is what one party's acceptance call returns.
type AcceptanceResult struct {
	BothAccepted bool   `json:"both_accepted"`
	NewStatus    string `json:"new_status"`
}

// RecordAcceptance idempotently records one party's consent with its legal
// proof (IP + user agent). Re-accepting refreshes the evidence and returns
// the current state instead of failing. The PENDING_ACCEPTANCE ->
// PENDING_PAYMENT guard is re-evaluated after every single-party acceptance.
func (s *ContractService) RecordAcceptance(contractID, actorID uint, ip, userAgent string) (*AcceptanceResult, error) {
	var res AcceptanceResult
	err := s.tx.InTx(func(tx *gorm.DB) error {
		c, err := s.contracts.GetForUpdateTx(tx, contractID)
		if err != nil {
			return err
		}
		if !c.IsParty(actorID) {
			return domain.ErrForbidden
		}
		if c.IsTerminal() || c.Status == domain.ContractDisputed {
			return domain.ErrInvalidStateTransition
		}
		if actorID == c.CaregiverID {
			ok, err := s.verify.IsVerified(actorID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrForbidden
			}
		}
		a, err := s.contracts.GetAcceptanceForUpdateTx(tx, contractID)
		if err != nil {
			return err
		}
		now := time.Now()
		if actorID == c.FamilyID {
			a.FamilyAcceptedAt = &now
			a.FamilyIP = ip
			a.FamilyUserAgent = userAgent
		} else {
			a.CaregiverAcceptedAt = &now
			a.CaregiverIP = ip
			a.CaregiverUserAgent = userAgent
		}
		if err := s.contracts.SaveAcceptanceTx(tx, a); err != nil {
			return err
		}
		res.BothAccepted = a.BothAccepted()
		res.NewStatus = c.Status
		if res.BothAccepted && c.Status == domain.ContractPendingAcceptance {
			ok, err := s.contracts.SetStatusTx(tx, c.ID, domain.ContractPendingAcceptance, domain.ContractPendingPayment, nil)
			if err != nil {
				return err
			}
			if ok {
				res.NewStatus = domain.ContractPendingPayment
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CaptureTx moves PENDING_PAYMENT -> ACTIVE once the contract fee payment is
// confirmed. Runs inside the payment-confirmation transaction.
func (s *ContractService) CaptureTx(tx *gorm.DB, contractID uint, payment *models.Payment) error {
	c, err := s.contracts.GetForUpdateTx(tx, contractID)
	if err != nil {
		return err
	}
	if c.Status != domain.ContractPendingPayment {
		return domain.ErrInvalidStateTransition
	}
	if _, err := s.engine.CaptureTx(tx, c, payment); err != nil {
		return err
	}
	ok, err := s.contracts.SetStatusTx(tx, c.ID, domain.ContractPendingPayment, domain.ContractActive, nil)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

// Complete is normal completion: the escrow is released to the caregiver
// minus the platform fee.
func (s *ContractService) Complete(contractID, actorID uint, isAdmin bool) error {
	return s.tx.InTx(func(tx *gorm.DB) error {
		c, err := s.contracts.GetForUpdateTx(tx, contractID)
		if err != nil {
			return err
		}
		if !isAdmin && c.FamilyID != actorID {
			return domain.ErrForbidden
		}
		if c.Status != domain.ContractActive {
			return domain.ErrInvalidStateTransition
		}
		esc, err := s.escrows.ByContractTx(tx, c.ID)
		if err != nil {
			return err
		}
		if esc == nil {
			return domain.ErrInvalidStateTransition
		}
		if err := s.engine.ReleaseTx(tx, c, esc, EscrowSplit{
			CaregiverCents: esc.CaregiverCents,
			PlatformCents:  esc.PlatformFeeCents,
		}); err != nil {
			return err
		}
		now := time.Now()
		ok, err := s.contracts.SetStatusTx(tx, c.ID, domain.ContractActive, domain.ContractCompleted,
			map[string]interface{}{"completed_at": now})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidStateTransition
		}
		return nil
	})
}

// Tip sends tokens from the family to the caregiver of a contract that has
// reached ACTIVE or COMPLETED. The debit/credit pair commits atomically.
func (s *ContractService) Tip(contractID, actorID uint, tokens int64) error {
	return s.tx.InTx(func(tx *gorm.DB) error {
		c, err := s.contracts.GetForUpdateTx(tx, contractID)
		if err != nil {
			return err
		}
		if c.FamilyID != actorID {
			return domain.ErrForbidden
		}
		switch c.Status {
		case domain.ContractActive, domain.ContractCompleted:
		default:
			return domain.ErrInvalidStateTransition
		}
		return s.engine.TipTx(tx, c.FamilyID, c.CaregiverID, tokens, &c.ID)
	})
}

// Cancel ends a contract before completion. Parties may cancel while no
// money is at stake or while the escrow is merely held; cancellation of a
// captured contract reverses the escrow to the family. Admin cancellations
// are audited.
func (s *ContractService) Cancel(contractID, actorID uint, isAdmin bool, reason, ip, userAgent string) error {
	return s.tx.InTx(func(tx *gorm.DB) error {
		c, err := s.contracts.GetForUpdateTx(tx, contractID)
		if err != nil {
			return err
		}
		if c.IsTerminal() {
			return domain.ErrInvalidStateTransition
		}
		if !isAdmin {
			if !c.IsParty(actorID) {
				return domain.ErrForbidden
			}
			switch c.Status {
			case domain.ContractPendingAcceptance, domain.ContractPendingPayment:
			default:
				return domain.ErrForbidden
			}
		}
		esc, err := s.escrows.ByContractTx(tx, c.ID)
		if err != nil {
			return err
		}
		if esc != nil && esc.Status == domain.EscrowHeld {
			if err := s.engine.CancelEscrowTx(tx, c, esc); err != nil {
				return err
			}
		}
		now := time.Now()
		ok, err := s.contracts.SetStatusTx(tx, c.ID, c.Status, domain.ContractCancelled,
			map[string]interface{}{"cancel_reason": reason, "cancelled_at": now})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidStateTransition
		}
		if isAdmin {
			before, _ := json.Marshal(map[string]interface{}{"status": c.Status})
			after, _ := json.Marshal(map[string]interface{}{"status": domain.ContractCancelled})
			return s.audit.CreateTx(tx, &models.AdminAction{
				AdminID:    actorID,
				Action:     "contract_cancelled",
				EntityType: "contract",
				EntityID:   fmt.Sprintf("%d", c.ID),
				BeforeJSON: string(before),
				AfterJSON:  string(after),
				Reason:     reason,
				IP:         ip,
				UserAgent:  userAgent,
			})
		}
		return nil
	})
}

// Dispute freezes an active contract and its escrow until an admin resolves.
func (s *ContractService) Dispute(contractID, actorID uint, isAdmin bool, reason string) error {
	return s.tx.InTx(func(tx *gorm.DB) error {
		c, err := s.contracts.GetForUpdateTx(tx, contractID)
		if err != nil {
			return err
		}
		if !isAdmin && !c.IsParty(actorID) {
			return domain.ErrForbidden
		}
		if c.Status != domain.ContractActive {
			return domain.ErrInvalidStateTransition
		}
		ok, err := s.contracts.SetStatusTx(tx, c.ID, domain.ContractActive, domain.ContractDisputed, nil)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidStateTransition
		}
		return s.contracts.TouchDisputeTx(tx, c.ID, reason, time.Now())
	})
}

// Resolution is the computed outcome of a dispute decision.
type Resolution struct {
	Decision       string `json:"decision"`
	FamilyCents    int64  `json:"family_cents"`
	CaregiverCents int64  `json:"caregiver_cents"`
	PlatformCents  int64  `json:"platform_cents"`
}

// Resolve settles a DISPUTED contract. favor_family refunds the escrow in
// full; favor_caregiver pays out using the escrow's stored platform fee
// (never a hardcoded percentage); split:<pct> gives the family
// total*pct/100 with the integer-division remainder going to the caregiver.
func (s *ContractService) Resolve(contractID, adminID uint, decision string, splitPercent int, reason, ip, userAgent string) (*Resolution, error) {
	var res Resolution
	err := s.tx.InTx(func(tx *gorm.DB) error {
		c, err := s.contracts.GetForUpdateTx(tx, contractID)
		if err != nil {
			return err
		}
		if c.Status != domain.ContractDisputed {
			return domain.ErrInvalidStateTransition
		}
		esc, err := s.escrows.ByContractTx(tx, c.ID)
		if err != nil {
			return err
		}
		if esc == nil || esc.Status != domain.EscrowHeld {
			return domain.ErrInvalidStateTransition
		}
		res = computeResolution(esc, decision, splitPercent)
		if err := s.engine.ReleaseTx(tx, c, esc, EscrowSplit{
			FamilyCents:    res.FamilyCents,
			CaregiverCents: res.CaregiverCents,
			PlatformCents:  res.PlatformCents,
			FamilyReason:   domain.ReasonDisputeSettle,
		}); err != nil {
			return err
		}
		now := time.Now()
		ok, err := s.contracts.SetStatusTx(tx, c.ID, domain.ContractDisputed, domain.ContractCompleted,
			map[string]interface{}{"completed_at": now})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidStateTransition
		}
		before, _ := json.Marshal(map[string]interface{}{
			"contract_status": domain.ContractDisputed,
			"escrow_status":   domain.EscrowHeld,
			"total_cents":     esc.TotalCents,
		})
		after, _ := json.Marshal(map[string]interface{}{
			"contract_status": domain.ContractCompleted,
			"escrow_status":   domain.EscrowReleased,
			"decision":        res.Decision,
			"family_cents":    res.FamilyCents,
			"caregiver_cents": res.CaregiverCents,
			"platform_cents":  res.PlatformCents,
		})
		return s.audit.CreateTx(tx, &models.AdminAction{
			AdminID:    adminID,
			Action:     "dispute_resolved",
			EntityType: "contract",
			EntityID:   fmt.Sprintf("%d", c.ID),
			BeforeJSON: string(before),
			AfterJSON:  string(after),
			Reason:     reason,
			IP:         ip,
			UserAgent:  userAgent,
		})
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// computeResolution derives the amounts for a dispute decision. Amounts
// always sum exactly to the escrow total; on split the rounding remainder is
// assigned to the caregiver side.
func computeResolution(esc *models.EscrowPayment, decision string, splitPercent int) Resolution {
	switch decision {
	case domain.DecisionFavorFamily:
		return Resolution{Decision: decision, FamilyCents: esc.TotalCents}
	case domain.DecisionFavorCaregiver:
		return Resolution{
			Decision:       decision,
			CaregiverCents: esc.TotalCents - esc.PlatformFeeCents,
			PlatformCents:  esc.PlatformFeeCents,
		}
	default:
		if splitPercent < 0 {
			splitPercent = 0
		}
		if splitPercent > 100 {
			splitPercent = 100
		}
		family := esc.TotalCents * int64(splitPercent) / 100
		return Resolution{
			Decision:       fmt.Sprintf("%s:%d", domain.DecisionSplit, splitPercent),
			FamilyCents:    family,
			CaregiverCents: esc.TotalCents - family,
		}
	}
}

// ReleaseEscrow is the admin override on a held escrow outside the dispute
// flow. The split must still account for every cent.
func (s *ContractService) ReleaseEscrow(escrowID, adminID uint, split EscrowSplit, reason, ip, userAgent string) error {
	return s.tx.InTx(func(tx *gorm.DB) error {
		esc, err := s.escrows.GetForUpdateTx(tx, escrowID)
		if err != nil {
			return err
		}
		c, err := s.contracts.GetForUpdateTx(tx, esc.ContractID)
		if err != nil {
			return err
		}
		if c.Status != domain.ContractActive {
			return domain.ErrInvalidStateTransition
		}
		split.FamilyReason = domain.ReasonRefund
		if err := s.engine.ReleaseTx(tx, c, esc, split); err != nil {
			return err
		}
		now := time.Now()
		ok, err := s.contracts.SetStatusTx(tx, c.ID, domain.ContractActive, domain.ContractCompleted,
			map[string]interface{}{"completed_at": now})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidStateTransition
		}
		before, _ := json.Marshal(map[string]interface{}{"escrow_status": domain.EscrowHeld})
		after, _ := json.Marshal(map[string]interface{}{
			"escrow_status":   domain.EscrowReleased,
			"family_cents":    split.FamilyCents,
			"caregiver_cents": split.CaregiverCents,
			"platform_cents":  split.PlatformCents,
		})
		return s.audit.CreateTx(tx, &models.AdminAction{
			AdminID:    adminID,
			Action:     "escrow_released",
			EntityType: "escrow_payment",
			EntityID:   fmt.Sprintf("%d", esc.ID),
			BeforeJSON: string(before),
			AfterJSON:  string(after),
			Reason:     reason,
			IP:         ip,
			UserAgent:  userAgent,
		})
	})
}
