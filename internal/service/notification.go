package service

import (
	"encoding/json"
	"fmt"

	"idosolink/internal/models"
	"idosolink/internal/repository"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

func (s *NotificationService) NotifyContractProposed(caregiverID, contractID uint, familyName string) error {
	return s.Notify(caregiverID, "CONTRACT_PROPOSED", "New contract",
		familyName+" proposed a care contract", map[string]interface{}{"contract_id": contractID})
}

func (s *NotificationService) NotifyContractAccepted(userID, contractID uint, otherName string) error {
	return s.Notify(userID, "CONTRACT_ACCEPTED", "Contract accepted",
		otherName+" accepted the contract", map[string]interface{}{"contract_id": contractID})
}

func (s *NotificationService) NotifyContractActive(userID, contractID uint) error {
	return s.Notify(userID, "CONTRACT_ACTIVE", "Contract active",
		"Payment received; the contract is now active.", map[string]interface{}{"contract_id": contractID})
}

func (s *NotificationService) NotifyContractCompleted(userID, contractID uint) error {
	return s.Notify(userID, "CONTRACT_COMPLETED", "Contract completed",
		"The contract is completed and the escrow has been settled.", map[string]interface{}{"contract_id": contractID})
}

func (s *NotificationService) NotifyContractCancelled(userID, contractID uint, reason string) error {
	return s.Notify(userID, "CONTRACT_CANCELLED", "Contract cancelled",
		"The contract was cancelled: "+reason, map[string]interface{}{"contract_id": contractID})
}

func (s *NotificationService) NotifyDisputeOpened(userID, contractID uint) error {
	return s.Notify(userID, "DISPUTE_OPENED", "Dispute opened",
		"A dispute was opened; funds are frozen until an administrator resolves it.",
		map[string]interface{}{"contract_id": contractID})
}

func (s *NotificationService) NotifyDisputeResolved(userID, contractID uint, decision string) error {
	return s.Notify(userID, "DISPUTE_RESOLVED", "Dispute resolved",
		"The dispute was resolved ("+decision+").", map[string]interface{}{"contract_id": contractID})
}

func (s *NotificationService) NotifyPaymentConfirmed(userID uint, amountCents int64, reference string) error {
	return s.Notify(userID, "PAYMENT_CONFIRMED", "Payment confirmed",
		"Your payment was successful.", map[string]interface{}{"amount_cents": amountCents, "reference": reference})
}

func (s *NotificationService) NotifyTokensGranted(userID uint, tokens int64) error {
	return s.Notify(userID, "TOKENS_GRANTED", "Tokens added",
		fmt.Sprintf("%d tokens were added to your wallet.", tokens), map[string]interface{}{"tokens": tokens})
}

func (s *NotificationService) NotifyKycVerified(userID uint) error {
	return s.Notify(userID, "KYC_VERIFIED", "Identity verified",
		"Your identity verification is complete. You can now accept contracts.", nil)
}

func (s *NotificationService) NotifyKycRejected(userID uint, reason string) error {
	return s.Notify(userID, "KYC_REJECTED", "Verification failed",
		"Your identity verification failed: "+reason, nil)
}

func (s *NotificationService) NotifyWithdrawalSettled(userID uint, amountCents int64, ok bool) error {
	if ok {
		return s.Notify(userID, "WITHDRAWAL_COMPLETED", "Withdrawal sent",
			"Your withdrawal was paid out.", map[string]interface{}{"amount_cents": amountCents})
	}
	return s.Notify(userID, "WITHDRAWAL_FAILED", "Withdrawal failed",
		"Your withdrawal failed and the amount was returned to your wallet.",
		map[string]interface{}{"amount_cents": amountCents})
}
