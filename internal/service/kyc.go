package service

import (
	"context"
	"fmt"
	"time"

	"idosolink/internal/domain"
	"idosolink/internal/models"
	"idosolink/internal/repository"
	"idosolink/pkg/kyc"
)

// KycService runs caregiver identity verification through Didit. A caregiver
// cannot accept contracts until a session comes back VERIFIED.
type KycService struct {
	repo       *repository.KycRepository
	caregivers *repository.CaregiverRepository
	provider   kyc.Provider
	notify     *NotificationService
}

func NewKycService(repo *repository.KycRepository, caregivers *repository.CaregiverRepository, provider kyc.Provider, notify *NotificationService) *KycService {
	return &KycService{repo: repo, caregivers: caregivers, provider: provider, notify: notify}
}

// Start opens a new verification session and returns the hosted URL the
// caregiver completes it at.
func (s *KycService) Start(ctx context.Context, userID uint) (*models.KycVerification, string, error) {
	sess, err := s.provider.CreateSession(ctx, fmt.Sprintf("%d", userID))
	if err != nil {
		return nil, "", err
	}
	v := &models.KycVerification{
		UserID:    userID,
		SessionID: sess.SessionID,
		Status:    domain.KycPending,
	}
	if err := s.repo.Create(v); err != nil {
		return nil, "", err
	}
	return v, sess.URL, nil
}

// ApplyResult records a webhook verdict. Decisions are final per session: a
// replayed webhook for a settled session returns ErrAlreadyProcessed.
func (s *KycService) ApplyResult(sessionID, status string, confidence float64, reason string) error {
	v, err := s.repo.GetBySessionID(sessionID)
	if err != nil {
		return err
	}
	if v.Status != domain.KycPending {
		return domain.ErrAlreadyProcessed
	}
	switch status {
	case domain.KycVerified:
		now := time.Now()
		v.Status = domain.KycVerified
		v.Confidence = confidence
		v.VerifiedAt = &now
		if err := s.repo.Update(v); err != nil {
			return err
		}
		if err := s.caregivers.SetVerified(v.UserID, true); err != nil {
			return err
		}
		_ = s.notify.NotifyKycVerified(v.UserID)
	case domain.KycDeclined:
		v.Status = domain.KycDeclined
		v.Confidence = confidence
		if err := s.repo.Update(v); err != nil {
			return err
		}
		_ = s.notify.NotifyKycRejected(v.UserID, reason)
	default:
		return domain.ErrInvalidStateTransition
	}
	return nil
}

func (s *KycService) Status(userID uint) (*models.KycVerification, error) {
	return s.repo.LatestByUserID(userID)
}
