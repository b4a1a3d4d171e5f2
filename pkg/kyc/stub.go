package kyc

import (
	"context"
	"fmt"
	"time"
)

// StubProvider auto-creates sessions without calling Didit; useful in
// development where every caregiver verifies via the admin panel instead.
type StubProvider struct{}

func (s *StubProvider) CreateSession(ctx context.Context, vendorData string) (*Session, error) {
	id := fmt.Sprintf("stub_%d", time.Now().UnixNano())
	return &Session{SessionID: id, URL: "https://verify.invalid/" + id}, nil
}

func (s *StubProvider) VerifyWebhookSignature(body []byte, signature string) bool {
	return true
}
