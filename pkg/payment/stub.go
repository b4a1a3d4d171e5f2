package payment

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StubProvider is a no-op provider for development and tests.
type StubProvider struct{}

func (s *StubProvider) InitiatePayment(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	ref := req.OrderID
	if ref == "" {
		ref = fmt.Sprintf("stub_%d_%d", time.Now().UnixNano(), req.UserID)
	}
	return &CheckoutResponse{
		Reference:   ref,
		Status:      "PENDING",
		CheckoutURL: "https://checkout.invalid/" + ref,
		ExpiresAt:   time.Now().Add(req.ExpiresIn),
	}, nil
}

func (s *StubProvider) VerifyPayment(ctx context.Context, reference string) (bool, error) {
	return strings.HasPrefix(reference, "stub_") || reference != "", nil
}
