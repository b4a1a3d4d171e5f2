package payment

import (
	"context"
	"time"
)

type CheckoutRequest struct {
	UserID         uint
	AmountCents    int64
	Currency       string
	IdempotencyKey string
	Description    string
	OrderID        string // our provider_ref; echoed back in the webhook
	CustomerEmail  string
	CustomerName   string
	CallbackURL    string
	ExpiresIn      time.Duration
}

type CheckoutResponse struct {
	Reference   string
	Status      string
	CheckoutURL string
	ExpiresAt   time.Time
}

type Provider interface {
	InitiatePayment(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
	VerifyPayment(ctx context.Context, reference string) (bool, error)
}

// Refunder is implemented by providers that support pushing money back to
// the payer.
type Refunder interface {
	RefundPayment(ctx context.Context, reference string, amountCents int64) error
}
