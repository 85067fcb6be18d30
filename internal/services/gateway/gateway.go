package gateway

import "context"

// Order is the gateway-side payment intent created for a reservation.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrderRequest carries everything the gateway needs to mint an
// intent. IdempotencyKey is derived from the reservation id by the
// caller so a retried request cannot create a second intent.
type CreateOrderRequest struct {
	AmountMinorUnits int64
	Currency         string
	Receipt          string
	IdempotencyKey   string
	Notes            map[string]string
}

// PaymentGateway is the external collaborator the purchase path talks
// to. Implementations must never retry CreateOrder blindly on timeout.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)

	// VerifyPaymentSignature recomputes the gateway signature over
	// orderID|paymentID and compares in constant time. It must fail
	// closed: no issuance ever happens without a positive result.
	VerifyPaymentSignature(orderID, paymentID, signature string) bool

	// KeyID is the public key handed to the hosted checkout.
	KeyID() string
}
