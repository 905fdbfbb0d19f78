package payment

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/velora-shop/velora/app/models"
)

const (
	EventChargeSuccess = "charge.success"

	// Charged-vs-computed totals may drift by rounding; anything beyond one
	// currency unit is flagged for manual reconciliation.
	amountTolerance int64 = 100
)

var (
	// ErrAuthenticationFailed marks a webhook whose signature did not match.
	ErrAuthenticationFailed = errors.New("webhook signature verification failed")
	// ErrMalformedPayload marks metadata with no usable item list after all
	// normalization fallbacks.
	ErrMalformedPayload = errors.New("payload has no usable order items")
	// ErrGatewayVerify marks a verify-by-reference call the gateway did not
	// confirm as successful.
	ErrGatewayVerify = errors.New("gateway did not confirm the transaction")
	// ErrEmptyCart marks a manual checkout with nothing in the cart.
	ErrEmptyCart = errors.New("cart has no items")
)

// ChargeEvent is the transient projection of one gateway notification or
// verify response. It lives only for the duration of a single call.
type ChargeEvent struct {
	Event     string
	Reference string
	Amount    int64 // minor units actually charged
	PaidAt    *time.Time
	Customer  GatewayCustomer
	Metadata  json.RawMessage
}

// GatewayCustomer carries the gateway-native customer fields, the last
// fallback tier when metadata has no customer data of its own.
type GatewayCustomer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// OrderInput is the canonical, immutable projection of a charge event the
// pricing engine and materializer operate on.
type OrderInput struct {
	UserID       *uint
	Customer     models.Customer
	Items        []ItemInput
	DeliveryDate *time.Time
	DeliveryTime string
	Vendor       string
}

// ItemInput is one normalized line item before catalog resolution. UnitPrice
// is advisory client data, never trusted for money movement.
type ItemInput struct {
	ProductID string
	Name      string
	Pack      string
	UnitPrice int64
	Quantity  int
	ImageURL  string
}
