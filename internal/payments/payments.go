// Package payments wraps the Stripe API behind the small surface the
// storefront needs: hosted checkout sessions, session lookups and webhook
// verification.
package payments

import (
	"errors"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
)

// ErrInvalidSignature is returned when a webhook payload's signature header
// is missing or does not verify against the endpoint secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

const (
	EventCheckoutCompleted          = "checkout.session.completed"
	EventCheckoutAsyncPaymentPassed = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncPaymentFailed = "checkout.session.async_payment_failed"
)

const (
	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"

	SessionStatusComplete = "complete"
)

// Event is the verified part of a webhook delivery the storefront acts on.
type Event struct {
	ID        string
	Type      string
	SessionID string
}

type Session struct {
	ID              string
	Status          string
	PaymentStatus   string
	PaymentIntentID string
	Currency        string
	AmountTotal     int64
	AmountSubtotal  int64

	CustomerEmail   string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress models.ShippingAddress

	ShippingName    string
	ShippingPhone   string
	ShippingAddress models.ShippingAddress

	Metadata map[string]string
}

// LineItem is a purchased line as reported by the processor.
type LineItem struct {
	Name        string
	Quantity    int64
	UnitAmount  int64
	AmountTotal int64
	Currency    string
	DecantID    *uuid.UUID
	FragranceID *uuid.UUID
}

type CheckoutLine struct {
	Name        string
	Description string
	ImageURL    string
	UnitAmount  int64
	Quantity    int64
	Currency    string
	DecantID    *uuid.UUID
	FragranceID *uuid.UUID
}

// CheckoutDiscount is applied as a single-use coupon. Exactly one of
// PercentOff and AmountOff is set.
type CheckoutDiscount struct {
	Name       string
	PercentOff float64
	AmountOff  int64
}

type CheckoutParams struct {
	Lines            []CheckoutLine
	Currency         string
	CustomerEmail    string
	SuccessURL       string
	CancelURL        string
	ShippingCents    int64
	ShippingLabel    string
	AllowedCountries []string
	Discount         *CheckoutDiscount
	Metadata         map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}
