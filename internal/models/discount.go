package models

import "time"

const (
	DiscountPercent      = "percent"
	DiscountFixed        = "fixed"
	DiscountFreeShipping = "free_shipping"
)

// DiscountCode is read-only to the storefront. Code is stored upper-case.
type DiscountCode struct {
	Code             string     `json:"code"`
	Type             string     `json:"type"`
	Value            int64      `json:"value"`
	Active           bool       `json:"active"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	MinSubtotalCents int64      `json:"min_subtotal_cents"`
}
