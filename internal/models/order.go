package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OrderStatusPaid   = "paid"
	OrderStatusUnpaid = "unpaid"
)

// LineItem is the purchased-item snapshot stored on an order.
type LineItem struct {
	Name        string     `json:"name"`
	Quantity    int64      `json:"quantity"`
	UnitAmount  int64      `json:"unit_amount"`
	Currency    string     `json:"currency"`
	DecantID    *uuid.UUID `json:"decant_id,omitempty"`
	FragranceID *uuid.UUID `json:"fragrance_id,omitempty"`
}

type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a ShippingAddress) Empty() bool {
	return a.Line1 == "" && a.City == "" && a.PostalCode == "" && a.Country == ""
}

type Order struct {
	ID                uuid.UUID       `json:"id"`
	StripeSessionID   string          `json:"stripe_session_id"`
	PaymentIntentID   string          `json:"payment_intent_id"`
	Status            string          `json:"status"`
	AmountTotal       int64           `json:"amount_total"`
	AmountSubtotal    int64           `json:"amount_subtotal"`
	Currency          string          `json:"currency"`
	CustomerEmail     string          `json:"customer_email"`
	CustomerName      string          `json:"customer_name"`
	CustomerPhone     string          `json:"customer_phone"`
	Shipping          ShippingAddress `json:"shipping"`
	LineItems         []LineItem      `json:"line_items"`
	DiscountCode      string          `json:"discount_code"`
	Fulfilled         bool            `json:"fulfilled"`
	AdminComment      string          `json:"admin_comment"`
	StockAppliedAt    *time.Time      `json:"stock_applied_at,omitempty"`
	NotifiedAt        *time.Time      `json:"notified_at,omitempty"`
	AdminEmailSent    bool            `json:"admin_email_sent"`
	CustomerEmailSent bool            `json:"customer_email_sent"`
	EmailError        string          `json:"email_error,omitempty"`
	LabelURL          string          `json:"label_url,omitempty"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	TrackingCarrier   string          `json:"tracking_carrier,omitempty"`
	TrackingStatus    string          `json:"tracking_status,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (o *Order) Paid() bool {
	return o.Status == OrderStatusPaid
}

// ItemCount is the number of units across every line.
func (o *Order) ItemCount() int64 {
	var n int64
	for _, li := range o.LineItems {
		n += li.Quantity
	}
	return n
}
