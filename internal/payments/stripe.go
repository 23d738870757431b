package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	stripeclient "github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"

	"decant-boutique-backend/internal/models"
)

// StripeClient talks to Stripe with its own API handle instead of the
// package-global key.
type StripeClient struct {
	api           *stripeclient.API
	webhookSecret string
}

func NewStripeClient(secretKey, webhookSecret string) *StripeClient {
	api := &stripeclient.API{}
	api.Init(secretKey, nil)

	return &StripeClient{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

// VerifyWebhook authenticates the payload against the Stripe-Signature
// header before anything in it is trusted.
func (s *StripeClient) VerifyWebhook(payload []byte, signatureHeader string) (*Event, error) {
	return verifyWebhook(payload, signatureHeader, s.webhookSecret)
}

func verifyWebhook(payload []byte, signatureHeader, secret string) (*Event, error) {
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("missing signature header: %w", ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidSignature)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if event.Data != nil && strings.HasPrefix(out.Type, "checkout.session.") {
		var object struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
			return nil, fmt.Errorf("failed to decode event object: %w", err)
		}
		out.SessionID = object.ID
	}
	return out, nil
}

func (s *StripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	for _, line := range p.Lines {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(line.Name),
			Metadata: map[string]string{},
		}
		if line.Description != "" {
			productData.Description = stripe.String(line.Description)
		}
		if line.ImageURL != "" {
			productData.Images = []*string{stripe.String(line.ImageURL)}
		}
		if line.DecantID != nil {
			productData.Metadata[MetaDecantID] = line.DecantID.String()
		}
		if line.FragranceID != nil {
			productData.Metadata[MetaFragranceID] = line.FragranceID.String()
		}

		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(line.Currency),
				UnitAmount:  stripe.Int64(line.UnitAmount),
				ProductData: productData,
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}

	if len(p.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(p.AllowedCountries),
		}
	}

	label := p.ShippingLabel
	if label == "" {
		label = "Standard shipping"
	}
	params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{
		{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripe.String("fixed_amount"),
				DisplayName: stripe.String(label),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(p.ShippingCents),
					Currency: stripe.String(p.Currency),
				},
			},
		},
	}

	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}

	for key, value := range p.Metadata {
		params.AddMetadata(key, value)
	}

	if p.Discount != nil {
		couponID, err := s.createCoupon(ctx, p.Currency, *p.Discount)
		if err != nil {
			return nil, err
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(couponID)},
		}
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// Stripe caps coupon names at 40 characters.
const maxCouponName = 40

func (s *StripeClient) createCoupon(ctx context.Context, currency string, d CheckoutDiscount) (string, error) {
	params := &stripe.CouponParams{
		Duration:       stripe.String(string(stripe.CouponDurationOnce)),
		MaxRedemptions: stripe.Int64(1),
	}
	params.Context = ctx
	if d.Name != "" {
		params.Name = stripe.String(truncate(d.Name, maxCouponName))
	}
	if d.PercentOff > 0 {
		params.PercentOff = stripe.Float64(d.PercentOff)
	} else {
		params.AmountOff = stripe.Int64(d.AmountOff)
		params.Currency = stripe.String(currency)
	}

	c, err := s.api.Coupons.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create coupon: %w", err)
	}
	return c.ID, nil
}

func (s *StripeClient) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session %s: %w", sessionID, err)
	}

	out := &Session{
		ID:             sess.ID,
		Status:         string(sess.Status),
		PaymentStatus:  string(sess.PaymentStatus),
		Currency:       string(sess.Currency),
		AmountTotal:    sess.AmountTotal,
		AmountSubtotal: sess.AmountSubtotal,
		CustomerEmail:  sess.CustomerEmail,
		Metadata:       sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	if cd := sess.CustomerDetails; cd != nil {
		if cd.Email != "" {
			out.CustomerEmail = cd.Email
		}
		out.CustomerName = cd.Name
		out.CustomerPhone = cd.Phone
		out.CustomerAddress = toAddress(cd.Name, cd.Address)
	}
	if sd := sess.ShippingDetails; sd != nil {
		out.ShippingName = sd.Name
		out.ShippingPhone = sd.Phone
		out.ShippingAddress = toAddress(sd.Name, sd.Address)
	}
	return out, nil
}

func toAddress(name string, a *stripe.Address) models.ShippingAddress {
	if a == nil {
		return models.ShippingAddress{}
	}
	return models.ShippingAddress{
		Name:       name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// ListLineItems returns the processor's authoritative line items, with the
// decant and fragrance ids recovered from product metadata.
func (s *StripeClient) ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(100)
	params.AddExpand("data.price.product")

	var items []LineItem
	iter := s.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		item := LineItem{
			Name:        li.Description,
			Quantity:    li.Quantity,
			AmountTotal: li.AmountTotal,
			Currency:    string(li.Currency),
		}
		if li.Price != nil {
			item.UnitAmount = li.Price.UnitAmount
			if p := li.Price.Product; p != nil {
				if item.Name == "" {
					item.Name = p.Name
				}
				item.DecantID = parseOptionalUUID(p.Metadata[MetaDecantID])
				item.FragranceID = parseOptionalUUID(p.Metadata[MetaFragranceID])
			}
		}
		if item.UnitAmount == 0 && item.Quantity > 0 {
			item.UnitAmount = li.AmountSubtotal / item.Quantity
		}
		items = append(items, item)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list line items for %s: %w", sessionID, err)
	}
	return items, nil
}

// ToOrderLineItems converts processor line items into order snapshots.
func ToOrderLineItems(items []LineItem) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.LineItem{
			Name:        item.Name,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
			Currency:    item.Currency,
			DecantID:    copyID(item.DecantID),
			FragranceID: copyID(item.FragranceID),
		})
	}
	return out
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
