package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decant-boutique-backend/internal/cart"
	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/payments"
	"decant-boutique-backend/internal/services"
)

func newCheckout(store *memStore, discounts fakeDiscounts) (*services.CheckoutService, *fakeGateway) {
	gw := &fakeGateway{}
	svc := services.NewCheckoutService(store, gw, services.NewDiscountService(discounts, "usd"), services.CheckoutOptions{
		Currency:         "USD",
		ShippingCents:    500,
		AllowedCountries: []string{"US", "CA"},
		PublicSiteURL:    "https://shop.example.com/",
	})
	return svc, gw
}

func TestCreateSession_RepricesFromCatalog(t *testing.T) {
	store := newMemStore()
	decant := store.addDecant(qty(5), true)
	svc, gw := newCheckout(store, fakeDiscounts{})

	session, err := svc.CreateSession(context.Background(), models.CheckoutRequest{
		Items: []cart.Line{{OptionID: &decant, Name: "tampered", Quantity: 2, UnitAmount: 1, Currency: "usd"}},
		Buyer: models.Buyer{Email: " buyer@example.com ", Name: "Sam"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)

	p := gw.params
	require.Len(t, p.Lines, 1)
	assert.Equal(t, int64(1500), p.Lines[0].UnitAmount)
	assert.Equal(t, "Creed Aventus (5ml)", p.Lines[0].Name)
	assert.Equal(t, "https://cdn.example.com/aventus.jpg", p.Lines[0].ImageURL)
	assert.Equal(t, decant, *p.Lines[0].DecantID)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, int64(500), p.ShippingCents)
	assert.Equal(t, "buyer@example.com", p.CustomerEmail)
	assert.Equal(t, "https://shop.example.com/checkout/success?session_id={CHECKOUT_SESSION_ID}", p.SuccessURL)
	assert.Equal(t, "https://shop.example.com/cart", p.CancelURL)
	assert.Equal(t, "Sam", p.Metadata[payments.MetaBuyerName])

	items, err := payments.DecodeCartSnapshot(p.Metadata[payments.MetaCart])
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, decant, *items[0].DecantID)
	assert.Equal(t, int64(2), items[0].Quantity)
}

func TestCreateSession_Rejections(t *testing.T) {
	store := newMemStore()
	limited := store.addDecant(qty(1), true)
	soldOut := store.addDecant(qty(0), false)
	unknown := uuid.New()
	svc, gw := newCheckout(store, fakeDiscounts{})

	tests := []struct {
		name  string
		items []cart.Line
		err   error
	}{
		{"empty cart", nil, services.ErrValidation},
		{"zero quantity", []cart.Line{{Name: "x", Quantity: 0, UnitAmount: 100}}, services.ErrValidation},
		{"zero price", []cart.Line{{Name: "x", Quantity: 1, UnitAmount: 0}}, services.ErrValidation},
		{"over stock", []cart.Line{{OptionID: &limited, Quantity: 2, UnitAmount: 1500}}, services.ErrOutOfStock},
		{"sold out", []cart.Line{{OptionID: &soldOut, Quantity: 1, UnitAmount: 1500}}, services.ErrOutOfStock},
		{"unknown option", []cart.Line{{OptionID: &unknown, Quantity: 1, UnitAmount: 1500}}, services.ErrValidation},
		{"foreign currency", []cart.Line{{Name: "Gift wrap", Quantity: 1, UnitAmount: 300, Currency: "eur"}}, services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSession(context.Background(), models.CheckoutRequest{Items: tt.items})
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Nil(t, gw.params, "no session is opened for a rejected cart")
}

func TestCreateSession_Discounts(t *testing.T) {
	store := newMemStore()
	decant := store.addDecant(nil, true)
	discounts := fakeDiscounts{
		"TEN":  {Code: "TEN", Type: models.DiscountPercent, Value: 10, Active: true},
		"FIVE": {Code: "FIVE", Type: models.DiscountFixed, Value: 500, Active: true},
		"SHIP": {Code: "SHIP", Type: models.DiscountFreeShipping, Active: true},
		"OFF":  {Code: "OFF", Type: models.DiscountPercent, Value: 10, Active: false},
	}
	svc, gw := newCheckout(store, discounts)
	items := []cart.Line{{OptionID: &decant, Quantity: 2, UnitAmount: 1500}}

	_, err := svc.CreateSession(context.Background(), models.CheckoutRequest{Items: items, DiscountCode: "ten"})
	require.NoError(t, err)
	require.NotNil(t, gw.params.Discount)
	assert.Equal(t, float64(10), gw.params.Discount.PercentOff)
	assert.Equal(t, "TEN", gw.params.Metadata[payments.MetaDiscountCode])

	_, err = svc.CreateSession(context.Background(), models.CheckoutRequest{Items: items, DiscountCode: "FIVE"})
	require.NoError(t, err)
	assert.Equal(t, int64(500), gw.params.Discount.AmountOff)

	_, err = svc.CreateSession(context.Background(), models.CheckoutRequest{Items: items, DiscountCode: "SHIP"})
	require.NoError(t, err)
	assert.Nil(t, gw.params.Discount)
	assert.Zero(t, gw.params.ShippingCents)
	assert.Equal(t, "Free shipping", gw.params.ShippingLabel)

	_, err = svc.CreateSession(context.Background(), models.CheckoutRequest{Items: items, DiscountCode: "OFF"})
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Contains(t, err.Error(), "code is no longer active")
}

func TestValidateCart(t *testing.T) {
	store := newMemStore()
	limited := store.addDecant(qty(2), true)
	svc, _ := newCheckout(store, fakeDiscounts{})

	clamped, problems, err := svc.ValidateCart(context.Background(), []cart.Line{
		{OptionID: &limited, Name: "Aventus 5ml", Quantity: 3},
		{Name: "Gift wrap", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "only 2 left", problems[0].Reason)
	require.Len(t, clamped.Lines, 2)
	assert.Equal(t, int64(2), clamped.Lines[0].Quantity)

	clamped, problems, err = svc.ValidateCart(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, clamped.Lines)
	assert.NotNil(t, problems)
}
