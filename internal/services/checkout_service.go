package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/cart"
	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/payments"
)

type DecantStore interface {
	GetDecants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Decant, error)
	GetFragrance(ctx context.Context, id uuid.UUID) (*models.Fragrance, error)
}

type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, p payments.CheckoutParams) (*payments.CheckoutSession, error)
}

type CheckoutOptions struct {
	Currency         string
	ShippingCents    int64
	AllowedCountries []string
	PublicSiteURL    string
}

type CheckoutService struct {
	decants   DecantStore
	gateway   CheckoutGateway
	discounts *DiscountService
	opts      CheckoutOptions
}

func NewCheckoutService(decants DecantStore, gateway CheckoutGateway, discounts *DiscountService, opts CheckoutOptions) *CheckoutService {
	opts.Currency = strings.ToLower(opts.Currency)
	opts.PublicSiteURL = strings.TrimSuffix(opts.PublicSiteURL, "/")
	return &CheckoutService{
		decants:   decants,
		gateway:   gateway,
		discounts: discounts,
		opts:      opts,
	}
}

// Stock resolves live inventory for every option the lines reference.
// Options that no longer exist are absent from the result.
func (s *CheckoutService) Stock(ctx context.Context, lines []cart.Line) (cart.Stock, map[uuid.UUID]models.Decant, error) {
	c := cart.Cart{Lines: lines}
	ids := c.OptionIDs()
	stock := cart.Stock{}
	if len(ids) == 0 {
		return stock, map[uuid.UUID]models.Decant{}, nil
	}

	decants, err := s.decants.GetDecants(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	for id, d := range decants {
		stock[id] = cart.StockLevel{Quantity: d.Quantity, InStock: d.InStock}
	}
	return stock, decants, nil
}

// ValidateCart clamps the cart to live stock and reports every line that
// could not be kept as requested.
func (s *CheckoutService) ValidateCart(ctx context.Context, lines []cart.Line) (*cart.Cart, []cart.Problem, error) {
	stock, _, err := s.Stock(ctx, lines)
	if err != nil {
		return nil, nil, err
	}

	c := &cart.Cart{Lines: lines}
	problems := c.Validate(stock)
	clamped := c.Clamped(stock)
	if clamped.Lines == nil {
		clamped.Lines = []cart.Line{}
	}
	if problems == nil {
		problems = []cart.Problem{}
	}
	return clamped, problems, nil
}

// CreateSession prices the cart from the catalog and opens a hosted checkout
// session for it.
func (s *CheckoutService) CreateSession(ctx context.Context, req models.CheckoutRequest) (*payments.CheckoutSession, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d: quantity must be a positive integer", ErrValidation, i)
		}
		if item.UnitAmount <= 0 {
			return nil, fmt.Errorf("%w: item %d: unit_amount must be a positive integer", ErrValidation, i)
		}
	}

	stock, decants, err := s.Stock(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	c := &cart.Cart{Lines: req.Items}
	if problems := c.Validate(stock); len(problems) > 0 {
		p := problems[0]
		if p.Reason == cart.ErrUnknownOption.Error() {
			return nil, fmt.Errorf("%w: %s: %s", ErrValidation, p.Name, p.Reason)
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrOutOfStock, p.Name, p.Reason)
	}

	lines, err := s.priceLines(ctx, req.Items, decants)
	if err != nil {
		return nil, err
	}

	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitAmount * l.Quantity
	}

	params := payments.CheckoutParams{
		Lines:            lines,
		Currency:         s.opts.Currency,
		CustomerEmail:    strings.TrimSpace(req.Buyer.Email),
		SuccessURL:       req.SuccessURL,
		CancelURL:        req.CancelURL,
		ShippingCents:    s.opts.ShippingFlat(),
		AllowedCountries: s.opts.AllowedCountries,
		Metadata:         payments.BuyerMetadata(req.Buyer),
	}
	if params.SuccessURL == "" {
		params.SuccessURL = s.opts.PublicSiteURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if params.CancelURL == "" {
		params.CancelURL = s.opts.PublicSiteURL + "/cart"
	}
	if snapshot, ok := payments.EncodeCartSnapshot(lines); ok {
		params.Metadata[payments.MetaCart] = snapshot
	}

	if code := strings.TrimSpace(req.DiscountCode); code != "" {
		d, err := s.discounts.Validate(ctx, code, subtotal)
		if err != nil {
			var rejection *Rejection
			if errors.As(err, &rejection) {
				return nil, fmt.Errorf("%w: discount code: %s", ErrValidation, rejection.Reason)
			}
			return nil, err
		}

		params.Metadata[payments.MetaDiscountCode] = d.Code
		amountOff, freeShipping := Apply(d, subtotal)
		switch {
		case freeShipping:
			params.ShippingCents = 0
			params.ShippingLabel = "Free shipping"
		case d.Type == models.DiscountPercent:
			params.Discount = &payments.CheckoutDiscount{Name: d.Code, PercentOff: float64(d.Value)}
		case amountOff > 0:
			params.Discount = &payments.CheckoutDiscount{Name: d.Code, AmountOff: amountOff}
		}
	}

	return s.gateway.CreateCheckoutSession(ctx, params)
}

// ShippingFlat is the flat shipping rate charged per order.
func (o CheckoutOptions) ShippingFlat() int64 {
	if o.ShippingCents < 0 {
		return 0
	}
	return o.ShippingCents
}

// priceLines replaces client prices with catalog prices for every line that
// references a decant. Free-form lines keep their own price but must be in
// the store currency.
func (s *CheckoutService) priceLines(ctx context.Context, items []cart.Line, decants map[uuid.UUID]models.Decant) ([]payments.CheckoutLine, error) {
	fragrances := map[uuid.UUID]*models.Fragrance{}
	lines := make([]payments.CheckoutLine, 0, len(items))

	for i, item := range items {
		currency := strings.ToLower(item.Currency)
		if currency == "" {
			currency = s.opts.Currency
		}

		line := payments.CheckoutLine{
			Name:        strings.TrimSpace(item.Name),
			Description: item.Label,
			ImageURL:    item.ImageURL,
			UnitAmount:  item.UnitAmount,
			Quantity:    item.Quantity,
			Currency:    currency,
			FragranceID: item.FragranceID,
		}

		if item.OptionID != nil {
			d, ok := decants[*item.OptionID]
			if !ok {
				return nil, fmt.Errorf("%w: item %d: %s", ErrValidation, i, cart.ErrUnknownOption)
			}
			id := d.ID
			fid := d.FragranceID
			line.DecantID = &id
			line.FragranceID = &fid
			line.UnitAmount = d.PriceCents
			line.Currency = s.opts.Currency
			line.Description = d.Label

			f, ok := fragrances[fid]
			if !ok {
				var err error
				f, err = s.decants.GetFragrance(ctx, fid)
				if err != nil && !errors.Is(err, ErrNotFound) {
					return nil, err
				}
				fragrances[fid] = f
			}
			if f != nil {
				line.Name = strings.TrimSpace(f.Brand + " " + f.Name)
				if img := f.DisplayImage(); img != "" {
					line.ImageURL = img
				}
			}
			if line.Name == "" {
				line.Name = "Decant"
			}
			if d.Label != "" {
				line.Name = fmt.Sprintf("%s (%s)", line.Name, d.Label)
			}
		}

		if line.Currency != s.opts.Currency {
			return nil, fmt.Errorf("%w: item %d: currency %q is not accepted", ErrValidation, i, item.Currency)
		}
		if line.Name == "" {
			line.Name = "Decant"
		}
		if !strings.HasPrefix(line.ImageURL, "https://") {
			line.ImageURL = ""
		}
		if line.UnitAmount <= 0 {
			return nil, fmt.Errorf("%w: item %d: invalid price", ErrValidation, i)
		}
		lines = append(lines, line)
	}
	return lines, nil
}
