package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/notify"
)

type DiscountStore interface {
	GetDiscountCode(ctx context.Context, code string) (*models.DiscountCode, error)
}

// Rejection is a code that exists or was looked up fine but cannot be used.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

type DiscountService struct {
	store    DiscountStore
	currency string
	now      func() time.Time
}

func NewDiscountService(store DiscountStore, currency string) *DiscountService {
	return &DiscountService{store: store, currency: currency, now: time.Now}
}

// SetClock replaces the time source used for expiry checks.
func (s *DiscountService) SetClock(now func() time.Time) {
	s.now = now
}

// Validate looks the code up and checks that it can be applied to subtotal.
// Business rejections are returned as *Rejection; any other error is a
// store failure.
func (s *DiscountService) Validate(ctx context.Context, code string, subtotalCents int64) (*models.DiscountCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, &Rejection{Reason: "code is required"}
	}

	d, err := s.store.GetDiscountCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return nil, &Rejection{Reason: "code not found"}
	}
	if err != nil {
		return nil, err
	}

	switch {
	case !d.Active:
		return nil, &Rejection{Reason: "code is no longer active"}
	case d.ExpiresAt != nil && !s.now().Before(*d.ExpiresAt):
		return nil, &Rejection{Reason: "code has expired"}
	case subtotalCents < d.MinSubtotalCents:
		return nil, &Rejection{Reason: fmt.Sprintf("requires a subtotal of at least %s", notify.FormatMoney(d.MinSubtotalCents, s.currency))}
	}

	switch d.Type {
	case models.DiscountPercent:
		if d.Value <= 0 || d.Value > 100 {
			return nil, &Rejection{Reason: "code is misconfigured"}
		}
	case models.DiscountFixed:
		if d.Value <= 0 {
			return nil, &Rejection{Reason: "code is misconfigured"}
		}
	case models.DiscountFreeShipping:
	default:
		return nil, &Rejection{Reason: "unsupported discount type"}
	}

	return d, nil
}

// Apply returns the amount taken off subtotal and whether shipping is free.
// Percent discounts round down; fixed discounts never exceed the subtotal.
func Apply(d *models.DiscountCode, subtotalCents int64) (amountOff int64, freeShipping bool) {
	switch d.Type {
	case models.DiscountPercent:
		return subtotalCents * d.Value / 100, false
	case models.DiscountFixed:
		if d.Value > subtotalCents {
			return subtotalCents, false
		}
		return d.Value, false
	case models.DiscountFreeShipping:
		return 0, true
	}
	return 0, false
}
