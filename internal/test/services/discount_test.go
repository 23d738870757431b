package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/services"
)

func TestDiscountValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	store := fakeDiscounts{
		"TEN":      {Code: "TEN", Type: models.DiscountPercent, Value: 10, Active: true},
		"OFF":      {Code: "OFF", Type: models.DiscountFixed, Value: 500, Active: true, ExpiresAt: &future},
		"SHIPFREE": {Code: "SHIPFREE", Type: models.DiscountFreeShipping, Active: true},
		"OLD":      {Code: "OLD", Type: models.DiscountPercent, Value: 10, Active: true, ExpiresAt: &past},
		"NOW":      {Code: "NOW", Type: models.DiscountPercent, Value: 10, Active: true, ExpiresAt: &now},
		"PAUSED":   {Code: "PAUSED", Type: models.DiscountPercent, Value: 10, Active: false},
		"BIG":      {Code: "BIG", Type: models.DiscountFixed, Value: 1000, Active: true, MinSubtotalCents: 5000},
		"BROKEN":   {Code: "BROKEN", Type: models.DiscountPercent, Value: 150, Active: true},
		"BOGO":     {Code: "BOGO", Type: "bogo", Value: 1, Active: true},
	}
	svc := services.NewDiscountService(store, "usd")
	svc.SetClock(func() time.Time { return now })

	tests := []struct {
		code     string
		subtotal int64
		reason   string
	}{
		{" ten ", 2000, ""},
		{"OFF", 2000, ""},
		{"SHIPFREE", 100, ""},
		{"", 2000, "code is required"},
		{"NOPE", 2000, "code not found"},
		{"PAUSED", 2000, "code is no longer active"},
		{"OLD", 2000, "code has expired"},
		{"NOW", 2000, "code has expired"},
		{"BIG", 4999, "requires a subtotal of at least $50.00"},
		{"BIG", 5000, ""},
		{"BROKEN", 2000, "code is misconfigured"},
		{"BOGO", 2000, "unsupported discount type"},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.reason, func(t *testing.T) {
			d, err := svc.Validate(context.Background(), tt.code, tt.subtotal)
			if tt.reason == "" {
				require.NoError(t, err)
				assert.NotNil(t, d)
				return
			}
			var rejection *services.Rejection
			require.True(t, errors.As(err, &rejection), "got %v", err)
			assert.Equal(t, tt.reason, rejection.Reason)
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		d        models.DiscountCode
		subtotal int64
		off      int64
		freeShip bool
	}{
		{"percent rounds down", models.DiscountCode{Type: models.DiscountPercent, Value: 15}, 999, 149, false},
		{"fixed", models.DiscountCode{Type: models.DiscountFixed, Value: 500}, 2000, 500, false},
		{"fixed capped at subtotal", models.DiscountCode{Type: models.DiscountFixed, Value: 5000}, 2000, 2000, false},
		{"free shipping", models.DiscountCode{Type: models.DiscountFreeShipping}, 2000, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, free := services.Apply(&tt.d, tt.subtotal)
			assert.Equal(t, tt.off, off)
			assert.Equal(t, tt.freeShip, free)
		})
	}
}
