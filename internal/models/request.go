package models

import (
	"github.com/google/uuid"

	"decant-boutique-backend/internal/cart"
)

// Buyer is the contact information collected before redirecting to the
// hosted payment page. Every field is optional; the payment processor
// collects whatever is missing.
type Buyer struct {
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Phone   string          `json:"phone"`
	Address ShippingAddress `json:"address"`
}

type CheckoutRequest struct {
	Items        []cart.Line `json:"items"`
	Buyer        Buyer       `json:"buyer"`
	SuccessURL   string      `json:"successUrl"`
	CancelURL    string      `json:"cancelUrl"`
	DiscountCode string      `json:"discountCode"`
}

type CartValidateRequest struct {
	Items []cart.Line `json:"items"`
}

type EnsureOrderRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type DiscountValidateRequest struct {
	Code          string `json:"code" binding:"required"`
	SubtotalCents int64  `json:"subtotalCents"`
}

type DecantRequest struct {
	Label      string `json:"label" binding:"required"`
	PriceCents int64  `json:"price_cents"`
	Quantity   *int64 `json:"quantity"`
	InStock    *bool  `json:"in_stock"`
	SortOrder  int    `json:"sort_order"`
}

type CreateFragranceRequest struct {
	Brand          string          `json:"brand" binding:"required"`
	Name           string          `json:"name" binding:"required"`
	Slug           string          `json:"slug"`
	ImageURL       string          `json:"image_url"`
	FragranticaURL string          `json:"fragrantica_url"`
	Notes          string          `json:"notes"`
	Accords        []Accord        `json:"accords"`
	Decants        []DecantRequest `json:"decants"`

	// AddToShelf links the new fragrance to the store owner's shelf.
	AddToShelf bool `json:"add_to_shelf"`
}

// UpdateFragranceRequest only touches the fields that are present.
type UpdateFragranceRequest struct {
	Brand          *string   `json:"brand"`
	Name           *string   `json:"name"`
	Slug           *string   `json:"slug"`
	ImageURL       *string   `json:"image_url"`
	FragranticaURL *string   `json:"fragrantica_url"`
	Notes          *string   `json:"notes"`
	Accords        *[]Accord `json:"accords"`
}

type ReplaceDecantsRequest struct {
	Decants []DecantRequest `json:"decants"`
}

type ImportRequest struct {
	OwnerID *uuid.UUID `json:"owner_id"`
	Data    string     `json:"data" binding:"required"`
}

type BrandOrderRequest struct {
	Brands []string `json:"brands" binding:"required"`
}

type BrandPositionRequest struct {
	Brand string   `json:"brand"`
	XPct  *float64 `json:"x_pct" binding:"required"`
	YPct  *float64 `json:"y_pct" binding:"required"`
}

type ShelfLinksRequest struct {
	Links []ShelfLink `json:"links" binding:"required"`
}

type FulfilledRequest struct {
	Fulfilled *bool `json:"fulfilled" binding:"required"`
}

type CommentRequest struct {
	Comment string `json:"comment"`
}

type RemoveBackgroundRequest struct {
	ImageURL string `json:"image_url"`
}

type FixImagesRequest struct {
	Limit int `json:"limit"`
}
