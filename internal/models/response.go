package models

import "decant-boutique-backend/internal/cart"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

type PendingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type FragranceListResponse struct {
	Fragrances []Fragrance `json:"fragrances"`
}

type BrandListResponse struct {
	Brands []BrandGroup `json:"brands"`
}

type ShelfResponse struct {
	UserID         string          `json:"user_id"`
	Links          []ShelfLink     `json:"links"`
	BrandPositions []BrandPosition `json:"brand_positions"`
}

type CartValidateResponse struct {
	Valid    bool           `json:"valid"`
	Items    []cart.Line    `json:"items"`
	Problems []cart.Problem `json:"problems"`
}

type DiscountValidateResponse struct {
	Valid    bool          `json:"valid"`
	Discount *DiscountCode `json:"discount,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

type WebhookResponse struct {
	Status string `json:"status"`
}

type ImportResponse struct {
	Created int           `json:"created"`
	Skipped int           `json:"skipped"`
	Errors  []ImportError `json:"errors"`
}

type ImportError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type ImageFixResult struct {
	FragranceID string `json:"fragrance_id"`
	Name        string `json:"name"`
	OK          bool   `json:"ok"`
	ImageURL    string `json:"image_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

type ImageFixResponse struct {
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Results   []ImageFixResult `json:"results"`
}
