package models

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"is_admin"`
}

type Accord struct {
	Name     string `json:"name"`
	Strength int    `json:"strength"`
}

type Fragrance struct {
	ID                   uuid.UUID `json:"id"`
	Brand                string    `json:"brand"`
	BrandSlug            string    `json:"brand_slug"`
	Name                 string    `json:"name"`
	Slug                 *string   `json:"slug,omitempty"`
	ImageURL             string    `json:"image_url"`
	TransparentImageURL  string    `json:"transparent_image_url"`
	TransparentImagePath string    `json:"transparent_image_path,omitempty"`
	FragranticaURL       string    `json:"fragrantica_url"`
	Notes                string    `json:"notes"`
	Accords              []Accord  `json:"accords"`
	Decants              []Decant  `json:"decants,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DisplayImage prefers the background-removed cutout.
func (f *Fragrance) DisplayImage() string {
	if f.TransparentImageURL != "" {
		return f.TransparentImageURL
	}
	return f.ImageURL
}

// Decant is a purchasable inventory option. A nil Quantity means stock is
// not tracked.
type Decant struct {
	ID          uuid.UUID `json:"id"`
	FragranceID uuid.UUID `json:"fragrance_id"`
	Label       string    `json:"label"`
	PriceCents  int64     `json:"price_cents"`
	Quantity    *int64    `json:"quantity"`
	InStock     bool      `json:"in_stock"`
	SortOrder   int       `json:"sort_order"`
}

func (d *Decant) Unlimited() bool {
	return d.Quantity == nil
}

func (d *Decant) Purchasable() bool {
	return d.InStock && (d.Quantity == nil || *d.Quantity > 0)
}

type ShelfLink struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	FragranceID uuid.UUID `json:"fragrance_id"`
	Position    int       `json:"position"`
	Shelf       int       `json:"shelf"`
	Row         int       `json:"row_index"`
	Col         int       `json:"col_index"`
}

type BrandPosition struct {
	UserID    uuid.UUID `json:"user_id"`
	BrandSlug string    `json:"brand_slug"`
	Brand     string    `json:"brand"`
	XPct      float64   `json:"x_pct"`
	YPct      float64   `json:"y_pct"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BrandOrderEntry struct {
	BrandSlug string `json:"brand_slug"`
	Brand     string `json:"brand"`
	SortIndex int    `json:"sort_index"`
}

// BrandGroup is every fragrance sharing a brand slug, with the bottle used
// to represent the brand on the boutique canvas.
type BrandGroup struct {
	Brand          string      `json:"brand"`
	Slug           string      `json:"slug"`
	SortIndex      *int        `json:"sort_index,omitempty"`
	Representative *Fragrance  `json:"representative,omitempty"`
	Fragrances     []Fragrance `json:"fragrances"`
}
