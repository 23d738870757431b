package supabase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"decant-boutique-backend/internal/config"
	"decant-boutique-backend/internal/models"
)

// CatalogClient reads the public catalog through Supabase's PostgREST API
// with the publishable key, so row level security applies exactly as it
// does for the browser. Writes always go through DatabaseClient.
type CatalogClient struct {
	client *supabase.Client
}

func NewCatalogClient(cfg *config.Config) (*CatalogClient, error) {
	client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.PublishableKey, nil)
	if err != nil {
		return nil, err
	}

	return &CatalogClient{client: client}, nil
}

// The PostgREST client does not take a context; ctx is accepted so
// CatalogClient and DatabaseClient are interchangeable.

func (c *CatalogClient) ListFragrances(_ context.Context, brandSlug string) ([]models.Fragrance, error) {
	query := c.client.From("fragrances").
		Select("*, decants(*)", "", false)
	if brandSlug != "" {
		query = query.Eq("brand_slug", brandSlug)
	}

	var fragrances []models.Fragrance
	_, err := query.
		Order("brand_slug", &postgrest.OrderOpts{Ascending: true}).
		Order("name", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&fragrances)
	if err != nil {
		return nil, fmt.Errorf("failed to list fragrances: %w", err)
	}
	if fragrances == nil {
		fragrances = []models.Fragrance{}
	}
	return fragrances, nil
}

func (c *CatalogClient) GetFragrance(_ context.Context, id uuid.UUID) (*models.Fragrance, error) {
	var fragrances []models.Fragrance
	_, err := c.client.From("fragrances").
		Select("*, decants(*)", "", false).
		Eq("id", id.String()).
		Limit(1, "").
		ExecuteTo(&fragrances)
	if err != nil {
		return nil, fmt.Errorf("failed to get fragrance: %w", err)
	}
	if len(fragrances) == 0 {
		return nil, fmt.Errorf("fragrance: %w", models.ErrNotFound)
	}
	return &fragrances[0], nil
}

func (c *CatalogClient) ListBrandOrder(_ context.Context) ([]models.BrandOrderEntry, error) {
	var entries []models.BrandOrderEntry
	_, err := c.client.From("brand_order").
		Select("brand_slug, brand, sort_index", "", false).
		Order("sort_index", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand order: %w", err)
	}
	return entries, nil
}

func (c *CatalogClient) ListShelfLinks(_ context.Context, userID uuid.UUID) ([]models.ShelfLink, error) {
	var links []models.ShelfLink
	_, err := c.client.From("user_fragrances").
		Select("id, user_id, fragrance_id, position, shelf, row_index, col_index", "", false).
		Eq("user_id", userID.String()).
		Order("position", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&links)
	if err != nil {
		return nil, fmt.Errorf("failed to list shelf links: %w", err)
	}
	if links == nil {
		links = []models.ShelfLink{}
	}
	return links, nil
}

func (c *CatalogClient) ListBrandPositions(_ context.Context, userID uuid.UUID) ([]models.BrandPosition, error) {
	var positions []models.BrandPosition
	_, err := c.client.From("brand_positions").
		Select("user_id, brand_slug, brand, x_pct, y_pct, updated_at", "", false).
		Eq("user_id", userID.String()).
		ExecuteTo(&positions)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand positions: %w", err)
	}
	if positions == nil {
		positions = []models.BrandPosition{}
	}
	return positions, nil
}
