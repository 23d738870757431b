package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"decant-boutique-backend/internal/models"
)

// CatalogReader is the read side of the catalog. It is served by either the
// PostgREST client or the direct database client.
type CatalogReader interface {
	ListFragrances(ctx context.Context, brandSlug string) ([]models.Fragrance, error)
	GetFragrance(ctx context.Context, id uuid.UUID) (*models.Fragrance, error)
	ListBrandOrder(ctx context.Context) ([]models.BrandOrderEntry, error)
	ListShelfLinks(ctx context.Context, userID uuid.UUID) ([]models.ShelfLink, error)
	ListBrandPositions(ctx context.Context, userID uuid.UUID) ([]models.BrandPosition, error)
}

type CatalogService struct {
	reader CatalogReader
}

func NewCatalogService(reader CatalogReader) *CatalogService {
	return &CatalogService{reader: reader}
}

// BrandSlug is the grouping key for a brand name. Apostrophes are dropped,
// not hyphenated: "L'Artisan" becomes "lartisan".
func BrandSlug(brand string) string {
	return slug.Make(strings.TrimSpace(brand))
}

func (s *CatalogService) ListFragrances(ctx context.Context, brand string) ([]models.Fragrance, error) {
	brandSlug := ""
	if brand != "" {
		brandSlug = BrandSlug(brand)
	}
	fragrances, err := s.reader.ListFragrances(ctx, brandSlug)
	if err != nil {
		return nil, err
	}
	if fragrances == nil {
		fragrances = []models.Fragrance{}
	}
	return fragrances, nil
}

func (s *CatalogService) GetFragrance(ctx context.Context, id uuid.UUID) (*models.Fragrance, error) {
	return s.reader.GetFragrance(ctx, id)
}

// Brands groups every fragrance by brand slug. Brands with an explicit
// position come first in that order, the rest follow alphabetically.
func (s *CatalogService) Brands(ctx context.Context) ([]models.BrandGroup, error) {
	fragrances, err := s.reader.ListFragrances(ctx, "")
	if err != nil {
		return nil, err
	}
	order, err := s.reader.ListBrandOrder(ctx)
	if err != nil {
		return nil, err
	}
	return GroupBrands(fragrances, order), nil
}

func GroupBrands(fragrances []models.Fragrance, order []models.BrandOrderEntry) []models.BrandGroup {
	index := map[string]int{}
	for _, e := range order {
		index[e.BrandSlug] = e.SortIndex
	}

	groups := map[string]*models.BrandGroup{}
	var slugs []string
	for _, f := range fragrances {
		key := f.BrandSlug
		if key == "" {
			key = BrandSlug(f.Brand)
		}
		g, ok := groups[key]
		if !ok {
			g = &models.BrandGroup{Brand: f.Brand, Slug: key}
			if i, ok := index[key]; ok {
				sortIndex := i
				g.SortIndex = &sortIndex
			}
			groups[key] = g
			slugs = append(slugs, key)
		}
		g.Fragrances = append(g.Fragrances, f)
	}

	out := make([]models.BrandGroup, 0, len(slugs))
	for _, key := range slugs {
		g := groups[key]
		for i := range g.Fragrances {
			if g.Fragrances[i].DisplayImage() != "" {
				g.Representative = &g.Fragrances[i]
				break
			}
		}
		if g.Representative == nil {
			g.Representative = &g.Fragrances[0]
		}
		out = append(out, *g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.SortIndex != nil && b.SortIndex != nil:
			if *a.SortIndex != *b.SortIndex {
				return *a.SortIndex < *b.SortIndex
			}
		case a.SortIndex != nil:
			return true
		case b.SortIndex != nil:
			return false
		}
		return strings.ToLower(a.Brand) < strings.ToLower(b.Brand)
	})
	return out
}

func (s *CatalogService) Shelf(ctx context.Context, userID uuid.UUID) (*models.ShelfResponse, error) {
	links, err := s.reader.ListShelfLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	positions, err := s.reader.ListBrandPositions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []models.ShelfLink{}
	}
	if positions == nil {
		positions = []models.BrandPosition{}
	}
	return &models.ShelfResponse{
		UserID:         userID.String(),
		Links:          links,
		BrandPositions: positions,
	}, nil
}
