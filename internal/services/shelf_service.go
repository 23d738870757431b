package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
)

type ShelfStore interface {
	UpdateShelfLinks(ctx context.Context, userID uuid.UUID, links []models.ShelfLink) error
	ListShelfLinks(ctx context.Context, userID uuid.UUID) ([]models.ShelfLink, error)
	UpsertBrandPosition(ctx context.Context, p models.BrandPosition) (*models.BrandPosition, error)
}

type ShelfService struct {
	store ShelfStore
}

func NewShelfService(store ShelfStore) *ShelfService {
	return &ShelfService{store: store}
}

// UpdateLinks rewrites the placement of fragrances already on the user's
// shelf.
func (s *ShelfService) UpdateLinks(ctx context.Context, userID uuid.UUID, links []models.ShelfLink) ([]models.ShelfLink, error) {
	seen := map[uuid.UUID]bool{}
	for i, l := range links {
		if l.FragranceID == uuid.Nil {
			return nil, fmt.Errorf("%w: link %d: fragrance_id is required", ErrValidation, i)
		}
		if seen[l.FragranceID] {
			return nil, fmt.Errorf("%w: link %d: fragrance listed twice", ErrValidation, i)
		}
		if l.Position < 0 || l.Shelf < 0 || l.Row < 0 || l.Col < 0 {
			return nil, fmt.Errorf("%w: link %d: placement cannot be negative", ErrValidation, i)
		}
		seen[l.FragranceID] = true
	}

	if err := s.store.UpdateShelfLinks(ctx, userID, links); err != nil {
		return nil, err
	}
	return s.store.ListShelfLinks(ctx, userID)
}

// SetBrandPosition places a brand on the user's canvas. Coordinates are
// percentages of the canvas size.
func (s *ShelfService) SetBrandPosition(ctx context.Context, userID uuid.UUID, brandSlug string, req models.BrandPositionRequest) (*models.BrandPosition, error) {
	key := BrandSlug(brandSlug)
	if key == "" {
		return nil, fmt.Errorf("%w: brand slug is required", ErrValidation)
	}
	if req.XPct == nil || req.YPct == nil {
		return nil, fmt.Errorf("%w: x_pct and y_pct are required", ErrValidation)
	}
	if !inPercentRange(*req.XPct) || !inPercentRange(*req.YPct) {
		return nil, fmt.Errorf("%w: x_pct and y_pct must be between 0 and 100", ErrValidation)
	}

	brand := strings.TrimSpace(req.Brand)
	if brand == "" {
		brand = key
	}

	return s.store.UpsertBrandPosition(ctx, models.BrandPosition{
		UserID:    userID,
		BrandSlug: key,
		Brand:     brand,
		XPct:      *req.XPct,
		YPct:      *req.YPct,
	})
}

func inPercentRange(v float64) bool {
	return v >= 0 && v <= 100
}
