package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
)

type CatalogStore interface {
	ListFragrances(ctx context.Context, brandSlug string) ([]models.Fragrance, error)
	GetFragrance(ctx context.Context, id uuid.UUID) (*models.Fragrance, error)
	FindFragrance(ctx context.Context, brandSlug, name string) (*models.Fragrance, error)
	CreateFragrance(ctx context.Context, f *models.Fragrance, decants []models.Decant) (*models.Fragrance, error)
	UpdateFragrance(ctx context.Context, f *models.Fragrance) (*models.Fragrance, error)
	DeleteFragrance(ctx context.Context, id uuid.UUID) (*models.Fragrance, error)
	ReplaceDecants(ctx context.Context, fragranceID uuid.UUID, decants []models.Decant) ([]models.Decant, error)
	AddShelfLink(ctx context.Context, userID, fragranceID uuid.UUID) error
	SetBrandOrder(ctx context.Context, entries []models.BrandOrderEntry) error
}

type ImageStorage interface {
	UploadImage(storagePath, contentType string, data []byte) (string, error)
	DeleteFile(storagePath string) error
	DeleteFragranceImages(fragranceID uuid.UUID) error
}

// AdminCatalogService owns fragrance and decant writes.
type AdminCatalogService struct {
	store   CatalogStore
	storage ImageStorage
	ownerID *uuid.UUID
	logger  *slog.Logger
}

func NewAdminCatalogService(store CatalogStore, storage ImageStorage, ownerID *uuid.UUID, logger *slog.Logger) *AdminCatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminCatalogService{
		store:   store,
		storage: storage,
		ownerID: ownerID,
		logger:  logger,
	}
}

func (s *AdminCatalogService) CreateFragrance(ctx context.Context, req models.CreateFragranceRequest) (*models.Fragrance, error) {
	brand := strings.TrimSpace(req.Brand)
	name := strings.TrimSpace(req.Name)
	if brand == "" || name == "" {
		return nil, fmt.Errorf("%w: brand and name are required", ErrValidation)
	}

	decants, err := decantsFromRequests(req.Decants)
	if err != nil {
		return nil, err
	}

	f := &models.Fragrance{
		Brand:          brand,
		BrandSlug:      BrandSlug(brand),
		Name:           name,
		Slug:           optionalSlug(req.Slug),
		ImageURL:       strings.TrimSpace(req.ImageURL),
		FragranticaURL: strings.TrimSpace(req.FragranticaURL),
		Notes:          req.Notes,
		Accords:        req.Accords,
	}

	created, err := s.store.CreateFragrance(ctx, f, decants)
	if err != nil {
		return nil, err
	}

	if req.AddToShelf {
		if s.ownerID == nil {
			return nil, fmt.Errorf("%w: no store owner configured for shelf placement", ErrValidation)
		}
		if err := s.store.AddShelfLink(ctx, *s.ownerID, created.ID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("fragrance created", "fragrance_id", created.ID, "brand", created.Brand, "name", created.Name)
	return created, nil
}

func (s *AdminCatalogService) UpdateFragrance(ctx context.Context, id uuid.UUID, req models.UpdateFragranceRequest) (*models.Fragrance, error) {
	f, err := s.store.GetFragrance(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Brand != nil {
		brand := strings.TrimSpace(*req.Brand)
		if brand == "" {
			return nil, fmt.Errorf("%w: brand cannot be empty", ErrValidation)
		}
		f.Brand = brand
		f.BrandSlug = BrandSlug(brand)
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		f.Name = name
	}
	if req.Slug != nil {
		f.Slug = optionalSlug(*req.Slug)
	}
	if req.ImageURL != nil {
		f.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.FragranticaURL != nil {
		f.FragranticaURL = strings.TrimSpace(*req.FragranticaURL)
	}
	if req.Notes != nil {
		f.Notes = *req.Notes
	}
	if req.Accords != nil {
		f.Accords = *req.Accords
	}

	return s.store.UpdateFragrance(ctx, f)
}

// DeleteFragrance removes the fragrance, its decants and shelf placements,
// then every stored cutout.
func (s *AdminCatalogService) DeleteFragrance(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.store.DeleteFragrance(ctx, id)
	if err != nil {
		return err
	}

	if s.storage != nil {
		if err := s.storage.DeleteFragranceImages(deleted.ID); err != nil {
			s.logger.Warn("failed to delete fragrance images", "fragrance_id", id, "error", err)
		}
	}

	s.logger.Info("fragrance deleted", "fragrance_id", id)
	return nil
}

func (s *AdminCatalogService) ReplaceDecants(ctx context.Context, fragranceID uuid.UUID, reqs []models.DecantRequest) ([]models.Decant, error) {
	decants, err := decantsFromRequests(reqs)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetFragrance(ctx, fragranceID); err != nil {
		return nil, err
	}
	return s.store.ReplaceDecants(ctx, fragranceID, decants)
}

// SetBrandOrder stores the brand sequence shown on the storefront. Unknown
// slugs are rejected so a typo cannot silently reorder nothing.
func (s *AdminCatalogService) SetBrandOrder(ctx context.Context, brands []string) ([]models.BrandOrderEntry, error) {
	fragrances, err := s.store.ListFragrances(ctx, "")
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	for _, f := range fragrances {
		key := f.BrandSlug
		if key == "" {
			key = BrandSlug(f.Brand)
		}
		if _, ok := names[key]; !ok {
			names[key] = f.Brand
		}
	}

	seen := map[string]bool{}
	entries := make([]models.BrandOrderEntry, 0, len(brands))
	for _, b := range brands {
		key := BrandSlug(b)
		if key == "" || seen[key] {
			continue
		}
		name, ok := names[key]
		if !ok {
			return nil, fmt.Errorf("%w: unknown brand %q", ErrValidation, b)
		}
		seen[key] = true
		entries = append(entries, models.BrandOrderEntry{
			BrandSlug: key,
			Brand:     name,
			SortIndex: len(entries),
		})
	}

	if err := s.store.SetBrandOrder(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func decantsFromRequests(reqs []models.DecantRequest) ([]models.Decant, error) {
	decants := make([]models.Decant, 0, len(reqs))
	for i, r := range reqs {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: decant %d: label is required", ErrValidation, i)
		}
		if r.PriceCents <= 0 {
			return nil, fmt.Errorf("%w: decant %d: price_cents must be positive", ErrValidation, i)
		}
		if r.Quantity != nil && *r.Quantity < 0 {
			return nil, fmt.Errorf("%w: decant %d: quantity cannot be negative", ErrValidation, i)
		}

		inStock := r.Quantity == nil || *r.Quantity > 0
		if r.InStock != nil {
			inStock = *r.InStock && inStock
		}

		sortOrder := r.SortOrder
		if sortOrder == 0 {
			sortOrder = i
		}

		var qty *int64
		if r.Quantity != nil {
			q := *r.Quantity
			qty = &q
		}
		decants = append(decants, models.Decant{
			Label:      label,
			PriceCents: r.PriceCents,
			Quantity:   qty,
			InStock:    inStock,
			SortOrder:  sortOrder,
		})
	}
	return decants, nil
}

func optionalSlug(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	made := BrandSlug(s)
	return &made
}
