package services_test

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
)

// memCatalog is an in-memory CatalogStore.
type memCatalog struct {
	fragrances []models.Fragrance
	decants    map[uuid.UUID][]models.Decant
	shelf      map[uuid.UUID][]uuid.UUID
	brandOrder []models.BrandOrderEntry
	// createConflict makes the next CreateFragrance report a uniqueness clash
	// after inserting, as a concurrent import would.
	createConflict bool
}

func newMemCatalog(fragrances ...models.Fragrance) *memCatalog {
	return &memCatalog{
		fragrances: fragrances,
		decants:    map[uuid.UUID][]models.Decant{},
		shelf:      map[uuid.UUID][]uuid.UUID{},
	}
}

func (m *memCatalog) ListFragrances(_ context.Context, brandSlug string) ([]models.Fragrance, error) {
	var out []models.Fragrance
	for _, f := range m.fragrances {
		if brandSlug == "" || f.BrandSlug == brandSlug {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memCatalog) GetFragrance(_ context.Context, id uuid.UUID) (*models.Fragrance, error) {
	for _, f := range m.fragrances {
		if f.ID == id {
			out := f
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memCatalog) FindFragrance(_ context.Context, brandSlug, name string) (*models.Fragrance, error) {
	for _, f := range m.fragrances {
		if f.BrandSlug == brandSlug && strings.EqualFold(f.Name, name) {
			out := f
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memCatalog) CreateFragrance(_ context.Context, f *models.Fragrance, decants []models.Decant) (*models.Fragrance, error) {
	created := *f
	created.ID = uuid.New()
	m.fragrances = append(m.fragrances, created)
	if m.createConflict {
		m.createConflict = false
		return nil, models.ErrConflict
	}
	for i := range decants {
		decants[i].ID = uuid.New()
		decants[i].FragranceID = created.ID
	}
	m.decants[created.ID] = decants
	created.Decants = decants
	return &created, nil
}

func (m *memCatalog) UpdateFragrance(_ context.Context, f *models.Fragrance) (*models.Fragrance, error) {
	for i := range m.fragrances {
		if m.fragrances[i].ID == f.ID {
			m.fragrances[i] = *f
			out := *f
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memCatalog) DeleteFragrance(_ context.Context, id uuid.UUID) (*models.Fragrance, error) {
	for i, f := range m.fragrances {
		if f.ID == id {
			m.fragrances = append(m.fragrances[:i], m.fragrances[i+1:]...)
			return &f, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memCatalog) ReplaceDecants(_ context.Context, fragranceID uuid.UUID, decants []models.Decant) ([]models.Decant, error) {
	for i := range decants {
		decants[i].ID = uuid.New()
		decants[i].FragranceID = fragranceID
	}
	m.decants[fragranceID] = decants
	return decants, nil
}

func (m *memCatalog) AddShelfLink(_ context.Context, userID, fragranceID uuid.UUID) error {
	for _, id := range m.shelf[userID] {
		if id == fragranceID {
			return nil
		}
	}
	m.shelf[userID] = append(m.shelf[userID], fragranceID)
	return nil
}

func (m *memCatalog) SetBrandOrder(_ context.Context, entries []models.BrandOrderEntry) error {
	m.brandOrder = entries
	return nil
}

func (m *memCatalog) ListBrandOrder(context.Context) ([]models.BrandOrderEntry, error) {
	return m.brandOrder, nil
}

func (m *memCatalog) ListShelfLinks(_ context.Context, userID uuid.UUID) ([]models.ShelfLink, error) {
	var out []models.ShelfLink
	for i, id := range m.shelf[userID] {
		out = append(out, models.ShelfLink{UserID: userID, FragranceID: id, Position: i})
	}
	return out, nil
}

func (m *memCatalog) ListBrandPositions(context.Context, uuid.UUID) ([]models.BrandPosition, error) {
	return nil, nil
}

type memStorage struct {
	uploaded map[string][]byte
	deleted  []string
	purged   []uuid.UUID
}

func newMemStorage() *memStorage {
	return &memStorage{uploaded: map[string][]byte{}}
}

func (m *memStorage) UploadImage(storagePath, _ string, data []byte) (string, error) {
	m.uploaded[storagePath] = data
	return "https://project.supabase.co/storage/v1/object/public/fragrance-images/" + storagePath, nil
}

func (m *memStorage) DeleteFile(storagePath string) error {
	m.deleted = append(m.deleted, storagePath)
	return nil
}

func (m *memStorage) DeleteFragranceImages(fragranceID uuid.UUID) error {
	m.purged = append(m.purged, fragranceID)
	return nil
}
