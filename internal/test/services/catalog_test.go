package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/services"
)

func fragrance(brand, name, image string) models.Fragrance {
	return models.Fragrance{ID: uuid.New(), Brand: brand, BrandSlug: services.BrandSlug(brand), Name: name, ImageURL: image}
}

func TestBrandSlug(t *testing.T) {
	assert.Equal(t, "maison-francis-kurkdjian", services.BrandSlug(" Maison Francis Kurkdjian "))
	assert.Equal(t, "lartisan-parfumeur", services.BrandSlug("L'Artisan Parfumeur"))
	assert.Equal(t, services.BrandSlug("L'Artisan Parfumeur"), services.BrandSlug("l'artisan  parfumeur"))
	assert.Equal(t, "tom-ford", services.BrandSlug("TOM FORD"))
}

func TestGroupBrands(t *testing.T) {
	fragrances := []models.Fragrance{
		fragrance("Tom Ford", "Oud Wood", ""),
		fragrance("Creed", "Aventus", "https://cdn.example.com/aventus.jpg"),
		fragrance("Amouage", "Interlude", "https://cdn.example.com/interlude.jpg"),
		fragrance("Tom Ford", "Tobacco Vanille", "https://cdn.example.com/tv.jpg"),
		fragrance("byredo", "Gypsy Water", ""),
	}
	order := []models.BrandOrderEntry{
		{BrandSlug: "creed", SortIndex: 1},
		{BrandSlug: "tom-ford", SortIndex: 0},
	}

	groups := services.GroupBrands(fragrances, order)
	require.Len(t, groups, 4)

	var slugs []string
	for _, g := range groups {
		slugs = append(slugs, g.Slug)
	}
	assert.Equal(t, []string{"tom-ford", "creed", "amouage", "byredo"}, slugs)

	assert.Len(t, groups[0].Fragrances, 2)
	require.NotNil(t, groups[0].Representative)
	assert.Equal(t, "Tobacco Vanille", groups[0].Representative.Name, "first bottle with an image represents the brand")

	require.NotNil(t, groups[3].Representative)
	assert.Equal(t, "Gypsy Water", groups[3].Representative.Name, "falls back to the first bottle")
	assert.Nil(t, groups[3].SortIndex)
}

func TestCatalogService_ListFragrancesSlugsFilter(t *testing.T) {
	catalog := newMemCatalog(fragrance("Tom Ford", "Oud Wood", ""), fragrance("Creed", "Aventus", ""))
	svc := services.NewCatalogService(catalog)

	list, err := svc.ListFragrances(context.Background(), "Tom Ford")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Oud Wood", list[0].Name)

	list, err = svc.ListFragrances(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestCatalogService_ShelfNeverNil(t *testing.T) {
	svc := services.NewCatalogService(newMemCatalog())
	owner := uuid.New()

	shelf, err := svc.Shelf(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, owner.String(), shelf.UserID)
	assert.NotNil(t, shelf.Links)
	assert.NotNil(t, shelf.BrandPositions)
}

func TestAdminCatalog_CreateFragrance(t *testing.T) {
	owner := uuid.New()
	catalog := newMemCatalog()
	svc := services.NewAdminCatalogService(catalog, newMemStorage(), &owner, quietLogger())

	five := int64(5)
	zero := int64(0)
	f, err := svc.CreateFragrance(context.Background(), models.CreateFragranceRequest{
		Brand: " Parfums de Marly ",
		Name:  "Layton",
		Decants: []models.DecantRequest{
			{Label: "2ml", PriceCents: 600, Quantity: &five},
			{Label: "5ml", PriceCents: 1200, Quantity: &zero},
			{Label: "10ml", PriceCents: 2000},
		},
		AddToShelf: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "parfums-de-marly", f.BrandSlug)
	require.Len(t, f.Decants, 3)
	assert.True(t, f.Decants[0].InStock)
	assert.False(t, f.Decants[1].InStock, "zero quantity is out of stock")
	assert.True(t, f.Decants[2].InStock, "untracked stock is in stock")
	assert.Equal(t, 2, f.Decants[2].SortOrder)
	assert.Equal(t, []uuid.UUID{f.ID}, catalog.shelf[owner])
}

func TestAdminCatalog_DecantValidation(t *testing.T) {
	svc := services.NewAdminCatalogService(newMemCatalog(), nil, nil, quietLogger())
	negative := int64(-1)

	tests := []struct {
		name string
		req  models.DecantRequest
	}{
		{"missing label", models.DecantRequest{PriceCents: 100}},
		{"zero price", models.DecantRequest{Label: "2ml"}},
		{"negative quantity", models.DecantRequest{Label: "2ml", PriceCents: 100, Quantity: &negative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateFragrance(context.Background(), models.CreateFragranceRequest{
				Brand: "Creed", Name: "Aventus", Decants: []models.DecantRequest{tt.req},
			})
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

	_, err := svc.CreateFragrance(context.Background(), models.CreateFragranceRequest{Brand: "Creed", Name: "Aventus", AddToShelf: true})
	assert.ErrorIs(t, err, services.ErrValidation, "no owner to place the bottle for")
}

func TestAdminCatalog_UpdateAndDelete(t *testing.T) {
	existing := fragrance("Creed", "Aventus", "")
	catalog := newMemCatalog(existing)
	storage := newMemStorage()
	svc := services.NewAdminCatalogService(catalog, storage, nil, quietLogger())

	brand := "Creed Paris"
	notes := "pineapple, birch"
	updated, err := svc.UpdateFragrance(context.Background(), existing.ID, models.UpdateFragranceRequest{Brand: &brand, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "creed-paris", updated.BrandSlug)
	assert.Equal(t, "Aventus", updated.Name)
	assert.Equal(t, notes, updated.Notes)

	empty := " "
	_, err = svc.UpdateFragrance(context.Background(), existing.ID, models.UpdateFragranceRequest{Name: &empty})
	assert.ErrorIs(t, err, services.ErrValidation)

	require.NoError(t, svc.DeleteFragrance(context.Background(), existing.ID))
	assert.Equal(t, []uuid.UUID{existing.ID}, storage.purged)
	assert.ErrorIs(t, svc.DeleteFragrance(context.Background(), existing.ID), services.ErrNotFound)
}

func TestAdminCatalog_SetBrandOrder(t *testing.T) {
	catalog := newMemCatalog(fragrance("Tom Ford", "Oud Wood", ""), fragrance("Creed", "Aventus", ""))
	svc := services.NewAdminCatalogService(catalog, nil, nil, quietLogger())

	entries, err := svc.SetBrandOrder(context.Background(), []string{"creed", "Tom Ford", "CREED"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.BrandOrderEntry{BrandSlug: "creed", Brand: "Creed", SortIndex: 0}, entries[0])
	assert.Equal(t, "tom-ford", entries[1].BrandSlug)
	assert.Equal(t, entries, catalog.brandOrder)

	_, err = svc.SetBrandOrder(context.Background(), []string{"Chanel"})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestShelfService(t *testing.T) {
	catalog := newMemCatalog()
	svc := services.NewShelfService(&shelfStore{memCatalog: catalog})
	user := uuid.New()
	a, b := uuid.New(), uuid.New()

	_, err := svc.UpdateLinks(context.Background(), user, []models.ShelfLink{{FragranceID: a}, {FragranceID: a}})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.UpdateLinks(context.Background(), user, []models.ShelfLink{{FragranceID: b, Shelf: -1}})
	assert.ErrorIs(t, err, services.ErrValidation)

	x, y := 25.0, 140.0
	_, err = svc.SetBrandPosition(context.Background(), user, "tom-ford", models.BrandPositionRequest{XPct: &x, YPct: &y})
	assert.ErrorIs(t, err, services.ErrValidation)

	y = 60
	pos, err := svc.SetBrandPosition(context.Background(), user, "Tom Ford", models.BrandPositionRequest{XPct: &x, YPct: &y})
	require.NoError(t, err)
	assert.Equal(t, "tom-ford", pos.BrandSlug)
	assert.Equal(t, "tom-ford", pos.Brand)
}

type shelfStore struct {
	*memCatalog
}

func (s *shelfStore) UpdateShelfLinks(_ context.Context, userID uuid.UUID, links []models.ShelfLink) error {
	s.shelf[userID] = nil
	for _, l := range links {
		s.shelf[userID] = append(s.shelf[userID], l.FragranceID)
	}
	return nil
}

func (s *shelfStore) UpsertBrandPosition(_ context.Context, p models.BrandPosition) (*models.BrandPosition, error) {
	return &p, nil
}
