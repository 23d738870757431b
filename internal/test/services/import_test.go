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

func TestParseImport_Lines(t *testing.T) {
	data := `# my collection
Creed | Aventus | https://www.fragrantica.com/perfume/Creed/Aventus-9828.html | https://cdn.example.com/aventus.jpg

Tom Ford	Oud Wood
just a name
| Missing brand
`
	entries, problems := services.ParseImport(data)
	require.Len(t, entries, 2)
	assert.Equal(t, "Creed", entries[0].Brand)
	assert.Equal(t, "Aventus", entries[0].Name)
	assert.Equal(t, "https://cdn.example.com/aventus.jpg", entries[0].ImageURL)
	assert.Equal(t, 2, entries[0].Line)
	assert.Equal(t, "Oud Wood", entries[1].Name)

	require.Len(t, problems, 2)
	assert.Equal(t, 5, problems[0].Line)
	assert.Equal(t, "expected Brand | Name | Fragrantica URL | Image URL", problems[0].Message)
}

func TestParseImport_JSON(t *testing.T) {
	entries, problems := services.ParseImport(`[
		{"brand": "Creed", "name": "Aventus", "url": "https://www.fragrantica.com/x", "image": "https://cdn.example.com/a.jpg",
		 "accords": [{"name": "fruity", "strength": 90}]},
		{"brand": "", "name": "Orphan"}
	]`)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://www.fragrantica.com/x", entries[0].FragranticaURL)
	assert.Equal(t, "https://cdn.example.com/a.jpg", entries[0].ImageURL)
	assert.Equal(t, []models.Accord{{Name: "fruity", Strength: 90}}, entries[0].Accords)
	require.Len(t, problems, 1)
	assert.Equal(t, 2, problems[0].Line)

	_, problems = services.ParseImport(`[{"brand": }]`)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0].Message, "invalid JSON")

	_, problems = services.ParseImport("   ")
	assert.Equal(t, "no data", problems[0].Message)
}

func TestImport_SkipsExistingAndDuplicates(t *testing.T) {
	owner := uuid.New()
	existing := fragrance("Creed", "Aventus", "")
	catalog := newMemCatalog(existing)
	svc := services.NewImportService(catalog, &owner, quietLogger())

	resp, err := svc.Import(context.Background(), models.ImportRequest{Data: `Creed | aventus
Tom Ford | Oud Wood
TOM FORD | oud wood
bad line`})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 2, resp.Skipped)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 4, resp.Errors[0].Line)

	assert.Len(t, catalog.fragrances, 2)
	assert.Len(t, catalog.shelf[owner], 2, "existing bottles are still placed on the shelf")
	assert.Contains(t, catalog.shelf[owner], existing.ID)
}

func TestImport_ConflictCountsAsSkipped(t *testing.T) {
	catalog := newMemCatalog()
	catalog.createConflict = true
	svc := services.NewImportService(catalog, nil, quietLogger())

	resp, err := svc.Import(context.Background(), models.ImportRequest{Data: "Creed | Aventus"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Created)
	assert.Equal(t, 1, resp.Skipped)
	assert.Empty(t, resp.Errors)
}

func TestImport_RequestOwnerOverridesDefault(t *testing.T) {
	defaultOwner := uuid.New()
	other := uuid.New()
	catalog := newMemCatalog()
	svc := services.NewImportService(catalog, &defaultOwner, quietLogger())

	_, err := svc.Import(context.Background(), models.ImportRequest{OwnerID: &other, Data: "Creed | Aventus"})
	require.NoError(t, err)
	assert.Len(t, catalog.shelf[other], 1)
	assert.Empty(t, catalog.shelf[defaultOwner])
}
