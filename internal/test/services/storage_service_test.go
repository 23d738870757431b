package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/services"
)

type fakeRemover struct {
	configured bool
	fetchErr   error
	failFor    string
	byURL      []string
}

func (f *fakeRemover) Configured() bool { return f.configured }

func (f *fakeRemover) FetchImage(_ context.Context, imageURL string) ([]byte, string, error) {
	if f.fetchErr != nil {
		return nil, "", f.fetchErr
	}
	return []byte("jpeg:" + imageURL), "image/jpeg", nil
}

func (f *fakeRemover) RemoveBackground(_ context.Context, filename string, data []byte) ([]byte, error) {
	if f.failFor != "" && strings.Contains(string(data), f.failFor) {
		return nil, errors.New("remove.bg failed: status 400: Could not identify foreground")
	}
	return []byte("png:" + filename), nil
}

func (f *fakeRemover) RemoveBackgroundFromURL(_ context.Context, imageURL string) ([]byte, error) {
	f.byURL = append(f.byURL, imageURL)
	return []byte("png"), nil
}

type imageStore struct {
	*memCatalog
}

func (s *imageStore) ListFragrancesMissingTransparent(_ context.Context, limit int) ([]models.Fragrance, error) {
	var out []models.Fragrance
	for _, f := range s.fragrances {
		if f.ImageURL != "" && f.TransparentImageURL == "" && len(out) < limit {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *imageStore) UpdateTransparentImage(_ context.Context, id uuid.UUID, publicURL, storagePath string) error {
	for i := range s.fragrances {
		if s.fragrances[i].ID == id {
			s.fragrances[i].TransparentImageURL = publicURL
			s.fragrances[i].TransparentImagePath = storagePath
			return nil
		}
	}
	return models.ErrNotFound
}

func TestStorageService_RemoveBackground(t *testing.T) {
	f := fragrance("Creed", "Aventus", "https://cdn.example.com/img/aventus.jpg?w=800")
	f.TransparentImagePath = "fragrances/" + f.ID.String() + "/transparent-1.png"
	store := &imageStore{newMemCatalog(f)}
	storage := newMemStorage()
	svc := services.NewStorageService(&fakeRemover{configured: true}, store, storage, quietLogger())

	updated, err := svc.RemoveBackground(context.Background(), f.ID, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.TransparentImagePath, "fragrances/"+f.ID.String()+"/transparent-"))
	assert.Contains(t, updated.TransparentImageURL, updated.TransparentImagePath)
	assert.Equal(t, "png:aventus.jpg", string(storage.uploaded[updated.TransparentImagePath]))
	assert.Equal(t, []string{f.TransparentImagePath}, storage.deleted, "the previous cutout is removed")
}

func TestStorageService_FallsBackToRemoteFetch(t *testing.T) {
	f := fragrance("Creed", "Aventus", "https://cdn.example.com/aventus.jpg")
	remover := &fakeRemover{configured: true, fetchErr: errors.New("status 403")}
	svc := services.NewStorageService(remover, &imageStore{newMemCatalog(f)}, newMemStorage(), quietLogger())

	_, err := svc.RemoveBackground(context.Background(), f.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/aventus.jpg"}, remover.byURL)
}

func TestStorageService_Rejections(t *testing.T) {
	noImage := fragrance("Creed", "Aventus", "")
	store := &imageStore{newMemCatalog(noImage)}

	svc := services.NewStorageService(&fakeRemover{}, store, newMemStorage(), quietLogger())
	_, err := svc.RemoveBackground(context.Background(), noImage.ID, "")
	assert.ErrorIs(t, err, services.ErrNotConfigured)

	svc = services.NewStorageService(&fakeRemover{configured: true}, store, newMemStorage(), quietLogger())
	_, err = svc.RemoveBackground(context.Background(), noImage.ID, "")
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = svc.RemoveBackground(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestStorageService_FixMissing(t *testing.T) {
	ok := fragrance("Creed", "Aventus", "https://cdn.example.com/aventus.jpg")
	bad := fragrance("Tom Ford", "Oud Wood", "https://cdn.example.com/broken.jpg")
	done := fragrance("Byredo", "Gypsy Water", "https://cdn.example.com/gw.jpg")
	done.TransparentImageURL = "https://project.supabase.co/gw.png"
	store := &imageStore{newMemCatalog(ok, bad, done)}
	svc := services.NewStorageService(&fakeRemover{configured: true, failFor: "broken"}, store, newMemStorage(), quietLogger())

	resp, err := svc.FixMissing(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Processed)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].OK)
	assert.False(t, resp.Results[1].OK)
	assert.Contains(t, resp.Results[1].Error, "Could not identify foreground")
}
