package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/supabase"
)

type BackgroundRemover interface {
	Configured() bool
	FetchImage(ctx context.Context, imageURL string) ([]byte, string, error)
	RemoveBackground(ctx context.Context, filename string, data []byte) ([]byte, error)
	RemoveBackgroundFromURL(ctx context.Context, imageURL string) ([]byte, error)
}

type ImageStore interface {
	GetFragrance(ctx context.Context, id uuid.UUID) (*models.Fragrance, error)
	ListFragrancesMissingTransparent(ctx context.Context, limit int) ([]models.Fragrance, error)
	UpdateTransparentImage(ctx context.Context, id uuid.UUID, publicURL, storagePath string) error
}

// StorageService produces background-free bottle cutouts and keeps them in
// the image bucket.
type StorageService struct {
	remover BackgroundRemover
	store   ImageStore
	storage ImageStorage
	logger  *slog.Logger
	now     func() time.Time
}

func NewStorageService(remover BackgroundRemover, store ImageStore, storage ImageStorage, logger *slog.Logger) *StorageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageService{
		remover: remover,
		store:   store,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// RemoveBackground cuts the fragrance's bottle out of imageURL, or out of its
// catalog image when imageURL is empty, and stores the PNG.
func (s *StorageService) RemoveBackground(ctx context.Context, fragranceID uuid.UUID, imageURL string) (*models.Fragrance, error) {
	if s.remover == nil || !s.remover.Configured() || s.storage == nil {
		return nil, fmt.Errorf("background removal: %w", ErrNotConfigured)
	}

	f, err := s.store.GetFragrance(ctx, fragranceID)
	if err != nil {
		return nil, err
	}

	source := strings.TrimSpace(imageURL)
	if source == "" {
		source = f.ImageURL
	}
	if source == "" {
		return nil, fmt.Errorf("%w: fragrance has no image to process", ErrValidation)
	}

	log := s.logger.With("fragrance_id", f.ID, "source", source)

	var png []byte
	original, _, err := s.remover.FetchImage(ctx, source)
	if err != nil {
		// Some retailers block our fetcher but not remove.bg's.
		log.Warn("source fetch failed, handing the url to remove.bg", "error", err)
		png, err = s.remover.RemoveBackgroundFromURL(ctx, source)
	} else {
		png, err = s.remover.RemoveBackground(ctx, sourceFilename(source), original)
	}
	if err != nil {
		return nil, err
	}

	storagePath := supabase.TransparentImagePath(f.ID, s.now().Unix())
	publicURL, err := s.storage.UploadImage(storagePath, "image/png", png)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateTransparentImage(ctx, f.ID, publicURL, storagePath); err != nil {
		return nil, err
	}

	if f.TransparentImagePath != "" && f.TransparentImagePath != storagePath {
		if err := s.storage.DeleteFile(f.TransparentImagePath); err != nil {
			log.Warn("failed to delete previous cutout", "path", f.TransparentImagePath, "error", err)
		}
	}

	log.Info("background removed", "path", storagePath, "bytes", len(png))

	f.TransparentImageURL = publicURL
	f.TransparentImagePath = storagePath
	return f, nil
}

// FixMissing runs background removal over fragrances that have a catalog
// image but no cutout. One failure does not stop the batch.
func (s *StorageService) FixMissing(ctx context.Context, limit int) (*models.ImageFixResponse, error) {
	if s.remover == nil || !s.remover.Configured() || s.storage == nil {
		return nil, fmt.Errorf("background removal: %w", ErrNotConfigured)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	pending, err := s.store.ListFragrancesMissingTransparent(ctx, limit)
	if err != nil {
		return nil, err
	}

	resp := &models.ImageFixResponse{Results: []models.ImageFixResult{}}
	for _, f := range pending {
		if ctx.Err() != nil {
			break
		}

		result := models.ImageFixResult{FragranceID: f.ID.String(), Name: f.Brand + " " + f.Name}
		updated, err := s.RemoveBackground(ctx, f.ID, "")
		if err != nil {
			result.Error = err.Error()
			resp.Failed++
			s.logger.Warn("image fix failed", "fragrance_id", f.ID, "error", err)
		} else {
			result.OK = true
			result.ImageURL = updated.TransparentImageURL
		}
		resp.Processed++
		resp.Results = append(resp.Results, result)
	}
	return resp, nil
}

func sourceFilename(source string) string {
	name := path.Base(strings.SplitN(source, "?", 2)[0])
	if name == "" || name == "." || name == "/" {
		return "image.jpg"
	}
	return name
}
