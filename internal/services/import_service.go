package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
)

// ImportEntry is one fragrance parsed from a pasted collection export.
type ImportEntry struct {
	Line           int
	Brand          string
	Name           string
	FragranticaURL string
	ImageURL       string
	Notes          string
	Accords        []models.Accord
}

type importJSON struct {
	Brand          string          `json:"brand"`
	Name           string          `json:"name"`
	FragranticaURL string          `json:"fragrantica_url"`
	URL            string          `json:"url"`
	ImageURL       string          `json:"image_url"`
	Image          string          `json:"image"`
	Notes          string          `json:"notes"`
	Accords        []models.Accord `json:"accords"`
}

// ParseImport accepts either a JSON array of objects or one fragrance per
// line as "Brand | Name | Fragrantica URL | Image URL". Blank lines and lines
// starting with # are skipped.
func ParseImport(data string) ([]ImportEntry, []models.ImportError) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, []models.ImportError{{Line: 0, Message: "no data"}}
	}

	if strings.HasPrefix(data, "[") {
		var rows []importJSON
		if err := json.Unmarshal([]byte(data), &rows); err != nil {
			return nil, []models.ImportError{{Line: 0, Message: "invalid JSON: " + err.Error()}}
		}
		var entries []ImportEntry
		var problems []models.ImportError
		for i, r := range rows {
			e := ImportEntry{
				Line:           i + 1,
				Brand:          strings.TrimSpace(r.Brand),
				Name:           strings.TrimSpace(r.Name),
				FragranticaURL: strings.TrimSpace(firstNonEmpty(r.FragranticaURL, r.URL)),
				ImageURL:       strings.TrimSpace(firstNonEmpty(r.ImageURL, r.Image)),
				Notes:          r.Notes,
				Accords:        r.Accords,
			}
			if e.Brand == "" || e.Name == "" {
				problems = append(problems, models.ImportError{Line: e.Line, Message: "brand and name are required"})
				continue
			}
			entries = append(entries, e)
		}
		return entries, problems
	}

	var entries []ImportEntry
	var problems []models.ImportError
	for i, raw := range strings.Split(data, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sep := "|"
		if !strings.Contains(line, sep) && strings.Contains(line, "\t") {
			sep = "\t"
		}
		fields := strings.Split(line, sep)
		for j := range fields {
			fields[j] = strings.TrimSpace(fields[j])
		}
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			problems = append(problems, models.ImportError{Line: i + 1, Message: "expected Brand | Name | Fragrantica URL | Image URL"})
			continue
		}

		e := ImportEntry{Line: i + 1, Brand: fields[0], Name: fields[1]}
		if len(fields) > 2 {
			e.FragranticaURL = fields[2]
		}
		if len(fields) > 3 {
			e.ImageURL = fields[3]
		}
		entries = append(entries, e)
	}
	return entries, problems
}

type ImportService struct {
	store   CatalogStore
	ownerID *uuid.UUID
	logger  *slog.Logger
}

func NewImportService(store CatalogStore, ownerID *uuid.UUID, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{store: store, ownerID: ownerID, logger: logger}
}

// Import creates every new fragrance in data and places it on the owner's
// shelf. A fragrance that already exists (same brand slug and name) is
// skipped but still placed on the shelf.
func (s *ImportService) Import(ctx context.Context, req models.ImportRequest) (*models.ImportResponse, error) {
	owner := req.OwnerID
	if owner == nil {
		owner = s.ownerID
	}

	entries, problems := ParseImport(req.Data)
	result := &models.ImportResponse{Errors: problems}
	if result.Errors == nil {
		result.Errors = []models.ImportError{}
	}

	seen := map[string]bool{}
	for _, e := range entries {
		brandSlug := BrandSlug(e.Brand)
		key := brandSlug + "\x00" + strings.ToLower(e.Name)
		if seen[key] {
			result.Skipped++
			continue
		}
		seen[key] = true

		id, created, err := s.importOne(ctx, brandSlug, e)
		if err != nil {
			result.Errors = append(result.Errors, models.ImportError{Line: e.Line, Message: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}

		if owner != nil {
			if err := s.store.AddShelfLink(ctx, *owner, id); err != nil {
				result.Errors = append(result.Errors, models.ImportError{Line: e.Line, Message: "shelf: " + err.Error()})
			}
		}
	}

	s.logger.Info("import finished", "created", result.Created, "skipped", result.Skipped, "errors", len(result.Errors))
	return result, nil
}

func (s *ImportService) importOne(ctx context.Context, brandSlug string, e ImportEntry) (uuid.UUID, bool, error) {
	existing, err := s.store.FindFragrance(ctx, brandSlug, e.Name)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return uuid.Nil, false, err
	}

	created, err := s.store.CreateFragrance(ctx, &models.Fragrance{
		Brand:          e.Brand,
		BrandSlug:      brandSlug,
		Name:           e.Name,
		ImageURL:       e.ImageURL,
		FragranticaURL: e.FragranticaURL,
		Notes:          e.Notes,
		Accords:        e.Accords,
	}, nil)
	if errors.Is(err, ErrConflict) {
		existing, findErr := s.store.FindFragrance(ctx, brandSlug, e.Name)
		if findErr != nil {
			return uuid.Nil, false, fmt.Errorf("fragrance exists but could not be loaded: %w", findErr)
		}
		return existing.ID, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return created.ID, true, nil
}
