package supabase

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/database"
	"decant-boutique-backend/internal/models"
)

func (d *DatabaseClient) ListShelfLinks(ctx context.Context, userID uuid.UUID) ([]models.ShelfLink, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, fragrance_id, position, shelf, row_index, col_index
		FROM user_fragrances
		WHERE user_id = $1
		ORDER BY position, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shelf links: %w", err)
	}
	defer rows.Close()

	links := []models.ShelfLink{}
	for rows.Next() {
		var l models.ShelfLink
		if err := rows.Scan(&l.ID, &l.UserID, &l.FragranceID, &l.Position, &l.Shelf, &l.Row, &l.Col); err != nil {
			return nil, fmt.Errorf("failed to scan shelf link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// AddShelfLink places a fragrance at the end of the user's shelf. Linking a
// fragrance twice is a no-op.
func (d *DatabaseClient) AddShelfLink(ctx context.Context, userID, fragranceID uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO user_fragrances (user_id, fragrance_id, position)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position), -1) + 1 FROM user_fragrances WHERE user_id = $1))
		ON CONFLICT (user_id, fragrance_id) DO NOTHING
	`, userID, fragranceID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("profile or fragrance: %w", models.ErrNotFound)
		}
		return fmt.Errorf("failed to add shelf link: %w", err)
	}
	return nil
}

// UpdateShelfLinks rewrites the placement of the given links in one
// transaction. Links are matched by fragrance so clients don't need link ids.
func (d *DatabaseClient) UpdateShelfLinks(ctx context.Context, userID uuid.UUID, links []models.ShelfLink) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		for _, l := range links {
			res, err := tx.ExecContext(ctx, `
				UPDATE user_fragrances
				SET position = $3, shelf = $4, row_index = $5, col_index = $6
				WHERE user_id = $1 AND fragrance_id = $2
			`, userID, l.FragranceID, l.Position, l.Shelf, l.Row, l.Col)
			if err != nil {
				return fmt.Errorf("failed to update shelf link: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("shelf link for fragrance %s: %w", l.FragranceID, models.ErrNotFound)
			}
		}
		return nil
	})
}

func (d *DatabaseClient) ListBrandPositions(ctx context.Context, userID uuid.UUID) ([]models.BrandPosition, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT user_id, brand_slug, brand, x_pct, y_pct, updated_at
		FROM brand_positions
		WHERE user_id = $1
		ORDER BY brand_slug
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand positions: %w", err)
	}
	defer rows.Close()

	positions := []models.BrandPosition{}
	for rows.Next() {
		var p models.BrandPosition
		if err := rows.Scan(&p.UserID, &p.BrandSlug, &p.Brand, &p.XPct, &p.YPct, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan brand position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (d *DatabaseClient) UpsertBrandPosition(ctx context.Context, p models.BrandPosition) (*models.BrandPosition, error) {
	var out models.BrandPosition
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO brand_positions (user_id, brand_slug, brand, x_pct, y_pct, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, brand_slug) DO UPDATE
		SET x_pct = EXCLUDED.x_pct,
			y_pct = EXCLUDED.y_pct,
			brand = CASE WHEN EXCLUDED.brand = '' THEN brand_positions.brand ELSE EXCLUDED.brand END,
			updated_at = NOW()
		RETURNING user_id, brand_slug, brand, x_pct, y_pct, updated_at
	`, p.UserID, p.BrandSlug, p.Brand, p.XPct, p.YPct).Scan(
		&out.UserID, &out.BrandSlug, &out.Brand, &out.XPct, &out.YPct, &out.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("profile: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to save brand position: %w", err)
	}
	return &out, nil
}

func (d *DatabaseClient) ListBrandOrder(ctx context.Context) ([]models.BrandOrderEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT brand_slug, brand, sort_index
		FROM brand_order
		ORDER BY sort_index
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand order: %w", err)
	}
	defer rows.Close()

	entries := []models.BrandOrderEntry{}
	for rows.Next() {
		var e models.BrandOrderEntry
		if err := rows.Scan(&e.BrandSlug, &e.Brand, &e.SortIndex); err != nil {
			return nil, fmt.Errorf("failed to scan brand order: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetBrandOrder replaces the saved brand ordering.
func (d *DatabaseClient) SetBrandOrder(ctx context.Context, entries []models.BrandOrderEntry) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM brand_order`); err != nil {
			return fmt.Errorf("failed to clear brand order: %w", err)
		}
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO brand_order (brand_slug, brand, sort_index)
				VALUES ($1, $2, $3)
			`, e.BrandSlug, e.Brand, e.SortIndex); err != nil {
				return fmt.Errorf("failed to save brand order: %w", err)
			}
		}
		return nil
	})
}
