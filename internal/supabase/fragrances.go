package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"decant-boutique-backend/internal/database"
	"decant-boutique-backend/internal/models"
)

const fragranceColumns = `id, brand, brand_slug, name, slug, image_url, transparent_image_url,
	transparent_image_path, fragrantica_url, notes, accords, created_at, updated_at`

const decantColumns = `id, fragrance_id, label, price_cents, quantity, in_stock, sort_order`

func scanFragrance(row rowScanner) (*models.Fragrance, error) {
	var f models.Fragrance
	var slug sql.NullString
	var accords []byte
	err := row.Scan(
		&f.ID, &f.Brand, &f.BrandSlug, &f.Name, &slug, &f.ImageURL, &f.TransparentImageURL,
		&f.TransparentImagePath, &f.FragranticaURL, &f.Notes, &accords, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if slug.Valid {
		f.Slug = &slug.String
	}
	f.Accords = []models.Accord{}
	if len(accords) > 0 {
		if err := json.Unmarshal(accords, &f.Accords); err != nil {
			return nil, fmt.Errorf("failed to decode accords: %w", err)
		}
	}
	return &f, nil
}

func scanDecant(row rowScanner) (*models.Decant, error) {
	var dc models.Decant
	var quantity sql.NullInt64
	err := row.Scan(&dc.ID, &dc.FragranceID, &dc.Label, &dc.PriceCents, &quantity, &dc.InStock, &dc.SortOrder)
	if err != nil {
		return nil, err
	}
	if quantity.Valid {
		q := quantity.Int64
		dc.Quantity = &q
	}
	return &dc, nil
}

func nullableSlug(slug *string) sql.NullString {
	if slug == nil || *slug == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *slug, Valid: true}
}

func encodeAccords(accords []models.Accord) ([]byte, error) {
	if accords == nil {
		accords = []models.Accord{}
	}
	return json.Marshal(accords)
}

func (d *DatabaseClient) ListFragrances(ctx context.Context, brandSlug string) ([]models.Fragrance, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+fragranceColumns+`
		FROM fragrances
		WHERE $1 = '' OR brand_slug = $1
		ORDER BY brand_slug, name
	`, brandSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to list fragrances: %w", err)
	}
	defer rows.Close()

	fragrances := []models.Fragrance{}
	ids := []uuid.UUID{}
	for rows.Next() {
		f, err := scanFragrance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fragrance: %w", err)
		}
		fragrances = append(fragrances, *f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list fragrances: %w", err)
	}

	decants, err := d.listDecantsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range fragrances {
		fragrances[i].Decants = decants[fragrances[i].ID]
	}
	return fragrances, nil
}

func (d *DatabaseClient) GetFragrance(ctx context.Context, id uuid.UUID) (*models.Fragrance, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+fragranceColumns+` FROM fragrances WHERE id = $1`, id)
	f, err := scanFragrance(row)
	if err != nil {
		return nil, notFound(err, "fragrance")
	}

	decants, err := d.listDecantsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	f.Decants = decants[id]
	return f, nil
}

func (d *DatabaseClient) FindFragrance(ctx context.Context, brandSlug, name string) (*models.Fragrance, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+fragranceColumns+`
		FROM fragrances
		WHERE brand_slug = $1 AND LOWER(name) = LOWER($2)
	`, brandSlug, name)
	f, err := scanFragrance(row)
	if err != nil {
		return nil, notFound(err, "fragrance")
	}
	return f, nil
}

func (d *DatabaseClient) ListFragrancesMissingTransparent(ctx context.Context, limit int) ([]models.Fragrance, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+fragranceColumns+`
		FROM fragrances
		WHERE transparent_image_url = '' AND image_url <> ''
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fragrances: %w", err)
	}
	defer rows.Close()

	var fragrances []models.Fragrance
	for rows.Next() {
		f, err := scanFragrance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fragrance: %w", err)
		}
		fragrances = append(fragrances, *f)
	}
	return fragrances, rows.Err()
}

func (d *DatabaseClient) listDecantsFor(ctx context.Context, fragranceIDs []uuid.UUID) (map[uuid.UUID][]models.Decant, error) {
	out := make(map[uuid.UUID][]models.Decant, len(fragranceIDs))
	if len(fragranceIDs) == 0 {
		return out, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+decantColumns+`
		FROM decants
		WHERE fragrance_id = ANY($1::uuid[])
		ORDER BY sort_order, price_cents
	`, pq.Array(uuidStrings(fragranceIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to list decants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		dc, err := scanDecant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decant: %w", err)
		}
		out[dc.FragranceID] = append(out[dc.FragranceID], *dc)
	}
	return out, rows.Err()
}

// GetDecants returns the decants that exist among ids, keyed by id.
func (d *DatabaseClient) GetDecants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Decant, error) {
	out := make(map[uuid.UUID]models.Decant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+decantColumns+`
		FROM decants
		WHERE id = ANY($1::uuid[])
	`, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("failed to get decants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		dc, err := scanDecant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decant: %w", err)
		}
		out[dc.ID] = *dc
	}
	return out, rows.Err()
}

func (d *DatabaseClient) CreateFragrance(ctx context.Context, f *models.Fragrance, decants []models.Decant) (*models.Fragrance, error) {
	accords, err := encodeAccords(f.Accords)
	if err != nil {
		return nil, err
	}

	var created *models.Fragrance
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO fragrances (brand, brand_slug, name, slug, image_url, fragrantica_url, notes, accords)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+fragranceColumns,
			f.Brand, f.BrandSlug, f.Name, nullableSlug(f.Slug), f.ImageURL, f.FragranticaURL, f.Notes, accords,
		)
		var err error
		created, err = scanFragrance(row)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("fragrance %s %s already exists: %w", f.Brand, f.Name, models.ErrConflict)
			}
			return fmt.Errorf("failed to create fragrance: %w", err)
		}

		created.Decants, err = insertDecants(ctx, tx, created.ID, decants)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertDecants(ctx context.Context, tx *sql.Tx, fragranceID uuid.UUID, decants []models.Decant) ([]models.Decant, error) {
	out := make([]models.Decant, 0, len(decants))
	for _, dc := range decants {
		var quantity sql.NullInt64
		if dc.Quantity != nil {
			quantity = sql.NullInt64{Int64: *dc.Quantity, Valid: true}
		}
		row := tx.QueryRowContext(ctx, `
			INSERT INTO decants (fragrance_id, label, price_cents, quantity, in_stock, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+decantColumns,
			fragranceID, dc.Label, dc.PriceCents, quantity, dc.InStock, dc.SortOrder,
		)
		inserted, err := scanDecant(row)
		if err != nil {
			return nil, fmt.Errorf("failed to create decant %q: %w", dc.Label, err)
		}
		out = append(out, *inserted)
	}
	return out, nil
}

func (d *DatabaseClient) UpdateFragrance(ctx context.Context, f *models.Fragrance) (*models.Fragrance, error) {
	accords, err := encodeAccords(f.Accords)
	if err != nil {
		return nil, err
	}

	row := d.db.QueryRowContext(ctx, `
		UPDATE fragrances
		SET brand = $2, brand_slug = $3, name = $4, slug = $5, image_url = $6,
			fragrantica_url = $7, notes = $8, accords = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING `+fragranceColumns,
		f.ID, f.Brand, f.BrandSlug, f.Name, nullableSlug(f.Slug), f.ImageURL, f.FragranticaURL, f.Notes, accords,
	)
	updated, err := scanFragrance(row)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("fragrance %s %s already exists: %w", f.Brand, f.Name, models.ErrConflict)
		}
		return nil, notFound(err, "fragrance")
	}
	return updated, nil
}

// DeleteFragrance removes the fragrance, its decants and every shelf link
// pointing at it, and returns the deleted row so the caller can clean up
// stored images.
func (d *DatabaseClient) DeleteFragrance(ctx context.Context, id uuid.UUID) (*models.Fragrance, error) {
	var deleted *models.Fragrance
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_fragrances WHERE fragrance_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete shelf links: %w", err)
		}
		row := tx.QueryRowContext(ctx, `DELETE FROM fragrances WHERE id = $1 RETURNING `+fragranceColumns, id)
		var err error
		deleted, err = scanFragrance(row)
		if err != nil {
			return notFound(err, "fragrance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (d *DatabaseClient) ReplaceDecants(ctx context.Context, fragranceID uuid.UUID, decants []models.Decant) ([]models.Decant, error) {
	var out []models.Decant
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM fragrances WHERE id = $1)`, fragranceID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check fragrance: %w", err)
		}
		if !exists {
			return fmt.Errorf("fragrance: %w", models.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM decants WHERE fragrance_id = $1`, fragranceID); err != nil {
			return fmt.Errorf("failed to clear decants: %w", err)
		}
		var err error
		out, err = insertDecants(ctx, tx, fragranceID, decants)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DatabaseClient) UpdateTransparentImage(ctx context.Context, id uuid.UUID, publicURL, storagePath string) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE fragrances
		SET transparent_image_url = $2, transparent_image_path = $3, updated_at = NOW()
		WHERE id = $1
	`, id, publicURL, storagePath)
	if err != nil {
		return fmt.Errorf("failed to update transparent image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("fragrance: %w", models.ErrNotFound)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// decrementStock subtracts qty from a tracked, in-stock decant in a
// single statement and reports the remaining quantity. The counter floors at
// zero and the decant flips out of stock when it gets there. Untracked and
// out-of-stock decants are left untouched (applied == false).
func decrementStock(ctx context.Context, q queryRower, id uuid.UUID, qty int64) (remaining int64, applied bool, err error) {
	err = q.QueryRowContext(ctx, `
		UPDATE decants
		SET quantity = GREATEST(quantity - $2, 0),
			in_stock = GREATEST(quantity - $2, 0) > 0
		WHERE id = $1 AND quantity IS NOT NULL AND in_stock
		RETURNING quantity
	`, id, qty).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to decrement stock for decant %s: %w", id, err)
	}
	return remaining, true, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
