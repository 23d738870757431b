package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"decant-boutique-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// NewDatabaseClientFromDB wraps an existing handle.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

// notFound converts sql.ErrNoRows into models.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func (d *DatabaseClient) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (d *DatabaseClient) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := d.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(username, ''), is_admin
		FROM profiles
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Username, &p.IsAdmin)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return &p, nil
}

func (d *DatabaseClient) GetDiscountCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	var expiresAt sql.NullTime
	err := d.db.QueryRowContext(ctx, `
		SELECT code, type, value, active, expires_at, min_subtotal_cents
		FROM discount_codes
		WHERE code = $1
	`, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&dc.Code, &dc.Type, &dc.Value, &dc.Active, &expiresAt, &dc.MinSubtotalCents,
	)
	if err != nil {
		return nil, notFound(err, "discount code")
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		dc.ExpiresAt = &t
	}
	return &dc, nil
}

func (d *DatabaseClient) WebhookEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM webhook_events WHERE event_id = $1", eventID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check webhook event: %w", err)
	}
	return count > 0, nil
}

func (d *DatabaseClient) MarkWebhookEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO webhook_events (event_id, event_type, processed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}
