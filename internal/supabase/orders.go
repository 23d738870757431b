package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
)

const orderColumns = `id, stripe_session_id, payment_intent_id, status, amount_total, amount_subtotal,
	currency, customer_email, customer_name, customer_phone, shipping_name, shipping_line1,
	shipping_line2, shipping_city, shipping_state, shipping_postal_code, shipping_country,
	line_items, discount_code, fulfilled, admin_comment, stock_applied_at, notified_at,
	admin_email_sent, customer_email_sent, email_error, label_url, tracking_number,
	tracking_carrier, tracking_status, created_at, updated_at`

func orderDest(o *models.Order, lineItems *[]byte, stockAppliedAt, notifiedAt *sql.NullTime) []any {
	return []any{
		&o.ID, &o.StripeSessionID, &o.PaymentIntentID, &o.Status, &o.AmountTotal, &o.AmountSubtotal,
		&o.Currency, &o.CustomerEmail, &o.CustomerName, &o.CustomerPhone, &o.Shipping.Name, &o.Shipping.Line1,
		&o.Shipping.Line2, &o.Shipping.City, &o.Shipping.State, &o.Shipping.PostalCode, &o.Shipping.Country,
		lineItems, &o.DiscountCode, &o.Fulfilled, &o.AdminComment, stockAppliedAt, notifiedAt,
		&o.AdminEmailSent, &o.CustomerEmailSent, &o.EmailError, &o.LabelURL, &o.TrackingNumber,
		&o.TrackingCarrier, &o.TrackingStatus, &o.CreatedAt, &o.UpdatedAt,
	}
}

func finishOrder(o *models.Order, lineItems []byte, stockAppliedAt, notifiedAt sql.NullTime) error {
	o.LineItems = []models.LineItem{}
	if len(lineItems) > 0 {
		if err := json.Unmarshal(lineItems, &o.LineItems); err != nil {
			return fmt.Errorf("failed to decode line items: %w", err)
		}
	}
	if stockAppliedAt.Valid {
		t := stockAppliedAt.Time
		o.StockAppliedAt = &t
	}
	if notifiedAt.Valid {
		t := notifiedAt.Time
		o.NotifiedAt = &t
	}
	return nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var lineItems []byte
	var stockAppliedAt, notifiedAt sql.NullTime
	if err := row.Scan(orderDest(&o, &lineItems, &stockAppliedAt, &notifiedAt)...); err != nil {
		return nil, err
	}
	if err := finishOrder(&o, lineItems, stockAppliedAt, notifiedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpsertOrder inserts the order or refreshes the existing row for the same
// Stripe session. The conflict target is the only synchronization point
// between a webhook delivery and a concurrent ensure call. A paid order is
// never downgraded, and admin and shipping fields are never overwritten.
// created reports whether this call inserted the row.
func (d *DatabaseClient) UpsertOrder(ctx context.Context, o *models.Order) (order *models.Order, created bool, err error) {
	lineItems, err := json.Marshal(o.LineItems)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode line items: %w", err)
	}

	row := d.db.QueryRowContext(ctx, `
		INSERT INTO orders (
			stripe_session_id, payment_intent_id, status, amount_total, amount_subtotal, currency,
			customer_email, customer_name, customer_phone, shipping_name, shipping_line1, shipping_line2,
			shipping_city, shipping_state, shipping_postal_code, shipping_country, line_items, discount_code
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (stripe_session_id) DO UPDATE SET
			payment_intent_id = COALESCE(NULLIF(EXCLUDED.payment_intent_id, ''), orders.payment_intent_id),
			status = CASE WHEN orders.status = 'paid' THEN orders.status ELSE EXCLUDED.status END,
			amount_total = EXCLUDED.amount_total,
			amount_subtotal = EXCLUDED.amount_subtotal,
			currency = EXCLUDED.currency,
			customer_email = COALESCE(NULLIF(EXCLUDED.customer_email, ''), orders.customer_email),
			customer_name = COALESCE(NULLIF(EXCLUDED.customer_name, ''), orders.customer_name),
			customer_phone = COALESCE(NULLIF(EXCLUDED.customer_phone, ''), orders.customer_phone),
			shipping_name = COALESCE(NULLIF(EXCLUDED.shipping_name, ''), orders.shipping_name),
			shipping_line1 = COALESCE(NULLIF(EXCLUDED.shipping_line1, ''), orders.shipping_line1),
			shipping_line2 = COALESCE(NULLIF(EXCLUDED.shipping_line2, ''), orders.shipping_line2),
			shipping_city = COALESCE(NULLIF(EXCLUDED.shipping_city, ''), orders.shipping_city),
			shipping_state = COALESCE(NULLIF(EXCLUDED.shipping_state, ''), orders.shipping_state),
			shipping_postal_code = COALESCE(NULLIF(EXCLUDED.shipping_postal_code, ''), orders.shipping_postal_code),
			shipping_country = COALESCE(NULLIF(EXCLUDED.shipping_country, ''), orders.shipping_country),
			line_items = EXCLUDED.line_items,
			discount_code = COALESCE(NULLIF(EXCLUDED.discount_code, ''), orders.discount_code),
			updated_at = NOW()
		RETURNING `+orderColumns+`, (xmax = 0) AS inserted
	`,
		o.StripeSessionID, o.PaymentIntentID, o.Status, o.AmountTotal, o.AmountSubtotal, o.Currency,
		o.CustomerEmail, o.CustomerName, o.CustomerPhone, o.Shipping.Name, o.Shipping.Line1, o.Shipping.Line2,
		o.Shipping.City, o.Shipping.State, o.Shipping.PostalCode, o.Shipping.Country, lineItems, o.DiscountCode,
	)

	var out models.Order
	var rawItems []byte
	var stockAppliedAt, notifiedAt sql.NullTime
	dest := append(orderDest(&out, &rawItems, &stockAppliedAt, &notifiedAt), &created)
	if err := row.Scan(dest...); err != nil {
		return nil, false, fmt.Errorf("failed to upsert order: %w", err)
	}
	if err := finishOrder(&out, rawItems, stockAppliedAt, notifiedAt); err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

func (d *DatabaseClient) GetOrderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE stripe_session_id = $1`, sessionID)
	o, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

func (d *DatabaseClient) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

func (d *DatabaseClient) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ApplyOrderStock claims the order's stock application and decrements every
// decant in the same transaction. Only the first caller for a paid order
// gets applied == true; every later or concurrent caller changes nothing.
func (d *DatabaseClient) ApplyOrderStock(ctx context.Context, orderID uuid.UUID, quantities map[uuid.UUID]int64) (applied bool, err error) {
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		var id uuid.UUID
		err := tx.QueryRowContext(ctx, `
			UPDATE orders SET stock_applied_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = 'paid' AND stock_applied_at IS NULL
			RETURNING id
		`, orderID).Scan(&id)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to claim order %s: %w", orderID, err)
		}

		for decantID, qty := range quantities {
			if qty <= 0 {
				continue
			}
			if _, _, err := decrementStock(ctx, tx, decantID, qty); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ClaimNotification marks the order as notified. Only the first caller for
// a paid order gets true.
func (d *DatabaseClient) ClaimNotification(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return d.claim(ctx, `
		UPDATE orders SET notified_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'paid' AND notified_at IS NULL
		RETURNING id
	`, orderID)
}

func (d *DatabaseClient) claim(ctx context.Context, query string, orderID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := d.db.QueryRowContext(ctx, query, orderID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim order %s: %w", orderID, err)
	}
	return true, nil
}

func (d *DatabaseClient) RecordEmailResult(ctx context.Context, orderID uuid.UUID, adminSent, customerSent bool, emailErr string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET admin_email_sent = $2, customer_email_sent = $3, email_error = $4, updated_at = NOW()
		WHERE id = $1
	`, orderID, adminSent, customerSent, emailErr)
	if err != nil {
		return fmt.Errorf("failed to record email result: %w", err)
	}
	return nil
}

func (d *DatabaseClient) updateOrder(ctx context.Context, id uuid.UUID, set string, args ...any) (*models.Order, error) {
	row := d.db.QueryRowContext(ctx, `
		UPDATE orders SET `+set+`, updated_at = NOW()
		WHERE id = $1
		RETURNING `+orderColumns,
		append([]any{id}, args...)...,
	)
	o, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

func (d *DatabaseClient) SetOrderFulfilled(ctx context.Context, id uuid.UUID, fulfilled bool) (*models.Order, error) {
	return d.updateOrder(ctx, id, "fulfilled = $2", fulfilled)
}

func (d *DatabaseClient) SetOrderComment(ctx context.Context, id uuid.UUID, comment string) (*models.Order, error) {
	return d.updateOrder(ctx, id, "admin_comment = $2", comment)
}

func (d *DatabaseClient) SetOrderLabel(ctx context.Context, id uuid.UUID, labelURL, trackingNumber, carrier, status string) (*models.Order, error) {
	return d.updateOrder(ctx, id,
		"label_url = $2, tracking_number = $3, tracking_carrier = $4, tracking_status = $5",
		labelURL, trackingNumber, carrier, status,
	)
}

// UpdateTrackingStatus reports whether an order carried the tracking number.
func (d *DatabaseClient) UpdateTrackingStatus(ctx context.Context, trackingNumber, status string) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE orders SET tracking_status = $2, updated_at = NOW()
		WHERE tracking_number = $1
	`, trackingNumber, status)
	if err != nil {
		return false, fmt.Errorf("failed to update tracking status: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
