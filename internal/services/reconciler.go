package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/events"
	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/payments"
)

type OrderStore interface {
	UpsertOrder(ctx context.Context, o *models.Order) (*models.Order, bool, error)
	GetOrderBySession(ctx context.Context, sessionID string) (*models.Order, error)
	ApplyOrderStock(ctx context.Context, orderID uuid.UUID, quantities map[uuid.UUID]int64) (bool, error)
	ClaimNotification(ctx context.Context, orderID uuid.UUID) (bool, error)
	RecordEmailResult(ctx context.Context, orderID uuid.UUID, adminSent, customerSent bool, emailErr string) error
}

type SessionSource interface {
	GetSession(ctx context.Context, sessionID string) (*payments.Session, error)
	ListLineItems(ctx context.Context, sessionID string) ([]payments.LineItem, error)
}

type OrderMailer interface {
	Enabled() bool
	SendAdminSummary(ctx context.Context, order *models.Order) error
	SendBuyerConfirmation(ctx context.Context, order *models.Order) error
}

type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, event events.OrderPaid) error
}

// Reconciler turns a completed checkout session into exactly one order row.
// It is safe to call any number of times, concurrently, for the same session.
type Reconciler struct {
	store     OrderStore
	sessions  SessionSource
	mailer    OrderMailer
	publisher EventPublisher
	logger    *slog.Logger
}

func NewReconciler(store OrderStore, sessions SessionSource, mailer OrderMailer, publisher EventPublisher, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:     store,
		sessions:  sessions,
		mailer:    mailer,
		publisher: publisher,
		logger:    logger,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, sessionID string) (*models.Order, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrValidation)
	}

	sess, err := r.sessions.GetSession(ctx, sessionID)
	if err != nil {
		r.logger.Warn("checkout session not retrievable", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	order := orderFromSession(sess)
	order.LineItems = r.lineItems(ctx, sess)

	saved, created, err := r.store.UpsertOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	log := r.logger.With("order_id", saved.ID, "session_id", sessionID, "status", saved.Status)
	if created {
		log.Info("order created")
	}

	if !saved.Paid() {
		return saved, nil
	}

	applied, err := r.store.ApplyOrderStock(ctx, saved.ID, stockQuantities(saved.LineItems))
	if err != nil {
		return nil, err
	}
	if applied {
		log.Info("stock applied", "items", saved.ItemCount())
	}

	r.notify(ctx, saved, log)

	return saved, nil
}

// Ensure returns the order for a session, creating it when the webhook has
// not arrived yet. A paid order is returned without contacting the processor.
func (r *Reconciler) Ensure(ctx context.Context, sessionID string) (*models.Order, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrValidation)
	}

	existing, err := r.store.GetOrderBySession(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Paid() {
		return existing, nil
	}

	order, err := r.Reconcile(ctx, sessionID)
	if err != nil {
		if existing != nil && errors.Is(err, ErrSessionUnavailable) {
			return existing, nil
		}
		return nil, err
	}
	return order, nil
}

func (r *Reconciler) lineItems(ctx context.Context, sess *payments.Session) []models.LineItem {
	items, err := r.sessions.ListLineItems(ctx, sess.ID)
	if err == nil && len(items) > 0 {
		return payments.ToOrderLineItems(items)
	}
	if err != nil {
		r.logger.Warn("falling back to cart snapshot", "session_id", sess.ID, "error", err)
	}

	items, snapErr := payments.DecodeCartSnapshot(sess.Metadata[payments.MetaCart])
	if snapErr != nil {
		r.logger.Warn("no line items for session", "session_id", sess.ID, "error", snapErr)
		return []models.LineItem{}
	}
	return payments.ToOrderLineItems(items)
}

// notify sends the order emails and domain event once per paid order.
// Failures are recorded on the order and never returned.
func (r *Reconciler) notify(ctx context.Context, order *models.Order, log *slog.Logger) {
	claimed, err := r.store.ClaimNotification(ctx, order.ID)
	if err != nil {
		log.Error("failed to claim notification", "error", err)
		return
	}
	if !claimed {
		return
	}

	var adminSent, buyerSent bool
	var problems []string

	if r.mailer == nil || !r.mailer.Enabled() {
		problems = append(problems, "email is not configured")
	} else {
		if err := r.mailer.SendAdminSummary(ctx, order); err != nil {
			problems = append(problems, "admin: "+err.Error())
		} else {
			adminSent = true
		}

		if order.CustomerEmail != "" {
			if err := r.mailer.SendBuyerConfirmation(ctx, order); err != nil {
				problems = append(problems, "buyer: "+err.Error())
			} else {
				buyerSent = true
			}
		}
	}

	emailErr := strings.Join(problems, "; ")
	if emailErr != "" {
		log.Warn("order email failed", "error", emailErr)
	}
	if err := r.store.RecordEmailResult(ctx, order.ID, adminSent, buyerSent, emailErr); err != nil {
		log.Error("failed to record email result", "error", err)
	}
	order.AdminEmailSent = adminSent
	order.CustomerEmailSent = buyerSent
	order.EmailError = emailErr

	if r.publisher != nil {
		if err := r.publisher.PublishOrderPaid(ctx, events.NewOrderPaid(order)); err != nil {
			log.Warn("failed to publish order event", "error", err)
		}
	}
}

func orderFromSession(sess *payments.Session) *models.Order {
	buyer := payments.BuyerFromMetadata(sess.Metadata)

	status := sess.PaymentStatus
	if status == "" {
		status = models.OrderStatusUnpaid
	}

	order := &models.Order{
		StripeSessionID: sess.ID,
		PaymentIntentID: sess.PaymentIntentID,
		Status:          status,
		AmountTotal:     sess.AmountTotal,
		AmountSubtotal:  sess.AmountSubtotal,
		Currency:        sess.Currency,
		CustomerEmail:   firstNonEmpty(sess.CustomerEmail, buyer.Email),
		CustomerName:    firstNonEmpty(sess.CustomerName, sess.ShippingName, buyer.Name),
		CustomerPhone:   firstNonEmpty(sess.CustomerPhone, sess.ShippingPhone, buyer.Phone),
		DiscountCode:    sess.Metadata[payments.MetaDiscountCode],
	}
	if settled(sess) {
		order.Status = models.OrderStatusPaid
	}

	switch {
	case !sess.ShippingAddress.Empty():
		order.Shipping = sess.ShippingAddress
	case !sess.CustomerAddress.Empty():
		order.Shipping = sess.CustomerAddress
	default:
		order.Shipping = buyer.Address
	}
	order.Shipping.Name = firstNonEmpty(sess.ShippingName, order.Shipping.Name, order.CustomerName)

	return order
}

// settled reports whether the buyer owes nothing more: either the payment
// went through or a completed session had a zero total.
func settled(sess *payments.Session) bool {
	switch sess.PaymentStatus {
	case payments.PaymentStatusPaid:
		return true
	case payments.PaymentStatusNoPaymentRequired:
		return sess.Status == payments.SessionStatusComplete
	}
	return false
}

// stockQuantities sums purchased units per decant. Lines without a decant
// reference carry no inventory.
func stockQuantities(items []models.LineItem) map[uuid.UUID]int64 {
	out := map[uuid.UUID]int64{}
	for _, li := range items {
		if li.DecantID == nil || li.Quantity <= 0 {
			continue
		}
		out[*li.DecantID] += li.Quantity
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
