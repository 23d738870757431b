package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/shippo"
)

type AdminOrderStore interface {
	ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SetOrderFulfilled(ctx context.Context, id uuid.UUID, fulfilled bool) (*models.Order, error)
	SetOrderComment(ctx context.Context, id uuid.UUID, comment string) (*models.Order, error)
	SetOrderLabel(ctx context.Context, id uuid.UUID, labelURL, trackingNumber, carrier, status string) (*models.Order, error)
	UpdateTrackingStatus(ctx context.Context, trackingNumber, status string) (bool, error)
}

type Labeler interface {
	Configured() bool
	PurchaseLabel(ctx context.Context, to shippo.Address, weightOz int) (*shippo.Label, error)
}

// OrderService backs the admin order screens and the shipping flows.
type OrderService struct {
	store   AdminOrderStore
	labeler Labeler
	logger  *slog.Logger
}

func NewOrderService(store AdminOrderStore, labeler Labeler, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{store: store, labeler: labeler, logger: logger}
}

func (s *OrderService) List(ctx context.Context, limit, offset int) ([]models.Order, int, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.store.ListOrders(ctx, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, limit, offset, nil
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *OrderService) SetFulfilled(ctx context.Context, id uuid.UUID, fulfilled bool) (*models.Order, error) {
	order, err := s.store.SetOrderFulfilled(ctx, id, fulfilled)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order fulfillment updated", "order_id", id, "fulfilled", fulfilled)
	return order, nil
}

func (s *OrderService) SetComment(ctx context.Context, id uuid.UUID, comment string) (*models.Order, error) {
	comment = strings.TrimSpace(comment)
	if len(comment) > 2000 {
		return nil, fmt.Errorf("%w: comment is too long", ErrValidation)
	}
	return s.store.SetOrderComment(ctx, id, comment)
}

// PurchaseLabel buys a shipping label for a paid order with a shipping
// address. Orders that already have a label are returned unchanged.
func (s *OrderService) PurchaseLabel(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.labeler == nil || !s.labeler.Configured() {
		return nil, fmt.Errorf("shipping labels: %w", ErrNotConfigured)
	}

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Paid() {
		return nil, fmt.Errorf("%w: order is not paid", ErrValidation)
	}
	if order.LabelURL != "" {
		return order, nil
	}
	if order.Shipping.Empty() {
		return nil, fmt.Errorf("%w: order has no shipping address", ErrValidation)
	}

	label, err := s.labeler.PurchaseLabel(ctx, shippo.Address{
		Name:    firstNonEmpty(order.Shipping.Name, order.CustomerName),
		Street1: order.Shipping.Line1,
		Street2: order.Shipping.Line2,
		City:    order.Shipping.City,
		State:   order.Shipping.State,
		Zip:     order.Shipping.PostalCode,
		Country: order.Shipping.Country,
		Phone:   order.CustomerPhone,
		Email:   order.CustomerEmail,
	}, parcelWeightOz(order))
	if err != nil {
		return nil, err
	}

	updated, err := s.store.SetOrderLabel(ctx, id, label.LabelURL, label.TrackingNumber, label.Carrier, label.Status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("shipping label purchased", "order_id", id, "carrier", label.Carrier, "tracking_number", label.TrackingNumber)
	return updated, nil
}

// HandleTracking applies a tracking webhook. It reports false when no order
// carries the tracking number.
func (s *OrderService) HandleTracking(ctx context.Context, event *shippo.TrackingEvent) (bool, error) {
	if event.Event != shippo.EventTrackUpdated {
		return false, nil
	}
	number := strings.TrimSpace(event.Data.TrackingNumber)
	status := strings.TrimSpace(event.Data.TrackingStatus.Status)
	if number == "" || status == "" {
		return false, fmt.Errorf("%w: tracking number and status are required", ErrValidation)
	}

	updated, err := s.store.UpdateTrackingStatus(ctx, number, status)
	if err != nil {
		return false, err
	}
	if updated {
		s.logger.Info("tracking updated", "tracking_number", number, "status", status)
	}
	return updated, nil
}

// parcelWeightOz estimates the parcel weight: packaging plus one ounce per
// decant.
func parcelWeightOz(order *models.Order) int {
	return 4 + int(order.ItemCount())
}
