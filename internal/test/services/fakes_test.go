package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/events"
	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/payments"
	"decant-boutique-backend/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func qty(n int64) *int64 { return &n }

// memStore is an in-memory order and inventory store with the same claim
// semantics as the Postgres one.
type memStore struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	decants  map[uuid.UUID]*models.Decant
	events   map[string]string
	emails   int
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		orders:  map[string]*models.Order{},
		decants: map[uuid.UUID]*models.Decant{},
		events:  map[string]string{},
	}
}

func (m *memStore) addDecant(quantity *int64, inStock bool) uuid.UUID {
	id := uuid.New()
	m.decants[id] = &models.Decant{ID: id, FragranceID: uuid.New(), Label: "5ml", PriceCents: 1500, Quantity: quantity, InStock: inStock}
	return id
}

func (m *memStore) stock(id uuid.UUID) models.Decant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.decants[id]
}

func (m *memStore) UpsertOrder(_ context.Context, o *models.Order) (*models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return nil, false, err
	}

	existing, ok := m.orders[o.StripeSessionID]
	if !ok {
		saved := *o
		saved.ID = uuid.New()
		saved.CreatedAt = time.Now()
		m.orders[o.StripeSessionID] = &saved
		out := saved
		return &out, true, nil
	}

	status := o.Status
	if existing.Paid() {
		status = existing.Status
	}
	existing.Status = status
	existing.AmountTotal = o.AmountTotal
	existing.LineItems = o.LineItems
	out := *existing
	return &out, false, nil
}

func (m *memStore) GetOrderBySession(_ context.Context, sessionID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[sessionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *o
	return &out, nil
}

func (m *memStore) byID(id uuid.UUID) *models.Order {
	for _, o := range m.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (m *memStore) ApplyOrderStock(_ context.Context, orderID uuid.UUID, quantities map[uuid.UUID]int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.byID(orderID)
	if o == nil {
		return false, models.ErrNotFound
	}
	if !o.Paid() || o.StockAppliedAt != nil {
		return false, nil
	}
	now := time.Now()
	o.StockAppliedAt = &now

	for id, q := range quantities {
		d, ok := m.decants[id]
		if !ok || q <= 0 || d.Quantity == nil || !d.InStock {
			continue
		}
		left := *d.Quantity - q
		if left < 0 {
			left = 0
		}
		d.Quantity = &left
		d.InStock = left > 0
	}
	return true, nil
}

func (m *memStore) ClaimNotification(_ context.Context, orderID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.byID(orderID)
	if o == nil {
		return false, models.ErrNotFound
	}
	if !o.Paid() || o.NotifiedAt != nil {
		return false, nil
	}
	now := time.Now()
	o.NotifiedAt = &now
	return true, nil
}

func (m *memStore) RecordEmailResult(_ context.Context, orderID uuid.UUID, adminSent, customerSent bool, emailErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.byID(orderID)
	if o == nil {
		return models.ErrNotFound
	}
	m.emails++
	o.AdminEmailSent = adminSent
	o.CustomerEmailSent = customerSent
	o.EmailError = emailErr
	return nil
}

func (m *memStore) WebhookEventProcessed(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.events[eventID]
	return ok, nil
}

func (m *memStore) MarkWebhookEventProcessed(_ context.Context, eventID, eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventID] = eventType
	return nil
}

func (m *memStore) GetDecants(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Decant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID]models.Decant{}
	for _, id := range ids {
		if d, ok := m.decants[id]; ok {
			out[id] = *d
		}
	}
	return out, nil
}

func (m *memStore) GetFragrance(_ context.Context, id uuid.UUID) (*models.Fragrance, error) {
	return &models.Fragrance{ID: id, Brand: "Creed", Name: "Aventus", ImageURL: "https://cdn.example.com/aventus.jpg"}, nil
}

// fakeSessions serves checkout sessions from memory.
type fakeSessions struct {
	mu        sync.Mutex
	sessions  map[string]*payments.Session
	lineItems map[string][]payments.LineItem
	calls     int
}

func (f *fakeSessions) GetSession(_ context.Context, id string) (*payments.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return s, nil
}

func (f *fakeSessions) ListLineItems(_ context.Context, id string) ([]payments.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, ok := f.lineItems[id]
	if !ok {
		return nil, errors.New("line items unavailable")
	}
	return items, nil
}

type fakeMailer struct {
	enabled   bool
	adminErr  error
	buyerErr  error
	adminSent int
	buyerSent int
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) SendAdminSummary(context.Context, *models.Order) error {
	if f.adminErr != nil {
		return f.adminErr
	}
	f.adminSent++
	return nil
}

func (f *fakeMailer) SendBuyerConfirmation(context.Context, *models.Order) error {
	if f.buyerErr != nil {
		return f.buyerErr
	}
	f.buyerSent++
	return nil
}

type fakePublisher struct {
	published []events.OrderPaid
}

func (f *fakePublisher) PublishOrderPaid(_ context.Context, ev events.OrderPaid) error {
	f.published = append(f.published, ev)
	return nil
}

type fakeVerifier struct {
	events map[string]*payments.Event
}

func (f *fakeVerifier) VerifyWebhook(_ []byte, signatureHeader string) (*payments.Event, error) {
	ev, ok := f.events[signatureHeader]
	if !ok {
		return nil, payments.ErrInvalidSignature
	}
	return ev, nil
}

type fakeDiscounts map[string]*models.DiscountCode

func (f fakeDiscounts) GetDiscountCode(_ context.Context, code string) (*models.DiscountCode, error) {
	d, ok := f[strings.ToUpper(code)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return d, nil
}

type fakeGateway struct {
	params *payments.CheckoutParams
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, p payments.CheckoutParams) (*payments.CheckoutSession, error) {
	f.params = &p
	return &payments.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

var _ services.OrderStore = (*memStore)(nil)
