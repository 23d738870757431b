package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decant-boutique-backend/internal/payments"
	"decant-boutique-backend/internal/services"
)

func newWebhookService(f *reconcilerFixture, events map[string]*payments.Event) *services.WebhookService {
	return services.NewWebhookService(&fakeVerifier{events: events}, f.store, f.r, quietLogger())
}

func TestWebhook_CompletedEventCreatesOrder(t *testing.T) {
	f := newReconcilerFixture()
	decant := f.store.addDecant(qty(5), true)
	f.paidSession("cs_hook", decant, 2)
	svc := newWebhookService(f, map[string]*payments.Event{
		"sig": {ID: "evt_1", Type: payments.EventCheckoutCompleted, SessionID: "cs_hook"},
	})

	outcome, err := svc.Handle(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, services.WebhookProcessed, outcome)
	assert.Equal(t, int64(3), *f.store.stock(decant).Quantity)
	assert.Contains(t, f.store.events, "evt_1")

	outcome, err = svc.Handle(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, services.WebhookDuplicate, outcome)
	assert.Equal(t, int64(3), *f.store.stock(decant).Quantity)
}

func TestWebhook_DistinctEventsSameSession(t *testing.T) {
	f := newReconcilerFixture()
	decant := f.store.addDecant(qty(5), true)
	f.paidSession("cs_two", decant, 2)
	svc := newWebhookService(f, map[string]*payments.Event{
		"a": {ID: "evt_a", Type: payments.EventCheckoutCompleted, SessionID: "cs_two"},
		"b": {ID: "evt_b", Type: payments.EventCheckoutAsyncPaymentPassed, SessionID: "cs_two"},
	})

	_, err := svc.Handle(context.Background(), nil, "a")
	require.NoError(t, err)
	_, err = svc.Handle(context.Background(), nil, "b")
	require.NoError(t, err)

	assert.Equal(t, int64(3), *f.store.stock(decant).Quantity)
	assert.Len(t, f.store.orders, 1)
}

func TestWebhook_InvalidSignatureTouchesNothing(t *testing.T) {
	f := newReconcilerFixture()
	svc := newWebhookService(f, map[string]*payments.Event{})

	_, err := svc.Handle(context.Background(), []byte(`{"id":"evt_forged"}`), "forged")
	assert.ErrorIs(t, err, payments.ErrInvalidSignature)
	assert.Empty(t, f.store.events)
	assert.Empty(t, f.store.orders)
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	f := newReconcilerFixture()
	svc := newWebhookService(f, map[string]*payments.Event{
		"sig": {ID: "evt_charge", Type: "charge.refunded"},
	})

	outcome, err := svc.Handle(context.Background(), nil, "sig")
	require.NoError(t, err)
	assert.Equal(t, services.WebhookIgnored, outcome)
	assert.Empty(t, f.store.orders)
}

func TestWebhook_ReconcileFailureIsRetryable(t *testing.T) {
	f := newReconcilerFixture()
	svc := newWebhookService(f, map[string]*payments.Event{
		"sig": {ID: "evt_retry", Type: payments.EventCheckoutCompleted, SessionID: "cs_unknown"},
	})

	_, err := svc.Handle(context.Background(), nil, "sig")
	assert.ErrorIs(t, err, services.ErrSessionUnavailable)
	assert.NotContains(t, f.store.events, "evt_retry")
}
