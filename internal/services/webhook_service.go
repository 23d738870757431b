package services

import (
	"context"
	"log/slog"

	"decant-boutique-backend/internal/payments"
)

type WebhookOutcome string

const (
	WebhookProcessed WebhookOutcome = "processed"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookIgnored   WebhookOutcome = "ignored"
)

type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signatureHeader string) (*payments.Event, error)
}

// WebhookLedger remembers which processor events were handled.
type WebhookLedger interface {
	WebhookEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkWebhookEventProcessed(ctx context.Context, eventID, eventType string) error
}

type WebhookService struct {
	verifier   WebhookVerifier
	ledger     WebhookLedger
	reconciler *Reconciler
	logger     *slog.Logger
}

func NewWebhookService(verifier WebhookVerifier, ledger WebhookLedger, reconciler *Reconciler, logger *slog.Logger) *WebhookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookService{
		verifier:   verifier,
		ledger:     ledger,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Handle verifies a Stripe delivery and reconciles checkout events. Nothing
// is read or written before the signature checks out. An error other than
// payments.ErrInvalidSignature means the delivery should be retried.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signatureHeader string) (WebhookOutcome, error) {
	event, err := s.verifier.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return "", err
	}

	log := s.logger.With("event_id", event.ID, "event_type", event.Type)

	seen, err := s.ledger.WebhookEventProcessed(ctx, event.ID)
	if err != nil {
		return "", err
	}
	if seen {
		log.Info("duplicate webhook delivery")
		return WebhookDuplicate, nil
	}

	switch event.Type {
	case payments.EventCheckoutCompleted,
		payments.EventCheckoutAsyncPaymentPassed,
		payments.EventCheckoutAsyncPaymentFailed:
		if _, err := s.reconciler.Reconcile(ctx, event.SessionID); err != nil {
			log.Error("failed to reconcile checkout session", "session_id", event.SessionID, "error", err)
			return "", err
		}
	default:
		log.Debug("ignoring webhook event")
		return WebhookIgnored, nil
	}

	if err := s.ledger.MarkWebhookEventProcessed(ctx, event.ID, event.Type); err != nil {
		log.Warn("failed to record webhook event", "error", err)
	}
	return WebhookProcessed, nil
}
