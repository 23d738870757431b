// Package events publishes order domain events to RabbitMQ. Publishing is
// best effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"decant-boutique-backend/internal/models"
)

const RoutingOrderPaid = "order.paid"

// OrderPaid is published once per order, by whichever caller sent its
// notifications.
type OrderPaid struct {
	OrderID         uuid.UUID         `json:"order_id"`
	StripeSessionID string            `json:"stripe_session_id"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	LineItems       []models.LineItem `json:"line_items"`
	PaidAt          time.Time         `json:"paid_at"`
}

func NewOrderPaid(order *models.Order) OrderPaid {
	return OrderPaid{
		OrderID:         order.ID,
		StripeSessionID: order.StripeSessionID,
		AmountTotal:     order.AmountTotal,
		Currency:        order.Currency,
		CustomerEmail:   order.CustomerEmail,
		LineItems:       order.LineItems,
		PaidAt:          time.Now().UTC(),
	}
}

type Publisher struct {
	url      string
	exchange string
}

// NewPublisher returns a publisher; an empty url disables it.
func NewPublisher(url, exchange string) *Publisher {
	return &Publisher{url: url, exchange: exchange}
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.url != ""
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, event OrderPaid) error {
	return p.publish(ctx, RoutingOrderPaid, event)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, event interface{}) error {
	if !p.Enabled() {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}

	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         routingKey,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}
