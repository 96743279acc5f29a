package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/petmat/checkout-service/internal/config"
	"github.com/petmat/checkout-service/internal/entities"

	"github.com/segmentio/kafka-go"
)

// OrderEvent is the JSON payload published on every applied reconciliation
// write, keyed by order reference for per-order ordering.
type OrderEvent struct {
	Type          string    `json:"type"`
	Reference     string    `json:"reference"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	PaymentID     string    `json:"payment_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const TypeStatusChanged = "order.status_changed"

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(cfg config.Kafka) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

func (p *Publisher) PublishStatusChanged(ctx context.Context, change entities.StatusChange) error {
	event := OrderEvent{
		Type:          TypeStatusChanged,
		Reference:     change.Order.Reference,
		Status:        string(change.Order.Status),
		PaymentStatus: string(change.Order.PaymentStatus),
		PaymentID:     change.Order.PaymentID,
		OccurredAt:    change.Order.UpdatedAt,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(change.Order.Reference),
		Value: value,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishStatusChanged(context.Context, entities.StatusChange) error { return nil }

func (NopPublisher) Close() error { return nil }
