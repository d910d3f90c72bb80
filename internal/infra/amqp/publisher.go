package amqp

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqplib "github.com/streadway/amqp"
)

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqplib.Publishing) error
	Close() error
}

// EventPublisher sends quiz lifecycle events to a topic exchange, routed by event type.
type EventPublisher struct {
	conn     *amqplib.Connection
	exchange string
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	channel channel
}

// envelope is the JSON body of every published event.
type envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

func NewEventPublisher(amqpURL, exchange string, logger *slog.Logger) (*EventPublisher, error) {
	conn, err := amqplib.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p := newPublisher(ch, exchange, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{channel: ch, exchange: exchange, logger: logger, now: time.Now}
}

func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: p.now().UTC(),
		Payload:    payload,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Use the event type as the routing key for topic exchange
	err = p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqplib.Publishing{
			ContentType:  "application/json",
			MessageId:    ev.ID,
			Timestamp:    ev.OccurredAt,
			DeliveryMode: amqplib.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return err
	}
	p.logger.Debug("event published", "type", eventType, "id", ev.ID)
	return nil
}

func (p *EventPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
