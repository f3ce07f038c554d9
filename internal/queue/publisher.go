package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/travel-planner/internal/logging"
)

// Publisher emits domain events. Publishing is best effort: callers never
// fail a request because an event could not be delivered.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

// AMQPPublisher dials the broker per event, declares the durable audit
// queue and publishes a persistent JSON message. Each publish runs in its own
// goroutine with its own timeout so a slow broker never delays a response.
type AMQPPublisher struct {
	url     string
	log     logging.Logger
	timeout time.Duration
	publish func(ctx context.Context, url string, body []byte) error
}

func NewAMQPPublisher(url string, log logging.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log, timeout: 5 * time.Second, publish: publishAMQP}
}

func (p *AMQPPublisher) Publish(_ context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error(context.Background(), "marshal event", "type", ev.Type, "error", err)
		return
	}
	go func() {
		// detached from the request: the response may be written before
		// the broker acknowledges
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.publish(ctx, p.url, body); err != nil {
			p.log.Warn(ctx, "publish event failed", "type", ev.Type, "error", err)
		}
	}()
}

func publishAMQP(ctx context.Context, url string, body []byte) error {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return ch.PublishWithContext(ctx, "", AuditQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
