package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	DefaultBookingQueue  = "booking.confirmed"
	DefaultShowtimeQueue = "showtime.cancelled"
)

// Publisher sends domain events to durable queues on the default exchange.
// Each publish dials its own connection.
type Publisher struct {
	url           string
	bookingQueue  string
	showtimeQueue string
	log           *zap.Logger
}

func NewPublisher(url, bookingQueue, showtimeQueue string, log *zap.Logger) *Publisher {
	if bookingQueue == "" {
		bookingQueue = DefaultBookingQueue
	}
	if showtimeQueue == "" {
		showtimeQueue = DefaultShowtimeQueue
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, bookingQueue: bookingQueue, showtimeQueue: showtimeQueue, log: log}
}

func (p *Publisher) BookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
	return p.publish(ctx, p.bookingQueue, ev)
}

func (p *Publisher) ShowtimeCancelled(ctx context.Context, ev ShowtimeCancelledEvent) error {
	return p.publish(ctx, p.showtimeQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq declare %s: %w", queue, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", queue, err)
	}
	p.log.Debug("event published", zap.String("queue", queue), zap.Int("bytes", len(body)))
	return nil
}
