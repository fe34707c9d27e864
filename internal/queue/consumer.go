package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer drains the event queues and writes one structured audit line
// per event. It reconnects with exponential backoff until ctx is done.
type Consumer struct {
	url           string
	bookingQueue  string
	showtimeQueue string
	log           *zap.Logger
}

func NewConsumer(url, bookingQueue, showtimeQueue string, log *zap.Logger) *Consumer {
	if bookingQueue == "" {
		bookingQueue = DefaultBookingQueue
	}
	if showtimeQueue == "" {
		showtimeQueue = DefaultShowtimeQueue
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{url: url, bookingQueue: bookingQueue, showtimeQueue: showtimeQueue, log: log.Named("event-consumer")}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set qos failed", zap.Error(err))
	}

	bookings, err := c.subscribe(ch, c.bookingQueue)
	if err != nil {
		return err
	}
	showtimes, err := c.subscribe(ch, c.showtimeQueue)
	if err != nil {
		return err
	}

	for {
		var (
			d     amqp.Delivery
			ok    bool
			queue string
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-bookings:
			queue = c.bookingQueue
		case d, ok = <-showtimes:
			queue = c.showtimeQueue
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.handle(queue, d.Body); err != nil {
			c.log.Warn("handle message failed", zap.String("queue", queue), zap.Error(err))
			_ = d.Nack(false, false) // do not requeue poison messages
			continue
		}
		_ = d.Ack(false)
	}
}

func (c *Consumer) subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

func (c *Consumer) handle(queue string, body []byte) error {
	switch queue {
	case c.bookingQueue:
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal booking event: %w", err)
		}
		c.log.Info("booking confirmed",
			zap.String("booking_id", ev.BookingID),
			zap.String("user_id", ev.UserID),
			zap.String("showtime_id", ev.ShowtimeID),
			zap.String("cinema_id", ev.CinemaID),
			zap.String("movie", ev.MovieTitle),
			zap.Strings("seats", ev.Seats),
			zap.Int64("amount_cents", ev.AmountCents),
			zap.String("transaction_code", ev.TransactionCode),
		)
	case c.showtimeQueue:
		var ev ShowtimeCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal showtime event: %w", err)
		}
		c.log.Info("showtime cancelled",
			zap.String("showtime_id", ev.ShowtimeID),
			zap.String("cinema_id", ev.CinemaID),
			zap.Strings("cancelled_bookings", ev.CancelledBookings),
		)
	default:
		return fmt.Errorf("unexpected queue %q", queue)
	}
	return nil
}
