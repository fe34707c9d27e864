// Package queue defines message payloads exchanged over the message broker
// and the AMQP publisher and consumer that carry them.
package queue

// BookingConfirmedEvent is published after a booking's confirmation has
// committed. It carries enough for downstream consumers to notify or
// account without querying the engine.
type BookingConfirmedEvent struct {
	BookingID       string   `json:"booking_id"`
	UserID          string   `json:"user_id"`
	ShowtimeID      string   `json:"showtime_id"`
	CineplexID      string   `json:"cineplex_id"`
	CinemaID        string   `json:"cinema_id"`
	MovieTitle      string   `json:"movie_title"`
	StartsAt        string   `json:"starts_at"`
	Seats           []string `json:"seats"`
	AmountCents     int64    `json:"amount_cents"`
	TransactionCode string   `json:"transaction_code"`
	ConfirmedAt     string   `json:"confirmed_at"`
}

// ShowtimeCancelledEvent is published after a showtime and its open
// bookings were cancelled.
type ShowtimeCancelledEvent struct {
	ShowtimeID        string   `json:"showtime_id"`
	CinemaID          string   `json:"cinema_id"`
	StartsAt          string   `json:"starts_at"`
	CancelledBookings []string `json:"cancelled_bookings"`
	CancelledAt       string   `json:"cancelled_at"`
}
