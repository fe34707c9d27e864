package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus moves IN_PROGRESS -> CONFIRMED or IN_PROGRESS -> CANCELLED.
// Both targets are terminal.
type BookingStatus string

const (
	BookingInProgress BookingStatus = "IN_PROGRESS"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCancelled  BookingStatus = "CANCELLED"
)

// Booking is one customer's purchase for a showtime.
//
// Fields:
//  ID              – generated identifier.
//  ShowtimeID      – showtime being booked.
//  UserID          – customer who opened the booking.
//  TicketCounts    – requested count per ticket type.
//  Seats           – assigned seats; once set, len(Seats) equals TotalTickets().
//  Payment         – status reported by the payment collaborator; empty until attached.
//  Status          – lifecycle status.
//  AmountCents     – amount charged including tax, set at confirmation.
//  TransactionCode – cinema code plus confirmation timestamp.
//  CreatedAt       – when the booking was opened.
//  ConfirmedAt     – when the booking was confirmed (zero otherwise).
type Booking struct {
	ID              uuid.UUID
	ShowtimeID      uuid.UUID
	UserID          uuid.UUID
	TicketCounts    map[TicketType]int
	Seats           []SeatID
	Payment         PaymentStatus
	Status          BookingStatus
	AmountCents     int64
	TransactionCode string
	CreatedAt       time.Time
	ConfirmedAt     time.Time
}

// TotalTickets sums the requested ticket counts.
func (b *Booking) TotalTickets() int {
	n := 0
	for _, c := range b.TicketCounts {
		n += c
	}
	return n
}

func (b *Booking) Clone() *Booking {
	cp := *b
	cp.TicketCounts = make(map[TicketType]int, len(b.TicketCounts))
	for k, v := range b.TicketCounts {
		cp.TicketCounts[k] = v
	}
	cp.Seats = append([]SeatID(nil), b.Seats...)
	return &cp
}
