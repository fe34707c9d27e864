package model

import (
	"time"

	"github.com/google/uuid"
)

// ShowtimeStatus is derived from the stored fields and the wall clock; it
// is never stored except for the cancelled flag.
type ShowtimeStatus string

const (
	ShowtimeOpen      ShowtimeStatus = "OPEN_BOOKING"
	ShowtimeClosed    ShowtimeStatus = "CLOSED_BOOKING"
	ShowtimeSoldOut   ShowtimeStatus = "SOLD_OUT"
	ShowtimeCancelled ShowtimeStatus = "CANCELLED"
)

// Showtime is a screening of one movie in one cinema.
//
// Fields:
//  ID                – generated identifier.
//  MovieID           – screened movie.
//  CineplexID        – site the cinema belongs to.
//  CinemaID          – hall; overlap checks are scoped to it.
//  Language          – spoken language.
//  Subtitles         – subtitle languages.
//  StartTime         – screening start.
//  EndTime           – StartTime + runtime + buffer; the cinema is busy until then.
//  IsPreview         – preview screening of a movie not yet released.
//  NoFreePasses      – free passes are not accepted.
//  Cancelled         – terminal; a cancelled showtime is never reopened.
//  Seats             – seat occupancy.
//  ConfirmedBookings – bookings that reached CONFIRMED, in confirmation order.
type Showtime struct {
	ID                uuid.UUID
	MovieID           string
	CineplexID        string
	CinemaID          string
	Language          string
	Subtitles         []string
	StartTime         time.Time
	EndTime           time.Time
	IsPreview         bool
	NoFreePasses      bool
	Cancelled         bool
	Seats             *SeatingMap
	ConfirmedBookings []uuid.UUID
}

// Overlaps reports whether [start, end) intersects the showtime's interval.
func (s *Showtime) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && start.Before(s.EndTime)
}

// BookingClosed reports whether now has reached StartTime - cutoff.
func (s *Showtime) BookingClosed(now time.Time, cutoff time.Duration) bool {
	return !now.Before(s.StartTime.Add(-cutoff))
}

func (s *Showtime) HasConfirmedBookings() bool { return len(s.ConfirmedBookings) > 0 }

// Status derives the lifecycle status at now.
func (s *Showtime) Status(now time.Time, cutoff time.Duration) ShowtimeStatus {
	switch {
	case s.Cancelled:
		return ShowtimeCancelled
	case s.BookingClosed(now, cutoff):
		return ShowtimeClosed
	case s.Seats != nil && s.Seats.AvailableCount() == 0:
		return ShowtimeSoldOut
	}
	return ShowtimeOpen
}

func (s *Showtime) Clone() *Showtime {
	cp := *s
	cp.Subtitles = append([]string(nil), s.Subtitles...)
	cp.ConfirmedBookings = append([]uuid.UUID(nil), s.ConfirmedBookings...)
	cp.Seats = s.Seats.Clone()
	return &cp
}
