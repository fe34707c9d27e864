package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cineplex-booking/internal/model"
)

type showtimeView struct {
	ID             uuid.UUID            `json:"id"`
	MovieID        string               `json:"movie_id"`
	CineplexID     string               `json:"cineplex_id"`
	CinemaID       string               `json:"cinema_id"`
	Language       string               `json:"language"`
	Subtitles      []string             `json:"subtitles"`
	StartTime      time.Time            `json:"start_time"`
	EndTime        time.Time            `json:"end_time"`
	IsPreview      bool                 `json:"is_preview"`
	NoFreePasses   bool                 `json:"no_free_passes"`
	Status         model.ShowtimeStatus `json:"status"`
	SeatsAvailable int                  `json:"seats_available"`
	SeatsTotal     int                  `json:"seats_total"`
}

func newShowtimeView(st *model.Showtime, status model.ShowtimeStatus) showtimeView {
	subs := st.Subtitles
	if subs == nil {
		subs = []string{}
	}
	return showtimeView{
		ID:             st.ID,
		MovieID:        st.MovieID,
		CineplexID:     st.CineplexID,
		CinemaID:       st.CinemaID,
		Language:       st.Language,
		Subtitles:      subs,
		StartTime:      st.StartTime,
		EndTime:        st.EndTime,
		IsPreview:      st.IsPreview,
		NoFreePasses:   st.NoFreePasses,
		Status:         status,
		SeatsAvailable: st.Seats.AvailableCount(),
		SeatsTotal:     st.Seats.Capacity(),
	}
}

type bookingView struct {
	ID              uuid.UUID                `json:"id"`
	ShowtimeID      uuid.UUID                `json:"showtime_id"`
	Status          model.BookingStatus      `json:"status"`
	Tickets         map[model.TicketType]int `json:"tickets"`
	Seats           []string                 `json:"seats"`
	Payment         model.PaymentStatus      `json:"payment,omitempty"`
	AmountCents     int64                    `json:"amount_cents,omitempty"`
	TransactionCode string                   `json:"transaction_code,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	ConfirmedAt     *time.Time               `json:"confirmed_at,omitempty"`
}

func newBookingView(b *model.Booking) bookingView {
	v := bookingView{
		ID:              b.ID,
		ShowtimeID:      b.ShowtimeID,
		Status:          b.Status,
		Tickets:         b.TicketCounts,
		Seats:           model.SeatLabels(b.Seats),
		Payment:         b.Payment,
		AmountCents:     b.AmountCents,
		TransactionCode: b.TransactionCode,
		CreatedAt:       b.CreatedAt,
	}
	if !b.ConfirmedAt.IsZero() {
		at := b.ConfirmedAt
		v.ConfirmedAt = &at
	}
	return v
}
