package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
	"github.com/iliyamo/cineplex-booking/internal/lock"
	"github.com/iliyamo/cineplex-booking/internal/model"
	"github.com/iliyamo/cineplex-booking/internal/pricing"
	"github.com/iliyamo/cineplex-booking/internal/queue"
	"github.com/iliyamo/cineplex-booking/internal/repository"
)

// Workflow drives bookings from IN_PROGRESS to CONFIRMED or CANCELLED.
// It is the only writer of booking status and seat occupancy. Every
// mutation holds the booking's showtime lock, so seat checks and the
// confirmation commit of one showtime never interleave.
type Workflow struct {
	cfg       Config
	deps      Deps
	scheduler *Scheduler
	log       *zap.Logger
}

// Quote is the price presented when the customer is sent to pay.
type Quote struct {
	pricing.Quote
	TransactionCode string `json:"transaction_code"`
}

func (w *Workflow) now() time.Time { return w.deps.Clock.Now() }

// mutate locks the booking's showtime and runs fn inside a store unit of
// work with staged copies of the booking, its showtime and the cinema.
func (w *Workflow) mutate(ctx context.Context, bookingID uuid.UUID,
	fn func(tx *repository.Tx, b *model.Booking, st *model.Showtime, cinema model.Cinema) error) (*model.Booking, error) {
	return w.mutateThen(ctx, bookingID, fn, nil)
}

// mutateThen is mutate with a persist step that runs after fn has staged
// its changes and before they are applied. Only the showtime lock is held
// while persist runs; if it fails the staged changes are dropped.
func (w *Workflow) mutateThen(ctx context.Context, bookingID uuid.UUID,
	fn func(tx *repository.Tx, b *model.Booking, st *model.Showtime, cinema model.Cinema) error,
	persist func(ctx context.Context) error) (*model.Booking, error) {
	b, err := w.deps.Store.Booking(bookingID)
	if err != nil {
		return nil, err
	}
	unlock, err := w.deps.Locker.Lock(ctx, lock.ShowtimeKey(b.ShowtimeID.String()))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *model.Booking
	tx, err := w.deps.Store.Stage(func(tx *repository.Tx) error {
		b, err := tx.Booking(bookingID)
		if err != nil {
			return err
		}
		st, err := tx.Showtime(b.ShowtimeID)
		if err != nil {
			return err
		}
		cinema, err := tx.Cinema(st.CinemaID)
		if err != nil {
			return err
		}
		if err := fn(tx, b, st, cinema); err != nil {
			return err
		}
		out = b.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if persist != nil {
		if err := persist(ctx); err != nil {
			return nil, err
		}
	}
	w.deps.Store.Commit(tx)
	return out, nil
}

func requireInProgress(op string, b *model.Booking) error {
	if b.Status != model.BookingInProgress {
		return apperr.InvalidState(op, "booking %s is %s", b.ID, b.Status)
	}
	return nil
}

// CreateBooking opens an empty booking for userID on a showtime that is
// open for booking.
func (w *Workflow) CreateBooking(ctx context.Context, showtimeID, userID uuid.UUID) (*model.Booking, error) {
	const op = "createBooking"
	unlock, err := w.deps.Locker.Lock(ctx, lock.ShowtimeKey(showtimeID.String()))
	if err != nil {
		return nil, err
	}
	defer unlock()

	b := &model.Booking{
		ID:           uuid.New(),
		ShowtimeID:   showtimeID,
		UserID:       userID,
		TicketCounts: map[model.TicketType]int{},
		Status:       model.BookingInProgress,
		CreatedAt:    w.now(),
	}
	err = w.deps.Store.Update(func(tx *repository.Tx) error {
		st, err := tx.Showtime(showtimeID)
		if err != nil {
			return err
		}
		if status := st.Status(w.now(), w.cfg.Cutoff); status != model.ShowtimeOpen {
			return apperr.InvalidState(op, "showtime %s is %s", showtimeID, status)
		}
		tx.InsertBooking(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.log.Debug("booking created", zap.String("booking_id", b.ID.String()), zap.String("showtime_id", showtimeID.String()))
	return b.Clone(), nil
}

// SelectTicketTypes replaces the booking's ticket counts. Zero counts are
// dropped. Seats already chosen are kept only if the ticket total is
// unchanged.
func (w *Workflow) SelectTicketTypes(ctx context.Context, bookingID uuid.UUID, counts map[model.TicketType]int) (*model.Booking, error) {
	const op = "selectTicketTypes"
	return w.mutate(ctx, bookingID, func(_ *repository.Tx, b *model.Booking, st *model.Showtime, cinema model.Cinema) error {
		if err := requireInProgress(op, b); err != nil {
			return err
		}
		available := map[model.TicketType]bool{}
		for _, t := range w.scheduler.ticketTypesFor(st, cinema) {
			available[t] = true
		}
		next := make(map[model.TicketType]int, len(counts))
		total := 0
		for t, n := range counts {
			if n < 0 {
				return apperr.InvalidArgument(op, "negative count for %s", t)
			}
			if n == 0 {
				continue
			}
			if !available[t] {
				return apperr.InvalidArgument(op, "ticket type %s is not available for showtime %s", t, st.ID)
			}
			next[t] = n
			total += n
		}
		if total == 0 {
			return apperr.InvalidArgument(op, "at least one ticket is required")
		}
		if total > w.cfg.MaxSeatsPerBooking {
			return apperr.InvalidArgument(op, "%d tickets exceeds the limit of %d per booking", total, w.cfg.MaxSeatsPerBooking)
		}
		if total != b.TotalTickets() {
			b.Seats = nil
		}
		b.TicketCounts = next
		return nil
	})
}

// SelectSeats replaces the booking's seats. Every seat must exist and be
// AVAILABLE, and the count must match the ticket total. Seats are not
// reserved until confirmation.
func (w *Workflow) SelectSeats(ctx context.Context, bookingID uuid.UUID, seats []model.SeatID) (*model.Booking, error) {
	const op = "selectSeats"
	return w.mutate(ctx, bookingID, func(_ *repository.Tx, b *model.Booking, st *model.Showtime, _ model.Cinema) error {
		if err := requireInProgress(op, b); err != nil {
			return err
		}
		total := b.TotalTickets()
		if total == 0 {
			return apperr.InvalidArgument(op, "select ticket types before seats")
		}
		if len(seats) != total {
			return apperr.InvalidArgument(op, "%d seats selected for %d tickets", len(seats), total)
		}
		seen := make(map[model.SeatID]bool, len(seats))
		for _, seat := range seats {
			if seen[seat] {
				return apperr.InvalidArgument(op, "seat %s selected twice", seat)
			}
			seen[seat] = true
			ok, err := st.Seats.IsAvailable(seat)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.InvalidArgument(op, "seat %s is taken", seat)
			}
		}
		picked := append([]model.SeatID(nil), seats...)
		model.SortSeats(picked)
		b.Seats = picked
		return nil
	})
}

// AttachPayment records the status reported by the payment collaborator.
func (w *Workflow) AttachPayment(ctx context.Context, bookingID uuid.UUID, status model.PaymentStatus) (*model.Booking, error) {
	const op = "attachPayment"
	if !status.Valid() {
		return nil, apperr.InvalidArgument(op, "unknown payment status %q", status)
	}
	return w.mutate(ctx, bookingID, func(_ *repository.Tx, b *model.Booking, _ *model.Showtime, _ model.Cinema) error {
		if err := requireInProgress(op, b); err != nil {
			return err
		}
		b.Payment = status
		return nil
	})
}

// CancelBooking cancels a booking that has not been confirmed. Cancelling
// an already cancelled booking is a no-op. Seats are untouched because
// nothing was reserved before confirmation.
func (w *Workflow) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	const op = "cancelBooking"
	b, err := w.mutate(ctx, bookingID, func(_ *repository.Tx, b *model.Booking, _ *model.Showtime, _ model.Cinema) error {
		if b.Status == model.BookingConfirmed {
			return apperr.InvalidState(op, "booking %s is confirmed", b.ID)
		}
		b.Status = model.BookingCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.log.Info("booking cancelled", zap.String("booking_id", b.ID.String()), zap.String("showtime_id", b.ShowtimeID.String()))
	return b, nil
}

func (w *Workflow) cancelShowtimeBookings(tx *repository.Tx, showtimeID uuid.UUID) ([]uuid.UUID, error) {
	bookings, err := tx.BookingsForShowtime(showtimeID)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, b := range bookings {
		switch b.Status {
		case model.BookingConfirmed:
			return nil, apperr.InvalidState("cancelShowtime", "booking %s is confirmed", b.ID)
		case model.BookingInProgress:
			b.Status = model.BookingCancelled
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

func transactionCode(cinema model.Cinema, at time.Time) string {
	return cinema.Code + at.Format("200601021504")
}

// Quote prices the booking with tax at the point of the payment request.
func (w *Workflow) Quote(bookingID uuid.UUID) (Quote, error) {
	store := w.deps.Store
	b, err := store.Booking(bookingID)
	if err != nil {
		return Quote{}, err
	}
	st, err := store.Showtime(b.ShowtimeID)
	if err != nil {
		return Quote{}, err
	}
	cinema, err := store.Cinema(st.CinemaID)
	if err != nil {
		return Quote{}, err
	}
	movie, err := store.Movie(st.MovieID)
	if err != nil {
		return Quote{}, err
	}
	pq, err := w.deps.Pricing.Quote(pricing.Input{Tickets: b.TicketCounts, Format: movie.Format, Class: cinema.Class})
	if err != nil {
		return Quote{}, err
	}
	return Quote{Quote: pq, TransactionCode: transactionCode(cinema, w.now())}, nil
}

// ConfirmBooking commits the booking for userID. The booking status, the
// showtime's booking list, the user's history, the seat map and the
// archive row are one unit of work: either all of them change or none.
// The archive write runs between staging and commit, so the store itself
// is never locked across database I/O.
func (w *Workflow) ConfirmBooking(ctx context.Context, bookingID, userID uuid.UUID) (*model.Booking, error) {
	const op = "confirmBooking"
	var (
		ev  queue.BookingConfirmedEvent
		rec repository.ArchivedBooking
	)
	b, err := w.mutateThen(ctx, bookingID, func(tx *repository.Tx, b *model.Booking, st *model.Showtime, cinema model.Cinema) error {
		now := w.now()
		if status := st.Status(now, w.cfg.Cutoff); status != model.ShowtimeOpen {
			return apperr.InvalidState(op, "showtime %s is %s", st.ID, status)
		}
		if err := requireInProgress(op, b); err != nil {
			return err
		}
		if b.Payment != model.PaymentAccepted {
			return apperr.InvalidState(op, "payment for booking %s is not accepted", b.ID)
		}
		if b.UserID != userID {
			return apperr.InvalidArgument(op, "booking %s belongs to another user", b.ID)
		}
		if len(b.Seats) == 0 || len(b.Seats) != b.TotalTickets() {
			return apperr.InvalidState(op, "booking %s has no complete seat selection", b.ID)
		}
		for _, seat := range b.Seats {
			ok, err := st.Seats.IsAvailable(seat)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.SchedulingConflict(op, "seat %s was taken after selection", seat)
			}
		}

		movie, err := tx.Movie(st.MovieID)
		if err != nil {
			return err
		}
		subtotal, err := w.deps.Pricing.Price(pricing.Input{Tickets: b.TicketCounts, Format: movie.Format, Class: cinema.Class})
		if err != nil {
			return err
		}

		b.Status = model.BookingConfirmed
		b.ConfirmedAt = now
		b.AmountCents = w.deps.Pricing.WithTax(subtotal)
		b.TransactionCode = transactionCode(cinema, now)
		st.ConfirmedBookings = append(st.ConfirmedBookings, b.ID)
		tx.AddUserBooking(userID, b.ID)
		for _, seat := range b.Seats {
			if err := st.Seats.SetStatus(seat, model.SeatTaken); err != nil {
				return err
			}
		}
		ev = queue.BookingConfirmedEvent{
			BookingID:       b.ID.String(),
			UserID:          userID.String(),
			ShowtimeID:      st.ID.String(),
			CineplexID:      st.CineplexID,
			CinemaID:        st.CinemaID,
			MovieTitle:      movie.Title,
			StartsAt:        st.StartTime.UTC().Format(time.RFC3339),
			Seats:           model.SeatLabels(b.Seats),
			AmountCents:     b.AmountCents,
			TransactionCode: b.TransactionCode,
			ConfirmedAt:     now.UTC().Format(time.RFC3339),
		}

		rec = repository.ArchivedBooking{
			BookingID:       b.ID.String(),
			UserID:          userID.String(),
			ShowtimeID:      st.ID.String(),
			CinemaID:        st.CinemaID,
			TransactionCode: b.TransactionCode,
			AmountCents:     b.AmountCents,
			SeatLabels:      model.SeatLabels(b.Seats),
			ConfirmedAt:     now,
		}
		return nil
	}, func(ctx context.Context) error {
		if w.deps.Archive == nil {
			return nil
		}
		return w.deps.Archive.SaveConfirmed(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	w.deps.invalidateSeats(ctx, w.log, b.ShowtimeID.String())
	w.log.Info("booking confirmed",
		zap.String("booking_id", b.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("showtime_id", b.ShowtimeID.String()),
		zap.Strings("seats", model.SeatLabels(b.Seats)),
		zap.Int64("amount_cents", b.AmountCents),
	)
	if w.deps.Events != nil {
		if err := w.deps.Events.BookingConfirmed(ctx, ev); err != nil {
			w.log.Warn("publish booking confirmed failed", zap.String("booking_id", b.ID.String()), zap.Error(err))
		}
	}
	return b, nil
}

// Booking returns a booking by id.
func (w *Workflow) Booking(id uuid.UUID) (*model.Booking, error) {
	return w.deps.Store.Booking(id)
}

// UserBookings returns the confirmed booking history of a user.
func (w *Workflow) UserBookings(userID uuid.UUID) []*model.Booking {
	return w.deps.Store.UserBookings(userID)
}
