package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
	"github.com/iliyamo/cineplex-booking/internal/lock"
	"github.com/iliyamo/cineplex-booking/internal/model"
	"github.com/iliyamo/cineplex-booking/internal/queue"
	"github.com/iliyamo/cineplex-booking/internal/repository"
)

// bookingCanceller cancels the open bookings of a showtime inside the
// showtime's cancellation unit of work.
type bookingCanceller interface {
	cancelShowtimeBookings(tx *repository.Tx, showtimeID uuid.UUID) ([]uuid.UUID, error)
}

// Scheduler creates, reschedules and cancels showtimes and answers the
// read-only availability queries.
type Scheduler struct {
	cfg       Config
	deps      Deps
	canceller bookingCanceller
	log       *zap.Logger
}

// CreateShowtimeInput describes a new screening.
type CreateShowtimeInput struct {
	MovieID      string
	CineplexID   string
	CinemaID     string
	Language     string
	StartTime    time.Time
	IsPreview    bool
	NoFreePasses bool
	Subtitles    []string
}

// RescheduleInput changes a showtime. Zero values keep the current
// setting; pointer fields distinguish "unset" from "false"/empty.
type RescheduleInput struct {
	CinemaID     string
	StartTime    time.Time
	Language     string
	Subtitles    *[]string
	IsPreview    *bool
	NoFreePasses *bool
}

func (s *Scheduler) now() time.Time { return s.deps.Clock.Now() }

func (s *Scheduler) endTime(start time.Time, m model.Movie) time.Time {
	return start.Add(time.Duration(m.RuntimeMinutes)*time.Minute + s.cfg.Buffer)
}

// CreateShowtime schedules a movie in a cinema. The overlap check and the
// insert run under the cinema's lock.
func (s *Scheduler) CreateShowtime(ctx context.Context, in CreateShowtimeInput) (*model.Showtime, error) {
	const op = "createShowtime"
	if in.StartTime.IsZero() {
		return nil, apperr.InvalidArgument(op, "start time is required")
	}
	if !in.StartTime.After(s.now()) {
		return nil, apperr.InvalidArgument(op, "start time %s is in the past", in.StartTime.Format(time.RFC3339))
	}
	store := s.deps.Store
	movie, err := store.Movie(in.MovieID)
	if err != nil {
		return nil, err
	}
	if !movie.Status.Schedulable() {
		return nil, apperr.InvalidState(op, "movie %s is %s", movie.ID, movie.Status)
	}
	if _, err := store.Cineplex(in.CineplexID); err != nil {
		return nil, err
	}
	cinema, err := store.Cinema(in.CinemaID)
	if err != nil {
		return nil, err
	}
	if cinema.CineplexID != in.CineplexID {
		return nil, apperr.InvalidArgument(op, "cinema %s is not in cineplex %s", cinema.ID, in.CineplexID)
	}

	st := &model.Showtime{
		ID:           uuid.New(),
		MovieID:      movie.ID,
		CineplexID:   in.CineplexID,
		CinemaID:     cinema.ID,
		Language:     strings.TrimSpace(in.Language),
		Subtitles:    append([]string(nil), in.Subtitles...),
		StartTime:    in.StartTime,
		EndTime:      s.endTime(in.StartTime, movie),
		IsPreview:    in.IsPreview || movie.Status == model.MoviePreview,
		NoFreePasses: in.NoFreePasses,
		Seats:        model.NewSeatingMap(cinema.Layout()),
	}

	unlock, err := s.deps.Locker.Lock(ctx, lock.CinemaKey(cinema.ID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = store.Update(func(tx *repository.Tx) error {
		if other, ok := tx.FindOverlapping(cinema.ID, st.StartTime, st.EndTime, uuid.Nil); ok {
			return apperr.SchedulingConflict(op, "cinema %s is busy %s-%s with showtime %s",
				cinema.ID, other.StartTime.Format(time.RFC3339), other.EndTime.Format(time.RFC3339), other.ID)
		}
		tx.InsertShowtime(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("showtime created",
		zap.String("showtime_id", st.ID.String()),
		zap.String("movie_id", st.MovieID),
		zap.String("cinema_id", st.CinemaID),
		zap.Time("start", st.StartTime),
		zap.Time("end", st.EndTime),
	)
	return st.Clone(), nil
}

// checkMutable guards reschedule and cancel.
func (s *Scheduler) checkMutable(op string, st *model.Showtime) error {
	switch {
	case st.Cancelled:
		return apperr.InvalidState(op, "showtime %s is cancelled", st.ID)
	case st.BookingClosed(s.now(), s.cfg.Cutoff):
		return apperr.InvalidState(op, "showtime %s is past its cutoff", st.ID)
	case st.HasConfirmedBookings():
		return apperr.InvalidState(op, "showtime %s has confirmed bookings", st.ID)
	}
	return nil
}

// RescheduleShowtime moves a showtime to another start time and/or cinema
// of the same cineplex. Both cinemas and the showtime are locked; the
// showtime is excluded from its own overlap check.
func (s *Scheduler) RescheduleShowtime(ctx context.Context, id uuid.UUID, in RescheduleInput) (*model.Showtime, error) {
	const op = "rescheduleShowtime"
	store := s.deps.Store
	current, err := store.Showtime(id)
	if err != nil {
		return nil, err
	}
	cinemaID := current.CinemaID
	if in.CinemaID != "" {
		cinemaID = in.CinemaID
	}
	cinema, err := store.Cinema(cinemaID)
	if err != nil {
		return nil, err
	}
	if cinema.CineplexID != current.CineplexID {
		return nil, apperr.InvalidArgument(op, "cinema %s is not in cineplex %s", cinema.ID, current.CineplexID)
	}
	movie, err := store.Movie(current.MovieID)
	if err != nil {
		return nil, err
	}
	start := current.StartTime
	if !in.StartTime.IsZero() {
		start = in.StartTime
	}
	end := s.endTime(start, movie)

	unlock, err := lock.LockAll(ctx, s.deps.Locker,
		lock.CinemaKey(current.CinemaID), lock.CinemaKey(cinema.ID), lock.ShowtimeKey(id.String()))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var updated *model.Showtime
	err = store.Update(func(tx *repository.Tx) error {
		st, err := tx.Showtime(id)
		if err != nil {
			return err
		}
		if st.CinemaID != current.CinemaID {
			return apperr.SchedulingConflict(op, "showtime %s moved concurrently; retry", id)
		}
		if err := s.checkMutable(op, st); err != nil {
			return err
		}
		if !start.After(s.now()) {
			return apperr.InvalidArgument(op, "start time %s is in the past", start.Format(time.RFC3339))
		}
		if other, ok := tx.FindOverlapping(cinema.ID, start, end, id); ok {
			return apperr.SchedulingConflict(op, "cinema %s is busy with showtime %s", cinema.ID, other.ID)
		}
		if st.CinemaID != cinema.ID {
			// checkMutable guarantees the old map has no taken seats
			st.CinemaID = cinema.ID
			st.Seats = model.NewSeatingMap(cinema.Layout())
		}
		st.StartTime, st.EndTime = start, end
		if in.Language != "" {
			st.Language = strings.TrimSpace(in.Language)
		}
		if in.Subtitles != nil {
			st.Subtitles = append([]string(nil), (*in.Subtitles)...)
		}
		if in.IsPreview != nil {
			st.IsPreview = *in.IsPreview || movie.Status == model.MoviePreview
		}
		if in.NoFreePasses != nil {
			st.NoFreePasses = *in.NoFreePasses
		}
		updated = st.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.deps.invalidateSeats(ctx, s.log, id.String())
	s.log.Info("showtime rescheduled",
		zap.String("showtime_id", id.String()),
		zap.String("cinema_id", updated.CinemaID),
		zap.Time("start", updated.StartTime),
		zap.Time("end", updated.EndTime),
	)
	return updated, nil
}

// CancelShowtime marks the showtime cancelled and cancels its open
// bookings in the same unit of work.
func (s *Scheduler) CancelShowtime(ctx context.Context, id uuid.UUID) (*model.Showtime, error) {
	const op = "cancelShowtime"
	unlock, err := s.deps.Locker.Lock(ctx, lock.ShowtimeKey(id.String()))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		cancelled []uuid.UUID
		result    *model.Showtime
	)
	err = s.deps.Store.Update(func(tx *repository.Tx) error {
		st, err := tx.Showtime(id)
		if err != nil {
			return err
		}
		if err := s.checkMutable(op, st); err != nil {
			return err
		}
		st.Cancelled = true
		cancelled, err = s.canceller.cancelShowtimeBookings(tx, id)
		if err != nil {
			return err
		}
		result = st.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.invalidateSeats(ctx, s.log, id.String())
	s.log.Info("showtime cancelled",
		zap.String("showtime_id", id.String()),
		zap.String("cinema_id", result.CinemaID),
		zap.Int("cancelled_bookings", len(cancelled)),
	)
	if s.deps.Events != nil {
		ids := make([]string, len(cancelled))
		for i, b := range cancelled {
			ids[i] = b.String()
		}
		ev := queue.ShowtimeCancelledEvent{
			ShowtimeID:        id.String(),
			CinemaID:          result.CinemaID,
			StartsAt:          result.StartTime.UTC().Format(time.RFC3339),
			CancelledBookings: ids,
			CancelledAt:       s.now().UTC().Format(time.RFC3339),
		}
		if err := s.deps.Events.ShowtimeCancelled(ctx, ev); err != nil {
			s.log.Warn("publish showtime cancelled failed", zap.String("showtime_id", id.String()), zap.Error(err))
		}
	}
	return result, nil
}

// AvailableTicketTypes returns the ticket types sellable for a showtime.
// In peak time the set is exactly {PEAK} when the cinema sells PEAK;
// otherwise PEAK is never offered.
func (s *Scheduler) AvailableTicketTypes(id uuid.UUID) ([]model.TicketType, error) {
	st, err := s.deps.Store.Showtime(id)
	if err != nil {
		return nil, err
	}
	cinema, err := s.deps.Store.Cinema(st.CinemaID)
	if err != nil {
		return nil, err
	}
	return s.ticketTypesFor(st, cinema), nil
}

func (s *Scheduler) ticketTypesFor(st *model.Showtime, cinema model.Cinema) []model.TicketType {
	catalog := cinema.Class.TicketTypes()
	hasPeak := false
	for _, t := range catalog {
		if t == model.TicketPeak {
			hasPeak = true
		}
	}
	if hasPeak && s.deps.Peak.IsPeak(st.StartTime) {
		return []model.TicketType{model.TicketPeak}
	}
	out := make([]model.TicketType, 0, len(catalog))
	for _, t := range catalog {
		if t != model.TicketPeak {
			out = append(out, t)
		}
	}
	return out
}

// Status derives a showtime's status at the current time.
func (s *Scheduler) Status(st *model.Showtime) model.ShowtimeStatus {
	return st.Status(s.now(), s.cfg.Cutoff)
}

func (s *Scheduler) Showtime(id uuid.UUID) (*model.Showtime, error) {
	return s.deps.Store.Showtime(id)
}

func (s *Scheduler) ShowtimesByCineplexAndMovie(cineplexID, movieID string) ([]*model.Showtime, error) {
	if _, err := s.deps.Store.Cineplex(cineplexID); err != nil {
		return nil, err
	}
	if _, err := s.deps.Store.Movie(movieID); err != nil {
		return nil, err
	}
	return s.deps.Store.ShowtimesByCineplexAndMovie(cineplexID, movieID), nil
}

func (s *Scheduler) ShowtimesByCineplexAndCinema(cineplexID, cinemaID string) ([]*model.Showtime, error) {
	if _, err := s.deps.Store.Cineplex(cineplexID); err != nil {
		return nil, err
	}
	if _, err := s.deps.Store.Cinema(cinemaID); err != nil {
		return nil, err
	}
	return s.deps.Store.ShowtimesByCineplexAndCinema(cineplexID, cinemaID), nil
}

// SeatMap returns the current seat snapshot, served from the seat cache
// when one is configured.
func (s *Scheduler) SeatMap(ctx context.Context, id uuid.UUID) ([]model.SeatState, error) {
	key := id.String()
	if s.deps.Seats != nil {
		seats, ok, err := s.deps.Seats.Get(ctx, key)
		if err != nil {
			s.log.Warn("seat cache read failed", zap.String("showtime_id", key), zap.Error(err))
		} else if ok {
			return seats, nil
		}
	}
	st, err := s.deps.Store.Showtime(id)
	if err != nil {
		return nil, err
	}
	seats := st.Seats.Snapshot()
	if s.deps.Seats != nil {
		if err := s.deps.Seats.Set(ctx, key, seats); err != nil {
			s.log.Warn("seat cache write failed", zap.String("showtime_id", key), zap.Error(err))
		}
	}
	return seats, nil
}
