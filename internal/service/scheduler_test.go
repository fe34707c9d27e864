package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
	"github.com/iliyamo/cineplex-booking/internal/model"
)

func TestCreateShowtimeRejectsOverlap(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	s1 := e.showtime(t, "m1", "c1", at(10, 0))
	assert.Equal(t, at(12, 10), s1.EndTime, "runtime 120 plus buffer 10")
	assert.Equal(t, 4, s1.Seats.AvailableCount())

	_, err := e.sched.CreateShowtime(ctx, CreateShowtimeInput{MovieID: "m1", CineplexID: "cp1", CinemaID: "c1", StartTime: at(11, 0)})
	assert.ErrorIs(t, err, apperr.ErrSchedulingConflict)

	// the buffer belongs to the earlier showtime
	_, err = e.sched.CreateShowtime(ctx, CreateShowtimeInput{MovieID: "m1", CineplexID: "cp1", CinemaID: "c1", StartTime: at(12, 5)})
	assert.ErrorIs(t, err, apperr.ErrSchedulingConflict)

	// back to back is fine, and other cinemas are unaffected
	e.showtime(t, "m1", "c1", at(12, 10))
	e.showtime(t, "m1", "c2", at(11, 0))

	list, err := e.sched.ShowtimesByCineplexAndCinema("cp1", "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].StartTime.Before(list[1].StartTime))

	byMovie, err := e.sched.ShowtimesByCineplexAndMovie("cp1", "m1")
	require.NoError(t, err)
	assert.Len(t, byMovie, 3)
}

func TestCreateShowtimeValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateShowtimeInput
		want error
	}{
		{"coming soon movie", CreateShowtimeInput{MovieID: "msoon", CineplexID: "cp1", CinemaID: "c1", StartTime: at(10, 0)}, apperr.ErrInvalidState},
		{"unknown movie", CreateShowtimeInput{MovieID: "nope", CineplexID: "cp1", CinemaID: "c1", StartTime: at(10, 0)}, apperr.ErrNotFound},
		{"unknown cinema", CreateShowtimeInput{MovieID: "m1", CineplexID: "cp1", CinemaID: "zz", StartTime: at(10, 0)}, apperr.ErrNotFound},
		{"cinema of another cineplex", CreateShowtimeInput{MovieID: "m1", CineplexID: "cp1", CinemaID: "n1", StartTime: at(10, 0)}, apperr.ErrInvalidArgument},
		{"start in the past", CreateShowtimeInput{MovieID: "m1", CineplexID: "cp1", CinemaID: "c1", StartTime: at(7, 0)}, apperr.ErrInvalidArgument},
		{"missing start", CreateShowtimeInput{MovieID: "m1", CineplexID: "cp1", CinemaID: "c1"}, apperr.ErrInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.sched.CreateShowtime(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPreviewMovieShowtimeIsPreview(t *testing.T) {
	e := newTestEnv(t)
	st := e.showtime(t, "mprev", "c1", at(10, 0))
	assert.True(t, st.IsPreview)
	assert.Equal(t, at(11, 50), st.EndTime)
}

func TestConcurrentCreatesInOneCinema(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.sched.CreateShowtime(ctx, CreateShowtimeInput{
				MovieID: "m1", CineplexID: "cp1", CinemaID: "c1",
				StartTime: at(10, 0).Add(time.Duration(i) * 10 * time.Minute),
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, apperr.ErrSchedulingConflict)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, ok, "all candidates overlap each other")

	list, err := e.sched.ShowtimesByCineplexAndCinema("cp1", "c1")
	require.NoError(t, err)
	assertNoOverlap(t, list)
}

func assertNoOverlap(t *testing.T, list []*model.Showtime) {
	t.Helper()
	for i := range list {
		for j := i + 1; j < len(list); j++ {
			a, b := list[i], list[j]
			if a.Cancelled || b.Cancelled || a.CinemaID != b.CinemaID {
				continue
			}
			assert.False(t, a.Overlaps(b.StartTime, b.EndTime), "%s overlaps %s", a.ID, b.ID)
		}
	}
}

func TestRescheduleShowtime(t *testing.T) {
	ctx := context.Background()

	t.Run("shifting within its own slot does not self-conflict", func(t *testing.T) {
		e := newTestEnv(t)
		st := e.showtime(t, "m1", "c1", at(10, 0))
		got, err := e.sched.RescheduleShowtime(ctx, st.ID, RescheduleInput{StartTime: at(10, 30)})
		require.NoError(t, err)
		assert.Equal(t, at(12, 40), got.EndTime)
		assert.Contains(t, e.seats.invalidated, st.ID.String())
	})

	t.Run("conflict with another showtime", func(t *testing.T) {
		e := newTestEnv(t)
		st := e.showtime(t, "m1", "c1", at(10, 0))
		e.showtime(t, "m1", "c1", at(14, 0))
		_, err := e.sched.RescheduleShowtime(ctx, st.ID, RescheduleInput{StartTime: at(13, 0)})
		assert.ErrorIs(t, err, apperr.ErrSchedulingConflict)

		after, _ := e.sched.Showtime(st.ID)
		assert.Equal(t, at(10, 0), after.StartTime)
	})

	t.Run("moving cinema resizes seats and reindexes", func(t *testing.T) {
		e := newTestEnv(t)
		st := e.showtime(t, "m1", "c1", at(10, 0))
		lang := []string{"Chinese"}
		got, err := e.sched.RescheduleShowtime(ctx, st.ID, RescheduleInput{CinemaID: "c2", Subtitles: &lang, Language: "French"})
		require.NoError(t, err)
		assert.Equal(t, "c2", got.CinemaID)
		assert.Equal(t, 6, got.Seats.Capacity())
		assert.Equal(t, "French", got.Language)
		assert.Equal(t, []string{"Chinese"}, got.Subtitles)

		c1, _ := e.sched.ShowtimesByCineplexAndCinema("cp1", "c1")
		assert.Empty(t, c1)
		e.showtime(t, "m1", "c1", at(10, 0))
	})

	t.Run("cinema in another cineplex", func(t *testing.T) {
		e := newTestEnv(t)
		st := e.showtime(t, "m1", "c1", at(10, 0))
		_, err := e.sched.RescheduleShowtime(ctx, st.ID, RescheduleInput{CinemaID: "n1"})
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	})

	t.Run("blocked states", func(t *testing.T) {
		e := newTestEnv(t)
		cancelled := e.showtime(t, "m1", "c1", at(10, 0))
		_, err := e.sched.CancelShowtime(ctx, cancelled.ID)
		require.NoError(t, err)
		_, err = e.sched.RescheduleShowtime(ctx, cancelled.ID, RescheduleInput{StartTime: at(15, 0)})
		assert.ErrorIs(t, err, apperr.ErrInvalidState)

		booked := e.showtime(t, "m1", "c2", at(10, 0))
		b := e.readyBooking(t, booked.ID, e.user, "A1")
		_, err = e.wf.ConfirmBooking(ctx, b.ID, e.user)
		require.NoError(t, err)
		_, err = e.sched.RescheduleShowtime(ctx, booked.ID, RescheduleInput{StartTime: at(15, 0)})
		assert.ErrorIs(t, err, apperr.ErrInvalidState)

		late := e.showtime(t, "m1", "n1", at(9, 0))
		e.clock.Set(at(8, 30))
		_, err = e.sched.RescheduleShowtime(ctx, late.ID, RescheduleInput{StartTime: at(16, 0)})
		assert.ErrorIs(t, err, apperr.ErrInvalidState, "cutoff is inclusive")
	})

	t.Run("started showtime is closed even without a new start", func(t *testing.T) {
		e := newTestEnv(t)
		st := e.showtime(t, "m1", "c1", at(10, 0))
		e.clock.Set(at(10, 30))
		_, err := e.sched.RescheduleShowtime(ctx, st.ID, RescheduleInput{Language: "French"})
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("moving an open showtime into the past", func(t *testing.T) {
		e := newTestEnv(t)
		st := e.showtime(t, "m1", "c1", at(10, 0))
		_, err := e.sched.RescheduleShowtime(ctx, st.ID, RescheduleInput{StartTime: at(7, 0)})
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	})

	t.Run("unknown showtime", func(t *testing.T) {
		e := newTestEnv(t)
		_, err := e.sched.RescheduleShowtime(ctx, uuid.New(), RescheduleInput{StartTime: at(15, 0)})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestCancelShowtimeWithConfirmedBookingFails(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	st := e.showtime(t, "m1", "c1", at(10, 0))
	b := e.readyBooking(t, st.ID, e.user, "A1", "A2")
	_, err := e.wf.ConfirmBooking(ctx, b.ID, e.user)
	require.NoError(t, err)

	_, err = e.sched.CancelShowtime(ctx, st.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	after, err := e.sched.Showtime(st.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ShowtimeOpen, e.sched.Status(after))
	assert.Empty(t, e.events.cancelled)
}

func TestCancelShowtimeCascadesToOpenBookings(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	st := e.showtime(t, "m1", "c1", at(10, 0))

	b1, err := e.wf.CreateBooking(ctx, st.ID, e.user)
	require.NoError(t, err)
	b2 := e.readyBooking(t, st.ID, uuid.New(), "A3")
	b3, err := e.wf.CreateBooking(ctx, st.ID, uuid.New())
	require.NoError(t, err)
	_, err = e.wf.CancelBooking(ctx, b3.ID)
	require.NoError(t, err)

	got, err := e.sched.CancelShowtime(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, got.Cancelled)
	assert.Equal(t, model.ShowtimeCancelled, e.sched.Status(got))

	for _, id := range []uuid.UUID{b1.ID, b2.ID, b3.ID} {
		b, err := e.wf.Booking(id)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCancelled, b.Status)
	}
	require.Len(t, e.events.cancelled, 1)
	assert.ElementsMatch(t, []string{b1.ID.String(), b2.ID.String()}, e.events.cancelled[0].CancelledBookings)
	assert.Equal(t, 4, got.Seats.AvailableCount(), "open bookings never held seats")

	_, err = e.sched.CancelShowtime(ctx, st.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState, "cancelled is terminal")
	_, err = e.wf.CreateBooking(ctx, st.ID, e.user)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	// a cancelled showtime frees its slot
	e.showtime(t, "m1", "c1", at(10, 0))
}

func TestCancelShowtimePastCutoff(t *testing.T) {
	e := newTestEnv(t)
	st := e.showtime(t, "m1", "c1", at(10, 0))
	e.clock.Set(at(9, 45))
	_, err := e.sched.CancelShowtime(context.Background(), st.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestAvailableTicketTypesPeakIsExclusive(t *testing.T) {
	e := newTestEnv(t)
	cases := []struct {
		cinema string
		start  time.Time
		want   []model.TicketType
	}{
		{"c1", at(10, 0), []model.TicketType{model.TicketStandard, model.TicketStudent, model.TicketSenior}},
		{"c1", at(19, 0), []model.TicketType{model.TicketPeak}},
		{"c2", at(10, 0), []model.TicketType{model.TicketStandard}},
		{"c2", at(19, 0), []model.TicketType{model.TicketPeak}},
	}
	for _, tc := range cases {
		st := e.showtime(t, "m1", tc.cinema, tc.start)
		got, err := e.sched.AvailableTicketTypes(st.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s at %s", tc.cinema, tc.start.Format("15:04"))
		if len(got) > 1 {
			assert.NotContains(t, got, model.TicketPeak)
		}
	}

	_, err := e.sched.AvailableTicketTypes(uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSeatMapUsesCache(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	st := e.showtime(t, "m1", "c1", at(10, 0))

	seats, err := e.sched.SeatMap(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, seats, 4)
	assert.Contains(t, e.seats.entries, st.ID.String())

	b := e.readyBooking(t, st.ID, e.user, "A2")
	_, err = e.wf.ConfirmBooking(ctx, b.ID, e.user)
	require.NoError(t, err)
	assert.NotContains(t, e.seats.entries, st.ID.String(), "confirmation invalidates the snapshot")

	seats, err = e.sched.SeatMap(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SeatTaken, seats[1].Status)

	_, err = e.sched.SeatMap(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestQueriesValidateScope(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.sched.ShowtimesByCineplexAndMovie("nope", "m1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.sched.ShowtimesByCineplexAndCinema("cp1", "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	list, err := e.sched.ShowtimesByCineplexAndMovie("cp2", "m1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
