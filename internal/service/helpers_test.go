package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cineplex-booking/internal/lock"
	"github.com/iliyamo/cineplex-booking/internal/model"
	"github.com/iliyamo/cineplex-booking/internal/pricing"
	"github.com/iliyamo/cineplex-booking/internal/queue"
	"github.com/iliyamo/cineplex-booking/internal/repository"
)

// Monday 2 March 2026, 08:00 UTC.
var baseNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type eveningPeak struct{}

func (eveningPeak) IsPeak(t time.Time) bool { return t.Hour() >= 18 }

type recordingEvents struct {
	mu        sync.Mutex
	confirmed []queue.BookingConfirmedEvent
	cancelled []queue.ShowtimeCancelledEvent
	err       error
}

func (r *recordingEvents) BookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmed = append(r.confirmed, ev)
	return r.err
}

func (r *recordingEvents) ShowtimeCancelled(_ context.Context, ev queue.ShowtimeCancelledEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, ev)
	return r.err
}

type fakeArchive struct {
	mu    sync.Mutex
	saved []repository.ArchivedBooking
	err   error

	// when set, SaveConfirmed signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (a *fakeArchive) SaveConfirmed(_ context.Context, rec repository.ArchivedBooking) error {
	if a.entered != nil {
		a.entered <- struct{}{}
		<-a.release
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.saved = append(a.saved, rec)
	return nil
}

type fakeSeatCache struct {
	mu          sync.Mutex
	entries     map[string][]model.SeatState
	invalidated []string
}

func (c *fakeSeatCache) Get(_ context.Context, id string) ([]model.SeatState, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[id]
	return s, ok, nil
}

func (c *fakeSeatCache) Set(_ context.Context, id string, seats []model.SeatState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string][]model.SeatState{}
	}
	c.entries[id] = seats
	return nil
}

func (c *fakeSeatCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type testEnv struct {
	store   *repository.Store
	sched   *Scheduler
	wf      *Workflow
	clock   *fakeClock
	events  *recordingEvents
	archive *fakeArchive
	seats   *fakeSeatCache
	user    uuid.UUID
}

var testCatalog = repository.Catalog{
	Movies: []model.Movie{
		{ID: "m1", Title: "The Long Take", RuntimeMinutes: 120, Status: model.MovieNowShowing, Format: model.Format2D},
		{ID: "m3d", Title: "Depth", RuntimeMinutes: 90, Status: model.MovieNowShowing, Format: model.Format3D},
		{ID: "mprev", Title: "Sneak", RuntimeMinutes: 100, Status: model.MoviePreview, Format: model.Format2D},
		{ID: "msoon", Title: "Later", RuntimeMinutes: 100, Status: model.MovieComingSoon, Format: model.Format2D},
	},
	Cineplexes: []model.Cineplex{{ID: "cp1", Name: "Central"}, {ID: "cp2", Name: "North"}},
	Cinemas: []model.Cinema{
		{ID: "c1", CineplexID: "cp1", Code: "CE1", Class: model.ClassStandard, Rows: 1, Columns: 4},
		{ID: "c2", CineplexID: "cp1", Code: "CE2", Class: model.ClassGold, Rows: 2, Columns: 3},
		{ID: "n1", CineplexID: "cp2", Code: "NO1", Class: model.ClassStandard, Rows: 3, Columns: 3},
	},
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewStore()
	require.NoError(t, testCatalog.Apply(store))

	e := &testEnv{
		store:   store,
		clock:   &fakeClock{t: baseNow},
		events:  &recordingEvents{},
		archive: &fakeArchive{},
		seats:   &fakeSeatCache{},
		user:    uuid.New(),
	}
	e.sched, e.wf = New(Config{Buffer: 10 * time.Minute, Cutoff: 30 * time.Minute, MaxSeatsPerBooking: 6}, Deps{
		Store:   store,
		Locker:  lock.NewLocalLocker(),
		Pricing: pricing.NewEngine(pricing.DefaultTable(100), 0.07),
		Peak:    eveningPeak{},
		Clock:   e.clock,
		Events:  e.events,
		Seats:   e.seats,
		Archive: e.archive,
	})
	return e
}

func (e *testEnv) showtime(t *testing.T, movie, cinema string, start time.Time) *model.Showtime {
	t.Helper()
	c, err := e.store.Cinema(cinema)
	require.NoError(t, err)
	st, err := e.sched.CreateShowtime(context.Background(), CreateShowtimeInput{
		MovieID:    movie,
		CineplexID: c.CineplexID,
		CinemaID:   cinema,
		Language:   "English",
		StartTime:  start,
	})
	require.NoError(t, err)
	return st
}

// readyBooking returns an IN_PROGRESS booking with standard tickets,
// the given seats and an accepted payment.
func (e *testEnv) readyBooking(t *testing.T, showtimeID, user uuid.UUID, seats ...string) *model.Booking {
	t.Helper()
	ctx := context.Background()
	b, err := e.wf.CreateBooking(ctx, showtimeID, user)
	require.NoError(t, err)
	_, err = e.wf.SelectTicketTypes(ctx, b.ID, map[model.TicketType]int{model.TicketStandard: len(seats)})
	require.NoError(t, err)
	_, err = e.wf.SelectSeats(ctx, b.ID, seatIDs(t, seats...))
	require.NoError(t, err)
	b, err = e.wf.AttachPayment(ctx, b.ID, model.PaymentAccepted)
	require.NoError(t, err)
	return b
}

func seatIDs(t *testing.T, labels ...string) []model.SeatID {
	t.Helper()
	out := make([]model.SeatID, len(labels))
	for i, l := range labels {
		id, err := model.ParseSeatID(l)
		require.NoError(t, err)
		out[i] = id
	}
	return out
}

var errArchiveDown = errors.New("archive down")
