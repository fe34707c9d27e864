package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
	"github.com/iliyamo/cineplex-booking/internal/model"
)

// Store is the process-wide registry of catalog data, showtimes, bookings
// and user histories. It is created once by the composition root and
// handed to every component. Reads return clones; writes go through
// Update, which stages changes and applies them all at once.
type Store struct {
	mu sync.RWMutex

	movies     map[string]model.Movie
	cineplexes map[string]model.Cineplex
	cinemas    map[string]model.Cinema

	showtimes map[uuid.UUID]*model.Showtime
	bookings  map[uuid.UUID]*model.Booking
	users     map[uuid.UUID]*model.User

	byMovie    map[string][]uuid.UUID
	byCinema   map[string][]uuid.UUID
	byShowtime map[uuid.UUID][]uuid.UUID // bookings per showtime
}

func NewStore() *Store {
	return &Store{
		movies:     map[string]model.Movie{},
		cineplexes: map[string]model.Cineplex{},
		cinemas:    map[string]model.Cinema{},
		showtimes:  map[uuid.UUID]*model.Showtime{},
		bookings:   map[uuid.UUID]*model.Booking{},
		users:      map[uuid.UUID]*model.User{},
		byMovie:    map[string][]uuid.UUID{},
		byCinema:   map[string][]uuid.UUID{},
		byShowtime: map[uuid.UUID][]uuid.UUID{},
	}
}

// ---- catalog ----

func (s *Store) PutMovie(m model.Movie) error {
	if m.ID == "" || m.RuntimeMinutes <= 0 || !m.Format.Valid() {
		return apperr.InvalidArgument("putMovie", "movie %q needs an id, a positive runtime and a known format", m.ID)
	}
	s.mu.Lock()
	s.movies[m.ID] = m
	s.mu.Unlock()
	return nil
}

func (s *Store) PutCineplex(c model.Cineplex) error {
	if c.ID == "" {
		return apperr.InvalidArgument("putCineplex", "cineplex id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.cineplexes[c.ID]; ok && len(c.CinemaIDs) == 0 {
		c.CinemaIDs = old.CinemaIDs
	}
	c.CinemaIDs = append([]string(nil), c.CinemaIDs...)
	s.cineplexes[c.ID] = c
	return nil
}

// PutCinema registers a cinema and links it to its cineplex, which must
// already exist.
func (s *Store) PutCinema(c model.Cinema) error {
	if c.ID == "" || c.Rows <= 0 || c.Columns <= 0 || !c.Class.Valid() {
		return apperr.InvalidArgument("putCinema", "cinema %q needs an id, a positive layout and a known class", c.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.cineplexes[c.CineplexID]
	if !ok {
		return apperr.NotFound("putCinema", "cineplex %q not found", c.CineplexID)
	}
	if !containsString(cp.CinemaIDs, c.ID) {
		cp.CinemaIDs = append(cp.CinemaIDs, c.ID)
		s.cineplexes[cp.ID] = cp
	}
	s.cinemas[c.ID] = c
	return nil
}

func (s *Store) Movie(id string) (model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movies[id]
	if !ok {
		return model.Movie{}, apperr.NotFound("movie", "movie %q not found", id)
	}
	return m, nil
}

func (s *Store) Cineplex(id string) (model.Cineplex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cineplexes[id]
	if !ok {
		return model.Cineplex{}, apperr.NotFound("cineplex", "cineplex %q not found", id)
	}
	return c, nil
}

func (s *Store) Cinema(id string) (model.Cinema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cinemaLocked(id)
}

func (s *Store) cinemaLocked(id string) (model.Cinema, error) {
	c, ok := s.cinemas[id]
	if !ok {
		return model.Cinema{}, apperr.NotFound("cinema", "cinema %q not found", id)
	}
	return c, nil
}

// ---- reads ----

func (s *Store) Showtime(id uuid.UUID) (*model.Showtime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.showtimes[id]
	if !ok {
		return nil, apperr.NotFound("showtime", "showtime %s not found", id)
	}
	return st.Clone(), nil
}

func (s *Store) Booking(id uuid.UUID) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking", "booking %s not found", id)
	}
	return b.Clone(), nil
}

// ShowtimesByCineplexAndMovie lists showtimes ordered by start time.
func (s *Store) ShowtimesByCineplexAndMovie(cineplexID, movieID string) []*model.Showtime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byMovie[movieID], func(st *model.Showtime) bool { return st.CineplexID == cineplexID })
}

func (s *Store) ShowtimesByCineplexAndCinema(cineplexID, cinemaID string) []*model.Showtime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byCinema[cinemaID], func(st *model.Showtime) bool { return st.CineplexID == cineplexID })
}

func (s *Store) collect(ids []uuid.UUID, keep func(*model.Showtime) bool) []*model.Showtime {
	out := make([]*model.Showtime, 0, len(ids))
	for _, id := range ids {
		if st := s.showtimes[id]; st != nil && keep(st) {
			out = append(out, st.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// UserBookings returns the user's confirmed bookings in confirmation order.
func (s *Store) UserBookings(userID uuid.UUID) []*model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	out := make([]*model.Booking, 0, len(u.Bookings))
	for _, id := range u.Bookings {
		if b := s.bookings[id]; b != nil {
			out = append(out, b.Clone())
		}
	}
	return out
}

// ---- unit of work ----

// Update runs fn against a transaction holding staged clones. If fn
// returns an error nothing is applied; otherwise every staged entity is
// written back and the secondary indexes are refreshed.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.newTx()
	if err := fn(tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

// Stage runs fn like Update but only under the read lock, and returns the
// staged changes instead of applying them. Nothing is visible until
// Commit. The caller must hold the entity locks covering every showtime
// and booking fn touches from Stage until Commit.
func (s *Store) Stage(fn func(tx *Tx) error) (*Tx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx := s.newTx()
	if err := fn(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Commit applies a transaction returned by Stage.
func (s *Store) Commit(tx *Tx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.apply()
}

func (s *Store) newTx() *Tx {
	return &Tx{
		s:         s,
		showtimes: map[uuid.UUID]*model.Showtime{},
		bookings:  map[uuid.UUID]*model.Booking{},
		history:   map[uuid.UUID][]uuid.UUID{},
		created:   map[uuid.UUID]bool{},
	}
}

// Tx is a staged view of the store. Entities fetched through it are
// private copies until the enclosing Update returns nil.
type Tx struct {
	s         *Store
	showtimes map[uuid.UUID]*model.Showtime
	bookings  map[uuid.UUID]*model.Booking
	history   map[uuid.UUID][]uuid.UUID // bookings appended per user
	created   map[uuid.UUID]bool
	order     []uuid.UUID // creation order of new entities
}

func (tx *Tx) Movie(id string) (model.Movie, error) {
	m, ok := tx.s.movies[id]
	if !ok {
		return model.Movie{}, apperr.NotFound("movie", "movie %q not found", id)
	}
	return m, nil
}

func (tx *Tx) Cinema(id string) (model.Cinema, error) { return tx.s.cinemaLocked(id) }

// Showtime returns the staged copy of a showtime, cloning it on first use.
func (tx *Tx) Showtime(id uuid.UUID) (*model.Showtime, error) {
	if st, ok := tx.showtimes[id]; ok {
		return st, nil
	}
	st, ok := tx.s.showtimes[id]
	if !ok {
		return nil, apperr.NotFound("showtime", "showtime %s not found", id)
	}
	cp := st.Clone()
	tx.showtimes[id] = cp
	return cp, nil
}

func (tx *Tx) Booking(id uuid.UUID) (*model.Booking, error) {
	if b, ok := tx.bookings[id]; ok {
		return b, nil
	}
	b, ok := tx.s.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking", "booking %s not found", id)
	}
	cp := b.Clone()
	tx.bookings[id] = cp
	return cp, nil
}

// AddUserBooking appends bookingID to the user's history on apply. Users
// are shared across showtimes, so the history is recorded as an append
// rather than a staged copy.
func (tx *Tx) AddUserBooking(userID, bookingID uuid.UUID) {
	tx.history[userID] = append(tx.history[userID], bookingID)
}

func (tx *Tx) InsertShowtime(st *model.Showtime) {
	tx.showtimes[st.ID] = st
	tx.created[st.ID] = true
	tx.order = append(tx.order, st.ID)
}

func (tx *Tx) InsertBooking(b *model.Booking) {
	tx.bookings[b.ID] = b
	tx.created[b.ID] = true
	tx.order = append(tx.order, b.ID)
}

// FindOverlapping returns the first non-cancelled showtime in cinemaID
// whose interval intersects [start, end), ignoring exclude. Staged
// showtimes take precedence over committed ones.
func (tx *Tx) FindOverlapping(cinemaID string, start, end time.Time, exclude uuid.UUID) (*model.Showtime, bool) {
	check := func(st *model.Showtime) bool {
		return st.ID != exclude && st.CinemaID == cinemaID && !st.Cancelled && st.Overlaps(start, end)
	}
	for _, id := range tx.s.byCinema[cinemaID] {
		st := tx.s.showtimes[id]
		if staged, ok := tx.showtimes[id]; ok {
			st = staged
		}
		if st != nil && check(st) {
			return st, true
		}
	}
	for _, st := range tx.showtimes {
		if check(st) {
			return st, true
		}
	}
	return nil, false
}

// BookingsForShowtime returns staged copies of every booking on the showtime.
func (tx *Tx) BookingsForShowtime(showtimeID uuid.UUID) ([]*model.Booking, error) {
	ids := append([]uuid.UUID(nil), tx.s.byShowtime[showtimeID]...)
	for _, id := range tx.order {
		if b, ok := tx.bookings[id]; ok && b.ShowtimeID == showtimeID {
			ids = append(ids, id)
		}
	}
	out := make([]*model.Booking, 0, len(ids))
	for _, id := range ids {
		b, err := tx.Booking(id)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (tx *Tx) apply() {
	s := tx.s
	for id, st := range tx.showtimes {
		old, existed := s.showtimes[id]
		s.showtimes[id] = st
		if !existed {
			continue
		}
		if old.CinemaID != st.CinemaID {
			s.byCinema[old.CinemaID] = removeID(s.byCinema[old.CinemaID], id)
			s.byCinema[st.CinemaID] = append(s.byCinema[st.CinemaID], id)
		}
	}
	for id, b := range tx.bookings {
		s.bookings[id] = b
	}
	for id, added := range tx.history {
		u, ok := s.users[id]
		if !ok {
			u = &model.User{ID: id}
			s.users[id] = u
		}
		for _, b := range added {
			u.AddBooking(b)
		}
	}
	for _, id := range tx.order {
		if st, ok := tx.showtimes[id]; ok {
			s.byMovie[st.MovieID] = append(s.byMovie[st.MovieID], id)
			s.byCinema[st.CinemaID] = append(s.byCinema[st.CinemaID], id)
			continue
		}
		if b, ok := tx.bookings[id]; ok {
			s.byShowtime[b.ShowtimeID] = append(s.byShowtime[b.ShowtimeID], id)
		}
	}
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
