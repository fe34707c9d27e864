package model

// SeatStatus is the occupancy of one seat for one showtime.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatTaken     SeatStatus = "TAKEN"
)

// Layout is the physical seat grid of a cinema.
type Layout struct {
	Rows    int
	Columns int
	Aisles  []int
}

// SeatState is one entry of a seating map snapshot.
type SeatState struct {
	Seat   SeatID     `json:"seat"`
	Status SeatStatus `json:"status"`
}

// SeatingMap tracks seat occupancy for a single showtime. A seat is TAKEN
// exactly when a confirmed booking of that showtime holds it. The map is
// not safe for concurrent use; the store hands out clones and applies
// changes under its own lock.
type SeatingMap struct {
	status map[SeatID]SeatStatus
}

// NewSeatingMap allocates a map for the layout with every seat AVAILABLE.
func NewSeatingMap(l Layout) *SeatingMap {
	aisle := make(map[int]bool, len(l.Aisles))
	for _, c := range l.Aisles {
		aisle[c] = true
	}
	m := &SeatingMap{status: make(map[SeatID]SeatStatus, l.Rows*l.Columns)}
	for r := 0; r < l.Rows; r++ {
		for c := 1; c <= l.Columns; c++ {
			if aisle[c] {
				continue
			}
			m.status[SeatID{Row: r, Col: c}] = SeatAvailable
		}
	}
	return m
}

// IsAvailable fails with NotFound for seats outside the layout.
func (m *SeatingMap) IsAvailable(s SeatID) (bool, error) {
	st, ok := m.status[s]
	if !ok {
		return false, seatErr("isAvailable", s)
	}
	return st == SeatAvailable, nil
}

// SetStatus changes one seat. Only the booking workflow calls it, while
// confirming a booking.
func (m *SeatingMap) SetStatus(s SeatID, status SeatStatus) error {
	if _, ok := m.status[s]; !ok {
		return seatErr("setStatus", s)
	}
	m.status[s] = status
	return nil
}

func (m *SeatingMap) Capacity() int { return len(m.status) }

func (m *SeatingMap) AvailableCount() int {
	n := 0
	for _, st := range m.status {
		if st == SeatAvailable {
			n++
		}
	}
	return n
}

// Snapshot lists every seat in row then column order.
func (m *SeatingMap) Snapshot() []SeatState {
	seats := make([]SeatID, 0, len(m.status))
	for s := range m.status {
		seats = append(seats, s)
	}
	SortSeats(seats)
	out := make([]SeatState, len(seats))
	for i, s := range seats {
		out[i] = SeatState{Seat: s, Status: m.status[s]}
	}
	return out
}

func (m *SeatingMap) Clone() *SeatingMap {
	if m == nil {
		return nil
	}
	cp := &SeatingMap{status: make(map[SeatID]SeatStatus, len(m.status))}
	for k, v := range m.status {
		cp.status[k] = v
	}
	return cp
}
