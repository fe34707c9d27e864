package model

// Movie is the slice of catalog data the scheduler needs.
//
// Fields:
//  ID             – catalog identifier.
//  Title          – display title.
//  RuntimeMinutes – running time without the cleaning buffer.
//  Status         – catalog status; only PREVIEW and NOW_SHOWING can be scheduled.
//  Format         – projection format, priced per ticket.
type Movie struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	RuntimeMinutes int         `json:"runtime_minutes"`
	Status         MovieStatus `json:"status"`
	Format         MovieFormat `json:"format"`
}

// Cineplex groups cinemas at one site. Overlap checks are scoped to a
// single cinema, never to the whole cineplex.
type Cineplex struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CinemaIDs []string `json:"cinema_ids"`
}

// Cinema is a physical hall inside a cineplex.
//
// Fields:
//  ID         – catalog identifier.
//  CineplexID – owning cineplex.
//  Code       – short code printed in transaction codes (e.g. "AB1").
//  Class      – cinema class, drives ticket catalogue and surcharge.
//  Rows       – number of seat rows, labelled A, B, ... from the screen.
//  Columns    – seats per row, numbered from 1.
//  Aisles     – column numbers that are walkways rather than seats.
type Cinema struct {
	ID         string      `json:"id"`
	CineplexID string      `json:"cineplex_id"`
	Code       string      `json:"code"`
	Class      CinemaClass `json:"class"`
	Rows       int         `json:"rows"`
	Columns    int         `json:"columns"`
	Aisles     []int       `json:"aisles,omitempty"`
}

// Layout returns the seat layout used to size a showtime's seating map.
func (c Cinema) Layout() Layout {
	return Layout{Rows: c.Rows, Columns: c.Columns, Aisles: append([]int(nil), c.Aisles...)}
}
