package model

// TicketType is a priced ticket category. Base prices live in the pricing
// table; the type itself only names the category.
type TicketType string

const (
	TicketStandard TicketType = "STANDARD"
	TicketStudent  TicketType = "STUDENT"
	TicketSenior   TicketType = "SENIOR"
	TicketPeak     TicketType = "PEAK"
)

// Valid reports whether t is a known ticket type.
func (t TicketType) Valid() bool {
	switch t {
	case TicketStandard, TicketStudent, TicketSenior, TicketPeak:
		return true
	}
	return false
}

// CinemaClass grades a cinema hall. The class decides which ticket types
// the hall sells and adds a per-ticket surcharge.
type CinemaClass string

const (
	ClassStandard CinemaClass = "STANDARD"
	ClassPlatinum CinemaClass = "PLATINUM"
	ClassGold     CinemaClass = "GOLD"
)

// TicketTypes returns the ticket catalogue sold in a cinema of class c.
// Concession tickets are only sold in standard halls.
func (c CinemaClass) TicketTypes() []TicketType {
	switch c {
	case ClassStandard:
		return []TicketType{TicketStandard, TicketStudent, TicketSenior, TicketPeak}
	case ClassPlatinum, ClassGold:
		return []TicketType{TicketStandard, TicketPeak}
	}
	return nil
}

func (c CinemaClass) Valid() bool { return c.TicketTypes() != nil }

// MovieFormat is the projection format of a movie.
type MovieFormat string

const (
	Format2D          MovieFormat = "TWO_D"
	Format3D          MovieFormat = "THREE_D"
	FormatBlockbuster MovieFormat = "BLOCKBUSTER"
)

func (f MovieFormat) Valid() bool {
	switch f {
	case Format2D, Format3D, FormatBlockbuster:
		return true
	}
	return false
}

// MovieStatus is the catalog status of a movie.
type MovieStatus string

const (
	MovieComingSoon   MovieStatus = "COMING_SOON"
	MoviePreview      MovieStatus = "PREVIEW"
	MovieNowShowing   MovieStatus = "NOW_SHOWING"
	MovieEndOfShowing MovieStatus = "END_OF_SHOWING"
)

// Schedulable reports whether showtimes may be created for the movie.
func (s MovieStatus) Schedulable() bool {
	return s == MoviePreview || s == MovieNowShowing
}

// PaymentStatus is the outcome reported by the external payment collaborator.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentAccepted PaymentStatus = "ACCEPTED"
	PaymentRejected PaymentStatus = "REJECTED"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentAccepted, PaymentRejected:
		return true
	}
	return false
}
