package model

import "github.com/google/uuid"

// User is the account side of a booking: the history of bookings the user
// has confirmed. Identity and credentials belong to the auth provider that
// issues the JWT; only the subject id is kept here.
type User struct {
	ID       uuid.UUID   `json:"id"`
	Bookings []uuid.UUID `json:"bookings"`
}

// AddBooking appends a confirmed booking to the user's history.
func (u *User) AddBooking(id uuid.UUID) {
	u.Bookings = append(u.Bookings, id)
}
