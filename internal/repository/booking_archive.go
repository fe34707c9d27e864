package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
)

// BookingArchive writes confirmed bookings to MySQL. The in-memory store
// stays the source of truth; the archive is the durable record used by
// reporting and settlement. A duplicate (showtime, seat) row is rejected
// by the unique key and surfaces as a scheduling conflict.
type BookingArchive struct {
	db *sql.DB
}

func NewBookingArchive(db *sql.DB) *BookingArchive { return &BookingArchive{db: db} }

// ArchivedBooking mirrors the confirmed_bookings table plus its seats.
type ArchivedBooking struct {
	BookingID       string
	UserID          string
	ShowtimeID      string
	CinemaID        string
	TransactionCode string
	AmountCents     int64
	SeatLabels      []string
	ConfirmedAt     time.Time
}

const schemaBookings = `CREATE TABLE IF NOT EXISTS confirmed_bookings (
  booking_id CHAR(36) NOT NULL PRIMARY KEY,
  user_id CHAR(36) NOT NULL,
  showtime_id CHAR(36) NOT NULL,
  cinema_id VARCHAR(64) NOT NULL,
  transaction_code VARCHAR(32) NOT NULL,
  amount_cents BIGINT NOT NULL,
  confirmed_at DATETIME NOT NULL,
  KEY idx_confirmed_bookings_user (user_id)
)`

const schemaSeats = `CREATE TABLE IF NOT EXISTS confirmed_booking_seats (
  booking_id CHAR(36) NOT NULL,
  showtime_id CHAR(36) NOT NULL,
  seat_label VARCHAR(8) NOT NULL,
  PRIMARY KEY (booking_id, seat_label),
  UNIQUE KEY uq_showtime_seat (showtime_id, seat_label)
)`

// EnsureSchema creates the archive tables if they are missing.
func (a *BookingArchive) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{schemaBookings, schemaSeats} {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure archive schema: %w", err)
		}
	}
	return nil
}

// SaveConfirmed inserts the booking and its seats in one transaction.
func (a *BookingArchive) SaveConfirmed(ctx context.Context, rec ArchivedBooking) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO confirmed_bookings (booking_id, user_id, showtime_id, cinema_id, transaction_code, amount_cents, confirmed_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, rec.BookingID, rec.UserID, rec.ShowtimeID, rec.CinemaID,
		rec.TransactionCode, rec.AmountCents, rec.ConfirmedAt.UTC()); err != nil {
		return archiveErr("insert booking", err)
	}
	if err := insertSeatsTx(ctx, tx, rec); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive commit: %w", err)
	}
	committed = true
	return nil
}

func insertSeatsTx(ctx context.Context, tx *sql.Tx, rec ArchivedBooking) error {
	if len(rec.SeatLabels) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO confirmed_booking_seats (booking_id, showtime_id, seat_label) VALUES `)
	args := make([]any, 0, len(rec.SeatLabels)*3)
	for i, label := range rec.SeatLabels {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, rec.BookingID, rec.ShowtimeID, label)
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return archiveErr("insert seats", err)
	}
	return nil
}

// mysql error 1062 is ER_DUP_ENTRY
func archiveErr(step string, err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return apperr.SchedulingConflict("archive", "%s: duplicate entry", step)
	}
	return fmt.Errorf("archive %s: %w", step, err)
}
