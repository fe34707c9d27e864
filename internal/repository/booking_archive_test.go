package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
)

func newArchiveMock(t *testing.T) (*BookingArchive, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookingArchive(db), mock
}

func sampleArchived() ArchivedBooking {
	return ArchivedBooking{
		BookingID:       "b-1",
		UserID:          "u-1",
		ShowtimeID:      "s-1",
		CinemaID:        "c-jw1",
		TransactionCode: "JW1202603021000",
		AmountCents:     4387,
		SeatLabels:      []string{"A1", "A2"},
		ConfirmedAt:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestSaveConfirmed(t *testing.T) {
	archive, mock := newArchiveMock(t)
	rec := sampleArchived()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO confirmed_bookings").
		WithArgs(rec.BookingID, rec.UserID, rec.ShowtimeID, rec.CinemaID, rec.TransactionCode, rec.AmountCents, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO confirmed_booking_seats").
		WithArgs("b-1", "s-1", "A1", "b-1", "s-1", "A2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, archive.SaveConfirmed(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveConfirmedRollsBack(t *testing.T) {
	t.Run("duplicate seat is a scheduling conflict", func(t *testing.T) {
		archive, mock := newArchiveMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO confirmed_bookings").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO confirmed_booking_seats").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
		mock.ExpectRollback()

		err := archive.SaveConfirmed(context.Background(), sampleArchived())
		assert.ErrorIs(t, err, apperr.ErrSchedulingConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		archive, mock := newArchiveMock(t)
		boom := errors.New("connection reset")
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO confirmed_bookings").WillReturnError(boom)
		mock.ExpectRollback()

		err := archive.SaveConfirmed(context.Background(), sampleArchived())
		assert.ErrorIs(t, err, boom)
		_, isKind := apperr.KindOf(err)
		assert.False(t, isKind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	archive, mock := newArchiveMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS confirmed_bookings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS confirmed_booking_seats").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, archive.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
